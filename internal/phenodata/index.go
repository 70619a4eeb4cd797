package phenodata

import (
	"cmp"
	"slices"

	"github.com/kamusis/phenopick/internal/obograph"
)

// Phenotype is a phenotype term paired with its usage score. The score is
// computed once when the bundle is built.
type Phenotype struct {
	Node  *obograph.Node
	Usage int
}

// URI returns the term URI.
func (p Phenotype) URI() string { return p.Node.URI }

// Label returns the display label of the term.
func (p Phenotype) Label() string { return p.Node.DisplayLabel() }

// Index maps anatomy term URIs to the phenotypes associated with them, most
// used first.
type Index struct {
	buckets map[string][]Phenotype
	order   []string
}

// BuildIndex groups phenotypes by the object of their associatedWith edges.
// A phenotype is listed at most once per anatomy term. Buckets are sorted by
// descending usage; ties keep the order of phenotypes.
func BuildIndex(phenotypes []Phenotype, associatedWith string) *Index {
	idx := &Index{buckets: make(map[string][]Phenotype)}
	for _, p := range phenotypes {
		var seen map[string]bool
		for _, e := range p.Node.Edges {
			if e.Pred != associatedWith {
				continue
			}
			// repeated edges to one anatomy term list the phenotype once
			if seen[e.Obj] {
				continue
			}
			if seen == nil {
				seen = make(map[string]bool)
			}
			seen[e.Obj] = true
			if _, ok := idx.buckets[e.Obj]; !ok {
				idx.order = append(idx.order, e.Obj)
			}
			idx.buckets[e.Obj] = append(idx.buckets[e.Obj], p)
		}
	}
	for _, bucket := range idx.buckets {
		slices.SortStableFunc(bucket, func(a, b Phenotype) int {
			return cmp.Compare(b.Usage, a.Usage)
		})
	}
	return idx
}

// Lookup returns a copy of the phenotypes associated with anatomyURI. Unknown
// URIs yield an empty list.
func (x *Index) Lookup(anatomyURI string) []Phenotype {
	return slices.Clone(x.buckets[anatomyURI])
}

// Count returns the number of phenotypes associated with anatomyURI.
func (x *Index) Count(anatomyURI string) int { return len(x.buckets[anatomyURI]) }

// Len returns the number of anatomy terms with at least one phenotype.
func (x *Index) Len() int { return len(x.order) }

// Anatomies returns the indexed anatomy URIs in first-seen order.
func (x *Index) Anatomies() []string { return slices.Clone(x.order) }
