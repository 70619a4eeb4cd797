package phenodata

import (
	"time"

	"github.com/kamusis/phenopick/internal/obograph"
)

// Bundle is the result of one load. It is never modified after the cache
// publishes it and may be shared freely.
type Bundle struct {
	Anatomy   *obograph.Hierarchy
	Phenotype *obograph.Hierarchy
	// Phenotypes lists every descendant of the phenotype root in discovery
	// order.
	Phenotypes []Phenotype
	Index      *Index
	LoadedAt   time.Time
	Generation uint64

	byURI map[string]Phenotype
}

func newBundle(anatomy, phenotype *obograph.Hierarchy, scored []Phenotype, idx *Index) *Bundle {
	b := &Bundle{
		Anatomy:    anatomy,
		Phenotype:  phenotype,
		Phenotypes: scored,
		Index:      idx,
		LoadedAt:   time.Now(),
		byURI:      make(map[string]Phenotype, len(scored)),
	}
	for _, p := range scored {
		b.byURI[p.Node.URI] = p
	}
	return b
}

// Score returns the usage score of a phenotype term, or 0 for unknown URIs.
func (b *Bundle) Score(uri string) int { return b.byURI[uri].Usage }

// PhenotypeByURI returns the scored phenotype term for uri.
func (b *Bundle) PhenotypeByURI(uri string) (Phenotype, bool) {
	p, ok := b.byURI[uri]
	return p, ok
}

// PhenotypesFor returns the phenotypes associated with an anatomy term.
func (b *Bundle) PhenotypesFor(anatomyURI string) []Phenotype {
	return b.Index.Lookup(anatomyURI)
}
