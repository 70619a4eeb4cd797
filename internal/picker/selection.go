package picker

import (
	"slices"

	"github.com/kamusis/phenopick/internal/phenodata"
)

// Selection is an ordered list of phenotypes without duplicate URIs.
type Selection struct {
	items []phenodata.Phenotype
}

// Add appends p unless its URI is already present. It reports whether the
// selection changed.
func (s *Selection) Add(p phenodata.Phenotype) bool {
	if s.Contains(p.URI()) {
		return false
	}
	s.items = append(s.items, p)
	return true
}

// Remove drops the phenotype with the given URI, keeping the order of the rest.
func (s *Selection) Remove(uri string) bool {
	i := s.indexOf(uri)
	if i < 0 {
		return false
	}
	s.items = slices.Delete(s.items, i, i+1)
	return true
}

// Clear empties the selection.
func (s *Selection) Clear() { s.items = nil }

// Contains reports whether uri is selected.
func (s *Selection) Contains(uri string) bool { return s.indexOf(uri) >= 0 }

// Len returns the number of selected phenotypes.
func (s *Selection) Len() int { return len(s.items) }

// Items returns a copy of the selection in insertion order.
func (s *Selection) Items() []phenodata.Phenotype { return slices.Clone(s.items) }

// URIs returns the selected URIs in insertion order.
func (s *Selection) URIs() []string {
	out := make([]string, len(s.items))
	for i, p := range s.items {
		out[i] = p.URI()
	}
	return out
}

func (s *Selection) indexOf(uri string) int {
	return slices.IndexFunc(s.items, func(p phenodata.Phenotype) bool { return p.URI() == uri })
}
