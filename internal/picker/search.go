package picker

import (
	"cmp"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/unicode/norm"

	"github.com/kamusis/phenopick/internal/phenodata"
)

// Match is a phenotype found by a fuzzy query.
type Match struct {
	phenodata.Phenotype
	// Score is the fuzzy score; higher is better. Zero for unfiltered lists.
	Score int
	// Indexes are the byte offsets of the matched characters in Text.
	Indexes []int
	// Text is the normalized string the query was matched against.
	Text string
}

// candidates is a fuzzy.Source over phenotype display labels.
type candidates struct {
	items []phenodata.Phenotype
	text  []string
}

func newCandidates(items []phenodata.Phenotype) *candidates {
	c := &candidates{items: items, text: make([]string, len(items))}
	for i, p := range items {
		c.text[i] = norm.NFC.String(p.Label())
	}
	return c
}

func (c *candidates) String(i int) string { return c.text[i] }
func (c *candidates) Len() int            { return len(c.items) }

// find ranks the candidates matching query by fuzzy score, then by usage
// (descending), then by their position in the candidate list. A blank query
// matches nothing.
func (c *candidates) find(query string) []Match {
	q := normalizeQuery(query)
	if q == "" {
		return nil
	}
	found := fuzzy.FindFrom(q, c)
	slices.SortStableFunc(found, func(a, b fuzzy.Match) int {
		if d := cmp.Compare(b.Score, a.Score); d != 0 {
			return d
		}
		if d := cmp.Compare(c.items[b.Index].Usage, c.items[a.Index].Usage); d != 0 {
			return d
		}
		return cmp.Compare(a.Index, b.Index)
	})
	out := make([]Match, len(found))
	for i, m := range found {
		out[i] = Match{
			Phenotype: c.items[m.Index],
			Score:     m.Score,
			Indexes:   m.MatchedIndexes,
			Text:      m.Str,
		}
	}
	return out
}

// Search fuzzy-matches query against the display labels of items.
func Search(items []phenodata.Phenotype, query string) []Match {
	return newCandidates(items).find(query)
}

func normalizeQuery(q string) string {
	return norm.NFC.String(strings.TrimSpace(q))
}

func plain(items []phenodata.Phenotype) []Match {
	out := make([]Match, len(items))
	for i, p := range items {
		out[i] = Match{Phenotype: p, Text: p.Label()}
	}
	return out
}

func byUsage(ms []Match) []Match {
	out := slices.Clone(ms)
	slices.SortStableFunc(out, func(a, b Match) int { return cmp.Compare(b.Usage, a.Usage) })
	return out
}
