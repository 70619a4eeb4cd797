// Package picker holds the interactive state of a phenotype picking session:
// the selected anatomy term, the displayed phenotype list with its search and
// filter queries, pagination, and the user's selection.
package picker

import (
	"fmt"
	"strings"

	"github.com/kamusis/phenopick/internal/config"
	"github.com/kamusis/phenopick/internal/obograph"
	"github.com/kamusis/phenopick/internal/phenodata"
)

// Mode says which list the controller is displaying.
type Mode int

const (
	// ModeEmpty: no search and no anatomy term selected.
	ModeEmpty Mode = iota
	// ModeAnatomy: phenotypes associated with the selected anatomy term.
	ModeAnatomy
	// ModeSearch: global search results. Takes priority over ModeAnatomy.
	ModeSearch
)

func (m Mode) String() string {
	switch m {
	case ModeAnatomy:
		return "anatomy"
	case ModeSearch:
		return "search"
	default:
		return "empty"
	}
}

// Options configures a Controller.
type Options struct {
	// PageSize is the number of results shown per page; zero selects
	// config.DefaultPageSize.
	PageSize  int
	Clipboard Clipboard
	// OnSelect is called whenever a phenotype is highlighted.
	OnSelect func(phenodata.Phenotype)
}

// Controller is the state of one picking session over a loaded bundle.
// It is not safe for concurrent use.
type Controller struct {
	bundle    *phenodata.Bundle
	pageSize  int
	clipboard Clipboard
	onSelect  func(phenodata.Phenotype)
	all       *candidates

	anatomy     *obograph.Node
	anatomyList []Match
	highlighted *phenodata.Phenotype
	selection   Selection

	query         string
	searchResults []Match
	filter        string

	displayed []Match
	limit     int
}

// New starts a session over b.
func New(b *phenodata.Bundle, opts Options) *Controller {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = config.DefaultPageSize
	}
	c := &Controller{
		bundle:    b,
		pageSize:  pageSize,
		clipboard: opts.Clipboard,
		onSelect:  opts.OnSelect,
		all:       newCandidates(searchable(b)),
		limit:     pageSize,
	}
	c.refresh()
	return c
}

// searchable returns every phenotype hierarchy item, root first.
func searchable(b *phenodata.Bundle) []phenodata.Phenotype {
	items := b.Phenotype.Items()
	out := make([]phenodata.Phenotype, len(items))
	for i, n := range items {
		if p, ok := b.PhenotypeByURI(n.URI); ok {
			out[i] = p
			continue
		}
		out[i] = phenodata.Phenotype{Node: n}
	}
	return out
}

// Bundle returns the bundle the session was started with.
func (c *Controller) Bundle() *phenodata.Bundle { return c.bundle }

// SelectAnatomy displays the phenotypes associated with an anatomy term. It
// clears the highlight and the filter query. Anatomy terms without
// phenotypes display an empty list.
func (c *Controller) SelectAnatomy(uri string) error {
	if c.searchActive() {
		return ErrSearchActive
	}
	n, ok := c.bundle.Anatomy.Get(uri)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAnatomy, uri)
	}
	c.anatomy = n
	c.anatomyList = plain(c.bundle.PhenotypesFor(uri))
	c.highlighted = nil
	c.filter = ""
	c.refresh()
	return nil
}

// SelectedAnatomy returns the selected anatomy term, or nil.
func (c *Controller) SelectedAnatomy() *obograph.Node { return c.anatomy }

// SetQuery sets the global search query. A non-blank query switches to
// ModeSearch and disables anatomy selection.
func (c *Controller) SetQuery(q string) {
	if q == c.query {
		return
	}
	c.query = q
	c.searchResults = c.all.find(q)
	c.refresh()
}

// Query returns the global search query.
func (c *Controller) Query() string { return c.query }

// SetFilter sets the query that narrows the displayed results.
func (c *Controller) SetFilter(q string) {
	if q == c.filter {
		return
	}
	c.filter = q
	c.refresh()
}

// Filter returns the within-results filter query.
func (c *Controller) Filter() string { return c.filter }

func (c *Controller) searchActive() bool { return strings.TrimSpace(c.query) != "" }

// Mode returns the current display mode.
func (c *Controller) Mode() Mode {
	switch {
	case c.searchActive():
		return ModeSearch
	case c.anatomy != nil:
		return ModeAnatomy
	default:
		return ModeEmpty
	}
}

// Label returns the heading for the results pane.
func (c *Controller) Label() string {
	switch c.Mode() {
	case ModeSearch:
		return fmt.Sprintf("Search results for %q", c.query)
	case ModeAnatomy:
		if len(c.anatomyList) == 0 {
			return "No phenotypes for " + c.anatomy.DisplayLabel()
		}
		return "Phenotypes for " + c.anatomy.DisplayLabel()
	default:
		return "Phenotype Results"
	}
}

// Results returns the list for the current mode before filtering: ranked
// search results, or the anatomy term's phenotypes by descending usage.
func (c *Controller) Results() []Match {
	switch c.Mode() {
	case ModeSearch:
		return c.searchResults
	case ModeAnatomy:
		return c.anatomyList
	default:
		return nil
	}
}

// Displayed returns the results after the filter query is applied. Without a
// filter the results are ordered by descending usage.
func (c *Controller) Displayed() []Match { return c.displayed }

// refresh recomputes the displayed list and resets pagination.
func (c *Controller) refresh() {
	results := c.Results()
	if strings.TrimSpace(c.filter) != "" {
		items := make([]phenodata.Phenotype, len(results))
		for i, m := range results {
			items[i] = m.Phenotype
		}
		c.displayed = Search(items, c.filter)
	} else {
		c.displayed = byUsage(results)
	}
	c.limit = c.pageSize
}

// Visible returns the first page(s) of Displayed.
func (c *Controller) Visible() []Match {
	if len(c.displayed) <= c.limit {
		return c.displayed
	}
	return c.displayed[:c.limit]
}

// ShowMore extends Visible by one page.
func (c *Controller) ShowMore() {
	if c.HasMore() {
		c.limit += c.pageSize
	}
}

// HasMore reports whether Displayed is longer than Visible.
func (c *Controller) HasMore() bool { return len(c.displayed) > c.limit }

// Remaining returns how many displayed results are hidden by pagination.
func (c *Controller) Remaining() int {
	if !c.HasMore() {
		return 0
	}
	return len(c.displayed) - c.limit
}

// Limit returns the current display limit.
func (c *Controller) Limit() int { return c.limit }

// PageSize returns the pagination step.
func (c *Controller) PageSize() int { return c.pageSize }

// Summary describes the displayed list, e.g. "Showing 50 of 120 phenotypes".
func (c *Controller) Summary() string {
	filter := strings.TrimSpace(c.filter) != ""
	n := len(c.displayed)
	if n == 0 {
		if filter {
			return fmt.Sprintf("No phenotypes match %q", c.filter)
		}
		return "0 phenotypes"
	}
	var s string
	switch {
	case c.HasMore():
		s = fmt.Sprintf("Showing %d of %d phenotypes", len(c.Visible()), n)
	case n == 1:
		s = "1 phenotype"
	default:
		s = fmt.Sprintf("%d phenotypes", n)
	}
	if filter {
		s += fmt.Sprintf(" matching %q", c.filter)
	}
	return s
}

// Highlight marks a phenotype and reports it to OnSelect.
func (c *Controller) Highlight(uri string) error {
	p, err := c.phenotype(uri)
	if err != nil {
		return err
	}
	c.highlighted = &p
	if c.onSelect != nil {
		c.onSelect(p)
	}
	return nil
}

// Highlighted returns the highlighted phenotype, if any.
func (c *Controller) Highlighted() (phenodata.Phenotype, bool) {
	if c.highlighted == nil {
		return phenodata.Phenotype{}, false
	}
	return *c.highlighted, true
}

// Add selects the phenotype with the given URI. Selecting it again is a
// no-op.
func (c *Controller) Add(uri string) error {
	p, err := c.phenotype(uri)
	if err != nil {
		return err
	}
	c.selection.Add(p)
	return nil
}

// AddPhenotype selects p and reports whether the selection changed.
func (c *Controller) AddPhenotype(p phenodata.Phenotype) bool { return c.selection.Add(p) }

// Remove deselects uri.
func (c *Controller) Remove(uri string) bool { return c.selection.Remove(uri) }

// Clear empties the selection.
func (c *Controller) Clear() { c.selection.Clear() }

// Selection returns the selected phenotypes in the order they were added.
func (c *Controller) Selection() []phenodata.Phenotype { return c.selection.Items() }

// IsSelected reports whether uri is selected.
func (c *Controller) IsSelected(uri string) bool { return c.selection.Contains(uri) }

// CopyURI writes one URI to the clipboard.
func (c *Controller) CopyURI(uri string) error {
	return c.write(uri)
}

// CopyAll writes the selected URIs to the clipboard, one per line.
func (c *Controller) CopyAll() error {
	if c.selection.Len() == 0 {
		return ErrEmptySelection
	}
	return c.write(strings.Join(c.selection.URIs(), "\n"))
}

func (c *Controller) write(text string) error {
	if c.clipboard == nil {
		return ErrNoClipboard
	}
	if err := c.clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("cannot write clipboard: %w", err)
	}
	return nil
}

func (c *Controller) phenotype(uri string) (phenodata.Phenotype, error) {
	if p, ok := c.bundle.PhenotypeByURI(uri); ok {
		return p, nil
	}
	if n, ok := c.bundle.Phenotype.Get(uri); ok {
		return phenodata.Phenotype{Node: n}, nil
	}
	return phenodata.Phenotype{}, fmt.Errorf("%w: %s", ErrUnknownPhenotype, uri)
}
