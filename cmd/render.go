package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/kamusis/phenopick/internal/obograph"
	"github.com/kamusis/phenopick/internal/phenodata"
	"github.com/kamusis/phenopick/internal/picker"
)

const oboPrefix = "http://purl.obolibrary.org/obo/"

// termURI accepts a full URI, a CURIE (ZFA:0000042) or a local ID (ZFA_0000042).
func termURI(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "://") {
		return s
	}
	return oboPrefix + strings.Replace(s, ":", "_", 1)
}

// loadBundle loads the configured ontologies, giving up on interrupt.
func loadBundle(ctx context.Context) (*phenodata.Bundle, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cache, err := newCache(cfg)
	if err != nil {
		return nil, err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	return cache.Get(ctx)
}

// renderTree prints the anatomy subtree under uri down to depth levels,
// with the number of associated phenotypes per term.
func renderTree(w io.Writer, b *phenodata.Bundle, uri string, depth int) error {
	h := b.Anatomy
	root, ok := h.Get(uri)
	if !ok {
		return fmt.Errorf("%w: %s", picker.ErrUnknownAnatomy, uri)
	}
	var walk func(n *obograph.Node, level int)
	walk = func(n *obograph.Node, level int) {
		marker := "  "
		if h.HasChildren(n.URI) {
			marker = "+ "
			if level < depth {
				marker = "- "
			}
		}
		fmt.Fprintf(w, "%s%s%s  %s", strings.Repeat("  ", level), marker, n.DisplayLabel(), n.LocalID())
		if c := b.Index.Count(n.URI); c > 0 {
			fmt.Fprintf(w, "  (%d)", c)
		}
		fmt.Fprintln(w)
		if level >= depth {
			return
		}
		for _, c := range h.Children(n.URI) {
			walk(c, level+1)
		}
	}
	walk(root, 0)
	return nil
}

// renderMatches prints the visible results of c as a table followed by the
// result summary.
func renderMatches(w io.Writer, c *picker.Controller) {
	vis := c.Visible()
	if len(vis) > 0 {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tLABEL\tUSAGE\tURI")
		for _, m := range vis {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", m.Node.LocalID(), m.Label(), m.Usage, m.URI())
		}
		_ = tw.Flush()
	}
	fmt.Fprintf(w, "\n%s: %s\n", c.Label(), c.Summary())
	if c.HasMore() {
		fmt.Fprintln(w, "Use --all to show every result.")
	}
}
