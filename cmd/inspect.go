package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamusis/phenopick/internal/obograph"
	"github.com/kamusis/phenopick/internal/phenodata"
	"github.com/kamusis/phenopick/internal/picker"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <term>",
	Short: "Show the details of an anatomy or phenotype term",
	Long: `Display a formatted summary of a term: label, definition, synonyms, its
parents and children in the hierarchy, and either the phenotypes associated
with it (anatomy) or the anatomy it affects and its usage count (phenotype).

Example:
  phenopick inspect ZFA:0000107
  phenopick inspect ZP_0000473`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	b, err := loadBundle(cmd.Context())
	if err != nil {
		return err
	}
	return renderTerm(stdout, b, termURI(args[0]))
}

func renderTerm(w io.Writer, b *phenodata.Bundle, uri string) error {
	h, kind := b.Anatomy, "anatomy"
	n, ok := h.Get(uri)
	if !ok {
		h, kind = b.Phenotype, "phenotype"
		if n, ok = h.Get(uri); !ok {
			return fmt.Errorf("%w: %s", picker.ErrUnknownPhenotype, uri)
		}
	}

	fmt.Fprintf(w, "\n=== %s ===\n", n.LocalID())
	field := func(name, val string) {
		if val != "" {
			fmt.Fprintf(w, "  %-12s %s\n", name+":", val)
		}
	}
	field("Label", n.DisplayLabel())
	field("URI", n.URI)
	field("Ontology", kind)
	field("Definition", n.Definition())
	field("Synonyms", strings.Join(synonyms(n), "; "))
	if n.Meta != nil && n.Meta.Deprecated {
		field("Deprecated", "yes")
	}

	if kind == "anatomy" {
		field("Phenotypes", fmt.Sprintf("%d associated", b.Index.Count(uri)))
	} else {
		field("Usage", fmt.Sprintf("%d", b.Score(uri)))
		var affects []string
		for _, e := range n.Edges {
			if e.Pred == obograph.IsA {
				continue
			}
			if a, ok := b.Anatomy.Get(e.Obj); ok {
				affects = append(affects, termRef(a))
			}
		}
		field("Affects", strings.Join(affects, ", "))
	}

	printTermList(w, "Parents", h.Parents(uri))
	printTermList(w, "Children", h.Children(uri))
	return nil
}

func synonyms(n *obograph.Node) []string {
	if n.Meta == nil {
		return nil
	}
	out := make([]string, 0, len(n.Meta.Synonyms))
	for _, s := range n.Meta.Synonyms {
		out = append(out, s.Val)
	}
	return out
}

func termRef(n *obograph.Node) string {
	return fmt.Sprintf("%s (%s)", n.DisplayLabel(), n.LocalID())
}

func printTermList(w io.Writer, title string, nodes []*obograph.Node) {
	if len(nodes) == 0 {
		return
	}
	fmt.Fprintf(w, "\n● %s:\n", title)
	for _, n := range nodes {
		fmt.Fprintf(w, "  -  %s\n", termRef(n))
	}
}
