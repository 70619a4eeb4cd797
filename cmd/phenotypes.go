package cmd

import (
	"math"

	"github.com/spf13/cobra"

	"github.com/kamusis/phenopick/internal/phenodata"
	"github.com/kamusis/phenopick/internal/picker"
)

var phenotypesCmd = &cobra.Command{
	Use:   "phenotypes <anatomy-term>",
	Short: "List the phenotypes associated with an anatomy term",
	Long: `List the phenotypes whose affected anatomy is the given term, most used first.
--filter narrows the list with the same fuzzy matching as search.`,
	Args: cobra.ExactArgs(1),
	RunE: runPhenotypes,
}

var (
	flagPhenotypesFilter string
	flagPhenotypesLimit  int
	flagPhenotypesAll    bool
)

func init() {
	phenotypesCmd.Flags().StringVar(&flagPhenotypesFilter, "filter", "", "Fuzzy filter applied to the labels")
	phenotypesCmd.Flags().IntVar(&flagPhenotypesLimit, "limit", 0, "Number of results to show (default page_size)")
	phenotypesCmd.Flags().BoolVar(&flagPhenotypesAll, "all", false, "Show every result")
	rootCmd.AddCommand(phenotypesCmd)
}

func runPhenotypes(cmd *cobra.Command, args []string) error {
	b, err := loadBundle(cmd.Context())
	if err != nil {
		return err
	}
	c := listController(b, flagPhenotypesLimit, flagPhenotypesAll)
	if err := c.SelectAnatomy(termURI(args[0])); err != nil {
		return err
	}
	c.SetFilter(flagPhenotypesFilter)
	renderMatches(stdout, c)
	return nil
}

// listController returns a controller whose first page holds limit results.
func listController(b *phenodata.Bundle, limit int, all bool) *picker.Controller {
	if all {
		limit = math.MaxInt
	}
	return picker.New(b, picker.Options{PageSize: limit})
}
