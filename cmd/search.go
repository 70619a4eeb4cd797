package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy-search every phenotype label",
	Long: `Search the labels of all phenotype terms. Results are ranked by match
quality, then by how often ZFIN annotations use the term.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var (
	flagSearchK   int
	flagSearchAll bool
)

func init() {
	searchCmd.Flags().IntVar(&flagSearchK, "k", 20, "Number of results to show")
	searchCmd.Flags().BoolVar(&flagSearchAll, "all", false, "Show every result")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	b, err := loadBundle(cmd.Context())
	if err != nil {
		return err
	}
	c := listController(b, flagSearchK, flagSearchAll)
	c.SetQuery(strings.Join(args, " "))
	renderMatches(stdout, c)
	return nil
}
