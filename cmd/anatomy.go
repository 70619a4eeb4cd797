package cmd

import (
	"github.com/spf13/cobra"
)

var anatomyCmd = &cobra.Command{
	Use:   "anatomy [term]",
	Short: "Print the anatomy hierarchy",
	Long: `Print the anatomy tree from the configured root, or from the given term.
Terms may be full URIs, CURIEs (ZFA:0000107) or local IDs (ZFA_0000107).
The number in parentheses is how many phenotypes are associated with the term.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnatomy,
}

var flagAnatomyDepth int

func init() {
	anatomyCmd.Flags().IntVar(&flagAnatomyDepth, "depth", 1, "Levels below the starting term to print")
	rootCmd.AddCommand(anatomyCmd)
}

func runAnatomy(cmd *cobra.Command, args []string) error {
	b, err := loadBundle(cmd.Context())
	if err != nil {
		return err
	}
	uri := b.Anatomy.Root.URI
	if len(args) == 1 {
		uri = termURI(args[0])
	}
	return renderTree(stdout, b, uri, flagAnatomyDepth)
}
