package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kamusis/phenopick/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the ontology index to MCP clients over stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout exposing phenotype
search, per-anatomy phenotype lists and anatomy browsing as tools.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cache, err := newCache(cfg)
	if err != nil {
		return err
	}
	return mcpserver.New(cache, version, logger).Serve()
}
