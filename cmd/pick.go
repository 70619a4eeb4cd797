package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kamusis/phenopick/internal/picker"
	"github.com/kamusis/phenopick/internal/tui"
)

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Open the interactive phenotype picker",
	Long: `Open the terminal picker: browse the anatomy tree, search phenotype labels,
and collect a selection. The URIs of the selected phenotypes are printed to
stdout on exit, one per line.

Keys:
  /  search      f  filter      tab  next pane     enter  select
  a  add         d  remove      x    clear         y/Y    copy URI / all
  m  more        r  reload      esc  clear query   q      quit`,
	Args: cobra.NoArgs,
	RunE: runPick,
}

var flagPickNoClipboard bool

func init() {
	pickCmd.Flags().BoolVar(&flagPickNoClipboard, "no-clipboard", false, "Disable copying URIs to the system clipboard")
	rootCmd.AddCommand(pickCmd)
}

func runPick(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cache, err := newCache(cfg)
	if err != nil {
		return err
	}

	var clip picker.Clipboard
	if !flagPickNoClipboard {
		clip = picker.DefaultClipboard()
	}
	m := tui.New(cache, tui.Options{PageSize: cfg.PageSize, Clipboard: clip})
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("picker failed: %w", err)
	}
	if err := m.Err(); err != nil {
		return err
	}
	for _, p := range m.Selection() {
		fmt.Fprintln(stdout, p.URI())
	}
	return nil
}
