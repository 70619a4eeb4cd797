package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamusis/phenopick/internal/server"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of a running phenopick server",
	Long: `Query a running 'phenopick serve' for the state of its ontology cache.
With --reload the server is asked to discard its index and load again.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var (
	flagStatusAddr   string
	flagStatusReload bool
)

func init() {
	statusCmd.Flags().StringVar(&flagStatusAddr, "addr", "", "Server address (default server.addr from config)")
	statusCmd.Flags().BoolVar(&flagStatusReload, "reload", false, "Ask the server to reload the ontologies")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	addr := flagStatusAddr
	if addr == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		addr = cfg.Server.Addr
	}
	base := "http://" + addr

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	client := &http.Client{}

	printSection("Server " + addr)
	if flagStatusReload {
		if err := callServer(ctx, client, http.MethodPost, base+"/v1/reload", nil); err != nil {
			return err
		}
		printInfo("", "reload requested")
	}

	var st server.StatusResponse
	if err := callServer(ctx, client, http.MethodGet, base+"/v1/status", &st); err != nil {
		return err
	}
	if st.State != "loaded" {
		printWarn("", fmt.Sprintf("state: %s", st.State))
		return nil
	}
	printOK("", fmt.Sprintf("state: loaded (generation %d, at %s)", st.Generation, st.LoadedAt))
	printOK("anatomy", fmt.Sprintf("%d terms under %s", st.AnatomyTerms, st.AnatomyRoot))
	printOK("phenotype", fmt.Sprintf("%d terms under %s", st.PhenotypeTerms, st.PhenotypeRoot))
	printOK("index", fmt.Sprintf("%d anatomy terms have associated phenotypes", st.IndexedTerms))
	return nil
}

// callServer sends a request and decodes the JSON body into out when non-nil.
// Error responses are returned with the server's message.
func callServer(ctx context.Context, client *http.Client, method, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("cannot reach server: %w\nIs 'phenopick serve' running?", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e server.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			return fmt.Errorf("%s %s failed: HTTP %d: %s: %s", method, url, resp.StatusCode, e.Error, e.Message)
		}
		return fmt.Errorf("%s %s failed: HTTP %d", method, url, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from %s: %w", url, err)
	}
	return nil
}
