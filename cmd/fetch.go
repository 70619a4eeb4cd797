package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/kamusis/phenopick/internal/config"
	"github.com/kamusis/phenopick/internal/source"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the ontology documents into the local cache",
	Long: `Download the anatomy and phenotype documents named in phenopick.yaml into
~/.phenopick/cache. Fresh cached copies are kept unless --force is given.
Local sources are checked but never copied.`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

var flagFetchForce bool

func init() {
	fetchCmd.Flags().BoolVar(&flagFetchForce, "force", false, "Download even when the cached copy is fresh")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cache, err := newDiskCache(cfg)
	if err != nil {
		return err
	}

	printSection("Fetch")
	var failed int
	for _, s := range sourceList(cfg) {
		if err := fetchOne(ctx, cache, s.name, s.uri); err != nil {
			printErr(s.name, err.Error())
			failed++
		}
	}
	fmt.Fprintln(stdout)
	if failed > 0 {
		return fmt.Errorf("%d document(s) could not be fetched", failed)
	}
	return nil
}

type namedSource struct {
	name string
	uri  string
}

func sourceList(cfg *config.Config) []namedSource {
	return []namedSource{
		{"anatomy", cfg.Sources.Anatomy},
		{"phenotype", cfg.Sources.Phenotype},
	}
}

func newDiskCache(cfg *config.Config) (*source.DiskCache, error) {
	maxAge, err := cfg.CacheMaxAge()
	if err != nil {
		return nil, err
	}
	return source.NewDiskCache(cfg.Cache.Dir, source.NewHTTP(0), maxAge, logger), nil
}

func fetchOne(ctx context.Context, cache *source.DiskCache, name, uri string) error {
	if p, ok := source.LocalPath(uri); ok {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("cannot read local source: %w", err)
		}
		printSkip(name, fmt.Sprintf("local file %s (%d bytes), not cached", p, info.Size()))
		return nil
	}

	if flagFetchForce {
		m, err := cache.Refresh(ctx, uri)
		if err != nil {
			return err
		}
		printOK(name, describeManifest(m))
		return nil
	}

	before, had := cache.Lookup(uri)
	rc, err := cache.Fetch(ctx, uri)
	if err != nil {
		return err
	}
	_ = rc.Close()
	m, ok := cache.Lookup(uri)
	if !ok {
		return fmt.Errorf("cache entry for %s missing after fetch", uri)
	}
	if had && before.SHA256 == m.SHA256 && before.FetchedAt == m.FetchedAt {
		printSkip(name, "up to date: "+describeManifest(m))
		return nil
	}
	printOK(name, describeManifest(m))
	return nil
}

func describeManifest(m source.Manifest) string {
	sum := m.SHA256
	if len(sum) > 12 {
		sum = sum[:12]
	}
	return fmt.Sprintf("%s  %d bytes  sha256:%s  fetched %s", m.SourceURI, m.Size, sum, m.FetchedAt)
}
