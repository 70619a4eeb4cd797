package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kamusis/phenopick/internal/phenodata"
	"github.com/kamusis/phenopick/internal/server"
	"github.com/kamusis/phenopick/internal/source"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ontology index over HTTP",
	Long: `Serve anatomy browsing, phenotype lookup and search as a JSON API, with
Prometheus metrics on /metrics. The ontologies are loaded in the background
at startup; requests made before the load completes wait for it.

With --watch, local ontology files are watched and the index is rebuilt when
they change.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	flagServeAddr  string
	flagServeWatch bool
)

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "Listen address (default server.addr from config)")
	serveCmd.Flags().BoolVar(&flagServeWatch, "watch", false, "Reload when local ontology files change")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if !flagVerbose {
		logLevel.SetLevel(zap.InfoLevel)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagServeAddr != "" {
		cfg.Server.Addr = flagServeAddr
	}
	cache, err := newCache(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagServeWatch {
		if err := startWatcher(ctx, cache, []string{cfg.Sources.Anatomy, cfg.Sources.Phenotype}); err != nil {
			return err
		}
	}

	srv := server.New(cache, server.Options{
		Addr:     cfg.Server.Addr,
		PageSize: cfg.PageSize,
		Logger:   logger,
	})

	go warm(ctx, cache)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// warm loads the bundle so the first request does not pay for it.
func warm(ctx context.Context, cache *phenodata.Cache) {
	start := time.Now()
	b, err := cache.Get(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Error("initial load failed", zap.Error(err))
		}
		return
	}
	logger.Info("ontologies loaded",
		zap.Int("anatomy_terms", b.Anatomy.Len()),
		zap.Int("phenotype_terms", len(b.Phenotypes)),
		zap.Duration("elapsed", time.Since(start)))
}

// startWatcher resets the cache whenever a local source changes. Remote
// sources are not watched.
func startWatcher(ctx context.Context, cache *phenodata.Cache, uris []string) error {
	w, err := source.NewWatcher(uris, func(path string) {
		logger.Info("source changed, reloading", zap.String("path", path))
		cache.Reset()
		go warm(ctx, cache)
	}, logger)
	if err != nil {
		return err
	}
	if w.Watching() == 0 {
		logger.Warn("--watch has no effect: no local sources configured")
	}
	go w.Run(ctx)
	return nil
}
