package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kamusis/phenopick/internal/config"
	"github.com/kamusis/phenopick/internal/phenodata"
)

var (
	flagConfig  string
	flagVerbose bool
)

var (
	logLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger   = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:          "phenopick",
	Short:        "Phenopick: browse and pick zebrafish phenotype terms",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `Phenopick loads the zebrafish anatomy (ZFA) and phenotype (ZP) ontologies,
indexes phenotypes by the anatomy they affect, and lets you search, browse
and select phenotype terms from the terminal, over HTTP or over MCP.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if flagVerbose {
			logLevel.SetLevel(zap.DebugLevel)
		}
		l, err := newLogger()
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default ~/.phenopick/phenopick.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log debug output to stderr")
}

// newLogger builds the console logger shared by every command. Logs go to
// stderr so stdout stays clean for piping selected URIs.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = logLevel
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("cannot build logger: %w", err)
	}
	return l, nil
}

// configPath returns --config when set, otherwise the default location.
func configPath() (string, error) {
	if flagConfig != "" {
		return config.ExpandPath(flagConfig)
	}
	return config.ConfigPath()
}

// loadConfig loads the effective configuration.
func loadConfig() (*config.Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w\nRun 'phenopick init' first.", err)
	}
	return cfg, nil
}

// newCache returns an empty bundle cache backed by the configured sources.
func newCache(cfg *config.Config) (*phenodata.Cache, error) {
	opts, err := phenodata.OptionsFromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	return phenodata.NewCache(phenodata.NewLoader(opts), phenodata.CacheOptions{
		AllowReload: cfg.Reload.Enabled,
		Logger:      logger,
	}), nil
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
