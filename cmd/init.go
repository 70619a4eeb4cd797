package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamusis/phenopick/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration and create the cache directory",
	Long: `Initialize phenopick at ~/.phenopick/.

Writes phenopick.yaml with the ZFA/ZP sources and roots, a .env template for
per-machine overrides, and the document cache directory. Existing files are
left untouched.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var (
	flagInitAltRoot         bool
	flagInitAnatomySource   string
	flagInitPhenotypeSource string
)

func init() {
	initCmd.Flags().BoolVar(&flagInitAltRoot, "alt-root", false, "Root the anatomy tree at ZFA_0100000 (zebrafish anatomical entity)")
	initCmd.Flags().StringVar(&flagInitAnatomySource, "anatomy-source", "", "Anatomy ontology URL or path")
	initCmd.Flags().StringVar(&flagInitPhenotypeSource, "phenotype-source", "", "Phenotype ontology URL or path")
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	dir, err := config.HomeDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	printOK("", fmt.Sprintf("phenopick directory ready: %s", dir))

	cfgPath, err := configPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg, err := config.DefaultConfig()
		if err != nil {
			return err
		}
		if flagInitAltRoot {
			cfg.Roots.Anatomy = config.AltAnatomyRoot
		}
		if flagInitAnatomySource != "" {
			cfg.Sources.Anatomy = flagInitAnatomySource
		}
		if flagInitPhenotypeSource != "" {
			cfg.Sources.Phenotype = flagInitPhenotypeSource
		}
		if err := config.SaveFile(cfgPath, cfg); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Config written: %s", cfgPath))
	} else {
		printSkip("", fmt.Sprintf("Config already exists: %s", cfgPath))
	}

	if err := config.EnsureDotEnvTemplate(); err != nil {
		return err
	}
	if p, err := config.DotEnvPath(); err == nil {
		printOK("", fmt.Sprintf(".env ready: %s", p))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Cache.Dir, 0o755); err != nil {
		return fmt.Errorf("cannot create cache directory %s: %w", cfg.Cache.Dir, err)
	}
	printOK("", fmt.Sprintf("Cache directory ready: %s", cfg.Cache.Dir))

	fmt.Fprintln(stdout, "\n✓  phenopick init complete. Run 'phenopick fetch' to download the ontologies.")
	return nil
}
