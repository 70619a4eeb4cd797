package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamusis/phenopick/internal/phenodata"
	"github.com/kamusis/phenopick/internal/source"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight environment checks",
	Long: `Check that phenopick's configuration, cache and ontology sources are usable,
then load both ontologies and report the hierarchy and index sizes.
Run this command when something seems wrong, or before filing a bug report.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

var flagDoctorTimeout time.Duration

func init() {
	doctorCmd.Flags().DurationVar(&flagDoctorTimeout, "timeout", 5*time.Minute, "Give up loading the ontologies after this long")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	problems := 0
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		problems++
	}

	printSection("phenopick doctor")
	fmt.Fprintln(stdout)

	// ── Check 1: config ───────────────────────────────────────────────────────
	printGroup("config")
	path, err := configPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		printWarn("", fmt.Sprintf("%s not found, using defaults (run 'phenopick init' to write it)", path))
	}
	cfg, loadErr := loadConfig()
	if loadErr != nil {
		failD("%v", loadErr)
		fmt.Fprintln(stdout)
		return fmt.Errorf("doctor found %d problem(s)", problems)
	}
	printOK("", fmt.Sprintf("valid config: %s", path))
	printInfo("", fmt.Sprintf("anatomy root   %s", cfg.Roots.Anatomy))
	printInfo("", fmt.Sprintf("phenotype root %s", cfg.Roots.Phenotype))
	if cfg.Reload.Enabled {
		printInfo("", "reload enabled")
	} else {
		printInfo("", "reload disabled")
	}
	fmt.Fprintln(stdout)

	// ── Check 2: cache directory ──────────────────────────────────────────────
	printGroup("cache")
	if err := checkWritable(cfg.Cache.Dir); err != nil {
		failD("cache directory %s is not writable: %v", cfg.Cache.Dir, err)
	} else {
		printOK("", fmt.Sprintf("writable: %s", cfg.Cache.Dir))
	}
	fmt.Fprintln(stdout)

	// ── Check 3: sources ──────────────────────────────────────────────────────
	printGroup("sources")
	dc, err := newDiskCache(cfg)
	if err != nil {
		return err
	}
	for _, s := range sourceList(cfg) {
		if p, ok := source.LocalPath(s.uri); ok {
			if _, err := os.Stat(p); err != nil {
				failD("[%s] local source unreadable: %v", s.name, err)
			} else {
				printOK(s.name, "local file "+p)
			}
			continue
		}
		if m, ok := dc.Lookup(s.uri); ok {
			printOK(s.name, "cached "+describeManifest(m))
		} else {
			printMiss(s.name, fmt.Sprintf("%s not cached yet (run 'phenopick fetch')", s.uri))
		}
	}
	fmt.Fprintln(stdout)

	// ── Check 4: ontology load ────────────────────────────────────────────────
	printGroup("ontology")
	ctx, cancel := context.WithTimeout(cmd.Context(), flagDoctorTimeout)
	defer cancel()
	opts, err := phenodata.OptionsFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	start := time.Now()
	b, err := phenodata.NewLoader(opts).Load(ctx)
	if err != nil {
		failD("%v", err)
	} else {
		printOK("", fmt.Sprintf("loaded in %s", time.Since(start).Round(time.Millisecond)))
		printOK("anatomy", fmt.Sprintf("%d terms under %s", b.Anatomy.Len(), b.Anatomy.Root.DisplayLabel()))
		printOK("phenotype", fmt.Sprintf("%d terms under %s", b.Phenotype.Len(), b.Phenotype.Root.DisplayLabel()))
		printOK("index", fmt.Sprintf("%d anatomy terms have associated phenotypes", b.Index.Len()))
		if n := outsideHierarchy(b); n > 0 {
			printWarn("index", fmt.Sprintf("%d indexed anatomy term(s) are outside the anatomy hierarchy; check roots.anatomy", n))
		}
		if b.Index.Len() == 0 {
			printWarn("index", "no phenotype is associated with any anatomy term; check predicates.associated_with")
		}
	}
	fmt.Fprintln(stdout)

	if problems > 0 {
		return fmt.Errorf("doctor found %d problem(s)", problems)
	}
	fmt.Fprintln(stdout, "  ✓  All checks passed.")
	return nil
}

// checkWritable creates dir if needed and writes a probe file into it.
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// outsideHierarchy counts indexed anatomy terms the anatomy tree cannot reach.
func outsideHierarchy(b *phenodata.Bundle) int {
	n := 0
	for _, uri := range b.Index.Anatomies() {
		if !b.Anatomy.Contains(uri) {
			n++
		}
	}
	return n
}
