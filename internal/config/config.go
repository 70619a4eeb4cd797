package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Well-known ontology identifiers used by the default configuration.
const (
	DefaultAnatomyRoot    = "http://purl.obolibrary.org/obo/ZFA_0001439"
	AltAnatomyRoot        = "http://purl.obolibrary.org/obo/ZFA_0100000"
	DefaultPhenotypeRoot  = "http://purl.obolibrary.org/obo/ZP_0000000"
	DefaultAssociatedWith = "http://purl.obolibrary.org/obo/UPHENO_0000003"
	DefaultIsReferencedBy = "http://purl.obolibrary.org/obo/terms_isReferencedBy"
	DefaultUsageSource    = "http://purl.obolibrary.org/obo/infores_zfin"
	DefaultReferenceCount = "http://www.geneontology.org/formats/oboInOwl#zapp:hasReferenceCount"

	DefaultAnatomySource   = "http://purl.obolibrary.org/obo/zfa.json"
	DefaultPhenotypeSource = "http://purl.obolibrary.org/obo/zp.json"

	DefaultPageSize = 50
	DefaultAddr     = "127.0.0.1:8093"
)

// Sources holds the locations of the two ontology documents.
type Sources struct {
	Anatomy   string `yaml:"anatomy"`
	Phenotype string `yaml:"phenotype"`
}

// Roots holds the hierarchy root URIs.
type Roots struct {
	Anatomy   string `yaml:"anatomy"`
	Phenotype string `yaml:"phenotype"`
}

// Predicates holds the annotation and edge identifiers the index is built from.
type Predicates struct {
	AssociatedWith string `yaml:"associated_with"`
	IsReferencedBy string `yaml:"is_referenced_by"`
	UsageSource    string `yaml:"usage_source"`
	ReferenceCount string `yaml:"reference_count"`
}

// Cache controls the on-disk document cache.
type Cache struct {
	Dir    string `yaml:"dir,omitempty"`
	MaxAge string `yaml:"max_age,omitempty"`
}

// Reload controls whether callers may invalidate the in-memory bundle.
type Reload struct {
	Enabled bool `yaml:"enabled"`
}

// Server holds settings for `phenopick serve`.
type Server struct {
	Addr string `yaml:"addr,omitempty"`
}

// Config is the in-memory representation of ~/.phenopick/phenopick.yaml.
type Config struct {
	Sources    Sources    `yaml:"sources"`
	Roots      Roots      `yaml:"roots"`
	Predicates Predicates `yaml:"predicates"`
	Cache      Cache      `yaml:"cache,omitempty"`
	Reload     Reload     `yaml:"reload"`
	Server     Server     `yaml:"server,omitempty"`
	PageSize   int        `yaml:"page_size,omitempty"`
}

// HomeDir returns the absolute path to ~/.phenopick/.
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".phenopick"), nil
}

// ConfigPath returns the config file path. PHENOPICK_CONFIG takes precedence
// over ~/.phenopick/phenopick.yaml.
func ConfigPath() (string, error) {
	if p := os.Getenv("PHENOPICK_CONFIG"); p != "" {
		return ExpandPath(p)
	}
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "phenopick.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the configuration written on first phenopick init.
func DefaultConfig() (*Config, error) {
	dir, err := HomeDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		Sources: Sources{
			Anatomy:   DefaultAnatomySource,
			Phenotype: DefaultPhenotypeSource,
		},
		Roots: Roots{
			Anatomy:   DefaultAnatomyRoot,
			Phenotype: DefaultPhenotypeRoot,
		},
		Predicates: Predicates{
			AssociatedWith: DefaultAssociatedWith,
			IsReferencedBy: DefaultIsReferencedBy,
			UsageSource:    DefaultUsageSource,
			ReferenceCount: DefaultReferenceCount,
		},
		Cache: Cache{
			Dir:    filepath.Join(dir, "cache"),
			MaxAge: "24h",
		},
		Reload:   Reload{Enabled: true},
		Server:   Server{Addr: DefaultAddr},
		PageSize: DefaultPageSize,
	}, nil
}

// Load reads the config file, falling back to DefaultConfig when it does not
// exist, then applies environment overrides.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile is Load for an explicit path.
func LoadFile(path string) (*Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Cache.Dir, err = ExpandPath(cfg.Cache.Dir)
	if err != nil {
		return nil, err
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	overrides := []struct {
		key string
		dst *string
	}{
		{"PHENOPICK_ANATOMY_SOURCE", &c.Sources.Anatomy},
		{"PHENOPICK_PHENOTYPE_SOURCE", &c.Sources.Phenotype},
		{"PHENOPICK_ANATOMY_ROOT", &c.Roots.Anatomy},
		{"PHENOPICK_PHENOTYPE_ROOT", &c.Roots.Phenotype},
		{"PHENOPICK_CACHE_DIR", &c.Cache.Dir},
		{"PHENOPICK_ADDR", &c.Server.Addr},
	}
	for _, o := range overrides {
		v, err := GetConfigValue(o.key)
		if err != nil {
			return err
		}
		if v != "" {
			*o.dst = strings.TrimSpace(v)
		}
	}
	return nil
}

// Validate reports the first missing or out-of-range setting.
func (c *Config) Validate() error {
	required := []struct {
		name, val string
	}{
		{"sources.anatomy", c.Sources.Anatomy},
		{"sources.phenotype", c.Sources.Phenotype},
		{"roots.anatomy", c.Roots.Anatomy},
		{"roots.phenotype", c.Roots.Phenotype},
		{"predicates.associated_with", c.Predicates.AssociatedWith},
		{"predicates.is_referenced_by", c.Predicates.IsReferencedBy},
		{"predicates.usage_source", c.Predicates.UsageSource},
		{"predicates.reference_count", c.Predicates.ReferenceCount},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}
	if c.PageSize < 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if _, err := c.CacheMaxAge(); err != nil {
		return err
	}
	return nil
}

// CacheMaxAge parses cache.max_age. Empty means cached documents never expire.
func (c *Config) CacheMaxAge() (time.Duration, error) {
	if strings.TrimSpace(c.Cache.MaxAge) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Cache.MaxAge)
	if err != nil {
		return 0, fmt.Errorf("invalid cache.max_age %q: %w", c.Cache.MaxAge, err)
	}
	return d, nil
}

// Save marshals cfg and writes it to the config path.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

// SaveFile is Save for an explicit path.
func SaveFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
