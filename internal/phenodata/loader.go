package phenodata

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kamusis/phenopick/internal/config"
	"github.com/kamusis/phenopick/internal/obograph"
	"github.com/kamusis/phenopick/internal/source"
)

// Options configures a Loader.
type Options struct {
	AnatomySource   string
	PhenotypeSource string
	AnatomyRoot     string
	PhenotypeRoot   string
	AssociatedWith  string
	Vocabulary      Vocabulary

	Fetcher source.Fetcher
	Logger  *zap.Logger
}

// OptionsFromConfig builds loader options from cfg. Remote documents are
// cached under cfg.Cache.Dir.
func OptionsFromConfig(cfg *config.Config, log *zap.Logger) (Options, error) {
	maxAge, err := cfg.CacheMaxAge()
	if err != nil {
		return Options{}, err
	}
	return Options{
		AnatomySource:   cfg.Sources.Anatomy,
		PhenotypeSource: cfg.Sources.Phenotype,
		AnatomyRoot:     cfg.Roots.Anatomy,
		PhenotypeRoot:   cfg.Roots.Phenotype,
		AssociatedWith:  cfg.Predicates.AssociatedWith,
		Vocabulary: Vocabulary{
			IsReferencedBy: cfg.Predicates.IsReferencedBy,
			UsageSource:    cfg.Predicates.UsageSource,
			ReferenceCount: cfg.Predicates.ReferenceCount,
		},
		Fetcher: source.NewFetcher(source.Options{
			CacheDir: cfg.Cache.Dir,
			MaxAge:   maxAge,
			Logger:   log,
		}),
		Logger: log,
	}, nil
}

// Loader fetches both ontology documents and assembles a Bundle.
type Loader struct {
	opts Options
	log  *zap.Logger
}

// NewLoader returns a Loader. Empty roots, predicates and vocabulary fall back
// to the ZFA/ZP defaults.
func NewLoader(opts Options) *Loader {
	opts = opts.withDefaults()
	if opts.Fetcher == nil {
		opts.Fetcher = source.NewFetcher(source.Options{Logger: opts.Logger})
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{opts: opts, log: log}
}

func (opts Options) withDefaults() Options {
	if opts.AnatomyRoot == "" {
		opts.AnatomyRoot = config.DefaultAnatomyRoot
	}
	if opts.PhenotypeRoot == "" {
		opts.PhenotypeRoot = config.DefaultPhenotypeRoot
	}
	if opts.AssociatedWith == "" {
		opts.AssociatedWith = config.DefaultAssociatedWith
	}
	if opts.Vocabulary == (Vocabulary{}) {
		opts.Vocabulary = DefaultVocabulary()
	}
	return opts
}

// Load fetches and decodes both documents concurrently. The first failure
// cancels the other fetch and fails the load.
func (l *Loader) Load(ctx context.Context) (*Bundle, error) {
	start := time.Now()
	l.log.Info("loading ontologies",
		zap.String("anatomy", l.opts.AnatomySource),
		zap.String("phenotype", l.opts.PhenotypeSource))

	var anatomy, phenotype *obograph.Graph
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		anatomy, err = l.fetchGraph(gctx, l.opts.AnatomySource)
		return err
	})
	g.Go(func() error {
		var err error
		phenotype, err = l.fetchGraph(gctx, l.opts.PhenotypeSource)
		return err
	})
	if err := g.Wait(); err != nil {
		l.log.Warn("ontology load failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, err
	}

	b, err := Assemble(anatomy, phenotype, l.opts)
	if err != nil {
		l.log.Warn("ontology load failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, err
	}
	l.log.Info("ontologies loaded",
		zap.Int("anatomy_terms", b.Anatomy.Len()),
		zap.Int("phenotype_terms", len(b.Phenotypes)),
		zap.Int("indexed_anatomy_terms", b.Index.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return b, nil
}

func (l *Loader) fetchGraph(ctx context.Context, uri string) (*obograph.Graph, error) {
	rc, err := l.opts.Fetcher.Fetch(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch %s: %w", uri, err)
	}
	defer rc.Close()
	g, err := obograph.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", uri, err)
	}
	l.log.Debug("ontology decoded", zap.String("uri", uri), zap.Int("nodes", g.Len()))
	return g, nil
}

// Assemble builds a Bundle from already decoded graphs: both hierarchies,
// usage scores for every phenotype below the phenotype root, and the
// anatomy index.
func Assemble(anatomy, phenotype *obograph.Graph, opts Options) (*Bundle, error) {
	opts = opts.withDefaults()
	anatomyTree, err := anatomy.GetHierarchy(opts.AnatomyRoot)
	if err != nil {
		return nil, fmt.Errorf("cannot build anatomy hierarchy: %w", err)
	}
	phenotypeTree, err := phenotype.GetHierarchy(opts.PhenotypeRoot)
	if err != nil {
		return nil, fmt.Errorf("cannot build phenotype hierarchy: %w", err)
	}
	root, err := phenotype.GetItem(opts.PhenotypeRoot)
	if err != nil {
		return nil, fmt.Errorf("cannot find phenotype root: %w", err)
	}

	descendants := phenotype.FindAllChildren(root)
	scored := make([]Phenotype, len(descendants))
	for i, n := range descendants {
		scored[i] = Phenotype{Node: n, Usage: opts.Vocabulary.UsageScore(n)}
	}
	return newBundle(anatomyTree, phenotypeTree, scored, BuildIndex(scored, opts.AssociatedWith)), nil
}
