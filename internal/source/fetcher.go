// Package source resolves ontology document URIs to readable streams.
package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Fetcher opens the document stored at uri.
//
// Implementations must be safe for concurrent use; the loader fetches both
// ontology documents at the same time.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (io.ReadCloser, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, uri string) (io.ReadCloser, error)

// Fetch calls f(ctx, uri).
func (f FetcherFunc) Fetch(ctx context.Context, uri string) (io.ReadCloser, error) {
	return f(ctx, uri)
}

// Options configures NewFetcher.
type Options struct {
	// CacheDir enables the on-disk cache for remote documents when non-empty.
	CacheDir string
	// MaxAge expires cached documents; zero keeps them forever.
	MaxAge  time.Duration
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewFetcher returns a Fetcher that dispatches on the URI scheme:
// http and https go through HTTP (optionally cached on disk), file:// and
// bare paths are read from the local filesystem.
func NewFetcher(opts Options) Fetcher {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	var remote Fetcher = NewHTTP(opts.Timeout)
	if opts.CacheDir != "" {
		remote = NewDiskCache(opts.CacheDir, remote, opts.MaxAge, log)
	}
	return &schemeFetcher{remote: remote, local: File{}}
}

type schemeFetcher struct {
	remote Fetcher
	local  Fetcher
}

func (s *schemeFetcher) Fetch(ctx context.Context, uri string) (io.ReadCloser, error) {
	if IsRemote(uri) {
		return s.remote.Fetch(ctx, uri)
	}
	return s.local.Fetch(ctx, uri)
}

// IsRemote reports whether uri is fetched over HTTP.
func IsRemote(uri string) bool {
	lower := strings.ToLower(uri)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// LocalPath returns the filesystem path for a file:// URI or bare path, and
// false for remote URIs.
func LocalPath(uri string) (string, bool) {
	if IsRemote(uri) {
		return "", false
	}
	if strings.HasPrefix(uri, "file://") {
		u, err := url.Parse(uri)
		if err != nil {
			return "", false
		}
		return filepath.FromSlash(u.Path), true
	}
	return uri, true
}

// File reads file:// URIs and plain paths.
type File struct{}

// Fetch opens the local file named by uri.
func (File) Fetch(ctx context.Context, uri string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, ok := LocalPath(uri)
	if !ok {
		return nil, fmt.Errorf("not a local document: %s", uri)
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", p, err)
	}
	return f, nil
}
