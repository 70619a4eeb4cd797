package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

const (
	manifestFile = "manifest.json"
	documentFile = "document.json"
	lockTimeout  = 5 * time.Minute
)

// Manifest describes one cached document.
type Manifest struct {
	Version   int    `json:"version"`
	SourceURI string `json:"source_uri"`
	FetchedAt string `json:"fetched_at"`
	SHA256    string `json:"sha256"`
	Size      int64  `json:"size"`
}

// FetchedTime parses FetchedAt; the zero time is returned when it is invalid.
func (m Manifest) FetchedTime() time.Time {
	t, err := time.Parse(time.RFC3339, m.FetchedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// DiskCache stores remote documents under dir, one subdirectory per URI.
// Concurrent processes are serialized per document with a file lock so a
// download is never observed half-written.
type DiskCache struct {
	dir    string
	next   Fetcher
	maxAge time.Duration
	log    *zap.Logger
	now    func() time.Time
}

// NewDiskCache wraps next with an on-disk cache rooted at dir.
func NewDiskCache(dir string, next Fetcher, maxAge time.Duration, log *zap.Logger) *DiskCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &DiskCache{dir: dir, next: next, maxAge: maxAge, log: log, now: time.Now}
}

// Fetch returns the cached copy of uri when it is fresh, otherwise downloads
// it first. A stale copy is served when the download fails.
func (c *DiskCache) Fetch(ctx context.Context, uri string) (io.ReadCloser, error) {
	return c.fetch(ctx, uri, false)
}

// Refresh downloads uri unconditionally and replaces the cached copy.
func (c *DiskCache) Refresh(ctx context.Context, uri string) (Manifest, error) {
	rc, err := c.fetch(ctx, uri, true)
	if err != nil {
		return Manifest{}, err
	}
	_ = rc.Close()
	m, err := readManifest(c.entryDir(uri))
	if err != nil {
		return Manifest{}, err
	}
	return *m, nil
}

// Lookup returns the manifest of the cached copy of uri, if any.
func (c *DiskCache) Lookup(uri string) (Manifest, bool) {
	m, err := readManifest(c.entryDir(uri))
	if err != nil {
		return Manifest{}, false
	}
	return *m, true
}

func (c *DiskCache) fetch(ctx context.Context, uri string, force bool) (io.ReadCloser, error) {
	dir := c.entryDir(uri)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache dir %s: %w", dir, err)
	}
	unlock, err := acquireLock(ctx, dir+".lock", lockTimeout)
	if err != nil {
		return nil, err
	}
	defer unlock()

	docPath := filepath.Join(dir, documentFile)
	m, mErr := readManifest(dir)
	if !force && mErr == nil && c.fresh(*m) {
		if f, err := os.Open(docPath); err == nil {
			c.log.Debug("document cache hit", zap.String("uri", uri), zap.String("fetched_at", m.FetchedAt))
			return f, nil
		}
	}

	if err := c.download(ctx, uri, dir); err != nil {
		if mErr == nil {
			if f, openErr := os.Open(docPath); openErr == nil {
				c.log.Warn("download failed, serving stale cached document",
					zap.String("uri", uri), zap.String("fetched_at", m.FetchedAt), zap.Error(err))
				return f, nil
			}
		}
		return nil, err
	}

	f, err := os.Open(docPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open cached document %s: %w", docPath, err)
	}
	return f, nil
}

func (c *DiskCache) fresh(m Manifest) bool {
	if c.maxAge <= 0 {
		return true
	}
	fetched := m.FetchedTime()
	return !fetched.IsZero() && c.now().Sub(fetched) < c.maxAge
}

// download streams uri into a temp file in dir and renames it into place,
// then writes the manifest.
func (c *DiskCache) download(ctx context.Context, uri, dir string) error {
	rc, err := c.next.Fetch(ctx, uri)
	if err != nil {
		return err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(dir, "download-*")
	if err != nil {
		return fmt.Errorf("cannot create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), rc)
	if err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cannot download %s: %w", uri, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cannot sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cannot close temp file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, documentFile)); err != nil {
		return fmt.Errorf("cannot install cached document: %w", err)
	}

	m := Manifest{
		Version:   1,
		SourceURI: uri,
		FetchedAt: c.now().UTC().Format(time.RFC3339),
		SHA256:    hex.EncodeToString(h.Sum(nil)),
		Size:      n,
	}
	if err := writeManifest(dir, m); err != nil {
		return err
	}
	c.log.Info("document cached", zap.String("uri", uri), zap.Int64("bytes", n), zap.String("sha256", m.SHA256))
	return nil
}

func (c *DiskCache) entryDir(uri string) string {
	return filepath.Join(c.dir, KeyFor(uri))
}

// KeyFor returns the cache directory name used for uri.
func KeyFor(uri string) string {
	h := sha256.Sum256([]byte(uri))
	return hex.EncodeToString(h[:8])
}

func readManifest(dir string) (*Manifest, error) {
	p := filepath.Join(dir, manifestFile)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("cannot read manifest %s: %w", p, err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest JSON %s: %w", p, err)
	}
	return &m, nil
}

func writeManifest(dir string, m Manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), b, 0o644); err != nil {
		return fmt.Errorf("cannot write manifest: %w", err)
	}
	return nil
}

// ErrLockTimeout is returned when another process holds a document lock for
// longer than the lock timeout.
var ErrLockTimeout = errors.New("timed out waiting for cache lock")

// acquireLock polls for an exclusive lock on path until timeout or ctx ends.
func acquireLock(ctx context.Context, path string, timeout time.Duration) (func(), error) {
	l := flock.New(path)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return func() {}, fmt.Errorf("cannot acquire cache lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return func() {}, fmt.Errorf("%w: %s", ErrLockTimeout, path)
		}
		select {
		case <-ctx.Done():
			return func() {}, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}
