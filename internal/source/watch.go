package source

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports changes to local ontology documents. Parent directories are
// watched rather than the files so that editors that save by rename are seen.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
	onChange func(path string)
	log      *zap.Logger

	mu      sync.Mutex
	pending map[string]time.Time
	doneCh  chan struct{}
}

// NewWatcher watches the local documents among uris. Remote URIs are
// ignored; if none are local the watcher is inert.
func NewWatcher(uris []string, onChange func(path string), log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("cannot create file watcher: %w", err)
	}
	w := &Watcher{
		watcher:  fw,
		files:    make(map[string]bool),
		debounce: 500 * time.Millisecond,
		onChange: onChange,
		log:      log,
		pending:  make(map[string]time.Time),
		doneCh:   make(chan struct{}),
	}
	dirs := map[string]bool{}
	for _, u := range uris {
		p, ok := LocalPath(u)
		if !ok {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fw.Close()
			return nil, err
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for d := range dirs {
		if err := fw.Add(d); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("cannot watch %s: %w", d, err)
		}
		log.Debug("watching source directory", zap.String("dir", d))
	}
	return w, nil
}

// Watching reports how many local documents are watched.
func (w *Watcher) Watching() int { return len(w.files) }

// Run processes events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.doneCh)
	defer w.watcher.Close()

	tick := time.NewTicker(w.debounce / 5)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("source watcher error", zap.Error(err))
		case now := <-tick.C:
			w.flush(now)
		}
	}
}

// Done is closed once Run has returned.
func (w *Watcher) Done() <-chan struct{} { return w.doneCh }

func (w *Watcher) handle(ev fsnotify.Event) {
	abs, err := filepath.Abs(ev.Name)
	if err != nil || !w.files[abs] {
		return
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return
	}
	w.mu.Lock()
	w.pending[abs] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flush(now time.Time) {
	var ready []string
	w.mu.Lock()
	for p, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			ready = append(ready, p)
			delete(w.pending, p)
		}
	}
	w.mu.Unlock()
	for _, p := range ready {
		w.log.Info("source document changed", zap.String("path", p))
		w.onChange(p)
	}
}
