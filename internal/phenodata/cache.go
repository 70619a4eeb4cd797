package phenodata

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// BundleLoader produces a fresh Bundle. *Loader implements it.
type BundleLoader interface {
	Load(ctx context.Context) (*Bundle, error)
}

// State is either Loading or Loaded.
type State interface {
	isState()
}

// Loading reports that no bundle is available yet.
type Loading struct{}

// Loaded carries the published bundle.
type Loaded struct {
	Bundle *Bundle
}

func (Loading) isState() {}
func (Loaded) isState()  {}

// CacheOptions configures NewCache.
type CacheOptions struct {
	// AllowReload permits Invalidate.
	AllowReload bool
	Logger      *zap.Logger
}

// Cache holds at most one published bundle and runs at most one load at a
// time. Concurrent requests for a missing bundle share the same load.
type Cache struct {
	loader      BundleLoader
	allowReload bool
	log         *zap.Logger
	group       singleflight.Group

	mu     sync.Mutex
	bundle *Bundle
	gen    uint64
	seq    uint64
	flight string // singleflight key of the load in progress, "" when idle
}

// NewCache returns an empty cache backed by loader.
func NewCache(loader BundleLoader, opts CacheOptions) *Cache {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{loader: loader, allowReload: opts.AllowReload, log: log}
}

// Get returns the published bundle, joining or starting a load when there is
// none. ctx bounds only the wait: a load keeps running after every waiting
// caller has gone and still publishes its result.
func (c *Cache) Get(ctx context.Context) (*Bundle, error) {
	c.mu.Lock()
	if b := c.bundle; b != nil {
		c.mu.Unlock()
		cacheRequests.WithLabelValues("hit").Inc()
		return b, nil
	}
	ch := c.startOrJoinLocked(ctx)
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Bundle), nil
	}
}

// startOrJoinLocked must be called with c.mu held.
func (c *Cache) startOrJoinLocked(ctx context.Context) <-chan singleflight.Result {
	if c.flight != "" {
		// The key stays registered until load clears c.flight, so fn is
		// never run for a joiner.
		cacheRequests.WithLabelValues("shared").Inc()
		return c.group.DoChan(c.flight, nil)
	}
	cacheRequests.WithLabelValues("miss").Inc()
	c.seq++
	key := strconv.FormatUint(c.seq, 10)
	c.flight = key
	gen := c.gen
	loadCtx := context.WithoutCancel(ctx)
	return c.group.DoChan(key, func() (any, error) {
		return c.load(loadCtx, key, gen)
	})
}

func (c *Cache) load(ctx context.Context, key string, gen uint64) (*Bundle, error) {
	start := time.Now()
	b, err := c.loader.Load(ctx)
	loadDuration.Observe(time.Since(start).Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.flight == key {
		c.flight = ""
	}
	if err == nil && b == nil {
		err = errors.New("loader returned no bundle")
	}
	if err != nil {
		loadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	loadsTotal.WithLabelValues("ok").Inc()
	b.Generation = gen
	if gen != c.gen {
		c.log.Info("discarding bundle from invalidated generation",
			zap.Uint64("generation", gen), zap.Uint64("current", c.gen))
		return b, nil
	}
	c.bundle = b
	return b, nil
}

// Peek returns the current state without starting a load.
func (c *Cache) Peek() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bundle != nil {
		return Loaded{Bundle: c.bundle}
	}
	return Loading{}
}

// Subscribe returns the current state. When no bundle is published yet it
// starts or joins a load and calls fn once with the outcome, unless the
// subscription is closed first. fn receives Loading and the error when the
// load fails.
func (c *Cache) Subscribe(fn func(State, error)) (State, *Subscription) {
	sub := &Subscription{done: make(chan struct{})}

	c.mu.Lock()
	if b := c.bundle; b != nil {
		c.mu.Unlock()
		cacheRequests.WithLabelValues("hit").Inc()
		close(sub.done)
		return Loaded{Bundle: b}, sub
	}
	ch := c.startOrJoinLocked(context.Background())
	c.mu.Unlock()

	go func() {
		defer close(sub.done)
		res := <-ch
		if sub.cancelled.Load() {
			return
		}
		if res.Err != nil {
			fn(Loading{}, res.Err)
			return
		}
		fn(Loaded{Bundle: res.Val.(*Bundle)}, nil)
	}()
	return Loading{}, sub
}

// Invalidate drops the published bundle so the next Get loads again. A load
// already in flight is not cancelled but its result is not published.
func (c *Cache) Invalidate() error {
	if !c.allowReload {
		return ErrReloadDisabled
	}
	c.Reset()
	return nil
}

// Reset is Invalidate without the reload check.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bundle = nil
	c.gen++
	if c.flight != "" {
		c.group.Forget(c.flight)
		c.flight = ""
	}
	c.log.Info("bundle cache invalidated", zap.Uint64("generation", c.gen))
}

// Subscription tracks one Subscribe call.
type Subscription struct {
	cancelled atomic.Bool
	done      chan struct{}
}

// Close stops the pending callback, if any. It does not cancel the load.
func (s *Subscription) Close() { s.cancelled.Store(true) }

// Done is closed once the subscription has nothing left to deliver.
func (s *Subscription) Done() <-chan struct{} { return s.done }
