package client

import (
	"log/slog"
	"sync"

	"github.com/ValerySidorin/zkdispatch/internal/wire"
	"github.com/panjf2000/ants/v2"
)

// WatchRegistry is the fan-out target for decoded watch events: it
// processes an event and fans it out to whatever observers are
// registered for its path.
type WatchRegistry interface {
	Process(ev wire.WatchEvent)
}

// Watcher is a user-registered observer of a single path.
type Watcher func(wire.WatchEvent)

// WatchDispatchConfig controls how the default WatchRegistry fans events
// out to registered observers.
type WatchDispatchConfig struct {
	// Async, when true, dispatches to each observer on a bounded
	// goroutine pool (github.com/panjf2000/ants/v2) instead of the
	// read-loop goroutine, so a slow observer cannot stall correlation
	// of subsequent replies.
	Async    bool
	PoolSize int
}

func (c *WatchDispatchConfig) setDefaults() {
	if c.PoolSize == 0 {
		c.PoolSize = 256
	}
}

// defaultWatchRegistry fans a watch event out to every observer
// registered for its path.
type defaultWatchRegistry struct {
	mu       sync.Mutex
	watchers map[string][]Watcher

	pool *ants.Pool
	l    *slog.Logger
}

func newWatchRegistry(conf WatchDispatchConfig, l *slog.Logger) (*defaultWatchRegistry, error) {
	conf.setDefaults()
	r := &defaultWatchRegistry{
		watchers: make(map[string][]Watcher),
		l:        l,
	}

	if conf.Async {
		pool, err := ants.NewPool(conf.PoolSize)
		if err != nil {
			return nil, err
		}
		r.pool = pool
	}

	return r, nil
}

func (r *defaultWatchRegistry) Register(path string, w Watcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers[path] = append(r.watchers[path], w)
}

func (r *defaultWatchRegistry) Process(ev wire.WatchEvent) {
	r.mu.Lock()
	observers := r.watchers[ev.Path]
	delete(r.watchers, ev.Path) // ZK watches are one-shot per registration
	r.mu.Unlock()

	for _, w := range observers {
		w := w
		if r.pool != nil {
			if err := r.pool.Submit(func() { w(ev) }); err != nil {
				r.l.Error("watch dispatch: pool submit", "err", err)
			}
			continue
		}
		w(ev)
	}
}

func (r *defaultWatchRegistry) Close() {
	if r.pool != nil {
		r.pool.Release()
	}
}
