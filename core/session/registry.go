package session

import (
	"context"
	"sync"
	"time"

	"github.com/eduatipico/portal/core"
)

type (
	RegistryOptions struct {
		Options
		// TTL of persisted session records; zero never expires.
		TTL time.Duration
		// RestoreTimeout bounds the read of a persisted record. Defaults to the login timeout.
		RestoreTimeout time.Duration
	}

	// Registry owns the Store of every client seen by the process.
	Registry struct {
		backend Backend
		auth    Authenticator
		logger  core.Logger
		opts    RegistryOptions

		mu     sync.Mutex
		stores map[string]*Store
	}
)

func NewRegistry(backend Backend, auth Authenticator, logger core.Logger, opts RegistryOptions) *Registry {
	if opts.RestoreTimeout <= 0 {
		opts.RestoreTimeout = opts.LoginTimeout
	}
	if opts.RestoreTimeout <= 0 {
		opts.RestoreTimeout = DefaultLoginTimeout
	}
	return &Registry{
		backend: backend,
		auth:    auth,
		logger:  logger,
		opts:    opts,
		stores:  make(map[string]*Store),
	}
}

// Get returns the Store of clientID. A client seen for the first time gets a new Store which is
// restored after it is published, so concurrent callers may observe it loading.
// The restore outlives the request that triggered it. When the backend read fails, the Store is
// still returned but forgotten, so the next request restores the client again.
func (r *Registry) Get(ctx context.Context, clientID string) *Store {
	r.mu.Lock()
	store, ok := r.stores[clientID]
	if !ok {
		store = NewStore(NewBackendStorage(r.backend, clientID, r.opts.TTL), r.auth, r.logger, r.opts.Options)
		r.stores[clientID] = store
		activeStores.Inc()
	}
	r.mu.Unlock()

	if !ok {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.opts.RestoreTimeout)
		err := store.Restore(rctx)
		cancel()
		if err != nil {
			r.forget(clientID, store)
		}
	}
	return store
}

func (r *Registry) forget(clientID string, store *Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stores[clientID] == store {
		delete(r.stores, clientID)
		activeStores.Dec()
	}
}

// Peek returns the Store of clientID without creating it.
func (r *Registry) Peek(clientID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	store, ok := r.stores[clientID]
	return store, ok
}

// Len is the number of Stores held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Sweep drops the Stores unused for longer than idle. Their persisted records are kept, so a
// returning client is restored from the Backend.
func (r *Registry) Sweep(idle time.Duration) int {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	for id, store := range r.stores {
		if store.idleSince(now) > idle {
			delete(r.stores, id)
			n++
		}
	}
	activeStores.Sub(float64(n))
	return n
}

// Run sweeps every `every` until ctx is done.
func (r *Registry) Run(ctx context.Context, every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				r.logger.Debug("session: swept idle stores", map[string]interface{}{"count": n})
			}
		}
	}
}
