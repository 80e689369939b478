package profile

import (
	"context"
	"log/slog"
	"sync"
)

// Registry hands out one Store per session, restoring persisted state the
// first time a session is seen.
type Registry struct {
	remote  Remote
	persist Persister
	logger  *slog.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

func NewRegistry(remote Remote, persist Persister, logger *slog.Logger) *Registry {
	return &Registry{
		remote:  remote,
		persist: persist,
		logger:  logger,
		stores:  make(map[string]*Store),
	}
}

// Get returns the store for session, which is normalized like an email.
// When the persisted state cannot be read the store starts empty and is not
// kept, so the next call tries again.
func (r *Registry) Get(ctx context.Context, session string) *Store {
	session = NormalizeEmail(session)

	r.mu.Lock()
	store, ok := r.stores[session]
	r.mu.Unlock()
	if ok {
		return store
	}

	store = NewStore(session, r.remote, r.persist, r.logger)
	if err := store.Restore(ctx); err != nil {
		r.logger.Warn("Failed to restore profile state", "session", session, "error", err)
		return store
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.stores[session]; ok {
		return existing
	}
	r.stores[session] = store
	return store
}

// Forget drops the session's store after clearing it.
func (r *Registry) Forget(ctx context.Context, session string) error {
	session = NormalizeEmail(session)

	r.mu.Lock()
	store, ok := r.stores[session]
	delete(r.stores, session)
	r.mu.Unlock()

	if !ok {
		store = NewStore(session, r.remote, r.persist, r.logger)
	}
	return store.Clear(ctx)
}
