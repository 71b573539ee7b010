package chat

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// DefaultSessionTTL is how long an idle web session is kept.
const DefaultSessionTTL = 30 * time.Minute

// Registry holds one Session per browser, keyed by a UUID the browser keeps.
// Sessions expire after ttl without use.
type Registry struct {
	engine     Answerer
	maxHistory int
	ttl        time.Duration
	logger     *slog.Logger

	mu       sync.Mutex
	sessions *cache.Cache
}

// NewRegistry returns an empty registry. ttl <= 0 uses DefaultSessionTTL.
func NewRegistry(engine Answerer, maxHistory int, ttl time.Duration, logger *slog.Logger) *Registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Registry{
		engine:     engine,
		maxHistory: maxHistory,
		ttl:        ttl,
		logger:     logger,
		sessions:   cache.New(ttl, ttl/2),
	}
}

// Get returns the live session for id and refreshes its expiry.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(id)
}

func (r *Registry) get(id string) (*Session, bool) {
	v, ok := r.sessions.Get(id)
	if !ok {
		return nil, false
	}
	s := v.(*Session)
	r.sessions.Set(id, s, cache.DefaultExpiration)
	return s, true
}

// GetOrCreate returns the session for id, creating it when missing. An id
// that is not a UUID is replaced by a fresh one.
func (r *Registry) GetOrCreate(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.get(id); ok {
		return s
	}

	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	s := NewSession(id, r.engine, r.maxHistory, r.logger)
	r.sessions.Set(id, s, cache.DefaultExpiration)
	r.logger.Debug("session created", "session", id, "ttl", r.ttl)
	return s
}

// Delete drops the session for id.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions.Delete(id)
}

// Len returns the number of live sessions, expired ones included until the
// next cleanup.
func (r *Registry) Len() int {
	return r.sessions.ItemCount()
}
