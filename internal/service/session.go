package service

import (
	"sort"
	"sync"
	"time"

	"ryven-shop/internal/inflight"
	"ryven-shop/internal/logger"
	"ryven-shop/internal/repository"

	"go.uber.org/zap"
)

// Session holds the view-models of one operator; caches are never shared between sessions
type Session struct {
	ID      string
	Orders  *OrderReview
	Catalog *Catalog

	lastSeen time.Time
}

// DrainNotifications returns every pending notification of both screens, oldest first
func (s *Session) DrainNotifications() []Notification {
	out := append(s.Orders.DrainNotifications(), s.Catalog.DrainNotifications()...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	if out == nil {
		out = []Notification{}
	}
	return out
}

// SessionDeps are the shared collaborators every session is built from
type SessionDeps struct {
	Orders   repository.OrderRepository
	Products repository.ProductRepository
	Guard    inflight.Guard
	Catalog  CatalogOptions
	Logger   *zap.Logger
}

// Registry owns the sessions keyed by operator id and evicts idle ones
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	deps     SessionDeps
	idleTTL  time.Duration
	now      func() time.Time
}

// NewRegistry creates an empty registry; idleTTL <= 0 disables eviction
func NewRegistry(deps SessionDeps, idleTTL time.Duration) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		deps:     deps,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Get returns the operator's session, creating it on first use
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.evictLocked(now)

	if s, ok := r.sessions[id]; ok {
		s.lastSeen = now
		return s, false
	}

	log := logger.Session(r.deps.Logger, id)
	s := &Session{
		ID:       id,
		Orders:   NewOrderReview(r.deps.Orders, r.deps.Guard, log),
		Catalog:  NewCatalog(r.deps.Products, r.deps.Guard, r.deps.Catalog, log),
		lastSeen: now,
	}
	r.sessions[id] = s
	log.Info("Session opened")
	return s, true
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) evictLocked(now time.Time) {
	if r.idleTTL <= 0 {
		return
	}
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) > r.idleTTL {
			delete(r.sessions, id)
			r.deps.Logger.Info("Session evicted", zap.String("session_id", id))
		}
	}
}
