// Package inflight suppresses duplicate concurrent mutations of the same entity.
package inflight

import (
	"context"
	"errors"
	"sync"
)

// ErrInFlight is returned when the key is already held
var ErrInFlight = errors.New("operation already in progress")

// Guard hands out exclusive, short-lived claims on entity keys
type Guard interface {
	// Acquire claims key until the returned release func is called
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Local is an in-process Guard
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocal creates an empty in-process guard
func NewLocal() *Local {
	return &Local{held: make(map[string]struct{})}
}

func (g *Local) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.held[key]; busy {
		return nil, ErrInFlight
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}
