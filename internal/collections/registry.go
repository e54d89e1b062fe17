package collections

import (
	"context"
	"log"
	"sync"

	"github.com/sirdesai22/sportsfest-sync/internal/models"
)

type store interface {
	Subscribe(ctx context.Context) func()
	Unsubscribe()
	FetchAll(ctx context.Context) error
}

type shared struct {
	store store
	refs  int
}

// Registry shares one store per entity between all of its consumers. The
// first consumer subscribes and loads it; the store is unsubscribed and
// dropped when the last one releases it, and rebuilt on the next acquire.
type Registry struct {
	deps Deps
	base context.Context

	mu      sync.Mutex
	entries map[string]*shared
}

// NewRegistry builds stores from d. Subscriptions live until their store is
// released or base is cancelled.
func NewRegistry(base context.Context, d Deps) *Registry {
	return &Registry{deps: d, base: base, entries: map[string]*shared{}}
}

func acquire[S store](ctx context.Context, r *Registry, table string, build func(Deps) S) (S, func()) {
	r.mu.Lock()
	e, ok := r.entries[table]
	if !ok {
		s := build(r.deps)
		s.Subscribe(r.base)
		e = &shared{store: s}
		r.entries[table] = e
	}
	e.refs++
	s := e.store.(S)
	r.mu.Unlock()

	if !ok {
		// The error is kept in the store's state for its consumers.
		_ = s.FetchAll(ctx)
		log.Printf("✅ shared %s store ready", table)
	}

	var once sync.Once
	return s, func() { once.Do(func() { r.release(table, e) }) }
}

func (r *Registry) release(table string, e *shared) {
	r.mu.Lock()
	e.refs--
	last := e.refs == 0
	if last && r.entries[table] == e {
		delete(r.entries, table)
	}
	r.mu.Unlock()

	if last {
		e.store.Unsubscribe()
		log.Printf("♻️ shared %s store released", table)
	}
}

// Refs reports how many consumers hold the store for table.
func (r *Registry) Refs(table string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[table]; ok {
		return e.refs
	}
	return 0
}

func (r *Registry) Clubs(ctx context.Context) (*Clubs, func()) {
	return acquire(ctx, r, models.TableClubs, NewClubs)
}

func (r *Registry) Fixtures(ctx context.Context) (*Fixtures, func()) {
	return acquire(ctx, r, models.TableFixtures, NewFixtures)
}

func (r *Registry) Media(ctx context.Context) (*Media, func()) {
	return acquire(ctx, r, models.TableMedia, NewMedia)
}

func (r *Registry) Results(ctx context.Context) (*Results, func()) {
	return acquire(ctx, r, models.TableResults, NewResults)
}

func (r *Registry) Messages(ctx context.Context) (*Messages, func()) {
	return acquire(ctx, r, models.TableMessages, NewMessages)
}

func (r *Registry) Press(ctx context.Context) (*Press, func()) {
	return acquire(ctx, r, models.TablePress, NewPress)
}
