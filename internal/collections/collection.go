// Package collections keeps in-memory, feed-synchronized mirrors of the
// remote tables: one Collection per entity, loaded with FetchAll and kept
// current by the table's change feed.
package collections

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirdesai22/sportsfest-sync/internal/feed"
	"github.com/sirdesai22/sportsfest-sync/internal/metrics"
	"github.com/sirdesai22/sportsfest-sync/internal/remote"
	"github.com/sirdesai22/sportsfest-sync/internal/storage"
)

// Deps are the collaborators every collection is built from.
type Deps struct {
	Client  remote.Client
	Storage storage.Client
	// Timeout bounds each remote call; zero means no bound.
	Timeout time.Duration
}

// State is what a consumer renders. Error is empty when the last fetch
// succeeded.
type State[T any] struct {
	Items   []T    `json:"items"`
	Loading bool   `json:"loading"`
	Error   string `json:"error"`
}

type entity[T any] struct {
	table string
	load  func(ctx context.Context) ([]T, error)
	less  func(a, b T) bool
	id    func(T) uuid.UUID
	// updated orders two versions of the same row; optional.
	updated func(T) time.Time
	// refetch makes every feed event reload the collection instead of
	// patching; used where rows carry joined fields the feed lacks.
	refetch bool
}

// Collection is the mirror of one table. It is safe for concurrent use.
type Collection[T any] struct {
	client  remote.Client
	timeout time.Duration
	e       entity[T]

	mu        sync.Mutex
	items     []T
	inflight  int
	errMsg    string
	sub       *feed.Subscription
	live      context.Context
	subCancel context.CancelFunc
	listeners map[int]func(State[T])
	nextL     int
}

func newCollection[T any](d Deps, e entity[T]) *Collection[T] {
	return &Collection[T]{
		client:    d.Client,
		timeout:   d.Timeout,
		e:         e,
		items:     []T{},
		listeners: map[int]func(State[T]){},
	}
}

func (c *Collection[T]) Table() string { return c.e.table }

// Snapshot returns a copy of the current state.
func (c *Collection[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Collection[T]) snapshotLocked() State[T] {
	return State[T]{
		Items:   append([]T(nil), c.items...),
		Loading: c.inflight > 0,
		Error:   c.errMsg,
	}
}

// Find returns the item with id.
func (c *Collection[T]) Find(id uuid.UUID) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// OnChange registers fn to receive a snapshot after every state change.
func (c *Collection[T]) OnChange(fn func(State[T])) (cancel func()) {
	c.mu.Lock()
	id := c.nextL
	c.nextL++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// FetchAll reloads every row. On failure the previous items stay and Error
// is set. Concurrent calls are not coalesced; the last one to finish wins.
func (c *Collection[T]) FetchAll(ctx context.Context) error {
	return c.fetch(ctx, ctx)
}

// fetch loads under ctx and applies the result only while live is not done,
// so a refetch started by the feed is dropped once the subscription ends.
func (c *Collection[T]) fetch(ctx, live context.Context) error {
	c.mu.Lock()
	c.inflight++
	c.mu.Unlock()
	c.notify()

	callCtx, cancel := c.callContext(ctx)
	items, err := c.e.load(callCtx)
	cancel()

	c.mu.Lock()
	c.inflight--
	dropped := live.Err()
	switch {
	case dropped != nil:
	case err != nil:
		c.errMsg = fmt.Sprintf("failed to load %s: %v", c.e.table, err)
	default:
		sort.SliceStable(items, func(i, j int) bool { return c.e.less(items[i], items[j]) })
		if items == nil {
			items = []T{}
		}
		c.items = items
		c.errMsg = ""
	}
	c.mu.Unlock()
	c.notify()

	if err != nil {
		metrics.FetchFailures.WithLabelValues(c.e.table).Inc()
		log.Printf("❌ fetch %s: %v", c.e.table, err)
		return fmt.Errorf("%w: %s: %w", ErrFetch, c.e.table, err)
	}
	if dropped != nil {
		return fmt.Errorf("%w: %s: not applied: %w", ErrFetch, c.e.table, dropped)
	}
	return nil
}

// Subscribe opens the change feed for the table. A store holds at most one
// subscription; calling Subscribe again returns the existing release func.
// Cancelling ctx has the same effect as calling the returned func.
func (c *Collection[T]) Subscribe(ctx context.Context) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.live != nil && c.live.Err() == nil {
		return c.Unsubscribe
	}

	live, cancel := context.WithCancel(ctx)
	sub := c.client.SubscribeChanges(c.e.table, func(evt feed.ChangeEvent) {
		c.handle(live, evt)
	})
	context.AfterFunc(live, func() { c.client.Unsubscribe(sub) })
	c.sub, c.live, c.subCancel = sub, live, cancel
	return c.Unsubscribe
}

// Unsubscribe releases the feed subscription. No feed event mutates the
// collection after it returns.
func (c *Collection[T]) Unsubscribe() {
	c.mu.Lock()
	cancel := c.subCancel
	sub := c.sub
	c.sub, c.live, c.subCancel = nil, nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		c.client.Unsubscribe(sub)
	}
}

// Subscribed reports whether a feed subscription is open.
func (c *Collection[T]) Subscribed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live != nil && c.live.Err() == nil
}

func (c *Collection[T]) handle(live context.Context, evt feed.ChangeEvent) {
	if live.Err() != nil {
		return
	}
	metrics.FeedEvents.WithLabelValues(c.e.table, string(evt.Type)).Inc()

	if c.e.refetch {
		metrics.Refetches.WithLabelValues(c.e.table).Inc()
		_ = c.fetch(live, live)
		return
	}

	switch evt.Type {
	case feed.Insert, feed.Update:
		var row T
		if err := json.Unmarshal(evt.New, &row); err != nil {
			c.reload(live, evt, err)
			return
		}
		c.apply(live, func() { c.upsertLocked(row) })
	case feed.Delete:
		var old struct {
			ID uuid.UUID `json:"id"`
		}
		if err := json.Unmarshal(evt.Old, &old); err != nil || old.ID == uuid.Nil {
			if err == nil {
				err = errors.New("old row carries no id")
			}
			c.reload(live, evt, err)
			return
		}
		c.apply(live, func() { c.removeLocked(old.ID) })
	}
}

// reload refetches the collection when an event cannot be applied locally.
func (c *Collection[T]) reload(live context.Context, evt feed.ChangeEvent, err error) {
	log.Printf("❌ undecodable %s %s event, reloading: %v", evt.Table, evt.Type, err)
	metrics.Refetches.WithLabelValues(c.e.table).Inc()
	_ = c.fetch(live, live)
}

func (c *Collection[T]) apply(live context.Context, patch func()) {
	c.mu.Lock()
	if live.Err() != nil {
		c.mu.Unlock()
		return
	}
	patch()
	c.mu.Unlock()
	c.notify()
}

// patchUpsert and patchRemove are the optimistic echoes of a successful
// local mutation; the feed event for the same row is idempotent with them. An
// echo older than what the feed already delivered is dropped.
func (c *Collection[T]) patchUpsert(row T) {
	c.mu.Lock()
	if i := c.indexLocked(c.e.id(row)); i >= 0 && c.e.updated != nil &&
		c.e.updated(c.items[i]).After(c.e.updated(row)) {
		c.mu.Unlock()
		return
	}
	c.upsertLocked(row)
	c.mu.Unlock()
	c.notify()
}

func (c *Collection[T]) patchRemove(id uuid.UUID) {
	c.mu.Lock()
	c.removeLocked(id)
	c.mu.Unlock()
	c.notify()
}

// upsertLocked replaces any row with the same id and inserts row at its
// sorted position, after rows that compare equal.
func (c *Collection[T]) upsertLocked(row T) {
	c.removeLocked(c.e.id(row))
	i := sort.Search(len(c.items), func(i int) bool { return c.e.less(row, c.items[i]) })
	c.items = append(c.items, row)
	copy(c.items[i+1:], c.items[i:])
	c.items[i] = row
}

func (c *Collection[T]) removeLocked(id uuid.UUID) {
	if i := c.indexLocked(id); i >= 0 {
		c.items = append(c.items[:i:i], c.items[i+1:]...)
	}
}

func (c *Collection[T]) indexLocked(id uuid.UUID) int {
	for i, it := range c.items {
		if c.e.id(it) == id {
			return i
		}
	}
	return -1
}

func (c *Collection[T]) notify() {
	c.mu.Lock()
	if len(c.listeners) == 0 {
		c.mu.Unlock()
		return
	}
	st := c.snapshotLocked()
	fns := make([]func(State[T]), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

func (c *Collection[T]) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// mutationFailed logs and counts a rejected write and tags it ErrMutation.
func (c *Collection[T]) mutationFailed(op string, id uuid.UUID, err error) error {
	metrics.MutationFailures.WithLabelValues(c.e.table, op).Inc()
	if id == uuid.Nil {
		log.Printf("❌ %s %s: %v", op, c.e.table, err)
		return fmt.Errorf("%w: %s %s: %w", ErrMutation, op, c.e.table, err)
	}
	log.Printf("❌ %s %s %s: %v", op, c.e.table, id, err)
	return fmt.Errorf("%w: %s %s %s: %w", ErrMutation, op, c.e.table, id, err)
}
