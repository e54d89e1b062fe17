package feed

import (
	"log"
	"sync"
	"sync/atomic"
)

// Subscription is the handle returned by Broker.Subscribe.
type Subscription struct {
	id      uint64
	table   string
	handler Handler
	closed  atomic.Bool
}

func (s *Subscription) Table() string { return s.table }

// Active reports whether the subscription still receives events.
func (s *Subscription) Active() bool { return !s.closed.Load() }

// Broker fans change events out to the subscribers of each table. Publish
// runs handlers on the caller's goroutine in subscription order, so events of
// one publisher are observed in publish order.
type Broker struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]*Subscription
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string][]*Subscription)}
}

func (b *Broker) Subscribe(table string, h Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{id: b.nextID, table: table, handler: h}
	b.subs[table] = append(b.subs[table], sub)
	log.Printf("📡 subscribed to %s (subscribers=%d)", table, len(b.subs[table]))
	return sub
}

// Unsubscribe detaches sub. No handler call starts after it returns, including
// calls from a Publish that was already iterating.
func (b *Broker) Unsubscribe(sub *Subscription) {
	if sub == nil || sub.closed.Swap(true) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.subs[sub.table]
	for i, s := range list {
		if s.id == sub.id {
			b.subs[sub.table] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(b.subs[sub.table]) == 0 {
		delete(b.subs, sub.table)
	}
}

// Publish delivers evt to every active subscriber of evt.Table and returns
// how many handlers ran.
func (b *Broker) Publish(evt ChangeEvent) int {
	b.mu.RLock()
	targets := append([]*Subscription(nil), b.subs[evt.Table]...)
	b.mu.RUnlock()

	n := 0
	for _, s := range targets {
		if !s.Active() {
			continue
		}
		s.handler(evt)
		n++
	}
	return n
}

// Subscribers returns the number of live subscriptions on table.
func (b *Broker) Subscribers(table string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[table])
}
