// Package watch is the in-process change feed: writers publish full
// collection snapshots, readers get a cancellable subscription that
// always converges on the latest state.
package watch

import (
	"encoding/json"
	"sync"
)

// Snapshot is the full state of one collection, keyed by document id.
// Documents travel as raw JSON and are decoded at the consumer boundary.
type Snapshot struct {
	Collection string
	Docs       map[string]json.RawMessage
}

type Subscription struct {
	C      <-chan Snapshot
	ch     chan Snapshot
	cancel func()
	once   sync.Once

	mu     sync.Mutex
	closed bool
}

// Cancel detaches the subscription and closes its channel, so consumers
// ranging over C terminate. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.cancel()
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
	})
}

type Hub struct {
	mu   sync.RWMutex
	last map[string]Snapshot
	subs map[string]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{
		last: make(map[string]Snapshot),
		subs: make(map[string]map[*Subscription]struct{}),
	}
}

// Watch subscribes to a collection. The last published snapshot, if any,
// is delivered immediately.
func (h *Hub) Watch(collection string) *Subscription {
	ch := make(chan Snapshot, 16)
	sub := &Subscription{C: ch, ch: ch}
	sub.cancel = func() {
		h.mu.Lock()
		delete(h.subs[collection], sub)
		h.mu.Unlock()
	}

	h.mu.Lock()
	if h.subs[collection] == nil {
		h.subs[collection] = make(map[*Subscription]struct{})
	}
	h.subs[collection][sub] = struct{}{}
	last, ok := h.last[collection]
	h.mu.Unlock()

	if ok {
		sub.send(last)
	}
	return sub
}

// Publish replaces the collection snapshot and fans it out. Snapshots
// are whole-state, so a slow reader may skip intermediate states but
// always observes the newest one.
func (h *Hub) Publish(snap Snapshot) {
	h.mu.Lock()
	h.last[snap.Collection] = snap
	targets := make([]*Subscription, 0, len(h.subs[snap.Collection]))
	for sub := range h.subs[snap.Collection] {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		sub.send(snap)
	}
}

func (s *Subscription) send(snap Snapshot) {
	// The lock serializes sends with Cancel's close; a publisher holding
	// a stale pointer after Cancel just drops the snapshot.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- snap:
			return
		default:
			// Full buffer: drop the oldest pending snapshot, latest wins.
			select {
			case <-s.ch:
			default:
			}
		}
	}
}
