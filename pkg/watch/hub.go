// Package watch turns one-shot queries into live snapshot streams.
//
// A Hub fans change signals out to listeners by topic. Watch subscribes a
// query to a set of topics and re-runs it after every relevant Publish,
// delivering full snapshots. Delivery is latest-wins: a slow reader skips
// intermediate snapshots and always sees the newest one.
package watch

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Topic names a class of rows whose change should trigger re-queries.
type Topic string

// Topics published by the record store and the settings stores.
const (
	TopicProjects Topic = "projects"
	TopicSteps    Topic = "steps"
	TopicSettings Topic = "settings"
)

// ErrClosed ends every subscription when its hub closes.
var ErrClosed = errors.New("watch hub closed")

type listener struct {
	topics map[Topic]struct{}
	signal chan struct{}
}

// Hub dispatches change signals to listeners. The zero value is not usable;
// call NewHub.
type Hub struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]*listener
	closed bool
}

// NewHub creates an open hub with no listeners.
func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]*listener)}
}

// subscribe registers a listener for topics. It returns false when the hub is
// already closed.
func (h *Hub) subscribe(topics []Topic) (uuid.UUID, <-chan struct{}, bool) {
	l := &listener{
		topics: make(map[Topic]struct{}, len(topics)),
		signal: make(chan struct{}, 1),
	}
	for _, t := range topics {
		l.topics[t] = struct{}{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return uuid.Nil, nil, false
	}
	id := uuid.New()
	h.subs[id] = l
	return id, l.signal, true
}

func (h *Hub) unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

// Publish signals every listener watching any of topics. Signals coalesce:
// a listener that has not yet consumed a pending signal gets no second one.
func (h *Hub) Publish(topics ...Topic) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, l := range h.subs {
		if !l.wants(topics) {
			continue
		}
		select {
		case l.signal <- struct{}{}:
		default:
		}
	}
}

// Close ends every subscription with ErrClosed. Later Watch calls return
// subscriptions that are already ended. Close is idempotent.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, l := range h.subs {
		close(l.signal)
		delete(h.subs, id)
	}
}

// Len reports the number of registered listeners.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (l *listener) wants(topics []Topic) bool {
	for _, t := range topics {
		if _, ok := l.topics[t]; ok {
			return true
		}
	}
	return false
}
