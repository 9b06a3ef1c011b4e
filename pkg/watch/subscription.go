package watch

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrDone is returned by Next once a subscription has ended without a
// terminal error, for example after Cancel.
var ErrDone = errors.New("subscription ended")

// Subscription is a live stream of query snapshots. Read snapshots from C or
// with Next. C is closed when the subscription ends; Err then reports why.
type Subscription[T any] struct {
	C <-chan T

	out    chan T
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Watch runs query once for an initial snapshot and again after each Publish
// on any of topics, until ctx is cancelled, Cancel is called, the hub closes,
// or query fails. Each subscription owns its own stream.
func Watch[T any](ctx context.Context, hub *Hub, query func(context.Context) (T, error), topics ...Topic) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan T, 1)
	s := &Subscription[T]{
		C:      out,
		out:    out,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	// Register before the first query so no change between the two is lost.
	id, signal, ok := hub.subscribe(topics)
	if !ok {
		s.err = ErrClosed
		close(s.out)
		close(s.done)
		return s
	}
	go s.run(ctx, hub, id, signal, query)
	return s
}

func (s *Subscription[T]) run(ctx context.Context, hub *Hub, id uuid.UUID, signal <-chan struct{}, query func(context.Context) (T, error)) {
	defer close(s.done)
	defer close(s.out)
	defer hub.unsubscribe(id)

	for {
		v, err := query(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.setErr(err)
			}
			return
		}
		deliver(s.out, v)

		select {
		case <-ctx.Done():
			return
		case _, open := <-signal:
			if !open {
				s.setErr(ErrClosed)
				return
			}
		}
	}
}

// deliver replaces any unread snapshot with v. Only the run goroutine sends,
// so the second send never blocks.
func deliver[T any](out chan T, v T) {
	select {
	case out <- v:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	out <- v
}

// Next blocks for the next snapshot. It returns Err, or ErrDone when the
// subscription ended cleanly, once C is closed.
func (s *Subscription[T]) Next(ctx context.Context) (T, error) {
	var zero T
	select {
	case v, ok := <-s.out:
		if !ok {
			if err := s.Err(); err != nil {
				return zero, err
			}
			return zero, ErrDone
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Cancel ends the subscription and waits for its goroutine to exit.
func (s *Subscription[T]) Cancel() {
	s.cancel()
	<-s.done
}

// Done is closed when the subscription has ended.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Err returns the terminal error: a query failure or ErrClosed. It is nil
// while the subscription runs and after a plain cancellation.
func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription[T]) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
