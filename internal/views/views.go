// Package views holds the UI-facing controllers: each keeps derived state for
// one screen and turns user intents into repository calls. Controllers are
// safe for concurrent use.
//
// Failures of the underlying store are logged and reported as
// ErrActionFailed so callers can show a generic message.
package views

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mesh-intelligence/checklist/pkg/watch"
)

// ErrActionFailed is the user-visible error for any store failure.
var ErrActionFailed = errors.New("action could not be completed")

// failed logs cause and returns ErrActionFailed.
func failed(ctx context.Context, logger *slog.Logger, action string, cause error) error {
	logger.ErrorContext(ctx, "action failed", "action", action, "error", cause)
	return ErrActionFailed
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

// feed signals state changes of a controller that follows a subscription.
type feed struct {
	updates chan struct{}

	mu   sync.Mutex
	stop func()
}

func (f *feed) init() {
	f.updates = make(chan struct{}, 1)
}

// Updates receives a value after each state change. Signals coalesce.
func (f *feed) Updates() <-chan struct{} {
	return f.updates
}

func (f *feed) signal() {
	select {
	case f.updates <- struct{}{}:
	default:
	}
}

// Stop cancels the live subscription started by Start, if any.
func (f *feed) Stop() {
	f.mu.Lock()
	stop := f.stop
	f.stop = nil
	f.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// follow applies every snapshot from sub until it ends or Stop is called.
// A previous subscription is stopped first.
func follow[T any](f *feed, sub *watch.Subscription[T], apply func(T)) {
	f.Stop()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for v := range sub.C {
			apply(v)
			f.signal()
		}
	}()
	f.mu.Lock()
	f.stop = func() {
		sub.Cancel()
		<-done
	}
	f.mu.Unlock()
}
