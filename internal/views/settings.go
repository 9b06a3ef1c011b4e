package views

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mesh-intelligence/checklist/pkg/types"
)

// Settings exposes the dark mode preference.
type Settings struct {
	feed
	store  types.Settings
	logger *slog.Logger

	mu   sync.Mutex
	dark bool
}

func NewSettings(store types.Settings, logger *slog.Logger) *Settings {
	s := &Settings{store: store, logger: orDiscard(logger)}
	s.feed.init()
	return s
}

// Start follows the preference until Stop.
func (s *Settings) Start(ctx context.Context) error {
	sub, err := s.store.DarkMode(ctx)
	if err != nil {
		return failed(ctx, s.logger, "watch dark mode", err)
	}
	follow(&s.feed, sub, func(v bool) {
		s.mu.Lock()
		s.dark = v
		s.mu.Unlock()
	})
	return nil
}

func (s *Settings) DarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dark
}

// SetDarkMode stores the preference. The observed value follows through the
// subscription.
func (s *Settings) SetDarkMode(ctx context.Context, enabled bool) error {
	if err := s.store.SetDarkMode(ctx, enabled); err != nil {
		return failed(ctx, s.logger, "set dark mode", err)
	}
	return nil
}

// Toggle flips the current preference.
func (s *Settings) Toggle(ctx context.Context) error {
	return s.SetDarkMode(ctx, !s.DarkMode())
}
