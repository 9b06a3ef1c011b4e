package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mesh-intelligence/checklist/internal/config"
	"github.com/mesh-intelligence/checklist/internal/logging"
	"github.com/mesh-intelligence/checklist/internal/paths"
	"github.com/mesh-intelligence/checklist/internal/repository"
	"github.com/mesh-intelligence/checklist/internal/settings"
	"github.com/mesh-intelligence/checklist/internal/sqlite"
	"github.com/mesh-intelligence/checklist/pkg/types"
)

// session is an attached store plus the resolved configuration for one
// command invocation.
type session struct {
	dirs    paths.Dirs
	config  *config.Config
	logger  *slog.Logger
	backend *sqlite.Backend
	repo    *repository.Repository
	prefs   types.Settings
}

// resolve loads configuration and resolves the directories without opening
// the store.
func (a *app) resolve() (paths.Dirs, *config.Config, error) {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return paths.Dirs{}, nil, fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		return paths.Dirs{}, nil, err
	}
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, cfg.DataDir)
	if err != nil {
		return paths.Dirs{}, nil, fmt.Errorf("resolve data dir: %w", err)
	}
	return paths.Dirs{Config: configDir, Data: dataDir}, cfg, nil
}

// open attaches the record store. The caller must Close the session.
func (a *app) open() (*session, error) {
	dirs, cfg, err := a.resolve()
	if err != nil {
		return nil, err
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)
	if a.flags.jsonMode {
		logger = logging.NewJSON(os.Stderr, cfg.LogLevel)
	}

	backend := sqlite.NewBackend()
	if err := backend.Attach(cfg.Store(dirs.Data)); err != nil {
		return nil, fmt.Errorf("attach backend: %w", err)
	}
	return &session{
		dirs:    dirs,
		config:  cfg,
		logger:  logger,
		backend: backend,
		repo:    repository.New(backend, logger),
	}, nil
}

// settings opens the preference store on first use.
func (s *session) settings(ctx context.Context) (types.Settings, error) {
	if s.prefs != nil {
		return s.prefs, nil
	}
	prefs, err := settings.Open(ctx, s.config.Settings, s.dirs.Config, s.logger)
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}
	s.prefs = prefs
	return prefs, nil
}

// darkMode reads the display preference. Failures fall back to light mode.
func (s *session) darkMode(ctx context.Context) bool {
	prefs, err := s.settings(ctx)
	if err != nil {
		s.logger.Warn("settings unavailable", "error", err)
		return false
	}
	sub, err := prefs.DarkMode(ctx)
	if err != nil {
		s.logger.Warn("reading dark mode", "error", err)
		return false
	}
	defer sub.Cancel()
	on, err := sub.Next(ctx)
	if err != nil {
		s.logger.Warn("reading dark mode", "error", err)
		return false
	}
	return on
}

func (s *session) Close() error {
	if s.prefs != nil {
		if err := s.prefs.Close(); err != nil {
			s.logger.Warn("closing settings", "error", err)
		}
	}
	return s.backend.Detach()
}

// withSession opens a session for fn and classifies its error.
func (a *app) withSession(fn func(s *session) error) error {
	s, err := a.open()
	if err != nil {
		return commandError(err)
	}
	defer s.Close()
	return commandError(fn(s))
}
