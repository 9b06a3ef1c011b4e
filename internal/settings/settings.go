// Package settings stores the user's display preferences. The file store
// keeps them in settings.yaml beside config.yaml; the redis store shares them
// between processes and hosts.
package settings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/checklist/internal/config"
	"github.com/mesh-intelligence/checklist/pkg/types"
)

// Open returns the settings store selected by cfg.
func Open(ctx context.Context, cfg config.SettingsConfig, configDir string, logger *slog.Logger) (types.Settings, error) {
	switch cfg.Backend {
	case config.SettingsFile, "":
		return NewFileStore(configDir, logger), nil
	case config.SettingsRedis:
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPrefix, logger)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrSettingsBackend, cfg.Backend)
	}
}
