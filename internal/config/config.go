// Package config loads the checklist configuration from config.yaml in the
// configuration directory, CHECKLIST_* environment variables, and optional
// .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/checklist/internal/logging"
	"github.com/mesh-intelligence/checklist/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	// FileName is the configuration file inside the config directory.
	FileName  = "config.yaml"
	envFile   = ".env"
	envPrefix = "CHECKLIST"
)

// Config keys.
const (
	KeyBackend         = "backend"
	KeyDataDir         = "data_dir"
	KeyLogLevel        = "log_level"
	KeySettingsBackend = "settings.backend"
	KeyRedisAddr       = "settings.redis_addr"
	KeyRedisPrefix     = "settings.redis_prefix"
	KeyServerAddr      = "server.addr"
	KeyServerCORS      = "server.cors_origins"
	KeyBackupSchedule  = "backup.schedule"
	KeyBackupDir       = "backup.dir"
)

// Settings store backends.
const (
	SettingsFile  = "file"
	SettingsRedis = "redis"
)

// ErrSettingsBackend reports an unsupported settings.backend value.
var ErrSettingsBackend = errors.New("unknown settings backend")

// Config is the resolved configuration.
type Config struct {
	Backend  string         `mapstructure:"backend"`
	DataDir  string         `mapstructure:"data_dir"`
	LogLevel string         `mapstructure:"log_level"`
	Settings SettingsConfig `mapstructure:"settings"`
	Server   ServerConfig   `mapstructure:"server"`
	Backup   BackupConfig   `mapstructure:"backup"`
}

// SettingsConfig selects where the dark_mode preference lives.
type SettingsConfig struct {
	Backend     string `mapstructure:"backend"`
	RedisAddr   string `mapstructure:"redis_addr"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

// ServerConfig configures the HTTP adapter.
type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// BackupConfig configures scheduled JSONL exports. An empty schedule
// disables them.
type BackupConfig struct {
	Schedule string `mapstructure:"schedule"`
	Dir      string `mapstructure:"dir"`
}

// defaultConfigYAML is written by WriteDefault.
const defaultConfigYAML = `# checklist configuration

# Record store backend
backend: sqlite

# Data directory (optional; overridable by --data-dir)
# data_dir:

log_level: info

settings:
  # file stores settings.yaml next to this file; redis shares it across hosts
  backend: file
  redis_addr: localhost:6379
  redis_prefix: "checklist:"

server:
  addr: 127.0.0.1:8080
  cors_origins: []

backup:
  # cron expression, e.g. "0 3 * * *"; empty disables scheduled backups
  schedule: ""
  # dir:
`

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyBackend, types.BackendSQLite)
	v.SetDefault(KeyDataDir, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeySettingsBackend, SettingsFile)
	v.SetDefault(KeyRedisAddr, "localhost:6379")
	v.SetDefault(KeyRedisPrefix, "checklist:")
	v.SetDefault(KeyServerAddr, "127.0.0.1:8080")
	v.SetDefault(KeyServerCORS, []string{})
	v.SetDefault(KeyBackupSchedule, "")
	v.SetDefault(KeyBackupDir, "")
}

// Load reads configuration for configDir. Values resolve as environment >
// config.yaml > defaults. A .env file in configDir, then in the working
// directory, seeds the environment without overriding variables already set.
// A missing config.yaml or .env is not an error.
func Load(configDir string) (*Config, error) {
	for _, path := range []string{filepath.Join(configDir, envFile), envFile} {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks backend names and the log level.
func (c *Config) Validate() error {
	if err := c.Store("").Validate(); err != nil {
		return fmt.Errorf("backend %q: %w", c.Backend, err)
	}
	switch c.Settings.Backend {
	case SettingsFile, SettingsRedis:
	default:
		return fmt.Errorf("%w: %q", ErrSettingsBackend, c.Settings.Backend)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Store returns the record store configuration for dataDir.
func (c *Config) Store(dataDir string) types.Config {
	return types.Config{Backend: c.Backend, DataDir: dataDir}
}

// WriteDefault creates configDir and a commented config.yaml when none
// exists, recording dataDir when it is not empty. It reports whether it wrote
// the file.
func WriteDefault(configDir, dataDir string) (bool, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("creating config directory: %w", err)
	}
	path := filepath.Join(configDir, FileName)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("checking %s: %w", path, err)
	}
	content := defaultConfigYAML
	if dataDir != "" {
		content = strings.Replace(content, "# data_dir:\n", fmt.Sprintf("data_dir: %q\n", dataDir), 1)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	return true, nil
}
