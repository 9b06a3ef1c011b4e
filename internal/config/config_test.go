package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/checklist/pkg/types"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o644))
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, types.BackendSQLite, cfg.Backend)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, SettingsFile, cfg.Settings.Backend)
	assert.Equal(t, "checklist:", cfg.Settings.RedisPrefix)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Empty(t, cfg.Backup.Schedule)
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
backend: sqlite
data_dir: /var/lib/checklist
log_level: debug
settings:
  backend: redis
  redis_addr: cache:6379
server:
  addr: :9090
  cors_origins: ["http://localhost:5173"]
backup:
  schedule: "0 3 * * *"
  dir: /backups
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/checklist", cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, SettingsRedis, cfg.Settings.Backend)
	assert.Equal(t, "cache:6379", cfg.Settings.RedisAddr)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "0 3 * * *", cfg.Backup.Schedule)
	assert.Equal(t, "/backups", cfg.Backup.Dir)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "log_level: debug\nserver:\n  addr: :9090\n")
	t.Setenv("CHECKLIST_LOG_LEVEL", "error")
	t.Setenv("CHECKLIST_SERVER_ADDR", ":7070")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, ":7070", cfg.Server.Addr)
}

func TestDotEnvSeedsEnvironment(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("CHECKLIST_SETTINGS_REDIS_PREFIX=test:\n"), 0o644))
	// Register cleanup for the variable godotenv is about to set.
	t.Setenv("CHECKLIST_SETTINGS_REDIS_PREFIX", "")
	require.NoError(t, os.Unsetenv("CHECKLIST_SETTINGS_REDIS_PREFIX"))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "test:", cfg.Settings.RedisPrefix)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"unknown backend", "backend: postgres\n", types.ErrBackendUnknown},
		{"unknown settings backend", "settings:\n  backend: etcd\n", ErrSettingsBackend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.body)
			_, err := Load(dir)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "log_level: shouty\n")
	_, err := Load(dir)
	assert.ErrorContains(t, err, "unknown log level")
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "backend: [unterminated\n")
	_, err := Load(dir)
	assert.ErrorContains(t, err, "reading config")
}

func TestWriteDefault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfg")

	wrote, err := WriteDefault(dir, "")
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = WriteDefault(dir, "/elsewhere")
	require.NoError(t, err)
	assert.False(t, wrote)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, types.BackendSQLite, cfg.Backend)
	assert.Equal(t, SettingsFile, cfg.Settings.Backend)
	assert.Empty(t, cfg.DataDir)
}

func TestWriteDefaultRecordsDataDir(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(t.TempDir(), "db")

	wrote, err := WriteDefault(dir, data)
	require.NoError(t, err)
	require.True(t, wrote)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, data, cfg.DataDir)
}

func TestStore(t *testing.T) {
	cfg := &Config{Backend: types.BackendSQLite}
	assert.Equal(t, types.Config{Backend: types.BackendSQLite, DataDir: "/d"}, cfg.Store("/d"))
}
