package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/checklist/pkg/types"
)

// newTestBackend attaches a backend to a fresh data directory.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return b
}

func TestAttachCreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	b := NewBackend()

	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	defer b.Detach()

	_, err := os.Stat(filepath.Join(dir, DatabaseFile))
	assert.NoError(t, err)
	assert.Equal(t, dir, b.Config().DataDir)
}

func TestAttachValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  types.Config
		wantErr error
	}{
		{"empty backend", types.Config{DataDir: "x"}, types.ErrBackendEmpty},
		{"unknown backend", types.Config{Backend: "mysql", DataDir: "x"}, types.ErrBackendUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewBackend().Attach(tt.config)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAttachTwice(t *testing.T) {
	b := newTestBackend(t)
	err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
	assert.ErrorIs(t, err, types.ErrAlreadyAttached)
}

func TestDetachIsIdempotent(t *testing.T) {
	b := newTestBackend(t)
	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach())
}

func TestOperationsAfterDetach(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	require.NoError(t, b.Detach())

	_, err := b.InsertProject(ctx, types.ProjectRecord{Name: "x"})
	assert.ErrorIs(t, err, types.ErrStoreDetached)

	_, err = b.ListProjects(ctx)
	assert.ErrorIs(t, err, types.ErrStoreDetached)

	_, _, err = b.GetProjectByID(ctx, 1)
	assert.ErrorIs(t, err, types.ErrStoreDetached)
}

func TestDataSurvivesReattach(t *testing.T) {
	ctx := context.Background()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}

	b := NewBackend()
	require.NoError(t, b.Attach(cfg))
	id, err := b.InsertProject(ctx, types.ProjectRecord{Name: "Trip"})
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	require.NoError(t, b.Attach(cfg))
	defer b.Detach()
	got, ok, err := b.GetProjectByID(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Trip", got.Name)
}

func TestSchemaVersionStamped(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	require.NoError(t, b.Detach())

	db, err := sql.Open("sqlite", filepath.Join(dir, DatabaseFile))
	require.NoError(t, err)
	defer db.Close()

	var version int
	require.NoError(t, db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, schemaVersion, version)
}

func TestNewerSchemaVersionRefused(t *testing.T) {
	dir := t.TempDir()
	db, err := sql.Open("sqlite", filepath.Join(dir, DatabaseFile))
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA user_version = 2")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	err = NewBackend().Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir})
	assert.ErrorIs(t, err, types.ErrSchemaVersion)
}

func TestForeignKeysEnabled(t *testing.T) {
	b := newTestBackend(t)

	var on int
	require.NoError(t, b.db.QueryRow("PRAGMA foreign_keys").Scan(&on))
	assert.Equal(t, 1, on)
}
