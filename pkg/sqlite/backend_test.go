package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/checklist/pkg/sqlite"
	"github.com/mesh-intelligence/checklist/pkg/types"
)

func TestNewBackendAttachesAndStores(t *testing.T) {
	ctx := context.Background()
	store := sqlite.NewBackend()
	require.NoError(t, store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	defer store.Detach()

	id, err := store.InsertProject(ctx, types.ProjectRecord{Name: "Trip"})
	require.NoError(t, err)

	rec, ok, err := store.GetProjectByID(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Trip", rec.Name)
}

func TestNewBackendRequiresAttach(t *testing.T) {
	_, err := sqlite.NewBackend().ListProjects(context.Background())
	assert.ErrorIs(t, err, types.ErrStoreDetached)
}
