package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/checklist/pkg/types"
)

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestBackend(t)
	trip := seedProject(t, src, "Trip", false, "Passport", "Tickets")
	seedProject(t, src, "Camping", true, "Tent")

	dir := t.TempDir()
	stats, err := src.Export(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, ExportStats{Projects: 2, Steps: 3}, stats)

	dst := newTestBackend(t)
	seedProject(t, dst, "Stale", false, "gone")

	loaded, err := dst.Import(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Projects: 2, Steps: 3}, loaded)

	pw, ok, err := dst.GetProjectWithSteps(ctx, trip)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Trip", pw.Project.Name)
	require.Len(t, pw.Steps, 2)
	assert.Equal(t, "Passport", pw.Steps[0].Name)

	templates, err := dst.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "Camping", templates[0].Name)

	// New identities continue after the imported ones.
	next, err := dst.InsertProject(ctx, types.ProjectRecord{Name: "after"})
	require.NoError(t, err)
	assert.Greater(t, next, templates[0].ProjectID)
}

func TestExportWritesOneRecordPerLine(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	seedProject(t, b, "Trip", false, "Passport")

	dir := t.TempDir()
	_, err := b.Export(ctx, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ProjectsFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"name":"Trip"`)
	assert.Contains(t, lines[0], `"is_template":false`)
}

func TestImportSkipsBadRecords(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	projects := `{"project_id":1,"name":"Trip","description":"","is_template":false,"color":"blue"}
not json
{"project_id":0,"name":"no identity"}
`
	steps := `{"step_id":1,"name":"Passport","project_owner_id":1}
{"step_id":2,"name":"Orphan","project_owner_id":9}
{broken
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectsFile), []byte(projects), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, StepsFile), []byte(steps), 0o644))

	b := newTestBackend(t)
	stats, err := b.Import(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Projects: 1, Steps: 1, Skipped: 4}, stats)

	got, err := b.ListSteps(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Passport", got[0].Name)
}

func TestImportCountsDuplicateIdentitiesOnce(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	projects := `{"project_id":1,"name":"Trip","description":"","is_template":false}
{"project_id":1,"name":"Trip again","description":"","is_template":false}
`
	steps := `{"step_id":1,"name":"Passport","project_owner_id":1}
{"step_id":1,"name":"Passport copy","project_owner_id":1}
{"step_id":2,"name":"Tickets","project_owner_id":1}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectsFile), []byte(projects), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, StepsFile), []byte(steps), 0o644))

	b := newTestBackend(t)
	stats, err := b.Import(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Projects: 1, Steps: 2, Skipped: 2}, stats)

	got, err := b.ListSteps(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Passport copy", got[0].Name)
}

func TestImportMissingProjectsFile(t *testing.T) {
	b := newTestBackend(t)
	seedProject(t, b, "Keep", false)

	_, err := b.Import(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)

	projects, err := b.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}
