package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/checklist/pkg/types"
	"github.com/mesh-intelligence/checklist/pkg/watch"
)

// querier is the subset of *sql.DB and *sql.Tx the record queries need.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Compile-time interface check.
var _ types.Records = (*records)(nil)

// records runs record queries against a database or transaction and notes
// which topics its writes touched.
type records struct {
	q       querier
	changed map[watch.Topic]struct{}
}

func newRecords(q querier) *records {
	return &records{q: q, changed: make(map[watch.Topic]struct{})}
}

func (r *records) touch(topics ...watch.Topic) {
	for _, t := range topics {
		r.changed[t] = struct{}{}
	}
}

func (r *records) changedTopics() []watch.Topic {
	out := make([]watch.Topic, 0, len(r.changed))
	for t := range r.changed {
		out = append(out, t)
	}
	return out
}

const (
	projectColumns = "projectId, COALESCE(name, ''), COALESCE(description, ''), COALESCE(isTemplate, 0)"
	stepColumns    = "stepId, COALESCE(name, ''), COALESCE(description, ''), COALESCE(projectOwnerId, 0)"

	upsertProjectSQL = `INSERT INTO projects (projectId, name, description, isTemplate)
VALUES (NULLIF(?, 0), ?, ?, ?)
ON CONFLICT(projectId) DO UPDATE SET
    name = excluded.name,
    description = excluded.description,
    isTemplate = excluded.isTemplate`

	upsertStepSQL = `INSERT INTO steps (stepId, name, description, projectOwnerId)
VALUES (NULLIF(?, 0), ?, ?, ?)
ON CONFLICT(stepId) DO UPDATE SET
    name = excluded.name,
    description = excluded.description,
    projectOwnerId = excluded.projectOwnerId`
)

// InsertProject upserts so that replacing an existing project does not
// cascade-delete its steps.
func (r *records) InsertProject(ctx context.Context, rec types.ProjectRecord) (int64, error) {
	if rec.ProjectID < 0 {
		return 0, types.ErrInvalidID
	}
	res, err := r.q.ExecContext(ctx, upsertProjectSQL,
		rec.ProjectID, rec.Name, rec.Description, boolInt(rec.IsTemplate))
	if err != nil {
		return 0, wrapErr("inserting project", err)
	}
	r.touch(watch.TopicProjects)
	if rec.ProjectID != 0 {
		return rec.ProjectID, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading project id: %w", err)
	}
	return id, nil
}

func (r *records) InsertStep(ctx context.Context, rec types.StepRecord) (int64, error) {
	if rec.StepID < 0 {
		return 0, types.ErrInvalidID
	}
	res, err := r.q.ExecContext(ctx, upsertStepSQL,
		rec.StepID, rec.Name, rec.Description, rec.ProjectOwnerID)
	if err != nil {
		return 0, wrapErr("inserting step", err)
	}
	r.touch(watch.TopicSteps)
	if rec.StepID != 0 {
		return rec.StepID, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading step id: %w", err)
	}
	return id, nil
}

// InsertSteps upserts recs in order through one prepared statement.
func (r *records) InsertSteps(ctx context.Context, recs []types.StepRecord) error {
	if len(recs) == 0 {
		return nil
	}
	stmt, err := r.q.PrepareContext(ctx, upsertStepSQL)
	if err != nil {
		return fmt.Errorf("preparing step insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		if rec.StepID < 0 {
			return types.ErrInvalidID
		}
		if _, err := stmt.ExecContext(ctx, rec.StepID, rec.Name, rec.Description, rec.ProjectOwnerID); err != nil {
			return wrapErr("inserting steps", err)
		}
	}
	r.touch(watch.TopicSteps)
	return nil
}

func (r *records) UpdateProject(ctx context.Context, rec types.ProjectRecord) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE projects SET name = ?, description = ?, isTemplate = ? WHERE projectId = ?",
		rec.Name, rec.Description, boolInt(rec.IsTemplate), rec.ProjectID)
	if err != nil {
		return wrapErr("updating project", err)
	}
	if affected(res) > 0 {
		r.touch(watch.TopicProjects)
	}
	return nil
}

func (r *records) UpdateStep(ctx context.Context, rec types.StepRecord) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE steps SET name = ?, description = ?, projectOwnerId = ? WHERE stepId = ?",
		rec.Name, rec.Description, rec.ProjectOwnerID, rec.StepID)
	if err != nil {
		return wrapErr("updating step", err)
	}
	if affected(res) > 0 {
		r.touch(watch.TopicSteps)
	}
	return nil
}

func (r *records) DeleteProject(ctx context.Context, rec types.ProjectRecord) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM projects
WHERE projectId = ? AND COALESCE(name, '') = ? AND COALESCE(description, '') = ? AND COALESCE(isTemplate, 0) = ?`,
		rec.ProjectID, rec.Name, rec.Description, boolInt(rec.IsTemplate))
	if err != nil {
		return wrapErr("deleting project", err)
	}
	if affected(res) > 0 {
		r.touch(watch.TopicProjects, watch.TopicSteps)
	}
	return nil
}

func (r *records) DeleteProjectByID(ctx context.Context, projectID int64) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM projects WHERE projectId = ?", projectID)
	if err != nil {
		return wrapErr("deleting project", err)
	}
	if affected(res) > 0 {
		r.touch(watch.TopicProjects, watch.TopicSteps)
	}
	return nil
}

func (r *records) DeleteStepsByProjectID(ctx context.Context, projectID int64) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM steps WHERE projectOwnerId = ?", projectID)
	if err != nil {
		return wrapErr("deleting steps", err)
	}
	if affected(res) > 0 {
		r.touch(watch.TopicSteps)
	}
	return nil
}

func (r *records) DeleteStep(ctx context.Context, stepID int64) error {
	res, err := r.q.ExecContext(ctx, "DELETE FROM steps WHERE stepId = ?", stepID)
	if err != nil {
		return wrapErr("deleting step", err)
	}
	if affected(res) > 0 {
		r.touch(watch.TopicSteps)
	}
	return nil
}

func (r *records) DeleteTemplateByName(ctx context.Context, name string) (int64, error) {
	res, err := r.q.ExecContext(ctx, "DELETE FROM projects WHERE isTemplate = 1 AND name = ?", name)
	if err != nil {
		return 0, wrapErr("deleting template", err)
	}
	n := affected(res)
	if n > 0 {
		r.touch(watch.TopicProjects, watch.TopicSteps)
	}
	return n, nil
}

func (r *records) GetProjectByID(ctx context.Context, projectID int64) (types.ProjectRecord, bool, error) {
	row := r.q.QueryRowContext(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE projectId = ?", projectID)
	rec, err := hydrateProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ProjectRecord{}, false, nil
	}
	if err != nil {
		return types.ProjectRecord{}, false, fmt.Errorf("getting project %d: %w", projectID, err)
	}
	return rec, true, nil
}

func (r *records) GetStepByID(ctx context.Context, stepID int64) (types.StepRecord, bool, error) {
	row := r.q.QueryRowContext(ctx,
		"SELECT "+stepColumns+" FROM steps WHERE stepId = ?", stepID)
	rec, err := hydrateStep(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.StepRecord{}, false, nil
	}
	if err != nil {
		return types.StepRecord{}, false, fmt.Errorf("getting step %d: %w", stepID, err)
	}
	return rec, true, nil
}

func (r *records) ListProjects(ctx context.Context) ([]types.ProjectRecord, error) {
	return r.queryProjects(ctx, "SELECT "+projectColumns+" FROM projects ORDER BY projectId DESC")
}

func (r *records) ListTemplates(ctx context.Context) ([]types.ProjectRecord, error) {
	return r.queryProjects(ctx, "SELECT "+projectColumns+" FROM projects WHERE isTemplate = 1 ORDER BY projectId DESC")
}

func (r *records) ListSteps(ctx context.Context, projectID int64) ([]types.StepRecord, error) {
	return r.querySteps(ctx, "SELECT "+stepColumns+" FROM steps WHERE projectOwnerId = ? ORDER BY stepId ASC", projectID)
}

func (r *records) GetProjectWithSteps(ctx context.Context, projectID int64) (types.ProjectWithSteps, bool, error) {
	project, ok, err := r.GetProjectByID(ctx, projectID)
	if err != nil || !ok {
		return types.ProjectWithSteps{}, false, err
	}
	steps, err := r.ListSteps(ctx, projectID)
	if err != nil {
		return types.ProjectWithSteps{}, false, err
	}
	return types.ProjectWithSteps{Project: project, Steps: steps}, true, nil
}

func (r *records) queryProjects(ctx context.Context, query string, args ...any) ([]types.ProjectRecord, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	out := []types.ProjectRecord{}
	for rows.Next() {
		rec, err := hydrateProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return out, nil
}

func (r *records) querySteps(ctx context.Context, query string, args ...any) ([]types.StepRecord, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing steps: %w", err)
	}
	defer rows.Close()

	// Return empty slice, not nil.
	out := []types.StepRecord{}
	for rows.Next() {
		rec, err := hydrateStep(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning step: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating steps: %w", err)
	}
	return out, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func hydrateProject(row rowScanner) (types.ProjectRecord, error) {
	var rec types.ProjectRecord
	var isTemplate int64
	if err := row.Scan(&rec.ProjectID, &rec.Name, &rec.Description, &isTemplate); err != nil {
		return types.ProjectRecord{}, err
	}
	rec.IsTemplate = isTemplate != 0
	return rec, nil
}

func hydrateStep(row rowScanner) (types.StepRecord, error) {
	var rec types.StepRecord
	if err := row.Scan(&rec.StepID, &rec.Name, &rec.Description, &rec.ProjectOwnerID); err != nil {
		return types.StepRecord{}, err
	}
	return rec, nil
}

// wrapErr adds context to a driver error and tags constraint failures with
// types.ErrConstraint.
func wrapErr(op string, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return fmt.Errorf("%s: %w: %w", op, types.ErrConstraint, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func affected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
