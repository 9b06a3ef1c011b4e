// Package sqlite implements the checklist record store on SQLite.
//
// The Backend owns a single database handle. Writes run in transactions and
// publish change topics to a watch.Hub after commit; reactive queries re-run
// on those topics.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/checklist/pkg/types"
	"github.com/mesh-intelligence/checklist/pkg/watch"
)

// DatabaseFile is the database file name inside the data directory.
const DatabaseFile = "checklist.db"

// Connection pragmas. foreign_keys must be on for steps to cascade with
// their project.
var pragmas = []string{
	"foreign_keys(1)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"busy_timeout(5000)",
}

// Compile-time interface check.
var _ types.RecordStore = (*Backend)(nil)

// Backend implements types.RecordStore on SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	hub      *watch.Hub
}

// NewBackend creates a detached backend. Call Attach before use.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens the database in config.DataDir, creating the directory and
// schema when missing. Returns ErrAlreadyAttached if already attached and
// ErrSchemaVersion if the file was written by a newer schema.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(filepath.Join(dataDir, DatabaseFile)))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	// One connection: SQLite allows a single writer, and pragmas are
	// per-connection.
	db.SetMaxOpenConns(1)

	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return err
	}

	b.bindLocked(db, config)
	return nil
}

func dsn(path string) string {
	s := path + "?"
	for i, p := range pragmas {
		if i > 0 {
			s += "&"
		}
		s += "_pragma=" + p
	}
	return s
}

// bindLocked marks the backend attached to db. The caller holds b.mu.
func (b *Backend) bindLocked(db *sql.DB, config types.Config) {
	b.db = db
	b.config = config
	b.hub = watch.NewHub()
	b.attached = true
}

// Detach ends all subscriptions and closes the database. Detach is
// idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	b.hub.Close()
	b.hub = nil
	b.attached = false

	db := b.db
	b.db = nil
	if err := db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Config returns the configuration the backend was attached with.
func (b *Backend) Config() types.Config {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config
}

// Atomically runs fn in one transaction. fn must use tx for every store
// access; calling back into the Backend from fn blocks on the single
// connection.
func (b *Backend) Atomically(ctx context.Context, fn func(tx types.Records) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	sqlTx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer sqlTx.Rollback()

	r := newRecords(sqlTx)
	if err := fn(r); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	if topics := r.changedTopics(); len(topics) > 0 {
		b.hub.Publish(topics...)
	}
	return nil
}

// read runs fn against the database outside any transaction.
func read[T any](b *Backend, fn func(r *records) (T, error)) (T, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		var zero T
		return zero, types.ErrStoreDetached
	}
	return fn(newRecords(b.db))
}

type found[T any] struct {
	v  T
	ok bool
}

// Record operations. Writes go through Atomically so subscribers see them.

func (b *Backend) InsertProject(ctx context.Context, rec types.ProjectRecord) (int64, error) {
	var id int64
	err := b.Atomically(ctx, func(tx types.Records) error {
		var err error
		id, err = tx.InsertProject(ctx, rec)
		return err
	})
	return id, err
}

func (b *Backend) InsertStep(ctx context.Context, rec types.StepRecord) (int64, error) {
	var id int64
	err := b.Atomically(ctx, func(tx types.Records) error {
		var err error
		id, err = tx.InsertStep(ctx, rec)
		return err
	})
	return id, err
}

func (b *Backend) InsertSteps(ctx context.Context, recs []types.StepRecord) error {
	return b.Atomically(ctx, func(tx types.Records) error {
		return tx.InsertSteps(ctx, recs)
	})
}

func (b *Backend) UpdateProject(ctx context.Context, rec types.ProjectRecord) error {
	return b.Atomically(ctx, func(tx types.Records) error {
		return tx.UpdateProject(ctx, rec)
	})
}

func (b *Backend) UpdateStep(ctx context.Context, rec types.StepRecord) error {
	return b.Atomically(ctx, func(tx types.Records) error {
		return tx.UpdateStep(ctx, rec)
	})
}

func (b *Backend) DeleteProject(ctx context.Context, rec types.ProjectRecord) error {
	return b.Atomically(ctx, func(tx types.Records) error {
		return tx.DeleteProject(ctx, rec)
	})
}

func (b *Backend) DeleteProjectByID(ctx context.Context, projectID int64) error {
	return b.Atomically(ctx, func(tx types.Records) error {
		return tx.DeleteProjectByID(ctx, projectID)
	})
}

func (b *Backend) DeleteStepsByProjectID(ctx context.Context, projectID int64) error {
	return b.Atomically(ctx, func(tx types.Records) error {
		return tx.DeleteStepsByProjectID(ctx, projectID)
	})
}

func (b *Backend) DeleteStep(ctx context.Context, stepID int64) error {
	return b.Atomically(ctx, func(tx types.Records) error {
		return tx.DeleteStep(ctx, stepID)
	})
}

func (b *Backend) DeleteTemplateByName(ctx context.Context, name string) (int64, error) {
	var n int64
	err := b.Atomically(ctx, func(tx types.Records) error {
		var err error
		n, err = tx.DeleteTemplateByName(ctx, name)
		return err
	})
	return n, err
}

func (b *Backend) GetProjectByID(ctx context.Context, projectID int64) (types.ProjectRecord, bool, error) {
	f, err := read(b, func(r *records) (found[types.ProjectRecord], error) {
		v, ok, err := r.GetProjectByID(ctx, projectID)
		return found[types.ProjectRecord]{v, ok}, err
	})
	return f.v, f.ok, err
}

func (b *Backend) GetStepByID(ctx context.Context, stepID int64) (types.StepRecord, bool, error) {
	f, err := read(b, func(r *records) (found[types.StepRecord], error) {
		v, ok, err := r.GetStepByID(ctx, stepID)
		return found[types.StepRecord]{v, ok}, err
	})
	return f.v, f.ok, err
}

func (b *Backend) ListProjects(ctx context.Context) ([]types.ProjectRecord, error) {
	return read(b, func(r *records) ([]types.ProjectRecord, error) {
		return r.ListProjects(ctx)
	})
}

func (b *Backend) ListSteps(ctx context.Context, projectID int64) ([]types.StepRecord, error) {
	return read(b, func(r *records) ([]types.StepRecord, error) {
		return r.ListSteps(ctx, projectID)
	})
}

func (b *Backend) ListTemplates(ctx context.Context) ([]types.ProjectRecord, error) {
	return read(b, func(r *records) ([]types.ProjectRecord, error) {
		return r.ListTemplates(ctx)
	})
}

func (b *Backend) GetProjectWithSteps(ctx context.Context, projectID int64) (types.ProjectWithSteps, bool, error) {
	f, err := read(b, func(r *records) (found[types.ProjectWithSteps], error) {
		v, ok, err := r.GetProjectWithSteps(ctx, projectID)
		return found[types.ProjectWithSteps]{v, ok}, err
	})
	return f.v, f.ok, err
}

// Reactive queries.

func (b *Backend) WatchProjects(ctx context.Context) *watch.Subscription[[]types.ProjectRecord] {
	return watch.Watch(ctx, b.currentHub(), live(b.ListProjects), watch.TopicProjects)
}

func (b *Backend) WatchSteps(ctx context.Context, projectID int64) *watch.Subscription[[]types.StepRecord] {
	query := func(ctx context.Context) ([]types.StepRecord, error) {
		return b.ListSteps(ctx, projectID)
	}
	return watch.Watch(ctx, b.currentHub(), live(query), watch.TopicSteps)
}

func (b *Backend) WatchTemplates(ctx context.Context) *watch.Subscription[[]types.ProjectRecord] {
	return watch.Watch(ctx, b.currentHub(), live(b.ListTemplates), watch.TopicProjects)
}

func (b *Backend) WatchProjectWithSteps(ctx context.Context, projectID int64) *watch.Subscription[*types.ProjectWithSteps] {
	query := func(ctx context.Context) (*types.ProjectWithSteps, error) {
		pw, ok, err := b.GetProjectWithSteps(ctx, projectID)
		if err != nil || !ok {
			return nil, err
		}
		return &pw, nil
	}
	return watch.Watch(ctx, b.currentHub(), live(query), watch.TopicProjects, watch.TopicSteps)
}

// currentHub returns the attached hub, or a closed one when detached so the
// subscription ends at once with watch.ErrClosed.
func (b *Backend) currentHub() *watch.Hub {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.hub == nil {
		h := watch.NewHub()
		h.Close()
		return h
	}
	return b.hub
}

// live maps a detach that races a re-query to watch.ErrClosed.
func live[T any](query func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		v, err := query(ctx)
		if errors.Is(err, types.ErrStoreDetached) {
			return v, watch.ErrClosed
		}
		return v, err
	}
}
