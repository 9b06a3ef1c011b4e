package types

import (
	"context"

	"github.com/mesh-intelligence/checklist/pkg/watch"
)

// Records is the plain record surface of the store. Both the attached backend
// and a transaction view implement it, so compound operations can be written
// once and run inside or outside a transaction.
type Records interface {
	// InsertProject creates or replaces a project. A zero ProjectID receives a
	// fresh identity; a non-zero one upserts that row without touching its
	// steps. Returns the project's identity.
	InsertProject(ctx context.Context, rec ProjectRecord) (int64, error)

	// InsertStep creates or replaces a step. An owner that does not exist
	// yields an error wrapping ErrConstraint.
	InsertStep(ctx context.Context, rec StepRecord) (int64, error)

	// InsertSteps creates or replaces each step in order.
	InsertSteps(ctx context.Context, recs []StepRecord) error

	// UpdateProject updates a project by identity. An absent row is a no-op.
	UpdateProject(ctx context.Context, rec ProjectRecord) error

	// UpdateStep updates a step by identity. An absent row is a no-op.
	UpdateStep(ctx context.Context, rec StepRecord) error

	// DeleteProject deletes the row matching every field of rec.
	DeleteProject(ctx context.Context, rec ProjectRecord) error

	// DeleteProjectByID deletes a project; its steps go with it.
	DeleteProjectByID(ctx context.Context, projectID int64) error

	DeleteStepsByProjectID(ctx context.Context, projectID int64) error
	DeleteStep(ctx context.Context, stepID int64) error

	// DeleteTemplateByName deletes every template whose stored name equals
	// name exactly and returns how many rows went. Zero is not an error.
	DeleteTemplateByName(ctx context.Context, name string) (int64, error)

	// GetProjectByID returns the project and true, or false when absent.
	GetProjectByID(ctx context.Context, projectID int64) (ProjectRecord, bool, error)

	// GetStepByID returns the step and true, or false when absent.
	GetStepByID(ctx context.Context, stepID int64) (StepRecord, bool, error)

	// ListProjects returns all projects, newest identity first.
	ListProjects(ctx context.Context) ([]ProjectRecord, error)

	// ListSteps returns the steps owned by projectID in ascending identity
	// order.
	ListSteps(ctx context.Context, projectID int64) ([]StepRecord, error)

	// ListTemplates returns the template projects, newest identity first.
	ListTemplates(ctx context.Context) ([]ProjectRecord, error)

	// GetProjectWithSteps returns the joined view, or false when the project
	// is absent.
	GetProjectWithSteps(ctx context.Context, projectID int64) (ProjectWithSteps, bool, error)
}

// RecordStore is the attached storage backend: the record surface plus
// transactions and reactive queries.
type RecordStore interface {
	Records

	// Attach opens the backend described by config.
	Attach(config Config) error

	// Detach releases the backend. Open subscriptions end with
	// watch.ErrClosed.
	Detach() error

	// Atomically runs fn inside one transaction. The transaction commits when
	// fn returns nil and rolls back otherwise. Subscribers are notified only
	// after commit.
	Atomically(ctx context.Context, fn func(tx Records) error) error

	// WatchProjects streams ListProjects snapshots.
	WatchProjects(ctx context.Context) *watch.Subscription[[]ProjectRecord]

	// WatchSteps streams ListSteps snapshots for projectID.
	WatchSteps(ctx context.Context, projectID int64) *watch.Subscription[[]StepRecord]

	// WatchTemplates streams ListTemplates snapshots.
	WatchTemplates(ctx context.Context) *watch.Subscription[[]ProjectRecord]

	// WatchProjectWithSteps streams the joined view for projectID. The value
	// is nil while the project is absent.
	WatchProjectWithSteps(ctx context.Context, projectID int64) *watch.Subscription[*ProjectWithSteps]
}

// Settings is the key-value preference collaborator.
type Settings interface {
	// DarkMode streams the dark_mode preference, starting with its current
	// value. Unset means false.
	DarkMode(ctx context.Context) (*watch.Subscription[bool], error)

	// SetDarkMode persists the preference and notifies subscribers.
	SetDarkMode(ctx context.Context, on bool) error

	Close() error
}

// DarkModeKey is the settings key for the display preference.
const DarkModeKey = "dark_mode"
