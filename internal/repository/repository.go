// Package repository implements the checklist operations the rest of the
// application depends on. Every compound operation runs in one store
// transaction, so a failure part way leaves nothing behind.
package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/checklist/pkg/types"
	"github.com/mesh-intelligence/checklist/pkg/watch"
)

// Repository orchestrates multi-record operations over a RecordStore.
type Repository struct {
	store  types.RecordStore
	logger *slog.Logger
}

// New returns a Repository over store. A nil logger discards output.
func New(store types.RecordStore, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Repository{store: store, logger: logger}
}

// Store returns the underlying record store.
func (r *Repository) Store() types.RecordStore {
	return r.store
}

// InsertProject creates or replaces a single project row.
func (r *Repository) InsertProject(ctx context.Context, rec types.ProjectRecord) (int64, error) {
	id, err := r.store.InsertProject(ctx, rec)
	if err != nil {
		return 0, err
	}
	r.logger.DebugContext(ctx, "project inserted", "project_id", id)
	return id, nil
}

// DeleteProject deletes the project matching rec and then its steps. A stale
// rec that no longer matches the stored row leaves the project and its steps
// in place.
func (r *Repository) DeleteProject(ctx context.Context, rec types.ProjectRecord) error {
	err := r.store.Atomically(ctx, func(tx types.Records) error {
		if err := tx.DeleteProject(ctx, rec); err != nil {
			return err
		}
		_, kept, err := tx.GetProjectByID(ctx, rec.ProjectID)
		if err != nil {
			return err
		}
		if kept {
			return nil
		}
		return tx.DeleteStepsByProjectID(ctx, rec.ProjectID)
	})
	if err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "project deleted", "project_id", rec.ProjectID)
	return nil
}

// GetAllProjects streams all projects, newest first.
func (r *Repository) GetAllProjects(ctx context.Context) *watch.Subscription[[]types.ProjectRecord] {
	return r.store.WatchProjects(ctx)
}

// Projects returns the current project list, newest first.
func (r *Repository) Projects(ctx context.Context) ([]types.ProjectRecord, error) {
	return r.store.ListProjects(ctx)
}

// GetProjectByID returns the project, or false when it does not exist.
func (r *Repository) GetProjectByID(ctx context.Context, projectID int64) (types.ProjectRecord, bool, error) {
	return r.store.GetProjectByID(ctx, projectID)
}

func (r *Repository) InsertSteps(ctx context.Context, steps []types.StepRecord) error {
	if err := r.store.InsertSteps(ctx, steps); err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "steps inserted", "count", len(steps))
	return nil
}

func (r *Repository) InsertStep(ctx context.Context, step types.StepRecord) (int64, error) {
	id, err := r.store.InsertStep(ctx, step)
	if err != nil {
		return 0, err
	}
	r.logger.DebugContext(ctx, "step inserted", "step_id", id, "project_id", step.ProjectOwnerID)
	return id, nil
}

func (r *Repository) DeleteStepsByProjectID(ctx context.Context, projectID int64) error {
	return r.store.DeleteStepsByProjectID(ctx, projectID)
}

// GetStepsForProject streams the steps of one project in creation order.
func (r *Repository) GetStepsForProject(ctx context.Context, projectID int64) *watch.Subscription[[]types.StepRecord] {
	return r.store.WatchSteps(ctx, projectID)
}

// Steps returns the current steps of one project in creation order.
func (r *Repository) Steps(ctx context.Context, projectID int64) ([]types.StepRecord, error) {
	return r.store.ListSteps(ctx, projectID)
}

func (r *Repository) DeleteStep(ctx context.Context, stepID int64) error {
	if err := r.store.DeleteStep(ctx, stepID); err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "step deleted", "step_id", stepID)
	return nil
}

// GetTemplateProjects streams the template projects.
func (r *Repository) GetTemplateProjects(ctx context.Context) *watch.Subscription[[]types.ProjectRecord] {
	return r.store.WatchTemplates(ctx)
}

// Templates returns the current template projects.
func (r *Repository) Templates(ctx context.Context) ([]types.ProjectRecord, error) {
	return r.store.ListTemplates(ctx)
}

// DeleteTemplateByName deletes every template stored under exactly name and
// reports how many went.
func (r *Repository) DeleteTemplateByName(ctx context.Context, name string) (int64, error) {
	n, err := r.store.DeleteTemplateByName(ctx, name)
	if err != nil {
		return 0, err
	}
	r.logger.DebugContext(ctx, "templates deleted by name", "name", name, "count", n)
	return n, nil
}

// DeleteTemplate deletes one template by identity. It returns ErrNotFound
// when projectID is absent or names a live project.
func (r *Repository) DeleteTemplate(ctx context.Context, projectID int64) error {
	err := r.store.Atomically(ctx, func(tx types.Records) error {
		rec, ok, err := tx.GetProjectByID(ctx, projectID)
		if err != nil {
			return err
		}
		if !ok || !rec.IsTemplate {
			return fmt.Errorf("template %d: %w", projectID, types.ErrNotFound)
		}
		return tx.DeleteProjectByID(ctx, projectID)
	})
	if err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "template deleted", "project_id", projectID)
	return nil
}

// GetProjectWithStepsByID streams the joined view of one project; the value
// is nil while the project does not exist.
func (r *Repository) GetProjectWithStepsByID(ctx context.Context, projectID int64) *watch.Subscription[*types.ProjectWithSteps] {
	return r.store.WatchProjectWithSteps(ctx, projectID)
}

// ProjectWithSteps returns the joined view of one project, or false when it
// does not exist.
func (r *Repository) ProjectWithSteps(ctx context.Context, projectID int64) (types.ProjectWithSteps, bool, error) {
	return r.store.GetProjectWithSteps(ctx, projectID)
}

// DeleteProjectWithSteps deletes a project and its steps.
func (r *Repository) DeleteProjectWithSteps(ctx context.Context, projectID int64) error {
	err := r.store.Atomically(ctx, func(tx types.Records) error {
		if err := tx.DeleteStepsByProjectID(ctx, projectID); err != nil {
			return err
		}
		return tx.DeleteProjectByID(ctx, projectID)
	})
	if err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "project deleted with steps", "project_id", projectID)
	return nil
}

// SaveTemplateProjectWithSteps clones pw as a new template with fresh
// identities. The source is untouched and the name is kept as is. Callers
// guard against duplicate templates.
func (r *Repository) SaveTemplateProjectWithSteps(ctx context.Context, pw types.ProjectWithSteps) (int64, error) {
	var id int64
	err := r.store.Atomically(ctx, func(tx types.Records) error {
		var err error
		id, err = cloneAsTemplate(ctx, tx, pw)
		return err
	})
	if err != nil {
		return 0, err
	}
	r.logger.DebugContext(ctx, "template saved",
		"project_id", id, "source_id", pw.Project.ProjectID, "steps", len(pw.Steps))
	return id, nil
}

// SaveProjectAsTemplate clones the stored project projectID as a template.
// It returns ErrNotFound when the project does not exist.
func (r *Repository) SaveProjectAsTemplate(ctx context.Context, projectID int64) (int64, error) {
	var id int64
	err := r.store.Atomically(ctx, func(tx types.Records) error {
		pw, ok, err := tx.GetProjectWithSteps(ctx, projectID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("project %d: %w", projectID, types.ErrNotFound)
		}
		id, err = cloneAsTemplate(ctx, tx, pw)
		return err
	})
	if err != nil {
		return 0, err
	}
	r.logger.DebugContext(ctx, "project saved as template", "project_id", id, "source_id", projectID)
	return id, nil
}

func cloneAsTemplate(ctx context.Context, tx types.Records, pw types.ProjectWithSteps) (int64, error) {
	project := pw.Project
	project.ProjectID = 0
	project.IsTemplate = true
	id, err := tx.InsertProject(ctx, project)
	if err != nil {
		return 0, err
	}

	steps := make([]types.StepRecord, 0, len(pw.Steps))
	for _, s := range pw.Steps {
		steps = append(steps, types.StepRecord{
			Name:           s.Name,
			Description:    s.Description,
			ProjectOwnerID: id,
		})
	}
	if err := tx.InsertSteps(ctx, steps); err != nil {
		return 0, err
	}
	return id, nil
}

// InsertProjectWithSteps creates a project and its steps and returns the new
// project identity. Step identities are ignored.
func (r *Repository) InsertProjectWithSteps(ctx context.Context, name, description string, steps []types.Step, isTemplate bool) (int64, error) {
	var id int64
	err := r.store.Atomically(ctx, func(tx types.Records) error {
		var err error
		project := types.Project{Name: name, Description: description, IsTemplate: isTemplate}
		id, err = tx.InsertProject(ctx, project.NewRecord())
		if err != nil {
			return err
		}
		return tx.InsertSteps(ctx, types.NewStepRecords(steps, id))
	})
	if err != nil {
		return 0, err
	}
	r.logger.DebugContext(ctx, "project created", "project_id", id, "steps", len(steps), "template", isTemplate)
	return id, nil
}

// UpdateProjectWithSteps rewrites a project and replaces its whole step set
// with steps. Every step gets a new identity, including unchanged ones. It
// returns ErrNotFound, writing nothing, when the project does not exist.
func (r *Repository) UpdateProjectWithSteps(ctx context.Context, projectID int64, name, description string, steps []types.Step, isTemplate bool) error {
	err := r.store.Atomically(ctx, func(tx types.Records) error {
		if _, ok, err := tx.GetProjectByID(ctx, projectID); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("project %d: %w", projectID, types.ErrNotFound)
		}

		err := tx.UpdateProject(ctx, types.ProjectRecord{
			ProjectID:   projectID,
			Name:        name,
			Description: description,
			IsTemplate:  isTemplate,
		})
		if err != nil {
			return err
		}
		if err := tx.DeleteStepsByProjectID(ctx, projectID); err != nil {
			return err
		}
		return tx.InsertSteps(ctx, types.NewStepRecords(steps, projectID))
	})
	if err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "project updated", "project_id", projectID, "steps", len(steps))
	return nil
}
