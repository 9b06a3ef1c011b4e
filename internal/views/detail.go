package views

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mesh-intelligence/checklist/internal/repository"
	"github.com/mesh-intelligence/checklist/pkg/types"
)

// Detail shows one project with its steps.
type Detail struct {
	repo      *repository.Repository
	logger    *slog.Logger
	projectID int64

	mu      sync.Mutex
	project *types.Project
	deleted bool
}

func NewDetail(repo *repository.Repository, logger *slog.Logger, projectID int64) *Detail {
	return &Detail{repo: repo, logger: orDiscard(logger), projectID: projectID}
}

// Load reads the project. A missing project leaves Project empty.
func (d *Detail) Load(ctx context.Context) error {
	pw, ok, err := d.repo.ProjectWithSteps(ctx, d.projectID)
	if err != nil {
		return failed(ctx, d.logger, "load project", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !ok {
		d.project = nil
		return nil
	}
	p := pw.Domain()
	d.project = &p
	return nil
}

// Project returns the loaded project, or false when it does not exist.
func (d *Detail) Project() (types.Project, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.project == nil {
		return types.Project{}, false
	}
	return *d.project, true
}

// Deleted reports whether DeleteProject succeeded.
func (d *Detail) Deleted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.deleted
}

// SaveAsTemplate clones the stored project as a template. It returns 0 when
// the project no longer exists.
func (d *Detail) SaveAsTemplate(ctx context.Context) (int64, error) {
	pw, ok, err := d.repo.ProjectWithSteps(ctx, d.projectID)
	if err != nil {
		return 0, failed(ctx, d.logger, "save as template", err)
	}
	if !ok {
		return 0, nil
	}
	id, err := d.repo.SaveTemplateProjectWithSteps(ctx, pw)
	if err != nil {
		return 0, failed(ctx, d.logger, "save as template", err)
	}
	return id, nil
}

// DeleteStep deletes a step and reloads the project.
func (d *Detail) DeleteStep(ctx context.Context, stepID int64) error {
	if err := d.repo.DeleteStep(ctx, stepID); err != nil {
		return failed(ctx, d.logger, "delete step", err)
	}
	return d.Load(ctx)
}

// DeleteProject deletes the project with its steps and marks it deleted.
func (d *Detail) DeleteProject(ctx context.Context) error {
	if err := d.repo.DeleteProjectWithSteps(ctx, d.projectID); err != nil {
		return failed(ctx, d.logger, "delete project", err)
	}
	d.mu.Lock()
	d.deleted = true
	d.project = nil
	d.mu.Unlock()
	return nil
}
