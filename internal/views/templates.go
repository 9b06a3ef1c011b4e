package views

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/mesh-intelligence/checklist/internal/repository"
	"github.com/mesh-intelligence/checklist/pkg/types"
)

// Templates lists saved templates, newest first.
type Templates struct {
	feed
	repo   *repository.Repository
	logger *slog.Logger

	mu      sync.Mutex
	headers []types.ProjectHeader
}

func NewTemplates(repo *repository.Repository, logger *slog.Logger) *Templates {
	t := &Templates{repo: repo, logger: orDiscard(logger), headers: []types.ProjectHeader{}}
	t.feed.init()
	return t
}

// Start follows the template list until Stop.
func (t *Templates) Start(ctx context.Context) {
	follow(&t.feed, t.repo.GetTemplateProjects(ctx), t.apply)
}

// Refresh loads the template list once.
func (t *Templates) Refresh(ctx context.Context) error {
	recs, err := t.repo.Templates(ctx)
	if err != nil {
		return failed(ctx, t.logger, "load templates", err)
	}
	t.apply(recs)
	return nil
}

func (t *Templates) apply(recs []types.ProjectRecord) {
	headers := make([]types.ProjectHeader, 0, len(recs))
	for _, r := range recs {
		headers = append(headers, types.HeaderFromRecord(r))
	}
	t.mu.Lock()
	t.headers = headers
	t.mu.Unlock()
}

func (t *Templates) Headers() []types.ProjectHeader {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.headers)
}

// Delete removes the template with its steps.
func (t *Templates) Delete(ctx context.Context, projectID int64) error {
	if err := t.repo.DeleteTemplate(ctx, projectID); err != nil {
		return failed(ctx, t.logger, "delete template", err)
	}
	return nil
}
