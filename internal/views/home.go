package views

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/mesh-intelligence/checklist/internal/repository"
	"github.com/mesh-intelligence/checklist/pkg/types"
)

// HomeState is the tabbed list of live projects.
type HomeState struct {
	Projects []types.ProjectRecord
	Selected int
	// TemplateSaved reports whether the selected project was already saved
	// as a template from this screen.
	TemplateSaved bool
}

// Home lists live projects in ascending identity order with one selected.
type Home struct {
	feed
	repo   *repository.Repository
	logger *slog.Logger

	mu       sync.Mutex
	projects []types.ProjectRecord
	selected int
	saved    map[int64]bool
}

func NewHome(repo *repository.Repository, logger *slog.Logger) *Home {
	h := &Home{
		repo:     repo,
		logger:   orDiscard(logger),
		projects: []types.ProjectRecord{},
		saved:    make(map[int64]bool),
	}
	h.feed.init()
	return h
}

// Start follows the project list until Stop.
func (h *Home) Start(ctx context.Context) {
	follow(&h.feed, h.repo.GetAllProjects(ctx), h.apply)
}

// Refresh loads the project list once.
func (h *Home) Refresh(ctx context.Context) error {
	all, err := h.repo.Projects(ctx)
	if err != nil {
		return failed(ctx, h.logger, "load projects", err)
	}
	h.apply(all)
	return nil
}

func (h *Home) apply(all []types.ProjectRecord) {
	live := make([]types.ProjectRecord, 0, len(all))
	for _, p := range all {
		if !p.IsTemplate {
			live = append(live, p)
		}
	}
	slices.SortFunc(live, func(a, b types.ProjectRecord) int {
		switch {
		case a.ProjectID < b.ProjectID:
			return -1
		case a.ProjectID > b.ProjectID:
			return 1
		}
		return 0
	})

	h.mu.Lock()
	h.projects = live
	h.mu.Unlock()
}

// State returns a copy of the current state.
func (h *Home) State() HomeState {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := HomeState{
		Projects: slices.Clone(h.projects),
		Selected: h.selected,
	}
	if p, ok := h.selectedLocked(); ok {
		st.TemplateSaved = h.saved[p.ProjectID]
	}
	return st
}

// Select makes index the selected tab.
func (h *Home) Select(index int) {
	h.mu.Lock()
	h.selected = index
	h.mu.Unlock()
	h.signal()
}

// Selected returns the selected project, or false when the selection is out
// of range.
func (h *Home) Selected() (types.ProjectRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.selectedLocked()
}

func (h *Home) selectedLocked() (types.ProjectRecord, bool) {
	if h.selected < 0 || h.selected >= len(h.projects) {
		return types.ProjectRecord{}, false
	}
	return h.projects[h.selected], true
}

// SaveSelectedAsTemplate clones the selected project as a template. It does
// nothing, returning 0, when there is no selection, the selection is itself a
// template, or it was already saved from this screen.
func (h *Home) SaveSelectedAsTemplate(ctx context.Context) (int64, error) {
	h.mu.Lock()
	p, ok := h.selectedLocked()
	skip := !ok || p.IsTemplate || h.saved[p.ProjectID]
	h.mu.Unlock()
	if skip {
		return 0, nil
	}

	id, err := h.repo.SaveProjectAsTemplate(ctx, p.ProjectID)
	if err != nil {
		return 0, failed(ctx, h.logger, "save as template", err)
	}

	h.mu.Lock()
	h.saved[p.ProjectID] = true
	h.mu.Unlock()
	h.signal()
	return id, nil
}

// DeleteSelected deletes the selected project and its steps, then selects
// the first tab.
func (h *Home) DeleteSelected(ctx context.Context) error {
	p, ok := h.Selected()
	if !ok {
		return nil
	}
	if err := h.repo.DeleteProject(ctx, p); err != nil {
		return failed(ctx, h.logger, "delete project", err)
	}

	h.mu.Lock()
	h.selected = 0
	delete(h.saved, p.ProjectID)
	h.mu.Unlock()
	h.signal()
	return nil
}

// DeleteStep deletes one step of any project.
func (h *Home) DeleteStep(ctx context.Context, stepID int64) error {
	if err := h.repo.DeleteStep(ctx, stepID); err != nil {
		return failed(ctx, h.logger, "delete step", err)
	}
	return nil
}
