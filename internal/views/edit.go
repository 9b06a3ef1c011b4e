package views

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/mesh-intelligence/checklist/internal/repository"
	"github.com/mesh-intelligence/checklist/pkg/types"
)

// EditMode selects what Save does.
type EditMode int

const (
	// ModeNew inserts a new live project.
	ModeNew EditMode = iota
	// ModeEdit replaces an existing project and its steps.
	ModeEdit
	// ModeTemplateCopy inserts a new live project seeded from a template.
	ModeTemplateCopy
)

func (m EditMode) String() string {
	switch m {
	case ModeNew:
		return "new"
	case ModeEdit:
		return "edit"
	case ModeTemplateCopy:
		return "template-copy"
	}
	return fmt.Sprintf("EditMode(%d)", int(m))
}

// EditState is the form content. StepName and StepDescription hold the draft
// of the next step.
type EditState struct {
	Name            string
	Description     string
	StepName        string
	StepDescription string
	Steps           []types.Step
}

// Edit is the project form.
type Edit struct {
	repo      *repository.Repository
	logger    *slog.Logger
	mode      EditMode
	projectID int64
	template  bool

	mu    sync.Mutex
	state EditState
}

// NewEdit returns an empty form for a new project.
func NewEdit(repo *repository.Repository, logger *slog.Logger) *Edit {
	return &Edit{repo: repo, logger: orDiscard(logger), mode: ModeNew, state: EditState{Steps: []types.Step{}}}
}

// OpenEdit loads an existing project into the form. The template flag of the
// project is kept on save.
func OpenEdit(ctx context.Context, repo *repository.Repository, logger *slog.Logger, projectID int64) (*Edit, error) {
	e := NewEdit(repo, logger)
	p, err := e.load(ctx, projectID)
	if err != nil {
		return nil, err
	}
	e.mode = ModeEdit
	e.projectID = projectID
	e.template = p.IsTemplate
	e.state.Name = p.Name
	e.state.Description = p.Description
	e.state.Steps = p.Steps
	return e, nil
}

// OpenTemplateCopy seeds the form from a template. Step identities are reset
// so saving creates fresh steps under a new project.
func OpenTemplateCopy(ctx context.Context, repo *repository.Repository, logger *slog.Logger, templateID int64) (*Edit, error) {
	e := NewEdit(repo, logger)
	p, err := e.load(ctx, templateID)
	if err != nil {
		return nil, err
	}
	e.mode = ModeTemplateCopy
	e.state.Name = types.ProjectRecord{Name: p.Name, IsTemplate: p.IsTemplate}.DisplayName()
	e.state.Description = p.Description
	for _, s := range p.Steps {
		s.StepID = 0
		e.state.Steps = append(e.state.Steps, s)
	}
	return e, nil
}

func (e *Edit) load(ctx context.Context, projectID int64) (types.Project, error) {
	pw, ok, err := e.repo.ProjectWithSteps(ctx, projectID)
	if err != nil {
		return types.Project{}, failed(ctx, e.logger, "load project", err)
	}
	if !ok {
		return types.Project{}, fmt.Errorf("project %d: %w", projectID, types.ErrNotFound)
	}
	p := pw.Domain()
	if p.Steps == nil {
		p.Steps = []types.Step{}
	}
	return p, nil
}

func (e *Edit) Mode() EditMode { return e.mode }

// ProjectID is the project being edited, 0 unless the mode is ModeEdit.
func (e *Edit) ProjectID() int64 { return e.projectID }

// State returns a copy of the form.
func (e *Edit) State() EditState {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.state
	st.Steps = slices.Clone(e.state.Steps)
	return st
}

func (e *Edit) SetName(name string) {
	e.mu.Lock()
	e.state.Name = name
	e.mu.Unlock()
}

func (e *Edit) SetDescription(description string) {
	e.mu.Lock()
	e.state.Description = description
	e.mu.Unlock()
}

func (e *Edit) SetStepName(name string) {
	e.mu.Lock()
	e.state.StepName = name
	e.mu.Unlock()
}

func (e *Edit) SetStepDescription(description string) {
	e.mu.Lock()
	e.state.StepDescription = description
	e.mu.Unlock()
}

// AddStep appends the draft as a new step and clears the draft.
func (e *Edit) AddStep() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Steps = append(e.state.Steps, types.Step{
		Name:        e.state.StepName,
		Description: e.state.StepDescription,
	})
	e.state.StepName = ""
	e.state.StepDescription = ""
}

// UpdateStep rewrites the step at index. Out-of-range indexes are ignored.
func (e *Edit) UpdateStep(index int, name, description string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.state.Steps) {
		return
	}
	e.state.Steps[index].Name = name
	e.state.Steps[index].Description = description
}

// DeleteStep removes the step at index. Out-of-range indexes are ignored.
func (e *Edit) DeleteStep(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.state.Steps) {
		return
	}
	e.state.Steps = slices.Delete(e.state.Steps, index, index+1)
}

// Save persists the form and returns the project id.
func (e *Edit) Save(ctx context.Context) (int64, error) {
	st := e.State()
	if strings.TrimSpace(st.Name) == "" {
		return 0, types.ErrInvalidName
	}
	name := st.Name

	if e.mode == ModeEdit {
		err := e.repo.UpdateProjectWithSteps(ctx, e.projectID, name, st.Description, st.Steps, e.template)
		if err != nil {
			return 0, failed(ctx, e.logger, "update project", err)
		}
		return e.projectID, nil
	}

	id, err := e.repo.InsertProjectWithSteps(ctx, name, st.Description, st.Steps, false)
	if err != nil {
		return 0, failed(ctx, e.logger, "create project", err)
	}
	return id, nil
}
