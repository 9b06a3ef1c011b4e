package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/checklist/pkg/types"
)

type stepReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type projectReq struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsTemplate  *bool     `json:"is_template"`
	Steps       []stepReq `json:"steps"`
}

func (r projectReq) steps() []types.Step {
	out := make([]types.Step, 0, len(r.Steps))
	for _, s := range r.Steps {
		out = append(out, types.Step{Name: s.Name, Description: s.Description})
	}
	return out
}

func bindProject(c *gin.Context) (projectReq, error) {
	var req projectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		return req, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	if strings.TrimSpace(req.Name) == "" {
		return req, types.ErrInvalidName
	}
	return req, nil
}

func (h *Handler) listProjects(c *gin.Context) {
	items, err := h.repo.Projects(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": items})
}

func (h *Handler) createProject(c *gin.Context) {
	req, err := bindProject(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	isTemplate := req.IsTemplate != nil && *req.IsTemplate
	ctx := c.Request.Context()
	id, err := h.repo.InsertProjectWithSteps(ctx, req.Name, req.Description, req.steps(), isTemplate)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.renderProject(c, http.StatusCreated, id)
}

func (h *Handler) getProject(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.renderProject(c, http.StatusOK, id)
}

func (h *Handler) renderProject(c *gin.Context, status int, id int64) {
	pw, ok, err := h.repo.ProjectWithSteps(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		h.fail(c, types.ErrNotFound)
		return
	}
	c.JSON(status, gin.H{"project": pw.Domain()})
}

// updateProject replaces the project and all of its steps. The template flag
// is kept unless the body sets it.
func (h *Handler) updateProject(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	req, err := bindProject(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	current, ok, err := h.repo.GetProjectByID(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		h.fail(c, types.ErrNotFound)
		return
	}
	isTemplate := current.IsTemplate
	if req.IsTemplate != nil {
		isTemplate = *req.IsTemplate
	}
	if err := h.repo.UpdateProjectWithSteps(ctx, id, req.Name, req.Description, req.steps(), isTemplate); err != nil {
		h.fail(c, err)
		return
	}
	h.renderProject(c, http.StatusOK, id)
}

func (h *Handler) deleteProject(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.repo.DeleteProjectWithSteps(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) saveAsTemplate(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	tplID, err := h.repo.SaveProjectAsTemplate(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.renderProject(c, http.StatusCreated, tplID)
}

func (h *Handler) listSteps(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	steps, err := h.repo.Steps(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"steps": steps})
}

func (h *Handler) addStep(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req stepReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errInvalidRequest, err))
		return
	}
	ctx := c.Request.Context()
	if _, ok, err := h.repo.GetProjectByID(ctx, id); err != nil {
		h.fail(c, err)
		return
	} else if !ok {
		h.fail(c, types.ErrNotFound)
		return
	}

	rec := types.StepRecord{Name: req.Name, Description: req.Description, ProjectOwnerID: id}
	stepID, err := h.repo.InsertStep(ctx, rec)
	if err != nil {
		h.fail(c, err)
		return
	}
	rec.StepID = stepID
	c.JSON(http.StatusCreated, gin.H{"step": rec})
}

func (h *Handler) deleteStep(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.repo.DeleteStep(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
