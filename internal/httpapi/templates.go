package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/checklist/internal/views"
	"github.com/mesh-intelligence/checklist/pkg/types"
)

func (h *Handler) listTemplates(c *gin.Context) {
	v := views.NewTemplates(h.repo, h.logger)
	if err := v.Refresh(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": v.Headers()})
}

type useTemplateReq struct {
	Name string `json:"name"`
}

// useTemplate creates a live project from a template. The body is optional;
// a name in it overrides the template's.
func (h *Handler) useTemplate(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var req useTemplateReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.fail(c, fmt.Errorf("%w: %v", errInvalidRequest, err))
		return
	}

	ctx := c.Request.Context()
	tpl, ok, err := h.repo.GetProjectByID(ctx, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok || !tpl.IsTemplate {
		h.fail(c, types.ErrNotFound)
		return
	}

	form, err := views.OpenTemplateCopy(ctx, h.repo, h.logger, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		form.SetName(name)
	}
	newID, err := form.Save(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.renderProject(c, http.StatusCreated, newID)
}

func (h *Handler) deleteTemplate(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.repo.DeleteTemplate(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
