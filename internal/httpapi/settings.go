package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type darkModeReq struct {
	Enabled *bool `json:"enabled"`
}

func (h *Handler) getDarkMode(c *gin.Context) {
	ctx := c.Request.Context()
	sub, err := h.settings.DarkMode(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer sub.Cancel()
	on, err := sub.Next(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": on})
}

func (h *Handler) putDarkMode(c *gin.Context) {
	var req darkModeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errInvalidRequest, err))
		return
	}
	if req.Enabled == nil {
		h.fail(c, fmt.Errorf("%w: enabled is required", errInvalidRequest))
		return
	}
	if err := h.settings.SetDarkMode(c.Request.Context(), *req.Enabled); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enabled": *req.Enabled})
}
