package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/checklist/internal/repository"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Store     string    `json:"store"`
}

type HealthHandler struct {
	service string
	version string
	repo    *repository.Repository
}

func NewHealthHandler(service, version string, repo *repository.Repository) *HealthHandler {
	return &HealthHandler{service: service, version: version, repo: repo}
}

// HealthCheck reports "healthy" with the store "up", or "degraded" when a
// read against the store fails.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.service,
		Version:   h.version,
		Store:     "up",
	}
	status := http.StatusOK
	if _, err := h.repo.Templates(ctx); err != nil {
		resp.Status = "degraded"
		resp.Store = "down"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
