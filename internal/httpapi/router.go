// Package httpapi exposes the checklist repository over HTTP with gin.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/checklist/internal/repository"
	"github.com/mesh-intelligence/checklist/internal/views"
	"github.com/mesh-intelligence/checklist/pkg/types"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "checklist"

// RouterDeps are the collaborators of the HTTP adapter. Settings may be nil,
// in which case the settings routes are not registered.
type RouterDeps struct {
	Version     string
	Repo        *repository.Repository
	Settings    types.Settings
	Logger      *slog.Logger
	CORSOrigins []string
}

// Handler serves the /api/v1 routes.
type Handler struct {
	repo     *repository.Repository
	settings types.Settings
	logger   *slog.Logger
}

// BuildRouter returns an engine with health, API and optional CORS routes.
func BuildRouter(dep RouterDeps) *gin.Engine {
	logger := dep.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(logger))
	if len(dep.CORSOrigins) > 0 {
		cfg := cors.DefaultConfig()
		cfg.AllowOrigins = dep.CORSOrigins
		cfg.AllowHeaders = append(cfg.AllowHeaders, RequestIDHeader)
		cfg.ExposeHeaders = []string{RequestIDHeader}
		r.Use(cors.New(cfg))
	}

	NewHealthHandler(ServiceName, dep.Version, dep.Repo).RegisterRoutes(r)

	h := &Handler{repo: dep.Repo, settings: dep.Settings, logger: logger}
	h.Register(r.Group("/api/v1"))
	return r
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	projects := rg.Group("/projects")
	projects.GET("", h.listProjects)
	projects.POST("", h.createProject)
	projects.GET("/:id", h.getProject)
	projects.PUT("/:id", h.updateProject)
	projects.DELETE("/:id", h.deleteProject)
	projects.POST("/:id/template", h.saveAsTemplate)
	projects.GET("/:id/steps", h.listSteps)
	projects.POST("/:id/steps", h.addStep)

	rg.DELETE("/steps/:id", h.deleteStep)

	templates := rg.Group("/templates")
	templates.GET("", h.listTemplates)
	templates.POST("/:id/use", h.useTemplate)
	templates.DELETE("/:id", h.deleteTemplate)

	rg.GET("/stream/projects", h.streamProjects)

	if h.settings != nil {
		rg.GET("/settings/dark-mode", h.getDarkMode)
		rg.PUT("/settings/dark-mode", h.putDarkMode)
	}
}

var errInvalidRequest = errors.New("invalid request")

// fail renders err. Store failures get a generic body; the cause is logged.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, types.ErrInvalidName),
		errors.Is(err, types.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, types.ErrConstraint):
		c.JSON(http.StatusConflict, gin.H{"error": views.ErrActionFailed.Error()})
	default:
		h.logger.ErrorContext(c.Request.Context(), "request failed",
			"request_id", RequestIDFrom(c.Request.Context()), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": views.ErrActionFailed.Error()})
	}
}

// idParam parses the :id path parameter as a positive identity.
func idParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, types.ErrInvalidID
	}
	return id, nil
}
