package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// keepAlive is the interval of SSE comment pings.
var keepAlive = 15 * time.Second

// streamProjects sends a "projects" event with the full project list after
// every change, starting with the current list.
func (h *Handler) streamProjects(c *gin.Context) {
	ctx := c.Request.Context()
	sub := h.repo.GetAllProjects(ctx)
	defer sub.Cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.Writer.WriteString(": keep-alive\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		case projects, ok := <-sub.C:
			if !ok {
				if err := sub.Err(); err != nil {
					h.logger.WarnContext(ctx, "project stream ended", "error", err)
				}
				return
			}
			c.SSEvent("projects", gin.H{"projects": projects})
			c.Writer.Flush()
		}
	}
}
