package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/imgres/internal/models"
)

type StatusReporter interface {
	HealthCheck(ctx context.Context) map[string]string
}

type QueueReporter interface {
	HealthCheck() string
}

type HealthHandler struct {
	reporters []StatusReporter
	queue     QueueReporter
}

// NewHealthHandler aggregates the given reporters. queue may be nil when
// usage events are disabled.
func NewHealthHandler(queue QueueReporter, reporters ...StatusReporter) *HealthHandler {
	return &HealthHandler{
		reporters: reporters,
		queue:     queue,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	services := make(map[string]string)
	for _, r := range h.reporters {
		for name, status := range r.HealthCheck(c.Request.Context()) {
			services[name] = status
		}
	}

	if h.queue != nil {
		services["rabbitmq"] = h.queue.HealthCheck()
	} else {
		services["rabbitmq"] = models.StatusNotConfigured
	}

	health := models.NewHealthCheck(services)

	statusCode := http.StatusOK
	if !health.Healthy() {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: health.Healthy(),
		Data:    health,
	})
}
