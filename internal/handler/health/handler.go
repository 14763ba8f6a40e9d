package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type BreakerStater interface {
	BreakerState() string
}

type Handler struct {
	store   Pinger
	backend BreakerStater
}

func NewHandler(store Pinger, backend BreakerStater) *Handler {
	return &Handler{
		store:   store,
		backend: backend,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

// ReadinessCheck fails when the session store is unreachable. An open backend
// breaker is reported but does not fail readiness; pages degrade to error notices.
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	breaker := h.backend.BreakerState()
	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "DOWN",
			"reason":  "Session store unreachable",
			"backend": breaker,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP", "backend": breaker})
}
