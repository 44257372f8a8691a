package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether the store is reachable.
type Pinger func(ctx context.Context) error

type HealthController struct {
	Ping Pinger
}

func NewHealthController(ping Pinger) *HealthController {
	return &HealthController{Ping: ping}
}

func (hc *HealthController) Healthz(c *gin.Context) {
	if hc.Ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := hc.Ping(ctx); err != nil {
			slog.WarnContext(ctx, "health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
}
