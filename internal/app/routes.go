package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/presenton/core/internal/modules/outline"
	"github.com/presenton/core/internal/pkg/response"
)

const apiPrefix = "/api/v1/ppt"

func (a *App) registerRoutes() {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	r.GET("/health", a.health)

	api := r.Group(apiPrefix)
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		uptime := time.Since(processStart)
		c.JSON(http.StatusOK, gin.H{
			"timestamp": uptime.Milliseconds(),
			"humanize":  humanizeDuration(uptime),
		})
	})

	outline.NewHandler(a.outline).RegisterRoutes(api)
}

// GET /health
func (a *App) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{"database": "ok", "redis": "disabled"}
	if sqlDB, err := a.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		checks["database"] = "down"
		status = http.StatusServiceUnavailable
	}
	if a.rc != nil {
		checks["redis"] = "ok"
		if err := a.rc.Raw().Ping(ctx).Err(); err != nil {
			// redis only backs the run ledger
			checks["redis"] = "down"
		}
	}
	c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
}

var processStart = time.Now()
