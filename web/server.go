// Package web exposes the punch clock over HTTP.
package web

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"axiapac.com/punchclock/auth"
	"axiapac.com/punchclock/punch"
	"axiapac.com/punchclock/store"
	"axiapac.com/punchclock/web/handlers/admin"
	"axiapac.com/punchclock/web/handlers/attendance"
	"axiapac.com/punchclock/web/handlers/session"
	"axiapac.com/punchclock/web/metrics"
	"axiapac.com/punchclock/web/middlewares"
)

type Dependencies struct {
	Auth  *auth.Service
	Punch *punch.Machine
	Store *store.RecordStore
	// Gatherer serves /metrics. Metrics must be registered on it.
	Gatherer prometheus.Gatherer
	Metrics  *metrics.Metrics
	// AdminAccounts protects the admin routes with basic auth when not empty.
	AdminAccounts  gin.Accounts
	MaxUploadBytes int64
	Logger         *slog.Logger
}

func NewRouter(d Dependencies) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 10 << 20
	}

	r := gin.Default()
	r.Use(d.Metrics.Middleware(), logErrors(d.Logger))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	if d.Gatherer != nil {
		r.GET("/metrics", metrics.Handler(d.Gatherer))
	}

	api := r.Group("/api/v1")
	authenticated := middlewares.Authentication(d.Auth)
	session.Register(api, d.Auth, d.Metrics, authenticated)

	protected := api.Group("")
	protected.Use(authenticated)
	attendance.Register(protected, d.Punch, d.Metrics, d.MaxUploadBytes)

	adminGroup := api.Group("/admin")
	if len(d.AdminAccounts) > 0 {
		adminGroup.Use(gin.BasicAuth(d.AdminAccounts))
	}
	admin.Register(adminGroup, d.Store, d.Metrics)

	return r
}

// logErrors writes the errors handlers attached to the context.
func logErrors(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		for _, e := range c.Errors {
			logger.Warn("request failed", "method", c.Request.Method, "path", c.FullPath(), "status", c.Writer.Status(), "error", e.Err)
		}
	}
}
