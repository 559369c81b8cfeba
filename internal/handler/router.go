// Package handler wires the HTTP surface: it parses request parameters,
// delegates to the services and serializes results into the uniform
// {message, data} envelope. All business rules live below it.
package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskhub/taskhub/internal/service"
)

// NewRouter builds the gin engine with both resource groups mounted under
// /api.
func NewRouter(tasks *service.TaskService, users *service.UserService, log *slog.Logger) *gin.Engine {
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	api := r.Group("/api")
	NewTaskHandler(tasks).Register(api)
	NewUserHandler(users).Register(api)
	return r
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
