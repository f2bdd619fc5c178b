package server

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDMiddleware tags every request with a unique identifier
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

// RegisterRoutes mounts the API on the given router
func (s *Server) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")

	cfg := api.Group("/config")
	{
		cfg.GET("", s.getConfig)
		cfg.GET("/active", s.getActiveConfig)
		cfg.GET("/presets", s.getPresets)
		cfg.POST("/preset", s.applyPreset)
		cfg.PUT("/custom", s.updateCustomConfig)
		cfg.POST("/validate", s.validateConfig)
		cfg.GET("/logs", s.getConfigLogs)
	}

	api.POST("/evaluations", s.evaluateBatch)
	api.GET("/evaluations/:emp_no", s.evaluateEmployee)

	r.GET("/metrics", s.getMetrics)
}
