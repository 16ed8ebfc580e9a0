package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= 500 {
			logger.Error("request", fields...)
			return
		}
		logger.Info("request", fields...)
	}
}

// NewRouter wires every route of the dashboard.
func NewRouter(h *APIHandler) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(h.Logger), gin.Recovery())
	router.SetHTMLTemplate(Templates())

	router.GET("/", h.GetPage)

	api := router.Group("/api")
	{
		api.GET("/filters", h.GetFilters)
		api.GET("/dashboard", h.GetDashboard)
		api.GET("/visualization", h.GetVisualization)

		api.GET("/clusters", h.GetClusters)
		api.GET("/clusters/:clusterId", h.GetClusterByID)

		api.GET("/explorer", h.GetExplorer)
		api.GET("/explorer/export", h.ExportExplorer)

		api.GET("/charts/:name", h.GetChart)

		api.GET("/ping", h.Ping)
	}
	return router
}
