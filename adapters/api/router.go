package api

import (
	"arbiter/internal"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the JSON API and the metrics endpoint on a gin engine
func NewRouter(h *AnalysisHandler, gatherer prometheus.Gatherer, logger *internal.Logger) *gin.Engine {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger.With("HTTP")))

	router.GET("/healthz", h.HandleHealth())
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/rules", h.HandleRules())
		v1.POST("/pending", h.HandlePending())
		v1.POST("/analyze/structural", h.HandleStructural())
		v1.POST("/analyze", h.HandleAnalyze())
		v1.POST("/evaluate", h.HandleEvaluate())
		v1.GET("/runs", h.HandleListRuns())
		v1.GET("/runs/:id", h.HandleGetRun())
	}
	return router
}

func requestLogger(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Debug("%s %s -> %d", c.Request.Method, c.Request.URL.Path, c.Writer.Status())
	}
}
