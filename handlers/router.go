package handlers

import (
	"time"

	"lexai-backend/logger"
	"lexai-backend/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RouterConfig holds the handlers served by NewRouter. Nil handlers are not routed.
type RouterConfig struct {
	Search   *SearchHandler
	Runs     *RunHandler
	Datasets *DatasetHandler
	Metrics  *metrics.Metrics
	Logger   logger.Logger
}

// NewRouter builds the HTTP API
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = logger.GetDefault()
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log))

	r.GET("/health", HealthCheck)
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}
	if cfg.Search != nil {
		r.POST("/search", cfg.Search.Search)
	}

	api := r.Group("/api")
	{
		if cfg.Runs != nil {
			api.POST("/ingestion", cfg.Runs.StartIngestion)
			api.POST("/embeddings/backfill", cfg.Runs.StartBackfill)
			api.GET("/runs/:id", cfg.Runs.GetRun)
		}
		if cfg.Datasets != nil {
			api.PUT("/dataset", cfg.Datasets.UploadDataset)
		}
	}

	return r
}

// RequestLogger tags each request with an id and puts a request-scoped logger in its context
func RequestLogger(base logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		log := base.With("request_id", requestID)
		c.Request = c.Request.WithContext(logger.ContextWithLogger(c.Request.Context(), log))

		start := time.Now()
		c.Next()

		log.Info("Request handled",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
