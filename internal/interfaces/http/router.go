// Package http assembles the gin router and the HTTP server lifecycle.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/molvista/molvista/internal/infrastructure/monitoring/logging"
	"github.com/molvista/molvista/internal/infrastructure/monitoring/prometheus"
	"github.com/molvista/molvista/internal/interfaces/http/handlers"
	"github.com/molvista/molvista/internal/interfaces/http/middleware"
)

// RouterDeps carries everything the router needs.
type RouterDeps struct {
	Mode    string // gin mode: debug | release | test
	Logger  logging.Logger
	Metrics *prometheus.Metrics

	Health     *handlers.HealthHandler
	Structures *handlers.StructureHandler
	Predict    *handlers.PredictHandler
	Chat       *handlers.ChatHandler

	Logging   middleware.LoggingConfig
	CORS      middleware.CORSConfig
	RateLimit middleware.RateLimitConfig
}

// NewRouter builds the full middleware chain and route table.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Mode != "" {
		gin.SetMode(deps.Mode)
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogging(deps.Logger, deps.Logging),
		middleware.CORS(deps.CORS),
	)
	if deps.Metrics != nil {
		engine.Use(middleware.Metrics(deps.Metrics))
	}

	engine.GET("/healthz", deps.Health.Healthz)
	engine.GET("/readyz", deps.Health.Readyz)
	if deps.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	api := engine.Group("/api/v1")
	api.Use(middleware.RateLimit(deps.RateLimit))
	{
		api.POST("/predict", deps.Predict.Predict)
		api.GET("/properties", deps.Predict.Properties)
		api.POST("/chat", deps.Chat.Chat)
		api.GET("/structures/:smiles", deps.Structures.GetStructure)
		api.GET("/structures/:smiles/name", deps.Structures.GetName)
	}

	return engine
}
