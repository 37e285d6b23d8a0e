package handler

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"devcoach/internal/middleware"
)

type RouterDeps struct {
	Chat   *ChatHandler
	Health *HealthHandler
}

func RegisterRoutes(engine *gin.Engine, deps RouterDeps) {
	engine.GET("/healthz", deps.Health.Healthz)
	engine.GET("/readyz", deps.Health.Readyz)

	api := engine.Group("/api/v1")
	api.POST("/retrieve", deps.Chat.Retrieve)
	api.POST("/chat", deps.Chat.Chat)
}

// NewEngine builds the gin engine with the standard middleware chain.
func NewEngine(deps RouterDeps) *gin.Engine {
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.AccessLog(),
		gin.Recovery(),
		gzip.Gzip(gzip.DefaultCompression),
	)
	RegisterRoutes(engine, deps)
	return engine
}
