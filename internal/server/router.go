package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/storysign/storysign-backend/internal/handlers"
	"github.com/storysign/storysign-backend/internal/middleware"
)

type RouterConfig struct {
	AllowOrigins []string
	StoryHandler *handlers.StoryHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "X-Requested-With", middleware.HeaderXRequestID},
		AllowCredentials: true,
	}))
	router.Use(middleware.RequestID())
	router.Use(otelgin.Middleware("storysign-backend"))

	router.GET("/healthcheck", handlers.HealthCheck)

	v1 := router.Group("/v1")
	{
		v1.GET("/levels", cfg.StoryHandler.Levels)
		v1.POST("/stories", cfg.StoryHandler.Generate)
	}

	return router
}
