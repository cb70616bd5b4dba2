package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/imgres/internal/auth"
	"github.com/phambaophuc/imgres/internal/http/handlers"
	"github.com/phambaophuc/imgres/internal/http/middleware"
	"go.uber.org/zap"
)

type Router struct {
	resizeHandler *handlers.ResizeHandler
	healthHandler *handlers.HealthHandler
	tokens        *auth.TokenService
	logger        *zap.Logger
}

func NewRouter(
	resizeHandler *handlers.ResizeHandler,
	healthHandler *handlers.HealthHandler,
	tokens *auth.TokenService,
	logger *zap.Logger,
) *Router {
	return &Router{
		resizeHandler: resizeHandler,
		healthHandler: healthHandler,
		tokens:        tokens,
		logger:        logger,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())

	// API version 1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", r.healthHandler.HealthCheck)

		images := v1.Group("/images")
		{
			images.POST("/resizefree", r.resizeHandler.ResizeFree)
			images.POST("/resize", middleware.Auth(r.tokens, r.logger), r.resizeHandler.Resize)
		}
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Image resizing is running",
		})
	})

	return router
}
