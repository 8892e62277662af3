package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-validator/internal/http/handlers"
	"github.com/phambaophuc/image-validator/internal/http/middleware"
	"go.uber.org/zap"
)

type Router struct {
	imageHandler   *handlers.ImageHandler
	logger         *zap.Logger
	allowedOrigins []string
}

func NewRouter(
	imageHandler *handlers.ImageHandler,
	logger *zap.Logger,
	allowedOrigins []string,
) *Router {
	return &Router{
		imageHandler:   imageHandler,
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
}

func (r *Router) SetupRoutes() *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.ErrorHandler(r.logger))
	router.Use(middleware.CORS(r.allowedOrigins))
	router.Use(middleware.SecurityHeaders())

	images := router.Group("/api/image")
	{
		images.POST("/validate", middleware.RequireMultipart(), r.imageHandler.ValidateImage)
		images.POST("/validate/async", middleware.RequireMultipart(), r.imageHandler.ValidateImageAsync)
		images.GET("/jobs/:id", r.imageHandler.GetJob)
		images.GET("/validations/:id", r.imageHandler.GetValidation)
	}

	// API version 1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", r.imageHandler.HealthCheck)
		v1.GET("/stats", r.imageHandler.GetStats)
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "Image validation is running",
		})
	})

	return router
}
