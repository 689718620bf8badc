package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/AlexHorzhij/spravzhnya-tg-orders/docs"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/common/config"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/common/middleware"
	sessionhttp "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/session/delivery/http"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/session/service"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/metrics"
)

const serviceName = "spravzhnya-tg-orders"

// NewRouter builds the gin engine with routes and middlewares wired.
func NewRouter(cfg *config.Config, sessions service.SessionService) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(metrics.Middleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Request-ID", middleware.InitDataHeader}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	router.Use(cors.New(corsConfig))

	router.NoRoute(middleware.NoRoute())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   serviceName,
		})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	sessionhttp.NewSessionHandler(sessions).RegisterRoutes(v1)

	// Собранная страница мини-приложения
	if cfg.Server.StaticDir != "" {
		router.Static(cfg.Server.BasePath, cfg.Server.StaticDir)
	}

	return router
}
