package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "contest-bot-backend/docs"
	"contest-bot-backend/internal/common/middleware"
	"contest-bot-backend/internal/config"
	"contest-bot-backend/internal/service/countsync"
	"contest-bot-backend/internal/service/membership"
	"contest-bot-backend/internal/service/publisher"
	"contest-bot-backend/internal/service/webhook"
)

// Deps are the services behind the HTTP API.
type Deps struct {
	Config     *config.Config
	Authorizer middleware.AdminChecker
	Publisher  *publisher.Service
	Webhook    *webhook.Router
	Verifier   *membership.Verifier
	Sync       *countsync.Service
	// HealthCheck reports storage availability. Optional.
	HealthCheck func(ctx context.Context) error
}

// NewRouter builds the gin engine with middlewares and routes wired.
func NewRouter(deps Deps) *gin.Engine {
	if !deps.Config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.ErrorHandler())

	corsConfig := cors.DefaultConfig()
	if origins := deps.Config.Server.CORSAllowedOrigins; len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin", "Content-Type", "Accept", "Authorization",
		"X-Telegram-Init-Data", "X-Telegram-Bot-Api-Secret-Token", "X-Request-ID",
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", healthHandler(deps.HealthCheck))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	NewContestHandlers(deps).Register(v1)
	NewTelegramHandlers(deps).Register(v1)

	// OPTIONS pre-flight for unmatched routes is answered by cors; anything
	// else falls through to a JSON 404.
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "route not found"})
	})

	return router
}

func healthHandler(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unready",
					"error":   "storage unavailable",
					"details": err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "contest-bot-backend",
		})
	}
}
