package devgateway

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soleshop/cart-sync/config"
	"github.com/soleshop/cart-sync/internal/metrics"
	"github.com/soleshop/cart-sync/internal/middleware"
)

// NewRouter creates and configures the Gin router for the development
// gateway.
func NewRouter(handler *Handler, sessions *SessionManager, cfg config.ServerConfig) *gin.Engine {
	router := gin.New()

	configureGlobalMiddleware(router, cfg)
	registerInfrastructureRoutes(router)

	api := router.Group("/api")
	api.Use(sessions.Middleware())
	registerCartRoutes(api, handler)

	return router
}

// configureGlobalMiddleware sets up middleware applied to all routes.
func configureGlobalMiddleware(router *gin.Engine, cfg config.ServerConfig) {
	// cfg.CORSOrigins always carries the local development defaults; any
	// extra origins come from configuration.
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Accept-Language", "accept", "Cache-Control", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           86400,
	}
	router.Use(cors.New(corsConfig))

	router.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		metrics.PrometheusMiddleware(),
		gzip.Gzip(gzip.DefaultCompression),
		middleware.RequestLogger(),
	)
}

// registerInfrastructureRoutes registers health and metrics routes.
func registerInfrastructureRoutes(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerCartRoutes registers the five-operation cart contract plus the
// catalog listing used by storefront development.
func registerCartRoutes(api *gin.RouterGroup, handler *Handler) {
	api.GET("/cart", handler.GetCart)
	api.POST("/cart/add", handler.AddItem)
	api.PUT("/cart/update", handler.UpdateItem)
	api.POST("/cart/remove", handler.RemoveItem)
	api.POST("/cart/clear", handler.ClearCart)
	api.GET("/products", handler.ListProducts)
}
