package http

import (
	"net/http"
	"storefront/internal/database"
	"storefront/internal/service"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterConfig carries everything the HTTP surface depends on.
type RouterConfig struct {
	Cart        service.CartService
	Catalog     service.CatalogService
	Checkout    service.CheckoutService
	Webhooks    service.WebhookService
	Health      database.Service
	CORSOrigins []string
	Logger      *zap.Logger
}

// NewRouter wires all routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(cfg.Logger))

	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", SessionKeyHeader},
			ExposeHeaders:    []string{SessionKeyHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	items := NewItemHandler(cfg.Catalog)
	orders := NewOrderHandler(cfg.Cart)
	checkout := NewCheckoutHandler(cfg.Checkout)
	webhooks := NewWebhookHandler(cfg.Webhooks)

	router.GET("/health", func(c *gin.Context) {
		stats := cfg.Health.Health(c.Request.Context())
		status := http.StatusOK
		if stats["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, stats)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/items", items.List)

	router.POST("/orders", orders.CreateOrGet)
	router.GET("/orders/current", orders.Current)
	router.GET("/orders/:id", orders.Get)
	router.POST("/orders/:id/lines", orders.AddLine)
	router.DELETE("/orders/:id/lines/:line_id", orders.RemoveLine)
	router.POST("/orders/:id/checkout", checkout.Create)

	router.POST("/webhooks/payment", webhooks.Handle)

	admin := router.Group("/admin")
	{
		admin.POST("/items", items.Create)
		admin.PUT("/items/:id", items.Update)
		admin.POST("/items/:id/sync", items.Sync)
	}

	return router
}
