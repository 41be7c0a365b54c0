package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/dishpatch/dishpatch/internal/app"
	iauth "github.com/dishpatch/dishpatch/internal/auth"
	"github.com/dishpatch/dishpatch/internal/handlers"
	"github.com/dishpatch/dishpatch/internal/middleware"
	"github.com/dishpatch/dishpatch/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, accounts *services.AccountService, orders *services.OrderService) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if accounts == nil {
		return nil, fmt.Errorf("account service must be provided")
	}
	if orders == nil {
		return nil, fmt.Errorf("order service must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	// Basic rate limiting: 100 requests/minute per IP+path
	r.Use(middleware.RateLimit(100, time.Minute))

	// Health endpoint (public)
	r.GET("/health", handlers.Health(db))

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	requireAuth := middleware.Auth(jwt)

	api := r.Group("/api")

	registerAuthRoutes(api, requireAuth, authRouteDeps{
		AuthHandler: handlers.NewAuthHandler(accounts),
	})

	registerOrderRoutes(api, requireAuth, orderRouteDeps{
		OrderHandler:   handlers.NewOrderHandler(orders),
		CatalogHandler: handlers.NewCatalogHandler(db),
	})

	return r, nil
}
