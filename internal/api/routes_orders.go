package api

import (
	"github.com/gin-gonic/gin"

	"github.com/dishpatch/dishpatch/internal/handlers"
)

type orderRouteDeps struct {
	OrderHandler   *handlers.OrderHandler
	CatalogHandler *handlers.CatalogHandler
}

func registerOrderRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc, deps orderRouteDeps) {
	restaurants := api.Group("/restaurants")
	{
		restaurants.GET("", deps.CatalogHandler.ListRestaurants)
		restaurants.GET("/:id", deps.CatalogHandler.GetRestaurant)
	}

	orders := api.Group("/orders")
	orders.Use(requireAuth)
	{
		orders.GET("", deps.OrderHandler.List)
		orders.GET("/stats", deps.OrderHandler.Stats)
		orders.GET("/:id", deps.OrderHandler.Get)
	}
}
