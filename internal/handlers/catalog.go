package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dishpatch/dishpatch/internal/models"
	appErrors "github.com/dishpatch/dishpatch/pkg/errors"
	"github.com/dishpatch/dishpatch/pkg/response"
)

// CatalogHandler serves restaurant and dish browsing. Read-only plumbing.
type CatalogHandler struct {
	db *gorm.DB
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

// GET /api/restaurants
func (h *CatalogHandler) ListRestaurants(c *gin.Context) {
	var restaurants []models.Restaurant
	if err := h.db.WithContext(requestContext(c)).
		Order("rating DESC").
		Find(&restaurants).Error; err != nil {
		response.Error(c, appErrors.ErrStoreUnavailable.WithInternal(err))
		return
	}

	response.Success(c, http.StatusOK, restaurants)
}

// GET /api/restaurants/:id
func (h *CatalogHandler) GetRestaurant(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		response.Error(c, appErrors.NewBadRequest("restaurant id must be a positive integer"))
		return
	}

	var restaurant models.Restaurant
	err := h.db.WithContext(requestContext(c)).
		Preload("Dishes").
		Take(&restaurant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.Error(c, appErrors.ErrNotFound)
		return
	}
	if err != nil {
		response.Error(c, appErrors.ErrStoreUnavailable.WithInternal(err))
		return
	}

	response.Success(c, http.StatusOK, restaurant)
}
