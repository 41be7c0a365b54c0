package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dishpatch/dishpatch/internal/middleware"
	"github.com/dishpatch/dishpatch/internal/services"
	appErrors "github.com/dishpatch/dishpatch/pkg/errors"
	"github.com/dishpatch/dishpatch/pkg/response"
)

// OrderHandler serves order history and statistics for the authenticated account.
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// GET /api/orders
func (h *OrderHandler) List(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	page := parseIntQuery(c, "page", 1)
	perPage := parseIntQuery(c, "per_page", 20)

	orders, total, err := h.orders.History(requestContext(c), accountID, page, perPage)
	if err != nil {
		response.Error(c, err)
		return
	}

	totalPages := 0
	if perPage > 0 {
		totalPages = int((total + int64(perPage) - 1) / int64(perPage))
	}

	response.SuccessWithMeta(c, http.StatusOK, orders, &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	})
}

// GET /api/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	orderID, ok := parseUintParam(c, "id")
	if !ok {
		response.Error(c, appErrors.NewBadRequest("order id must be a positive integer"))
		return
	}

	order, err := h.orders.Get(requestContext(c), accountID, orderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, order)
}

// GET /api/orders/stats
func (h *OrderHandler) Stats(c *gin.Context) {
	accountID, ok := middleware.AccountID(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	stats, err := h.orders.Stats(requestContext(c), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}
