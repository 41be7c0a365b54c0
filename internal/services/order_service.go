package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dishpatch/dishpatch/internal/models"
	apperrors "github.com/dishpatch/dishpatch/pkg/errors"
)

// OrderStats summarises an account's order history.
type OrderStats struct {
	OrderCount          int64      `json:"order_count"`
	TotalSpentCents     int64      `json:"total_spent_cents"`
	FavouriteRestaurant string     `json:"favourite_restaurant,omitempty"`
	LastOrderAt         *time.Time `json:"last_order_at,omitempty"`
}

// OrderService retrieves order history and statistics for an account.
type OrderService struct {
	db *gorm.DB
}

// NewOrderService constructs an OrderService.
func NewOrderService(db *gorm.DB) (*OrderService, error) {
	if db == nil {
		return nil, errors.New("order service: db is required")
	}
	return &OrderService{db: db}, nil
}

// History returns the account's orders newest first with items and restaurant
// preloaded, along with the total count for pagination metadata.
func (s *OrderService) History(ctx context.Context, accountID uint, page, perPage int) ([]models.Order, int64, error) {
	ctx = ensureContext(ctx)

	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}

	query := s.db.WithContext(ctx).Model(&models.Order{}).Where("account_id = ?", accountID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storeError(err)
	}

	var orders []models.Order
	if err := query.
		Order("placed_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Preload("Restaurant").
		Preload("Items").
		Preload("Items.Dish").
		Find(&orders).Error; err != nil {
		return nil, 0, storeError(err)
	}

	return orders, total, nil
}

// Get loads a single order, enforcing ownership.
func (s *OrderService) Get(ctx context.Context, accountID, orderID uint) (*models.Order, error) {
	ctx = ensureContext(ctx)

	var order models.Order
	err := s.db.WithContext(ctx).
		Where("id = ? AND account_id = ?", orderID, accountID).
		Preload("Restaurant").
		Preload("Items").
		Preload("Items.Dish").
		Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, storeError(err)
	}

	return &order, nil
}

// Stats aggregates order count, lifetime spend, the most-ordered restaurant
// and the most recent order time.
func (s *OrderService) Stats(ctx context.Context, accountID uint) (*OrderStats, error) {
	ctx = ensureContext(ctx)

	stats := &OrderStats{}

	row := struct {
		Count int64
		Total int64
	}{}
	if err := s.db.WithContext(ctx).Model(&models.Order{}).
		Select("COUNT(*) AS count, COALESCE(SUM(total_cents), 0) AS total").
		Where("account_id = ?", accountID).
		Scan(&row).Error; err != nil {
		return nil, storeError(err)
	}
	stats.OrderCount = row.Count
	stats.TotalSpentCents = row.Total

	if stats.OrderCount == 0 {
		return stats, nil
	}

	var lastOrder models.Order
	if err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("placed_at DESC").
		Take(&lastOrder).Error; err == nil {
		stats.LastOrderAt = &lastOrder.PlacedAt
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeError(err)
	}

	favourite := struct {
		Name string
	}{}
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Select("restaurants.name AS name").
		Joins("JOIN restaurants ON restaurants.id = orders.restaurant_id").
		Where("orders.account_id = ?", accountID).
		Group("restaurants.id, restaurants.name").
		Order("COUNT(orders.id) DESC").
		Limit(1).
		Scan(&favourite).Error
	if err != nil {
		return nil, storeError(err)
	}
	stats.FavouriteRestaurant = favourite.Name

	return stats, nil
}
