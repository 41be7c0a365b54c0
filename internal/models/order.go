package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order statuses as stored in the orders table.
const (
	OrderStatusPlaced    = "placed"
	OrderStatusPreparing = "preparing"
	OrderStatusEnRoute   = "en_route"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Order is a historical order placed by an account.
type Order struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Reference    string `gorm:"uniqueIndex;not null" json:"reference"`
	AccountID    uint   `gorm:"index;not null" json:"account_id"`
	RestaurantID uint   `gorm:"index;not null" json:"restaurant_id"`
	Status       string `gorm:"not null;default:placed" json:"status"`
	TotalCents   int64  `gorm:"not null" json:"total_cents"`

	Restaurant *Restaurant `json:"restaurant,omitempty"`
	Items      []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`

	PlacedAt  time.Time `gorm:"index" json:"placed_at"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// BeforeCreate assigns an opaque order reference for receipts and support lookups.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.Reference == "" {
		o.Reference = uuid.NewString()
	}
	if o.PlacedAt.IsZero() {
		o.PlacedAt = time.Now()
	}
	return nil
}

// OrderItem is a single line of an order.
type OrderItem struct {
	ID             uint  `gorm:"primaryKey" json:"id"`
	OrderID        uint  `gorm:"index;not null" json:"order_id"`
	DishID         uint  `gorm:"index;not null" json:"dish_id"`
	Quantity       int   `gorm:"not null;default:1" json:"quantity"`
	UnitPriceCents int64 `gorm:"not null" json:"unit_price_cents"`

	Dish *Dish `json:"dish,omitempty"`
}
