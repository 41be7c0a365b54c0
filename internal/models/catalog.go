package models

// Restaurant is a catalog entry customers order from.
type Restaurant struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"not null" json:"name"`
	Cuisine     string  `json:"cuisine"`
	Rating      float64 `gorm:"default:0" json:"rating"`
	DeliveryFee int64   `json:"delivery_fee_cents"`

	Dishes []Dish `gorm:"foreignKey:RestaurantID" json:"dishes,omitempty"`
}

// Dish is a single menu item. Prices are integer cents.
type Dish struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	RestaurantID uint   `gorm:"index;not null" json:"restaurant_id"`
	Name         string `gorm:"not null" json:"name"`
	Category     string `json:"category"`
	PriceCents   int64  `gorm:"not null" json:"price_cents"`
}
