package database

import (
	"gorm.io/gorm"

	"github.com/dishpatch/dishpatch/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Account{},
		&models.Restaurant{},
		&models.Dish{},
		&models.Order{},
		&models.OrderItem{},
		&models.AuditLog{},
	)
}

// SeedCatalog inserts a small demo catalog when the restaurants table is empty.
// This is a development convenience; accounts and orders are never seeded.
func SeedCatalog(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Restaurant{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	restaurants := []models.Restaurant{
		{
			Name:        "Golden Wok",
			Cuisine:     "chinese",
			Rating:      4.6,
			DeliveryFee: 299,
			Dishes: []models.Dish{
				{Name: "Kung Pao Chicken", Category: "mains", PriceCents: 1250},
				{Name: "Vegetable Spring Rolls", Category: "starters", PriceCents: 550},
				{Name: "Fried Rice", Category: "sides", PriceCents: 700},
			},
		},
		{
			Name:        "Trattoria Lucia",
			Cuisine:     "italian",
			Rating:      4.8,
			DeliveryFee: 349,
			Dishes: []models.Dish{
				{Name: "Margherita Pizza", Category: "pizza", PriceCents: 1100},
				{Name: "Tagliatelle al Ragù", Category: "pasta", PriceCents: 1450},
				{Name: "Tiramisu", Category: "dessert", PriceCents: 650},
			},
		},
		{
			Name:        "Taco Norte",
			Cuisine:     "mexican",
			Rating:      4.4,
			DeliveryFee: 249,
			Dishes: []models.Dish{
				{Name: "Carnitas Tacos", Category: "mains", PriceCents: 950},
				{Name: "Guacamole & Chips", Category: "starters", PriceCents: 600},
			},
		},
	}

	return db.Create(&restaurants).Error
}
