package main

import (
	"agrilink-server/models"
	"agrilink-server/storage"
	"fmt"
	"log"

	"gorm.io/gorm/clause"
)

// Seeds the reference wholesale prices used by the price-comparison endpoint.
// Run whenever the Yangon commodity exchange figures are refreshed.
func main() {
	storage.InitializeDB()

	prices := []models.MarketPrice{
		{Crop: "rice", Region: "Ayeyarwady", Unit: "kg", BasePrice: 2200, Currency: "MMK", Source: "Wadan wholesale centre"},
		{Crop: "rice", Region: "Bago", Unit: "kg", BasePrice: 2150, Currency: "MMK", Source: "Bago depot"},
		{Crop: "rice", Region: "Shan", Unit: "kg", BasePrice: 2600, Currency: "MMK", Source: "Taunggyi market"},
		{Crop: "pulses", Region: "Bago", Unit: "kg", BasePrice: 3100, Currency: "MMK", Source: "Bago depot"},
		{Crop: "pulses", Region: "Magway", Unit: "kg", BasePrice: 2950, Currency: "MMK", Source: "Magway exchange"},
		{Crop: "onion", Region: "Mandalay", Unit: "viss", BasePrice: 1800, Currency: "MMK", Source: "Mandalay wholesale"},
		{Crop: "chili", Region: "Magway", Unit: "viss", BasePrice: 9500, Currency: "MMK", Source: "Magway exchange"},
		{Crop: "sesame", Region: "Magway", Unit: "kg", BasePrice: 4200, Currency: "MMK", Source: "Magway exchange"},
		{Crop: "groundnut", Region: "Sagaing", Unit: "kg", BasePrice: 3800, Currency: "MMK", Source: "Monywa market"},
	}

	for _, p := range prices {
		err := storage.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "crop"}, {Name: "region"}},
			DoUpdates: clause.AssignmentColumns([]string{"unit", "base_price", "currency", "source", "updated_at"}),
		}).Create(&p).Error
		if err != nil {
			log.Fatalf("Error seeding %s/%s: %v", p.Crop, p.Region, err)
		}
	}

	fmt.Printf("Seeded %d market price rows\n", len(prices))
}
