package models

import (
	"time"
)

// MarketPrice is a reference wholesale price row for a crop in a region,
// used by the price-comparison endpoint. Rows are seeded/refreshed by an
// admin job; the endpoint interpolates a daily figure around BasePrice.
type MarketPrice struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Crop      string    `json:"crop" gorm:"size:50;index"`
	Region    string    `json:"region" gorm:"size:50;index"`
	Unit      string    `json:"unit" gorm:"size:20"`
	BasePrice float32   `json:"basePrice"`
	Currency  string    `json:"currency" gorm:"size:10;default:'MMK'"`
	Source    string    `json:"source" gorm:"size:100"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
