package models

import (
	"encoding/json"

	"gorm.io/gorm"
)

type Product struct {
	gorm.Model
	SellerID    uint    `json:"sellerID" gorm:"index"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category" gorm:"type:varchar(50);index"` // rice, pulses, vegetables, fruits, spices, livestock
	Unit        string  `json:"unit" gorm:"type:varchar(20)"`           // kg, viss, basket, bag, ton
	Price       float32 `json:"price"`
	Quantity    int     `json:"quantity"`
	Currency    string  `json:"currency" gorm:"type:varchar(10);default:'MMK'"`
	Region      string  `json:"region" gorm:"type:varchar(50);index"`
	Township    string  `json:"township" gorm:"type:varchar(50)"`
	Images      string  `json:"images"` // JSON array of URLs
	IsActive    *bool   `json:"isActive"`
	Seller      User    `json:"seller" gorm:"foreignKey:SellerID;references:ID"`

	// Admin moderation fields
	Status      string `json:"status" gorm:"type:varchar(20);default:'active';index"` // active, pending, archived, removed
	ReviewNotes string `json:"reviewNotes" gorm:"type:text"`
	IsFlagged   bool   `json:"isFlagged" gorm:"default:false;index"`
	FlagReason  string `json:"flagReason" gorm:"type:text"`
}

// Custom JSON marshaling to convert the Images string to an array
func (p *Product) MarshalJSON() ([]byte, error) {
	type Alias Product
	aux := &struct {
		Images []string `json:"images"`
		Seller *User    `json:"seller,omitempty"`
		*Alias
	}{
		Images: []string{},
		Seller: nil,
		Alias:  (*Alias)(p),
	}

	if p.Images != "" {
		var images []string
		if err := json.Unmarshal([]byte(p.Images), &images); err == nil {
			aux.Images = images
		}
	}

	if p.Seller.ID != 0 {
		aux.Seller = &p.Seller
	}

	return json.Marshal(aux)
}
