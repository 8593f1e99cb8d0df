package models

import (
	"gorm.io/gorm"
)

// Conversation is a direct buyer<->seller thread, optionally anchored to a
// product listing.
type Conversation struct {
	gorm.Model
	BuyerID   uint      `json:"buyerID" gorm:"index"`
	SellerID  uint      `json:"sellerID" gorm:"index"`
	ProductID *uint     `json:"productID" gorm:"index"`
	Messages  []Message `json:"messages"`
	Buyer     *User     `json:"buyer,omitempty" gorm:"foreignKey:BuyerID"`
	Seller    *User     `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
	Product   *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}
