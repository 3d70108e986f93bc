package models

import "time"

// StoreItem is a cosmetic (avatar icon) sold for coins.
type StoreItem struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id" yaml:"id"`
	Name        string    `gorm:"not null" json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Icon        string    `json:"icon" yaml:"icon"`
	Price       int64     `gorm:"not null;default:0" json:"price" yaml:"price"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at" yaml:"-"`
}

// Purchase: existence implies ownership. At most one per (user, item).
type Purchase struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"not null;uniqueIndex:idx_purchase_owner,priority:1" json:"user_id"`
	ItemID      string    `gorm:"not null;uniqueIndex:idx_purchase_owner,priority:2" json:"item_id"`
	PricePaid   int64     `gorm:"not null" json:"price_paid"`
	PurchasedAt time.Time `gorm:"autoCreateTime" json:"purchased_at"`
}
