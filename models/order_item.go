package models

import (
	"time"
)

// OrderItem references a product at the price effective when the order was
// placed. Price and name are copied, not read live, so historical orders are
// immune to later product edits.
type OrderItem struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	OrderID        uint    `gorm:"not null;index" json:"-"`
	Order          Order   `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	ProductID      uint    `gorm:"not null" json:"-"`
	ProductLocalID string  `gorm:"type:varchar(36);not null" json:"productId"`
	ProductName    string  `gorm:"type:varchar(255);not null" json:"name"`
	Quantity       int     `gorm:"not null" json:"quantity"`
	Price          float64 `gorm:"type:decimal(10,2);not null" json:"price"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

// Subtotal is the line total at the snapshotted price.
func (i *OrderItem) Subtotal() float64 {
	return float64(i.Quantity) * i.Price
}
