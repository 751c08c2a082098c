package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment methods accepted at the counter.
const (
	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodYape     = "yape"
	PaymentMethodTransfer = "transfer"
)

// Payment is immutable once created; corrections are made by cancelling the
// order, never by editing a payment row.
type Payment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	LocalID      string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"localId"`
	OrderID      uint      `gorm:"not null;index" json:"-"`
	OrderLocalID string    `gorm:"type:varchar(36);not null" json:"orderId"`
	Amount       float64   `gorm:"type:decimal(10,2);not null" json:"amount"`
	Method       string    `gorm:"type:varchar(20);not null;default:'cash'" json:"method"`
	Cashier      string    `gorm:"type:varchar(255)" json:"cashier"`
	PaidAt       time.Time `gorm:"not null" json:"paidAt"`
	CreatedAt    time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"not null" json:"updatedAt"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.LocalID == "" {
		p.LocalID = uuid.NewString()
	}
	if p.PaidAt.IsZero() {
		p.PaidAt = time.Now()
	}
	return nil
}
