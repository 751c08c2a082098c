package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order status values. Transitions are forward-only:
// Pending -> Completed, Pending -> Cancelled. Completed -> Cancelled is
// allowed for refunds. Cancelled is final.
const (
	OrderStatusPending   = "Pending"
	OrderStatusCompleted = "Completed"
	OrderStatusCancelled = "Cancelled"
)

type Order struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	LocalID      string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"localId"`
	CustomID     string    `gorm:"type:varchar(20);index;not null" json:"customId"`
	Status       string    `gorm:"type:varchar(20);not null;default:'Pending'" json:"status"`
	TotalAmount  float64   `gorm:"type:decimal(10,2);not null;default:0.00" json:"totalAmount"`
	PaidAmount   float64   `gorm:"type:decimal(10,2);not null;default:0.00" json:"paidAmount"`
	Customer     string    `gorm:"type:varchar(255)" json:"customer"`
	WaiterID     *uint     `gorm:"index" json:"waiterId,omitempty"`
	MasajistaIDs string    `gorm:"type:text;default:'[]'" json:"masajistaIds"`
	EditedBy     string    `gorm:"type:varchar(255)" json:"editedBy,omitempty"`
	CancelReason string    `gorm:"type:text" json:"cancelReason,omitempty"`
	CreatedAt    time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"not null" json:"updatedAt"`

	Items    []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	Payments []Payment   `gorm:"foreignKey:OrderID" json:"payments,omitempty"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.LocalID == "" {
		o.LocalID = uuid.NewString()
	}
	return nil
}

// SetMasajistas serializes the commission-eligible staff ids into the
// masajista_ids text column.
func (o *Order) SetMasajistas(ids []uint) error {
	if ids == nil {
		ids = []uint{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	o.MasajistaIDs = string(raw)
	return nil
}

func (o *Order) Masajistas() []uint {
	var ids []uint
	if o.MasajistaIDs == "" {
		return ids
	}
	_ = json.Unmarshal([]byte(o.MasajistaIDs), &ids)
	return ids
}

// IsTerminal reports whether the order can no longer be mutated.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCancelled
}
