package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SunatDocument is the local record of an electronic invoice (boleta/factura)
// emitted for an order. The provider integration lives outside this service;
// only the record and its sync routing are handled here.
type SunatDocument struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	LocalID      string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"localId"`
	OrderLocalID string    `gorm:"type:varchar(36);index;not null" json:"orderId"`
	DocType      string    `gorm:"type:varchar(20);not null" json:"docType"`
	Series       string    `gorm:"type:varchar(10)" json:"series"`
	Number       string    `gorm:"type:varchar(20)" json:"number"`
	Status       string    `gorm:"type:varchar(20);not null;default:'issued'" json:"status"`
	Payload      string    `gorm:"type:text" json:"payload,omitempty"`
	CreatedAt    time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"not null" json:"updatedAt"`
}

func (d *SunatDocument) BeforeCreate(tx *gorm.DB) error {
	if d.LocalID == "" {
		d.LocalID = uuid.NewString()
	}
	return nil
}
