package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID                   uint    `gorm:"primaryKey" json:"id"`
	LocalID              string  `gorm:"type:varchar(36);uniqueIndex;not null" json:"localId"`
	Name                 string  `gorm:"type:varchar(255);not null" json:"name"`
	Price                float64 `gorm:"type:decimal(10,2);not null" json:"price"`
	Category             string  `gorm:"type:varchar(100)" json:"category"`
	Stock                int     `gorm:"not null;default:0" json:"stock"`
	IsCombo              bool    `gorm:"not null;default:false" json:"isCombo"`
	IsCommissionable     bool    `gorm:"not null;default:false" json:"isCommissionable"`
	CommissionPercentage float64 `gorm:"type:decimal(5,2);not null;default:0.00" json:"commissionPercentage"`

	// Components is the ordered combo composition; empty unless IsCombo.
	Components []ProductComponent `gorm:"foreignKey:ProductID" json:"components,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.LocalID == "" {
		p.LocalID = uuid.NewString()
	}
	return nil
}

// ProductComponent is one (component, quantity) pair of a combo product.
type ProductComponent struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	ProductID        uint    `gorm:"not null;index" json:"-"`
	ComponentID      uint    `gorm:"not null" json:"-"`
	Component        Product `gorm:"foreignKey:ComponentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	ComponentLocalID string  `gorm:"type:varchar(36);not null" json:"productId"`
	Quantity         int     `gorm:"not null" json:"quantity"`
	Position         int     `gorm:"not null;default:0" json:"-"`
}
