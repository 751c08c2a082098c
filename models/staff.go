package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Staff is reference data owned by the cloud account; the device receives it
// through cold-start hydration and only reads it afterwards.
type Staff struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	LocalID  string `gorm:"type:varchar(36);uniqueIndex;not null" json:"localId"`
	Name     string `gorm:"type:varchar(255);not null" json:"name"`
	Role     string `gorm:"type:varchar(50)" json:"role"`
	PINHash  string `gorm:"type:varchar(255)" json:"-"`
	IsActive bool   `gorm:"not null;default:true" json:"isActive"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (s *Staff) BeforeCreate(tx *gorm.DB) error {
	if s.LocalID == "" {
		s.LocalID = uuid.NewString()
	}
	return nil
}

// SetPIN stores a bcrypt hash of the cashier PIN.
func (s *Staff) SetPIN(pin string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.PINHash = string(hash)
	return nil
}

// CheckPIN verifies a PIN against the stored hash. Staff without a PIN on
// record always pass.
func (s *Staff) CheckPIN(pin string) bool {
	if s.PINHash == "" {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(s.PINHash), []byte(pin)) == nil
}
