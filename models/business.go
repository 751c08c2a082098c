package models

import "time"

// Business is the device's link to a cloud business account. At most one row
// exists; its presence means the device is linked and sync can address the
// remote store.
type Business struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BusinessID string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"businessId"`
	Name       string    `gorm:"type:varchar(255)" json:"name"`
	LinkedAt   time.Time `gorm:"not null" json:"linkedAt"`
	CreatedAt  time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"not null" json:"updatedAt"`
}
