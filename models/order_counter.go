package models

// OrderCounter holds the per-day order sequence. One row per calendar date
// (YYYY-MM-DD); created lazily on the first order of the day and incremented
// afterwards, never decremented or deleted.
type OrderCounter struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Date  string `gorm:"type:varchar(10);uniqueIndex;not null" json:"date"`
	Count int    `gorm:"not null;default:0" json:"count"`
}
