package services

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/in-vento/ubox-pos/models"
)

// dayPrefixes maps the weekday to the two-letter code used in customIds
// (Spanish day names: DOmingo, LUnes, MArtes, ...).
var dayPrefixes = map[time.Weekday]string{
	time.Sunday:    "DO",
	time.Monday:    "LU",
	time.Tuesday:   "MA",
	time.Wednesday: "MI",
	time.Thursday:  "JU",
	time.Friday:    "VI",
	time.Saturday:  "SA",
}

// OrderIDGenerator hands out per-day sequential custom ids like "JU-000001".
// The sequence resets implicitly each calendar date because the counter row
// is keyed by the date string.
//
// The increment runs as a single upsert statement and the generator is
// additionally serialized on a process mutex, so two concurrent orders can
// never observe the same count.
type OrderIDGenerator struct {
	mu sync.Mutex
}

func NewOrderIDGenerator() *OrderIDGenerator {
	return &OrderIDGenerator{}
}

// Next mints the custom id for an order created at the given time. It must be
// called inside the transaction that persists the order, so an aborted order
// still consumes its sequence number only if the caller commits.
func (g *OrderIDGenerator) Next(tx *gorm.DB, now time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	date := now.Format("2006-01-02")

	counter := models.OrderCounter{Date: date, Count: 1}
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1")}),
	}).Create(&counter).Error; err != nil {
		return "", fmt.Errorf("failed to increment order counter: %w", err)
	}

	if err := tx.Where("date = ?", date).First(&counter).Error; err != nil {
		return "", fmt.Errorf("failed to read order counter: %w", err)
	}

	return fmt.Sprintf("%s-%06d", dayPrefixes[now.Weekday()], counter.Count), nil
}
