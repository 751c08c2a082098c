package models

import "time"

// Sync queue entry status.
const (
	SyncStatusPending = "PENDING"
	SyncStatusSynced  = "SYNCED"
	SyncStatusFailed  = "FAILED"
)

// Sync actions mirrored to the cloud API.
const (
	SyncActionCreate = "CREATE"
	SyncActionUpdate = "UPDATE"
	SyncActionDelete = "DELETE"
)

// Entity tags carried by queue entries. The reconciliation engine maps each
// tag to a remote resource; an unrecognized tag fails the entry, it never
// panics a pass.
const (
	EntityOrder         = "order"
	EntityOrderItem     = "order-item"
	EntityPayment       = "payment"
	EntityProduct       = "product"
	EntityStaff         = "staff"
	EntitySunatDocument = "sunat-document"
)

// SyncQueueEntry is one durable pending outbound mutation. Entries are never
// deleted by the engine; SYNCED rows remain as an audit trail.
type SyncQueueEntry struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Entity    string     `gorm:"type:varchar(50);not null;index" json:"entity"`
	LocalID   string     `gorm:"type:varchar(36);not null;index" json:"localId"`
	Action    string     `gorm:"type:varchar(10);not null" json:"action"`
	Payload   string     `gorm:"type:text;not null" json:"payload"`
	Status    string     `gorm:"type:varchar(10);not null;default:'PENDING';index" json:"status"`
	LastError string     `gorm:"type:text" json:"lastError,omitempty"`
	Attempts  int        `gorm:"not null;default:0" json:"attempts"`
	SyncedAt  *time.Time `json:"syncedAt,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"not null" json:"updatedAt"`
}
