package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/in-vento/ubox-pos/models"
	"github.com/in-vento/ubox-pos/utils"
)

// syncResources is the closed mapping from queue entity tags to remote
// resource names. Adding an entity means adding a row here; the engine fails
// entries with unknown tags instead of guessing a pluralization.
var syncResources = map[string]string{
	models.EntityOrder:         "orders",
	models.EntityOrderItem:     "order_items",
	models.EntityPayment:       "payments",
	models.EntityProduct:       "products",
	models.EntityStaff:         "staff_users",
	models.EntitySunatDocument: "sunat_documents",
}

// EnqueueSync records an outbound mutation in the sync queue inside the
// caller's transaction. The primary mutation and its queue entry commit or
// roll back together, so a committed mutation without a queue entry is
// structurally impossible.
func EnqueueSync(tx *gorm.DB, entity, localID, action string, snapshot interface{}) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to serialize %s snapshot: %w", entity, err)
	}
	entry := models.SyncQueueEntry{
		Entity:  entity,
		LocalID: localID,
		Action:  action,
		Payload: string(payload),
		Status:  models.SyncStatusPending,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to enqueue sync entry for %s %s: %w", entity, localID, err)
	}
	return nil
}

// SyncStatus is the diagnostic view of the queue.
type SyncStatus struct {
	Pending int64 `json:"pending"`
	Failed  int64 `json:"failed"`
	Synced  int64 `json:"synced"`
}

// SyncService drains the sync queue against the cloud API. Passes may overlap
// (timer tick while a manual pass runs); the remote upsert is idempotent on
// (businessId, localId), so an entry processed twice is harmless.
type SyncService struct {
	db      *gorm.DB
	baseURL string
	client  *http.Client
}

func NewSyncService(db *gorm.DB, baseURL string, timeout time.Duration) *SyncService {
	return &SyncService{
		db:      db,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// RunPass processes every PENDING and previously FAILED entry in creation
// order. Without a linked business no entry can be addressed, so the whole
// pass aborts early instead of failing entries one by one.
func (s *SyncService) RunPass(ctx context.Context) error {
	var business models.Business
	if err := s.db.First(&business).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.InfoLogger.Println("sync pass skipped: device not linked to a business")
			return nil
		}
		return fmt.Errorf("failed to load business link: %w", err)
	}

	var entries []models.SyncQueueEntry
	if err := s.db.
		Where("status IN ?", []string{models.SyncStatusPending, models.SyncStatusFailed}).
		Order("id asc").
		Find(&entries).Error; err != nil {
		return fmt.Errorf("failed to load sync queue: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	utils.InfoLogger.Printf("sync pass: %d entries to reconcile", len(entries))
	for i := range entries {
		entry := &entries[i]
		if err := s.push(ctx, business.BusinessID, entry); err != nil {
			s.markFailed(entry, err)
			continue
		}
		s.markSynced(entry)
	}
	return nil
}

// push sends one queue entry to the cloud.
func (s *SyncService) push(ctx context.Context, businessID string, entry *models.SyncQueueEntry) error {
	resource, ok := syncResources[entry.Entity]
	if !ok {
		return fmt.Errorf("unknown entity type %q", entry.Entity)
	}

	body := map[string]interface{}{
		"localId": entry.LocalID,
		"action":  entry.Action,
	}
	if entry.Action != models.SyncActionDelete {
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(entry.Payload), &data); err != nil {
			return fmt.Errorf("corrupt payload: %w", err)
		}
		stripInternalFields(data)
		data["businessId"] = businessID
		data["updatedAt"] = time.Now().UTC().Format(time.RFC3339)
		body["data"] = data
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/sync/%s", s.baseURL, resource)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Business-Id", businessID)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("remote returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("unreadable remote response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("remote rejected entry: %s", result.Error)
	}
	return nil
}

// stripInternalFields removes device-internal row ids from the payload before
// upload; the cloud keys everything by (businessId, localId).
func stripInternalFields(data map[string]interface{}) {
	delete(data, "id")
	for _, key := range []string{"items", "payments", "components"} {
		list, ok := data[key].([]interface{})
		if !ok {
			continue
		}
		for _, elem := range list {
			if m, ok := elem.(map[string]interface{}); ok {
				delete(m, "id")
			}
		}
	}
}

func (s *SyncService) markSynced(entry *models.SyncQueueEntry) {
	now := time.Now()
	entry.Status = models.SyncStatusSynced
	entry.LastError = ""
	entry.SyncedAt = &now
	entry.Attempts++
	if err := s.db.Save(entry).Error; err != nil {
		utils.ErrorLogger.Printf("failed to mark sync entry %d as synced: %v", entry.ID, err)
	}
}

func (s *SyncService) markFailed(entry *models.SyncQueueEntry, cause error) {
	entry.Status = models.SyncStatusFailed
	entry.LastError = cause.Error()
	entry.Attempts++
	if err := s.db.Save(entry).Error; err != nil {
		utils.ErrorLogger.Printf("failed to mark sync entry %d as failed: %v", entry.ID, err)
	}
	utils.InfoLogger.Warnf("sync entry %d (%s %s) failed: %v", entry.ID, entry.Entity, entry.Action, cause)
}

// Status reports queue counts for the diagnostics surface; sync failures are
// invisible to the cashier, this is how an operator sees them.
func (s *SyncService) Status() (SyncStatus, error) {
	var status SyncStatus
	counts := map[string]*int64{
		models.SyncStatusPending: &status.Pending,
		models.SyncStatusFailed:  &status.Failed,
		models.SyncStatusSynced:  &status.Synced,
	}
	for state, dest := range counts {
		if err := s.db.Model(&models.SyncQueueEntry{}).
			Where("status = ?", state).
			Count(dest).Error; err != nil {
			return status, err
		}
	}
	return status, nil
}

// PruneSynced removes SYNCED entries older than the cutoff. Nothing calls
// this on a schedule; it exists so a retention job can reclaim audit history
// on long-lived devices.
func (s *SyncService) PruneSynced(olderThan time.Time) (int64, error) {
	result := s.db.
		Where("status = ? AND synced_at < ?", models.SyncStatusSynced, olderThan).
		Delete(&models.SyncQueueEntry{})
	return result.RowsAffected, result.Error
}
