package services_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/in-vento/ubox-pos/models"
	"github.com/in-vento/ubox-pos/services"
	"github.com/in-vento/ubox-pos/utils"
)

func setupTestDBForSync(t *testing.T) *gorm.DB {
	utils.InitLogger()
	dsn := fmt.Sprintf("file:sync_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(
		&models.Business{}, &models.Product{}, &models.ProductComponent{},
		&models.Order{}, &models.OrderItem{}, &models.Payment{},
		&models.OrderCounter{}, &models.SyncQueueEntry{}, &models.Staff{},
	)
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func linkBusiness(t *testing.T, db *gorm.DB) {
	b := models.Business{BusinessID: "biz-123", Name: "Test Spa", LinkedAt: time.Now()}
	if err := db.Create(&b).Error; err != nil {
		t.Fatal(err)
	}
}

type capturedRequest struct {
	Path       string
	BusinessID string
	Body       map[string]interface{}
}

// stubRemote is a cloud API stub that accepts every upsert and records what
// it saw. failFirst makes each distinct entry fail once before succeeding.
type stubRemote struct {
	mu        sync.Mutex
	requests  []capturedRequest
	failFirst bool
	seen      map[string]bool
	server    *httptest.Server
}

func newStubRemote(failFirst bool) *stubRemote {
	s := &stubRemote{failFirst: failFirst, seen: map[string]bool{}}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		_ = json.Unmarshal(raw, &body)

		s.mu.Lock()
		s.requests = append(s.requests, capturedRequest{
			Path:       r.URL.Path,
			BusinessID: r.Header.Get("X-Business-Id"),
			Body:       body,
		})
		key := fmt.Sprintf("%v", body["localId"])
		firstTime := !s.seen[key]
		s.seen[key] = true
		s.mu.Unlock()

		if s.failFirst && firstTime {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":"temporary outage"}`)
			return
		}
		fmt.Fprint(w, `{"success":true}`)
	}))
	return s
}

func (s *stubRemote) captured() []capturedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]capturedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func TestSyncPassEndToEnd(t *testing.T) {
	db := setupTestDBForSync(t)
	linkBusiness(t, db)
	remote := newStubRemote(false)
	defer remote.server.Close()

	orderSvc := services.NewOrderService(db)
	seedProduct(t, db, "P1", "Menu", 25.00, 100)

	order, err := orderSvc.CreateOrder(services.CreateOrderInput{
		Items: []services.OrderItemInput{{ProductID: "P1", Quantity: 2}},
	})
	assert.NoError(t, err)
	assert.Equal(t, 50.00, order.TotalAmount)

	order, err = orderSvc.EditOrder(order.LocalID, services.EditOrderInput{
		Payment: &services.PaymentInput{Amount: 50.00},
	})
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	assert.Equal(t, 50.00, order.PaidAmount)

	// Before the pass: order UPDATE and payment CREATE entries are PENDING.
	assert.Len(t, queueEntries(t, db, models.EntityOrder, models.SyncActionUpdate), 1)
	assert.Len(t, queueEntries(t, db, models.EntityPayment, models.SyncActionCreate), 1)
	var pendingBefore int64
	db.Model(&models.SyncQueueEntry{}).Where("status = ?", models.SyncStatusPending).Count(&pendingBefore)
	assert.EqualValues(t, 3, pendingBefore)

	syncSvc := services.NewSyncService(db, remote.server.URL, 5*time.Second)
	assert.NoError(t, syncSvc.RunPass(context.Background()))

	var remaining int64
	db.Model(&models.SyncQueueEntry{}).Where("status != ?", models.SyncStatusSynced).Count(&remaining)
	assert.Zero(t, remaining)

	reqs := remote.captured()
	assert.Len(t, reqs, 3)
	for _, req := range reqs {
		assert.Equal(t, "biz-123", req.BusinessID)
	}
	assert.Equal(t, "/sync/orders", reqs[0].Path)

	// The upsert payload carries businessId and updatedAt and no device row id.
	data, ok := reqs[0].Body["data"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "biz-123", data["businessId"])
	assert.NotEmpty(t, data["updatedAt"])
	assert.NotContains(t, data, "id")
	if items, ok := data["items"].([]interface{}); ok && len(items) > 0 {
		assert.NotContains(t, items[0].(map[string]interface{}), "id")
	}
}

func TestSyncPassIsIdempotent(t *testing.T) {
	db := setupTestDBForSync(t)
	linkBusiness(t, db)
	remote := newStubRemote(false)
	defer remote.server.Close()

	assert.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return services.EnqueueSync(tx, models.EntityProduct, "prod-1", models.SyncActionCreate,
			map[string]interface{}{"name": "Agua", "price": 3.0})
	}))

	syncSvc := services.NewSyncService(db, remote.server.URL, 5*time.Second)
	assert.NoError(t, syncSvc.RunPass(context.Background()))
	assert.NoError(t, syncSvc.RunPass(context.Background()))

	// The second pass sees no eligible entries and sends nothing.
	assert.Len(t, remote.captured(), 1)

	status, err := syncSvc.Status()
	assert.NoError(t, err)
	assert.EqualValues(t, 1, status.Synced)
	assert.EqualValues(t, 0, status.Pending)
}

func TestSyncPassRetriesFailedEntries(t *testing.T) {
	db := setupTestDBForSync(t)
	linkBusiness(t, db)
	remote := newStubRemote(true)
	defer remote.server.Close()

	assert.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return services.EnqueueSync(tx, models.EntityOrder, "ord-1", models.SyncActionCreate,
			map[string]interface{}{"customId": "JU-000001"})
	}))

	syncSvc := services.NewSyncService(db, remote.server.URL, 5*time.Second)
	assert.NoError(t, syncSvc.RunPass(context.Background()))

	var entry models.SyncQueueEntry
	assert.NoError(t, db.First(&entry).Error)
	assert.Equal(t, models.SyncStatusFailed, entry.Status)
	assert.Contains(t, entry.LastError, "500")
	assert.Equal(t, 1, entry.Attempts)

	// FAILED entries stay eligible; the next pass succeeds.
	assert.NoError(t, syncSvc.RunPass(context.Background()))
	assert.NoError(t, db.First(&entry).Error)
	assert.Equal(t, models.SyncStatusSynced, entry.Status)
	assert.Empty(t, entry.LastError)
	assert.NotNil(t, entry.SyncedAt)
}

func TestSyncPassAbortsWithoutBusinessLink(t *testing.T) {
	db := setupTestDBForSync(t)
	remote := newStubRemote(false)
	defer remote.server.Close()

	assert.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return services.EnqueueSync(tx, models.EntityOrder, "ord-1", models.SyncActionCreate,
			map[string]interface{}{"customId": "JU-000001"})
	}))

	syncSvc := services.NewSyncService(db, remote.server.URL, 5*time.Second)
	assert.NoError(t, syncSvc.RunPass(context.Background()))

	// No business context: the pass aborts early, entries are untouched.
	assert.Empty(t, remote.captured())
	var entry models.SyncQueueEntry
	assert.NoError(t, db.First(&entry).Error)
	assert.Equal(t, models.SyncStatusPending, entry.Status)
	assert.Zero(t, entry.Attempts)
}

func TestSyncResourceMapping(t *testing.T) {
	db := setupTestDBForSync(t)
	linkBusiness(t, db)
	remote := newStubRemote(false)
	defer remote.server.Close()

	assert.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if err := services.EnqueueSync(tx, models.EntityStaff, "st-1", models.SyncActionUpdate,
			map[string]interface{}{"name": "ana"}); err != nil {
			return err
		}
		return services.EnqueueSync(tx, models.EntitySunatDocument, "doc-1", models.SyncActionCreate,
			map[string]interface{}{"docType": "boleta"})
	}))

	syncSvc := services.NewSyncService(db, remote.server.URL, 5*time.Second)
	assert.NoError(t, syncSvc.RunPass(context.Background()))

	reqs := remote.captured()
	assert.Len(t, reqs, 2)
	assert.Equal(t, "/sync/staff_users", reqs[0].Path)
	assert.Equal(t, "/sync/sunat_documents", reqs[1].Path)
}

func TestSyncUnknownEntityMarksFailed(t *testing.T) {
	db := setupTestDBForSync(t)
	linkBusiness(t, db)
	remote := newStubRemote(false)
	defer remote.server.Close()

	assert.NoError(t, db.Create(&models.SyncQueueEntry{
		Entity:  "mystery",
		LocalID: "x-1",
		Action:  models.SyncActionCreate,
		Payload: "{}",
		Status:  models.SyncStatusPending,
	}).Error)

	syncSvc := services.NewSyncService(db, remote.server.URL, 5*time.Second)
	assert.NoError(t, syncSvc.RunPass(context.Background()))

	var entry models.SyncQueueEntry
	assert.NoError(t, db.First(&entry).Error)
	assert.Equal(t, models.SyncStatusFailed, entry.Status)
	assert.Contains(t, entry.LastError, "unknown entity")
	assert.Empty(t, remote.captured())
}

func TestSyncDeleteCarriesNoData(t *testing.T) {
	db := setupTestDBForSync(t)
	linkBusiness(t, db)
	remote := newStubRemote(false)
	defer remote.server.Close()

	assert.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return services.EnqueueSync(tx, models.EntityProduct, "prod-9", models.SyncActionDelete, nil)
	}))

	syncSvc := services.NewSyncService(db, remote.server.URL, 5*time.Second)
	assert.NoError(t, syncSvc.RunPass(context.Background()))

	reqs := remote.captured()
	assert.Len(t, reqs, 1)
	assert.Equal(t, "/sync/products", reqs[0].Path)
	assert.Equal(t, "DELETE", reqs[0].Body["action"])
	assert.Equal(t, "prod-9", reqs[0].Body["localId"])
	assert.NotContains(t, reqs[0].Body, "data")
}

func TestSyncTimeoutMarksFailed(t *testing.T) {
	db := setupTestDBForSync(t)
	linkBusiness(t, db)

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		fmt.Fprint(w, `{"success":true}`)
	}))
	defer slow.Close()

	assert.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return services.EnqueueSync(tx, models.EntityOrder, "ord-slow", models.SyncActionCreate,
			map[string]interface{}{"customId": "JU-000002"})
	}))

	syncSvc := services.NewSyncService(db, slow.URL, 50*time.Millisecond)
	assert.NoError(t, syncSvc.RunPass(context.Background()))

	// A timed-out call is a normal failure, never an ambiguous in-flight state.
	var entry models.SyncQueueEntry
	assert.NoError(t, db.First(&entry).Error)
	assert.Equal(t, models.SyncStatusFailed, entry.Status)
	assert.NotEmpty(t, entry.LastError)
}

func TestPruneSyncedKeepsRecentEntries(t *testing.T) {
	db := setupTestDBForSync(t)
	linkBusiness(t, db)
	remote := newStubRemote(false)
	defer remote.server.Close()

	assert.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return services.EnqueueSync(tx, models.EntityProduct, "prod-1", models.SyncActionCreate,
			map[string]interface{}{"name": "Agua"})
	}))

	syncSvc := services.NewSyncService(db, remote.server.URL, 5*time.Second)
	assert.NoError(t, syncSvc.RunPass(context.Background()))

	pruned, err := syncSvc.PruneSynced(time.Now().Add(-time.Hour))
	assert.NoError(t, err)
	assert.Zero(t, pruned)

	pruned, err = syncSvc.PruneSynced(time.Now().Add(time.Hour))
	assert.NoError(t, err)
	assert.EqualValues(t, 1, pruned)
}
