package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/in-vento/ubox-pos/controllers"
	"github.com/in-vento/ubox-pos/models"
	"github.com/in-vento/ubox-pos/services"
	"github.com/in-vento/ubox-pos/utils"
)

func setupTestDBForOrderAPI(t *testing.T) *gorm.DB {
	utils.InitLogger()
	dsn := fmt.Sprintf("file:orderapi_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(
		&models.Product{}, &models.ProductComponent{},
		&models.Order{}, &models.OrderItem{}, &models.Payment{},
		&models.OrderCounter{}, &models.SyncQueueEntry{}, &models.Staff{},
	)
	if err != nil {
		t.Fatal(err)
	}
	product := models.Product{LocalID: "P1", Name: "Menu del dia", Price: 25.00, Stock: 100}
	if err := db.Create(&product).Error; err != nil {
		t.Fatal(err)
	}
	return db
}

func setupOrderRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	ctrl := controllers.NewOrderController(services.NewOrderService(db))
	r.POST("/orders", ctrl.CreateOrder)
	r.GET("/orders/:local_id", ctrl.GetOrderByID)
	r.PATCH("/orders/:local_id", ctrl.EditOrder)
	r.POST("/orders/:local_id/cancel", ctrl.CancelOrder)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, url string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		assert.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, url, body)
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAndGetOrderAPI(t *testing.T) {
	db := setupTestDBForOrderAPI(t)
	router := setupOrderRouter(db)

	w := doJSON(t, router, "POST", "/orders", map[string]interface{}{
		"customer": "Mesa 2",
		"items":    []map[string]interface{}{{"productId": "P1", "quantity": 2}},
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var createResp struct {
		Message string       `json:"message"`
		Data    models.Order `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &createResp))
	assert.Equal(t, "Order created", createResp.Message)
	assert.Equal(t, 50.00, createResp.Data.TotalAmount)
	assert.NotEmpty(t, createResp.Data.LocalID)

	w = doJSON(t, router, "GET", "/orders/"+createResp.Data.LocalID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var getResp struct {
		Data models.Order `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &getResp))
	assert.Equal(t, createResp.Data.LocalID, getResp.Data.LocalID)
	assert.Len(t, getResp.Data.Items, 1)
}

func TestCreateOrderAPIRejectsUnknownProduct(t *testing.T) {
	db := setupTestDBForOrderAPI(t)
	router := setupOrderRouter(db)

	w := doJSON(t, router, "POST", "/orders", map[string]interface{}{
		"items": []map[string]interface{}{{"productId": "nope", "quantity": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPayAndCancelOrderAPI(t *testing.T) {
	db := setupTestDBForOrderAPI(t)
	router := setupOrderRouter(db)

	w := doJSON(t, router, "POST", "/orders", map[string]interface{}{
		"items": []map[string]interface{}{{"productId": "P1", "quantity": 1}},
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	var createResp struct {
		Data models.Order `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &createResp))
	localID := createResp.Data.LocalID

	w = doJSON(t, router, "PATCH", "/orders/"+localID, map[string]interface{}{
		"payment": map[string]interface{}{"amount": 25.00, "method": "cash", "cashier": "ana"},
	})
	assert.Equal(t, http.StatusOK, w.Code)
	var editResp struct {
		Data models.Order `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &editResp))
	assert.Equal(t, models.OrderStatusCompleted, editResp.Data.Status)

	w = doJSON(t, router, "POST", "/orders/"+localID+"/cancel", map[string]interface{}{
		"reason": "refund",
		"actor":  "carlos",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// A cancelled order rejects further mutation.
	w = doJSON(t, router, "PATCH", "/orders/"+localID, map[string]interface{}{
		"payment": map[string]interface{}{"amount": 5.00},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancelOrderAPIRequiresReasonAndActor(t *testing.T) {
	db := setupTestDBForOrderAPI(t)
	router := setupOrderRouter(db)

	w := doJSON(t, router, "POST", "/orders", map[string]interface{}{
		"items": []map[string]interface{}{{"productId": "P1", "quantity": 1}},
	})
	var createResp struct {
		Data models.Order `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &createResp))

	w = doJSON(t, router, "POST", "/orders/"+createResp.Data.LocalID+"/cancel", map[string]interface{}{
		"reason": "no actor",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
