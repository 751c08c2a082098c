package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/in-vento/ubox-pos/models"
	"github.com/in-vento/ubox-pos/services"
	"github.com/in-vento/ubox-pos/utils"
)

type BusinessController struct {
	DB       *gorm.DB
	Recovery *services.RecoveryService
	Secret   []byte
}

func NewBusinessController(db *gorm.DB, recovery *services.RecoveryService, secret []byte) *BusinessController {
	return &BusinessController{DB: db, Recovery: recovery, Secret: secret}
}

// LinkDevice -> link this device to a business account with a signed link
// token and run the first hydration.
func (bc *BusinessController) LinkDevice(c *gin.Context) {
	type linkReq struct {
		Token string `json:"token" binding:"required"`
	}
	var body linkReq
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	claims, err := utils.ParseLinkToken(body.Token, bc.Secret)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	var existing models.Business
	err = bc.DB.First(&existing).Error
	if err == nil {
		if existing.BusinessID != claims.BusinessID {
			utils.RespondError(c, http.StatusConflict,
				errors.New("device is already linked to a different business"))
			return
		}
		utils.RespondJSON(c, http.StatusOK, "Device already linked", existing)
		return
	}
	if err != gorm.ErrRecordNotFound {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	business := models.Business{
		BusinessID: claims.BusinessID,
		Name:       claims.BusinessName,
		LinkedAt:   time.Now(),
	}
	if err := bc.DB.Create(&business).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()
	if err := bc.Recovery.Hydrate(ctx); err != nil {
		// The link itself succeeded; hydration can be retried on demand.
		utils.ErrorLogger.Printf("initial hydration failed: %v", err)
		utils.RespondJSON(c, http.StatusCreated, "Device linked, hydration pending", business)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Device linked", business)
}

// Recover -> on-demand re-hydration of products and staff from the cloud.
func (bc *BusinessController) Recover(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	if err := bc.Recovery.Hydrate(ctx); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, services.ErrNoBusinessLink) {
			code = http.StatusPreconditionFailed
		}
		utils.RespondError(c, code, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Recovery completed", nil)
}
