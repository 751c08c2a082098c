package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/in-vento/ubox-pos/services"
	"github.com/in-vento/ubox-pos/utils"
)

type SyncController struct {
	Svc       *services.SyncService
	Scheduler *services.SyncScheduler
}

func NewSyncController(svc *services.SyncService, scheduler *services.SyncScheduler) *SyncController {
	return &SyncController{Svc: svc, Scheduler: scheduler}
}

// GetStatus -> pending/failed/synced queue counts
func (sc *SyncController) GetStatus(c *gin.Context) {
	status, err := sc.Svc.Status()
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Sync queue status", status)
}

// SyncNow -> request an immediate reconciliation pass
func (sc *SyncController) SyncNow(c *gin.Context) {
	sc.Scheduler.SyncNow()
	utils.RespondJSON(c, http.StatusAccepted, "Sync pass requested", nil)
}

// NotifyOnline -> the shell reports network connectivity was restored
func (sc *SyncController) NotifyOnline(c *gin.Context) {
	sc.Scheduler.NotifyOnline()
	utils.RespondJSON(c, http.StatusAccepted, "Online sync pass requested", nil)
}
