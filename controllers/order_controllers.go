package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/in-vento/ubox-pos/services"
	"github.com/in-vento/ubox-pos/utils"
)

type OrderController struct {
	Svc *services.OrderService
}

func NewOrderController(svc *services.OrderService) *OrderController {
	return &OrderController{Svc: svc}
}

// GetAllOrders -> list orders with their items
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	orders, err := oc.Svc.ListOrders()
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// GetOrderByID -> detail of one order by localId
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	order, err := oc.Svc.GetOrder(c.Param("local_id"))
	if err != nil {
		utils.RespondError(c, orderErrorStatus(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// CreateOrder -> create an order (status='Pending')
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var body services.CreateOrderInput
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Svc.CreateOrder(body)
	if err != nil {
		utils.RespondError(c, orderErrorStatus(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// EditOrder -> replace items, apply a payment and/or change status
func (oc *OrderController) EditOrder(c *gin.Context) {
	var body services.EditOrderInput
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Svc.EditOrder(c.Param("local_id"), body)
	if err != nil {
		utils.RespondError(c, orderErrorStatus(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order updated", order)
}

// CancelOrder -> soft delete with reason and actor
func (oc *OrderController) CancelOrder(c *gin.Context) {
	type cancelReq struct {
		Reason string `json:"reason" binding:"required"`
		Actor  string `json:"actor" binding:"required"`
		PIN    string `json:"pin"`
	}
	var body cancelReq
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Svc.CancelOrder(c.Param("local_id"), body.Reason, body.Actor, body.PIN)
	if err != nil {
		utils.RespondError(c, orderErrorStatus(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order cancelled", order)
}

func orderErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrEmptyOrder),
		errors.Is(err, services.ErrInvalidTransition):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrOrderCancelled):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidPIN):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
