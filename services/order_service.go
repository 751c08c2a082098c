package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/in-vento/ubox-pos/models"
	"github.com/in-vento/ubox-pos/utils"
)

// OrderService orchestrates the order lifecycle: creation, item edits,
// payment application and cancellation. Every mutation persists together with
// its sync queue entry in one transaction.
type OrderService struct {
	db    *gorm.DB
	ids   *OrderIDGenerator
	stock *StockResolver
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{
		db:    db,
		ids:   NewOrderIDGenerator(),
		stock: NewStockResolver(),
	}
}

type OrderItemInput struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type PaymentInput struct {
	Amount  float64 `json:"amount" binding:"required,gt=0"`
	Method  string  `json:"method"`
	Cashier string  `json:"cashier"`
}

type CreateOrderInput struct {
	WaiterID     *uint            `json:"waiterId"`
	Customer     string           `json:"customer"`
	Items        []OrderItemInput `json:"items" binding:"required"`
	MasajistaIDs []uint           `json:"masajistaIds"`
}

type EditOrderInput struct {
	Items   *[]OrderItemInput `json:"items"`
	Payment *PaymentInput     `json:"payment"`
	Status  *string           `json:"status"`
}

// CreateOrder validates the referenced products, snapshots their current
// prices into the items, mints the per-day custom id and persists the order,
// its items and the CREATE sync entry atomically.
func (s *OrderService) CreateOrder(in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	items, total, err := s.buildItems(tx, in.Items)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	customID, err := s.ids.Next(tx, time.Now())
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	order := models.Order{
		CustomID:    customID,
		Status:      models.OrderStatusPending,
		TotalAmount: total,
		Customer:    in.Customer,
		WaiterID:    in.WaiterID,
	}
	if err := order.SetMasajistas(in.MasajistaIDs); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := tx.Create(&items).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to create order items: %w", err)
		}
	}
	order.Items = items

	if err := EnqueueSync(tx, models.EntityOrder, order.LocalID, models.SyncActionCreate, &order); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	utils.InfoLogger.Printf("order %s created (total %.2f)", order.CustomID, order.TotalAmount)
	return &order, nil
}

// EditOrder applies an item replacement, a payment, an explicit status
// change, or any combination. A payment that brings paidAmount up to
// totalAmount completes the order as a side effect, which triggers stock
// deduction exactly once: the deduction is gated on the pre-edit status not
// already being Completed.
func (s *OrderService) EditOrder(localID string, in EditOrderInput) (*models.Order, error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	order, err := s.loadOrder(tx, localID, "Items")
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if order.Status == models.OrderStatusCancelled {
		tx.Rollback()
		return nil, ErrOrderCancelled
	}
	wasCompleted := order.Status == models.OrderStatusCompleted

	if in.Items != nil {
		if err := s.replaceItems(tx, order, *in.Items); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if in.Payment != nil {
		if err := s.applyPayment(tx, order, *in.Payment); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if in.Status != nil {
		if err := applyStatus(order, *in.Status); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	// Auto-completion: fully paid orders complete without an explicit status
	// change from the caller.
	if !wasCompleted && order.Status == models.OrderStatusPending &&
		order.TotalAmount > 0 && order.PaidAmount >= order.TotalAmount {
		order.Status = models.OrderStatusCompleted
	}

	if !wasCompleted && order.Status == models.OrderStatusCompleted {
		if err := s.stock.DeductOrderItems(tx, order.Items); err != nil {
			tx.Rollback()
			return nil, err
		}
		utils.InfoLogger.Printf("order %s completed, stock deducted", order.CustomID)
	}

	if err := tx.Omit(clause.Associations).Save(order).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	if err := EnqueueSync(tx, models.EntityOrder, order.LocalID, models.SyncActionUpdate, order); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit order edit: %w", err)
	}
	return order, nil
}

// CancelOrder soft-deletes an order: the row stays, the status flips to
// Cancelled and the full snapshot (items, payments) is queued for audit.
// Cancelling a Completed order is allowed for refunds; stock is not restored.
func (s *OrderService) CancelOrder(localID, reason, actor, pin string) (*models.Order, error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	order, err := s.loadOrder(tx, localID, "Items", "Payments")
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if order.Status == models.OrderStatusCancelled {
		tx.Rollback()
		return nil, ErrOrderCancelled
	}

	if err := s.verifyActorPIN(tx, actor, pin); err != nil {
		tx.Rollback()
		return nil, err
	}

	order.Status = models.OrderStatusCancelled
	order.CancelReason = reason
	order.EditedBy = actor

	if err := tx.Omit(clause.Associations).Save(order).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	if err := EnqueueSync(tx, models.EntityOrder, order.LocalID, models.SyncActionUpdate, order); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	utils.InfoLogger.Printf("order %s cancelled by %s: %s", order.CustomID, actor, reason)
	return order, nil
}

func (s *OrderService) GetOrder(localID string) (*models.Order, error) {
	return s.loadOrder(s.db, localID, "Items", "Payments")
}

func (s *OrderService) ListOrders() ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("Items").Order("id desc").Find(&orders).Error
	return orders, err
}

func (s *OrderService) loadOrder(tx *gorm.DB, localID string, preloads ...string) (*models.Order, error) {
	query := tx
	for _, p := range preloads {
		query = query.Preload(p)
	}
	var order models.Order
	if err := query.Where("local_id = ?", localID).First(&order).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// buildItems resolves the referenced products and snapshots name and price
// into fresh order items. Any missing product rejects the whole request.
func (s *OrderService) buildItems(tx *gorm.DB, inputs []OrderItemInput) ([]models.OrderItem, float64, error) {
	var items []models.OrderItem
	var total float64
	for _, in := range inputs {
		var product models.Product
		if err := tx.Where("local_id = ?", in.ProductID).First(&product).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, 0, fmt.Errorf("%w: %s", ErrProductNotFound, in.ProductID)
			}
			return nil, 0, err
		}
		items = append(items, models.OrderItem{
			ProductID:      product.ID,
			ProductLocalID: product.LocalID,
			ProductName:    product.Name,
			Quantity:       in.Quantity,
			Price:          product.Price,
		})
		total += float64(in.Quantity) * product.Price
	}
	return items, total, nil
}

// replaceItems swaps the order's items for the new set, re-snapshotting
// current product prices and recomputing the total. When no remaining item is
// commissionable the masajista assignment is cleared.
func (s *OrderService) replaceItems(tx *gorm.DB, order *models.Order, inputs []OrderItemInput) error {
	if len(inputs) == 0 {
		return ErrEmptyOrder
	}

	items, total, err := s.buildItems(tx, inputs)
	if err != nil {
		return err
	}

	if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
		return fmt.Errorf("failed to delete old items: %w", err)
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if err := tx.Create(&items).Error; err != nil {
		return fmt.Errorf("failed to create new items: %w", err)
	}

	order.Items = items
	order.TotalAmount = total

	commissionable, err := s.anyCommissionable(tx, items)
	if err != nil {
		return err
	}
	if !commissionable {
		if err := order.SetMasajistas(nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *OrderService) anyCommissionable(tx *gorm.DB, items []models.OrderItem) (bool, error) {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	var count int64
	err := tx.Model(&models.Product{}).
		Where("id IN ? AND is_commissionable = ?", ids, true).
		Count(&count).Error
	return count > 0, err
}

// applyPayment appends an immutable payment, accumulates paidAmount and
// queues the payment's own CREATE entry.
func (s *OrderService) applyPayment(tx *gorm.DB, order *models.Order, in PaymentInput) error {
	method := in.Method
	if method == "" {
		method = models.PaymentMethodCash
	}
	payment := models.Payment{
		OrderID:      order.ID,
		OrderLocalID: order.LocalID,
		Amount:       in.Amount,
		Method:       method,
		Cashier:      in.Cashier,
	}
	if err := tx.Create(&payment).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	order.PaidAmount += payment.Amount

	return EnqueueSync(tx, models.EntityPayment, payment.LocalID, models.SyncActionCreate, &payment)
}

// applyStatus enforces forward-only transitions for explicit status changes.
func applyStatus(order *models.Order, status string) error {
	switch status {
	case order.Status:
		return nil
	case models.OrderStatusCompleted:
		if order.Status != models.OrderStatusPending {
			return ErrInvalidTransition
		}
		order.Status = models.OrderStatusCompleted
		return nil
	default:
		// Cancellation goes through CancelOrder so reason and actor are
		// always recorded; everything else is a backward transition.
		return ErrInvalidTransition
	}
}

// verifyActorPIN checks the acting staff's PIN when the staff record carries
// one. Unknown actors pass: the field is free text on legacy devices.
func (s *OrderService) verifyActorPIN(tx *gorm.DB, actor, pin string) error {
	var staff models.Staff
	err := tx.Where("name = ?", actor).First(&staff).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if !staff.CheckPIN(pin) {
		return ErrInvalidPIN
	}
	return nil
}
