package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/in-vento/ubox-pos/models"
	"github.com/in-vento/ubox-pos/utils"
)

// maxComboDepth bounds the combo expansion. A legitimate catalog nests a
// combo two or three levels at most.
const maxComboDepth = 10

// StockResolver expands combo products into their leaf components and applies
// the real inventory decrements. It runs exactly once per order, at the
// moment the order transitions to Completed.
type StockResolver struct{}

func NewStockResolver() *StockResolver {
	return &StockResolver{}
}

// DeductOrderItems applies stock deduction for every item of an order inside
// the caller's transaction.
func (r *StockResolver) DeductOrderItems(tx *gorm.DB, items []models.OrderItem) error {
	for _, item := range items {
		if err := r.deduct(tx, item.ProductID, item.Quantity, map[uint]bool{}, 0); err != nil {
			return err
		}
	}
	return nil
}

// deduct walks the composition graph. Guard conditions (depth, cycles) fail
// open: the branch is skipped with a warning and the sale proceeds, trading
// inventory precision for never blocking a sale.
func (r *StockResolver) deduct(tx *gorm.DB, productID uint, quantity int, visited map[uint]bool, depth int) error {
	if depth > maxComboDepth {
		utils.InfoLogger.Warnf("stock deduction: max depth exceeded at product %d, skipping branch", productID)
		return nil
	}
	if visited[productID] {
		utils.InfoLogger.Warnf("stock deduction: cycle detected at product %d, skipping branch", productID)
		return nil
	}

	var product models.Product
	if err := tx.Preload("Components", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).First(&product, productID).Error; err != nil {
		utils.InfoLogger.Warnf("stock deduction: product %d not found, skipping branch", productID)
		return nil
	}

	if product.IsCombo && len(product.Components) > 0 {
		// visited tracks the current call path only; a combo may reach the
		// same leaf through two different branches.
		visited[productID] = true
		for _, comp := range product.Components {
			if err := r.deduct(tx, comp.ComponentID, comp.Quantity*quantity, visited, depth+1); err != nil {
				return err
			}
		}
		delete(visited, productID)
		return nil
	}

	// Leaf product: unconditional decrement. Stock may go negative, which
	// signals oversell instead of blocking the sale.
	if err := tx.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity)).Error; err != nil {
		return fmt.Errorf("failed to deduct stock for product %d: %w", productID, err)
	}
	return nil
}

// CheckComboCycle rejects a composition that would make productID reachable
// from itself. Called at product create/update time so cyclic catalogs are
// rejected structurally instead of only being skipped at deduction time.
func CheckComboCycle(db *gorm.DB, productID uint, componentIDs []uint) error {
	for _, compID := range componentIDs {
		if compID == productID {
			return ErrComboCycle
		}
		reaches, err := reachesProduct(db, compID, productID, map[uint]bool{})
		if err != nil {
			return err
		}
		if reaches {
			return ErrComboCycle
		}
	}
	return nil
}

func reachesProduct(db *gorm.DB, from, target uint, seen map[uint]bool) (bool, error) {
	if seen[from] {
		return false, nil
	}
	seen[from] = true

	var components []models.ProductComponent
	if err := db.Where("product_id = ?", from).Find(&components).Error; err != nil {
		return false, err
	}
	for _, comp := range components {
		if comp.ComponentID == target {
			return true, nil
		}
		reaches, err := reachesProduct(db, comp.ComponentID, target, seen)
		if err != nil {
			return false, err
		}
		if reaches {
			return true, nil
		}
	}
	return false, nil
}
