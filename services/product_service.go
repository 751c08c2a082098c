package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/in-vento/ubox-pos/models"
)

// ProductService owns the local product catalog. Combo compositions are
// validated against cycles on every write so the deduction-time guard never
// has to fire on a healthy catalog.
type ProductService struct {
	db *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

type ComponentInput struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type ProductInput struct {
	Name                 string           `json:"name" binding:"required"`
	Price                float64          `json:"price"`
	Category             string           `json:"category"`
	Stock                int              `json:"stock"`
	IsCombo              bool             `json:"isCombo"`
	IsCommissionable     bool             `json:"isCommissionable"`
	CommissionPercentage float64          `json:"commissionPercentage"`
	Components           []ComponentInput `json:"components"`
}

func (s *ProductService) CreateProduct(in ProductInput) (*models.Product, error) {
	var created *models.Product
	err := s.db.Transaction(func(tx *gorm.DB) error {
		product := models.Product{
			Name:                 in.Name,
			Price:                in.Price,
			Category:             in.Category,
			Stock:                in.Stock,
			IsCombo:              in.IsCombo,
			IsCommissionable:     in.IsCommissionable,
			CommissionPercentage: in.CommissionPercentage,
		}
		if err := tx.Create(&product).Error; err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		if err := s.setComponents(tx, &product, in); err != nil {
			return err
		}
		if err := EnqueueSync(tx, models.EntityProduct, product.LocalID, models.SyncActionCreate, &product); err != nil {
			return err
		}
		created = &product
		return nil
	})
	return created, err
}

func (s *ProductService) UpdateProduct(localID string, in ProductInput) (*models.Product, error) {
	var updated *models.Product
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Where("local_id = ?", localID).First(&product).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrProductNotFound
			}
			return err
		}

		product.Name = in.Name
		product.Price = in.Price
		product.Category = in.Category
		product.Stock = in.Stock
		product.IsCombo = in.IsCombo
		product.IsCommissionable = in.IsCommissionable
		product.CommissionPercentage = in.CommissionPercentage

		if err := s.setComponents(tx, &product, in); err != nil {
			return err
		}
		if err := tx.Save(&product).Error; err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		if err := EnqueueSync(tx, models.EntityProduct, product.LocalID, models.SyncActionUpdate, &product); err != nil {
			return err
		}
		updated = &product
		return nil
	})
	return updated, err
}

// DeleteProduct removes a product used nowhere as a combo component and
// queues the remote delete.
func (s *ProductService) DeleteProduct(localID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Where("local_id = ?", localID).First(&product).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrProductNotFound
			}
			return err
		}

		var inCombos int64
		if err := tx.Model(&models.ProductComponent{}).
			Where("component_id = ?", product.ID).
			Count(&inCombos).Error; err != nil {
			return err
		}
		if inCombos > 0 {
			return fmt.Errorf("product %s is a component of %d combo(s)", product.Name, inCombos)
		}

		if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductComponent{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&product).Error; err != nil {
			return err
		}
		return EnqueueSync(tx, models.EntityProduct, product.LocalID, models.SyncActionDelete, nil)
	})
}

func (s *ProductService) GetProduct(localID string) (*models.Product, error) {
	var product models.Product
	err := s.db.Preload("Components", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).Where("local_id = ?", localID).First(&product).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *ProductService) ListProducts() ([]models.Product, error) {
	var products []models.Product
	err := s.db.Preload("Components").Order("name asc").Find(&products).Error
	return products, err
}

// setComponents replaces the combo composition after the structural cycle
// check. Non-combo products always end up with an empty composition.
func (s *ProductService) setComponents(tx *gorm.DB, product *models.Product, in ProductInput) error {
	if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductComponent{}).Error; err != nil {
		return err
	}
	if !in.IsCombo {
		return nil
	}

	componentIDs := make([]uint, 0, len(in.Components))
	links := make([]models.ProductComponent, 0, len(in.Components))
	for pos, comp := range in.Components {
		var component models.Product
		if err := tx.Where("local_id = ?", comp.ProductID).First(&component).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: %s", ErrProductNotFound, comp.ProductID)
			}
			return err
		}
		componentIDs = append(componentIDs, component.ID)
		links = append(links, models.ProductComponent{
			ProductID:        product.ID,
			ComponentID:      component.ID,
			ComponentLocalID: component.LocalID,
			Quantity:         comp.Quantity,
			Position:         pos,
		})
	}

	if err := CheckComboCycle(tx, product.ID, componentIDs); err != nil {
		return err
	}
	if len(links) > 0 {
		if err := tx.Create(&links).Error; err != nil {
			return err
		}
	}

	product.Components = links
	return nil
}
