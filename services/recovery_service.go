package services

import (
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

// RecoveryService performs cold-start hydration: on first link to a business
// account (or on demand) it pulls the full cloud snapshot of products and
// staff and merges it into the local store. The direction reverses here:
// the cloud is the source for these two entity types, keyed by the cloud
// record id carried as localId. Orders and payments are never pulled back.
type RecoveryService struct {
	db      *gorm.DB
	baseURL string
	client  *http.Client
}

func NewRecoveryService(db *gorm.DB, baseURL string, timeout time.Duration) *RecoveryService {
	return &RecoveryService{
		db:      db,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type cloudComponent struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type cloudProduct struct {
	LocalID              string           `json:"localId"`
	Name                 string           `json:"name"`
	Price                float64          `json:"price"`
	Category             string           `json:"category"`
	Stock                int              `json:"stock"`
	IsCombo              bool             `json:"isCombo"`
	IsCommissionable     bool             `json:"isCommissionable"`
	CommissionPercentage float64          `json:"commissionPercentage"`
	Components           []cloudComponent `json:"components"`
}

type cloudStaff struct {
	LocalID  string `json:"localId"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	PINHash  string `json:"pinHash"`
	IsActive bool   `json:"isActive"`
}

type recoverySnapshot struct {
	Data struct {
		Products   []cloudProduct `json:"products"`
		StaffUsers []cloudStaff   `json:"staffUsers"`
	} `json:"data"`
}

// Hydrate fetches the remote snapshot and upserts every record locally.
// Running it twice is safe: records are matched on localId.
func (s *RecoveryService) Hydrate(ctx context.Context) error {
	var business models.Business
	if err := s.db.First(&business).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNoBusinessLink
		}
		return err
	}

	snapshot, err := s.fetchSnapshot(ctx, business.BusinessID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, p := range snapshot.Data.Products {
			if err := upsertProduct(tx, p); err != nil {
				return err
			}
		}
		// Second pass: components reference products by localId, so every
		// product must exist before links can be resolved.
		for _, p := range snapshot.Data.Products {
			if err := rebuildComponents(tx, p); err != nil {
				return err
			}
		}
		for _, st := range snapshot.Data.StaffUsers {
			if err := upsertStaff(tx, st); err != nil {
				return err
			}
		}
		utils.InfoLogger.Printf("recovery: hydrated %d products, %d staff",
			len(snapshot.Data.Products), len(snapshot.Data.StaffUsers))
		return nil
	})
}

func (s *RecoveryService) fetchSnapshot(ctx context.Context, businessID string) (*recoverySnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/recovery", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Business-Id", businessID)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recovery fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("recovery endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var snapshot recoverySnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("unreadable recovery snapshot: %w", err)
	}
	return &snapshot, nil
}

func upsertProduct(tx *gorm.DB, in cloudProduct) error {
	if in.LocalID == "" {
		utils.InfoLogger.Warnf("recovery: skipping product %q without localId", in.Name)
		return nil
	}

	var product models.Product
	err := tx.Where("local_id = ?", in.LocalID).First(&product).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}

	product.LocalID = in.LocalID
	product.Name = in.Name
	product.Price = in.Price
	product.Category = in.Category
	product.Stock = in.Stock
	product.IsCombo = in.IsCombo
	product.IsCommissionable = in.IsCommissionable
	product.CommissionPercentage = in.CommissionPercentage

	if product.ID == 0 {
		return tx.Create(&product).Error
	}
	return tx.Save(&product).Error
}

func rebuildComponents(tx *gorm.DB, in cloudProduct) error {
	if !in.IsCombo {
		return nil
	}

	var product models.Product
	if err := tx.Where("local_id = ?", in.LocalID).First(&product).Error; err != nil {
		return err
	}

	if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductComponent{}).Error; err != nil {
		return err
	}

	for pos, comp := range in.Components {
		var component models.Product
		if err := tx.Where("local_id = ?", comp.ProductID).First(&component).Error; err != nil {
			utils.InfoLogger.Warnf("recovery: combo %s references unknown product %s, skipping component",
				in.LocalID, comp.ProductID)
			continue
		}
		link := models.ProductComponent{
			ProductID:        product.ID,
			ComponentID:      component.ID,
			ComponentLocalID: component.LocalID,
			Quantity:         comp.Quantity,
			Position:         pos,
		}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
	}
	return nil
}

func upsertStaff(tx *gorm.DB, in cloudStaff) error {
	if in.LocalID == "" {
		utils.InfoLogger.Warnf("recovery: skipping staff %q without localId", in.Name)
		return nil
	}

	var staff models.Staff
	err := tx.Where("local_id = ?", in.LocalID).First(&staff).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}

	staff.LocalID = in.LocalID
	staff.Name = in.Name
	staff.Role = in.Role
	staff.PINHash = in.PINHash
	staff.IsActive = in.IsActive

	if staff.ID == 0 {
		return tx.Create(&staff).Error
	}
	return tx.Save(&staff).Error
}
