// Package insumo manages the ingredient catalog. Counters are never written
// here directly: initial stock and count adjustments go through the ledger.
package insumo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"catering-backend/internal/apperr"
	"catering-backend/internal/models"
	"catering-backend/internal/stock"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrDuplicateName = apperr.New(apperr.Conflict, "an insumo with this name already exists")
	ErrInUse         = apperr.New(apperr.Conflict, "insumo is referenced by recipes, purchases or stock movements")
	ErrInvalidFactor = apperr.New(apperr.Validation, "conversion_factor must be greater than zero")
	ErrNegative      = apperr.New(apperr.Validation, "quantities and costs cannot be negative")
)

// Fields are the catalog attributes an operator may edit.
type Fields struct {
	Name             string
	BaseUnit         string
	PurchaseUnit     string
	ConversionFactor decimal.Decimal
	UnitCost         decimal.Decimal
	MinStockLevel    decimal.Decimal
	SupplierName     string
	SupplierContact  string
}

func (f Fields) validate() error {
	if !f.ConversionFactor.IsPositive() {
		return ErrInvalidFactor
	}
	if f.UnitCost.IsNegative() || f.MinStockLevel.IsNegative() {
		return ErrNegative
	}
	if !stock.FitsScale(f.UnitCost) || !stock.FitsScale(f.MinStockLevel) {
		return stock.ErrTooPrecise
	}
	return nil
}

type CountInput struct {
	Quantity decimal.Decimal
	Date     time.Time
	Apply    bool
	Operator string
}

type CountResult struct {
	Insumo      *models.Insumo        `json:"insumo"`
	Discrepancy decimal.Decimal       `json:"discrepancy"`
	Movement    *models.StockMovement `json:"movement,omitempty"`
}

type ListFilter struct {
	Search       string
	BelowMinimum bool
}

// Create adds an insumo. A positive initialStock is posted as a count
// adjustment so the ledger explains the opening balance.
func Create(db *gorm.DB, f Fields, initialStock decimal.Decimal, operator string) (*models.Insumo, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	if initialStock.IsNegative() {
		return nil, ErrNegative
	}
	if !stock.FitsScale(initialStock) {
		return nil, stock.ErrTooPrecise
	}

	in := models.Insumo{
		Name:             strings.TrimSpace(f.Name),
		BaseUnit:         f.BaseUnit,
		PurchaseUnit:     f.PurchaseUnit,
		ConversionFactor: f.ConversionFactor,
		UnitCost:         f.UnitCost,
		MinStockLevel:    f.MinStockLevel,
		SupplierName:     f.SupplierName,
		SupplierContact:  f.SupplierContact,
		Version:          1,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := ensureUniqueName(tx, in.Name, 0); err != nil {
			return err
		}
		if err := tx.Create(&in).Error; err != nil {
			return fmt.Errorf("insumo could not be created: %w", err)
		}
		if !initialStock.IsPositive() {
			return nil
		}
		_, err := stock.Apply(tx, &in, stock.Entry{
			Type:      models.MovementCountAdjustment,
			Delta:     stock.Delta{Stock: initialStock},
			Quantity:  initialStock,
			Note:      "Opening stock",
			CreatedBy: operator,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// Update rewrites the catalog attributes, leaving counters and version alone.
func Update(db *gorm.DB, id uint, f Fields) (before, after *models.Insumo, err error) {
	if err := f.validate(); err != nil {
		return nil, nil, err
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		cur, err := stock.LoadInsumo(tx, id)
		if err != nil {
			return err
		}
		snapshot := *cur
		before = &snapshot

		name := strings.TrimSpace(f.Name)
		if err := ensureUniqueName(tx, name, id); err != nil {
			return err
		}
		if err := tx.Model(&models.Insumo{}).Where("id = ?", id).Updates(map[string]interface{}{
			"name":              name,
			"base_unit":         f.BaseUnit,
			"purchase_unit":     f.PurchaseUnit,
			"conversion_factor": f.ConversionFactor,
			"unit_cost":         f.UnitCost,
			"min_stock_level":   f.MinStockLevel,
			"supplier_name":     f.SupplierName,
			"supplier_contact":  f.SupplierContact,
		}).Error; err != nil {
			return fmt.Errorf("insumo could not be updated: %w", err)
		}
		after, err = stock.LoadInsumo(tx, id)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

// Delete removes an insumo nothing refers to.
func Delete(db *gorm.DB, id uint) (*models.Insumo, error) {
	var in *models.Insumo
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		in, err = stock.LoadInsumo(tx, id)
		if err != nil {
			return err
		}
		for _, ref := range []interface{}{&models.PlatoInsumo{}, &models.PurchaseRecord{}, &models.StockMovement{}, &models.UrgentPurchaseRequest{}} {
			var n int64
			if err := tx.Model(ref).Where("insumo_id = ?", id).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return ErrInUse
			}
		}
		return tx.Delete(&models.Insumo{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return in, nil
}

// Count records a physical count. The discrepancy is count minus the stock
// on record; with Apply the stock is set to the count through the ledger.
func Count(db *gorm.DB, id uint, c CountInput) (*CountResult, error) {
	if c.Quantity.IsNegative() {
		return nil, ErrNegative
	}
	if !stock.FitsScale(c.Quantity) {
		return nil, stock.ErrTooPrecise
	}
	countDate := c.Date
	if countDate.IsZero() {
		countDate = time.Now()
	}

	var res CountResult
	err := db.Transaction(func(tx *gorm.DB) error {
		in, err := stock.LoadInsumo(tx, id)
		if err != nil {
			return err
		}
		res.Discrepancy = Discrepancy(c.Quantity, in.StockQuantity)

		if c.Apply && !res.Discrepancy.IsZero() {
			mv, err := stock.Apply(tx, in, stock.Entry{
				Type:      models.MovementCountAdjustment,
				Delta:     stock.Delta{Stock: res.Discrepancy},
				Quantity:  res.Discrepancy,
				Note:      truncate(fmt.Sprintf("Physical count %s: %s counted, by %s", countDate.Format("2006-01-02"), c.Quantity, c.Operator), 255),
				CreatedBy: c.Operator,
			})
			if err != nil {
				return err
			}
			res.Movement = mv
		}

		qty := c.Quantity
		if err := tx.Model(&models.Insumo{}).Where("id = ?", id).Updates(map[string]interface{}{
			"last_count_quantity":  qty,
			"last_count_date":      countDate,
			"discrepancy_quantity": res.Discrepancy,
		}).Error; err != nil {
			return fmt.Errorf("count could not be recorded: %w", err)
		}
		in.LastCountQuantity = &qty
		in.LastCountDate = &countDate
		in.DiscrepancyQuantity = res.Discrepancy
		res.Insumo = in
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Discrepancy is what the count found beyond (or short of) the stock on record.
func Discrepancy(counted, onRecord decimal.Decimal) decimal.Decimal {
	return counted.Sub(onRecord)
}

func Get(db *gorm.DB, id uint) (*models.Insumo, error) {
	return stock.LoadInsumo(db, id)
}

func List(db *gorm.DB, f ListFilter) ([]models.Insumo, error) {
	q := db.Model(&models.Insumo{})
	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where("name ILIKE ?", "%"+s+"%")
	}
	if f.BelowMinimum {
		q = q.Where("stock_quantity < min_stock_level OR stock_quantity = 0")
	}
	var out []models.Insumo
	err := q.Order("name").Find(&out).Error
	return out, err
}

func ensureUniqueName(tx *gorm.DB, name string, exceptID uint) error {
	var other models.Insumo
	err := tx.Where("LOWER(name) = LOWER(?) AND id <> ?", name, exceptID).First(&other).Error
	if err == nil {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
