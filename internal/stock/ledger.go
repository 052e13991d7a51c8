package stock

import (
	"errors"
	"fmt"

	"catering-backend/internal/apperr"
	"catering-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrInsumoNotFound = apperr.New(apperr.NotFound, "insumo not found")

// Entry describes one ledger posting and the counter change that goes with it.
type Entry struct {
	Type  models.MovementType
	Delta Delta
	// Quantity is the headline amount shown in the ledger, signed
	// (negative for outflows).
	Quantity         decimal.Decimal
	Note             string
	MenuID           *uint
	PurchaseRecordID *uint
	BatchRef         string
	CreatedBy        string
}

// LoadInsumo reads the insumo row that Apply will guard with its version.
func LoadInsumo(tx *gorm.DB, id uint) (*models.Insumo, error) {
	var in models.Insumo
	if err := tx.First(&in, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrInsumoNotFound, id)
		}
		return nil, err
	}
	return &in, nil
}

// Apply updates the insumo counters and appends the ledger row. It must run
// inside the caller's transaction so the two writes commit together.
//
// The update is conditional on the version read into in; if another writer
// got there first nothing is written and ErrConflict is returned. On success
// in reflects the new counters and version.
func Apply(tx *gorm.DB, in *models.Insumo, e Entry) (*models.StockMovement, error) {
	next, err := e.Delta.ApplyTo(CountersOf(in))
	if err != nil {
		return nil, fmt.Errorf("insumo %d (%s): %w", in.ID, in.Name, err)
	}

	res := tx.Model(&models.Insumo{}).
		Where("id = ? AND version = ?", in.ID, in.Version).
		Updates(map[string]interface{}{
			"pending_delivery_quantity":  next.PendingDelivery,
			"pending_reception_quantity": next.PendingReception,
			"stock_quantity":             next.Stock,
			"version":                    gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("insumo counters could not be updated: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("insumo %d: %w", in.ID, ErrConflict)
	}

	in.PendingDeliveryQuantity = next.PendingDelivery
	in.PendingReceptionQuantity = next.PendingReception
	in.StockQuantity = next.Stock
	in.Version++

	mv := NewMovement(in, e)
	if err := tx.Create(mv).Error; err != nil {
		return nil, fmt.Errorf("stock movement could not be recorded: %w", err)
	}
	return mv, nil
}

// NewMovement builds the ledger row for e against the counters already
// applied to in.
func NewMovement(in *models.Insumo, e Entry) *models.StockMovement {
	return &models.StockMovement{
		InsumoID:               in.ID,
		Type:                   e.Type,
		QuantityChange:         e.Quantity,
		PendingDeliveryChange:  e.Delta.PendingDelivery,
		PendingReceptionChange: e.Delta.PendingReception,
		StockChange:            e.Delta.Stock,
		ResultingStock:         in.StockQuantity,
		Note:                   e.Note,
		MenuID:                 e.MenuID,
		PurchaseRecordID:       e.PurchaseRecordID,
		BatchRef:               e.BatchRef,
		CreatedBy:              e.CreatedBy,
	}
}

// ListMovements returns the newest ledger rows of one insumo first.
func ListMovements(db *gorm.DB, insumoID uint, limit int) ([]models.StockMovement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []models.StockMovement
	err := db.Where("insumo_id = ?", insumoID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
