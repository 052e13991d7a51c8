package insumo

import (
	"fmt"
	"strings"
	"time"

	"catering-backend/internal/apperr"
	"catering-backend/internal/models"
	"catering-backend/internal/stock"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const minWasteNoteLength = 3

var (
	ErrWasteQuantity = apperr.New(apperr.Validation, "waste quantity must be greater than zero")
	ErrWasteNote     = apperr.New(apperr.Validation, "waste note must say what happened (at least 3 characters)")
)

// WasteInput is stock thrown away outside of daily prep: spoiled, dropped,
// expired.
type WasteInput struct {
	Quantity decimal.Decimal
	Date     time.Time
	Note     string
	Operator string
}

type WasteFilter struct {
	InsumoID uint
	From     *time.Time
	To       *time.Time
}

// RecordWaste takes q out of stock and books a waste_out ledger row. Waste
// larger than the stock on record fails with stock.ErrNegativeCounter.
func RecordWaste(db *gorm.DB, id uint, w WasteInput) (*models.StockMovement, error) {
	if !w.Quantity.IsPositive() {
		return nil, ErrWasteQuantity
	}
	if !stock.FitsScale(w.Quantity) {
		return nil, stock.ErrTooPrecise
	}
	note := strings.TrimSpace(w.Note)
	if len([]rune(note)) < minWasteNoteLength {
		return nil, ErrWasteNote
	}
	date := w.Date
	if date.IsZero() {
		date = time.Now()
	}

	var mv *models.StockMovement
	err := db.Transaction(func(tx *gorm.DB) error {
		in, err := stock.LoadInsumo(tx, id)
		if err != nil {
			return err
		}
		mv, err = stock.Apply(tx, in, stock.Entry{
			Type:      models.MovementWasteOut,
			Delta:     stock.Delta{Stock: w.Quantity.Neg()},
			Quantity:  w.Quantity.Neg(),
			Note:      truncate(fmt.Sprintf("Waste %s by %s: %s", date.Format("2006-01-02"), w.Operator, note), 255),
			CreatedBy: w.Operator,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return mv, nil
}

// ListWaste returns waste rows newest first.
func ListWaste(db *gorm.DB, f WasteFilter) ([]models.StockMovement, error) {
	q := db.Where("type = ?", models.MovementWasteOut)
	if f.InsumoID != 0 {
		q = q.Where("insumo_id = ?", f.InsumoID)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", f.To.AddDate(0, 0, 1))
	}
	var out []models.StockMovement
	err := q.Order("created_at DESC, id DESC").Limit(500).Find(&out).Error
	return out, err
}
