package purchasing

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
	ErrNotFound     = apperr.New(apperr.NotFound, "purchase record not found")
	ErrNotCancelled = apperr.New(apperr.Conflict, "only cancelled purchase records can be deleted")
	// ErrStale: the record changed between read and write.
	ErrStale = apperr.New(apperr.Conflict, "purchase record was modified concurrently, reload and retry")
)

type CreateInput struct {
	InsumoID        uint
	PurchaseDate    time.Time
	Quantity        decimal.Decimal
	UnitCost        *decimal.Decimal // nil: insumo's current unit cost
	Status          models.PurchaseStatus
	SupplierName    string
	SupplierContact string
	InvoiceNumber   string
	Notes           string
	CreatedBy       string
	BatchRef        string
}

type ReceiveInput struct {
	Target       models.PurchaseStatus
	Quantity     decimal.Decimal
	ReceivedDate time.Time
	Note         string
	Operator     string
}

type ListFilter struct {
	Status   models.PurchaseStatus
	InsumoID uint
	From     *time.Time
	To       *time.Time
}

// Create registers a purchase and credits the insumo counter of its starting
// stage in one transaction.
func Create(db *gorm.DB, in CreateInput) (*models.PurchaseRecord, error) {
	var rec *models.PurchaseRecord
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = CreateTx(tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// CreateTx is Create inside an existing transaction.
func CreateTx(tx *gorm.DB, in CreateInput) (*models.PurchaseRecord, error) {
	if in.Status == "" {
		in.Status = models.PurchaseOrdered
	}
	lc, tr, err := Open(in.Status, in.Quantity)
	if err != nil {
		return nil, err
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return nil, fmt.Errorf("%w: unit cost cannot be negative", ErrInvalidQuantity)
	}
	if in.UnitCost != nil && !stock.FitsScale(*in.UnitCost) {
		return nil, fmt.Errorf("%w: unit cost %s", stock.ErrTooPrecise, *in.UnitCost)
	}

	insumo, err := stock.LoadInsumo(tx, in.InsumoID)
	if err != nil {
		return nil, err
	}

	unitCost := insumo.UnitCost
	if in.UnitCost != nil {
		unitCost = *in.UnitCost
	}
	supplierName, supplierContact := in.SupplierName, in.SupplierContact
	if strings.TrimSpace(supplierName) == "" {
		supplierName, supplierContact = insumo.SupplierName, insumo.SupplierContact
	}
	purchaseDate := in.PurchaseDate
	if purchaseDate.IsZero() {
		purchaseDate = time.Now()
	}

	rec := models.PurchaseRecord{
		InsumoID:        insumo.ID,
		PurchaseDate:    purchaseDate,
		UnitCost:        unitCost,
		TotalAmount:     in.Quantity.Mul(unitCost),
		SupplierName:    supplierName,
		SupplierContact: supplierContact,
		InvoiceNumber:   in.InvoiceNumber,
		Notes:           in.Notes,
		CreatedBy:       in.CreatedBy,
	}
	lc.WriteTo(&rec)
	if in.Status != models.PurchaseOrdered {
		rec.ReceivedDate = &purchaseDate
	}

	if err := tx.Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("purchase record could not be created: %w", err)
	}

	note := fmt.Sprintf("Purchase #%d registered as %s", rec.ID, rec.Status)
	if in.Notes != "" {
		note += ": " + in.Notes
	}
	if _, err := stock.Apply(tx, insumo, stock.Entry{
		Type:             tr.Movement,
		Delta:            tr.Delta,
		Quantity:         tr.Quantity,
		Note:             truncate(note, 255),
		PurchaseRecordID: &rec.ID,
		BatchRef:         in.BatchRef,
		CreatedBy:        in.CreatedBy,
	}); err != nil {
		return nil, err
	}

	rec.Insumo = *insumo
	return &rec, nil
}

// Receive books a (partial) reception towards the next stage.
func Receive(db *gorm.DB, id uint, in ReceiveInput) (*models.PurchaseRecord, Transition, error) {
	var rec *models.PurchaseRecord
	var tr Transition
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = load(tx, id)
		if err != nil {
			return err
		}
		lc, err := FromRecord(rec)
		if err != nil {
			return err
		}
		next, t, err := lc.Receive(in.Target, in.Quantity)
		if err != nil {
			return err
		}
		tr = t

		insumo, err := stock.LoadInsumo(tx, rec.InsumoID)
		if err != nil {
			return err
		}

		receivedAt := in.ReceivedDate
		if receivedAt.IsZero() {
			receivedAt = time.Now()
		}
		before := *rec
		next.WriteTo(rec)
		rec.ReceivedDate = &receivedAt
		if err := saveGuarded(tx, &before, rec); err != nil {
			return err
		}

		note := fmt.Sprintf("Purchase #%d: %s of %s received (%s)", rec.ID, in.Quantity, rec.QuantityPurchased, stageLabel(in.Target))
		if in.Operator != "" {
			note += " by " + in.Operator
		}
		if in.Note != "" {
			note += ": " + in.Note
		}
		_, err = stock.Apply(tx, insumo, stock.Entry{
			Type:             t.Movement,
			Delta:            t.Delta,
			Quantity:         t.Quantity,
			Note:             truncate(note, 255),
			PurchaseRecordID: &rec.ID,
			CreatedBy:        in.Operator,
		})
		if err != nil {
			return err
		}
		rec.Insumo = *insumo
		return nil
	})
	if err != nil {
		return nil, Transition{}, err
	}
	return rec, tr, nil
}

// Cancel reverts the record's counter contributions and marks it cancelled.
func Cancel(db *gorm.DB, id uint, operator, reason string) (*models.PurchaseRecord, Transition, error) {
	var rec *models.PurchaseRecord
	var tr Transition
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = load(tx, id)
		if err != nil {
			return err
		}
		lc, err := FromRecord(rec)
		if err != nil {
			return err
		}
		next, t, err := lc.Cancel()
		if err != nil {
			return err
		}
		tr = t

		insumo, err := stock.LoadInsumo(tx, rec.InsumoID)
		if err != nil {
			return err
		}

		before := *rec
		next.WriteTo(rec)
		if err := saveGuarded(tx, &before, rec); err != nil {
			return err
		}

		if t.Delta.IsZero() {
			return nil
		}
		note := fmt.Sprintf("Purchase #%d cancelled from %s", rec.ID, t.From)
		if reason != "" {
			note += ": " + reason
		}
		_, err = stock.Apply(tx, insumo, stock.Entry{
			Type:             t.Movement,
			Delta:            t.Delta,
			Quantity:         t.Quantity.Neg(),
			Note:             truncate(note, 255),
			PurchaseRecordID: &rec.ID,
			CreatedBy:        operator,
		})
		if err != nil {
			return err
		}
		rec.Insumo = *insumo
		return nil
	})
	if err != nil {
		return nil, Transition{}, err
	}
	return rec, tr, nil
}

// Delete removes a cancelled record. It does not touch the insumo counters:
// the cancellation already reverted them.
func Delete(db *gorm.DB, id uint) (*models.PurchaseRecord, error) {
	var rec *models.PurchaseRecord
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		rec, err = load(tx, id)
		if err != nil {
			return err
		}
		if rec.Status != models.PurchaseCancelled {
			return ErrNotCancelled
		}
		res := tx.Where("id = ? AND status = ?", id, models.PurchaseCancelled).Delete(&models.PurchaseRecord{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStale
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func Get(db *gorm.DB, id uint) (*models.PurchaseRecord, error) {
	rec, err := load(db.Preload("Insumo"), id)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func List(db *gorm.DB, f ListFilter) ([]models.PurchaseRecord, error) {
	q := db.Model(&models.PurchaseRecord{}).Preload("Insumo")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.InsumoID != 0 {
		q = q.Where("insumo_id = ?", f.InsumoID)
	}
	if f.From != nil {
		q = q.Where("purchase_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("purchase_date < ?", f.To.AddDate(0, 0, 1))
	}

	var out []models.PurchaseRecord
	if err := q.Order("purchase_date DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func load(tx *gorm.DB, id uint) (*models.PurchaseRecord, error) {
	var rec models.PurchaseRecord
	if err := tx.First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &rec, nil
}

// saveGuarded writes the lifecycle columns of rec only if the row still holds
// the state read into before.
func saveGuarded(tx *gorm.DB, before, rec *models.PurchaseRecord) error {
	res := tx.Model(&models.PurchaseRecord{}).
		Where("id = ? AND status = ? AND quantity_received = ? AND quantity_stocked = ?",
			before.ID, before.Status, before.QuantityReceived, before.QuantityStocked).
		Updates(map[string]interface{}{
			"status":                     rec.Status,
			"quantity_received":          rec.QuantityReceived,
			"quantity_stocked":           rec.QuantityStocked,
			"received_date":              rec.ReceivedDate,
			"cancelled_from":             rec.CancelledFrom,
			"reverted_pending_delivery":  rec.RevertedPendingDelivery,
			"reverted_pending_reception": rec.RevertedPendingReception,
			"reverted_stock":             rec.RevertedStock,
		})
	if res.Error != nil {
		return fmt.Errorf("purchase record could not be updated: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

func stageLabel(s models.PurchaseStatus) string {
	switch s {
	case models.PurchaseReceivedByCompany:
		return "company"
	case models.PurchaseReceivedByWarehouse:
		return "warehouse"
	}
	return string(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
