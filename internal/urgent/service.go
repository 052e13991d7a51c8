package urgent

import (
	"errors"
	"fmt"
	"time"

	"catering-backend/internal/apperr"
	"catering-backend/internal/models"
	"catering-backend/internal/purchasing"
	"catering-backend/internal/stock"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound = apperr.New(apperr.NotFound, "urgent request not found")
	ErrStale    = apperr.New(apperr.Conflict, "urgent request was modified concurrently, reload and retry")
)

type RequestInput struct {
	InsumoID    uint
	Quantity    decimal.Decimal
	Priority    models.UrgentPriority
	RequestDate time.Time
	RequestedBy string
	Notes       string
}

// FulfillInput links an existing purchase record, or, when PurchaseRecordID
// is nil, describes the purchase to register for the request.
type FulfillInput struct {
	PurchaseRecordID *uint
	Purchase         purchasing.CreateInput
}

type ListFilter struct {
	Status   models.UrgentStatus
	Priority models.UrgentPriority
	InsumoID uint
}

// Request opens an urgent request, or insists on the open one for the same
// insumo. The bool reports whether an existing request was updated.
func Request(db *gorm.DB, in RequestInput) (*models.UrgentPurchaseRequest, bool, error) {
	if err := ValidateNew(in.Quantity, in.Priority); err != nil {
		return nil, false, err
	}

	var out *models.UrgentPurchaseRequest
	var insisted bool
	var insumo models.Insumo
	err := db.Transaction(func(tx *gorm.DB) error {
		// The insumo row lock serializes concurrent requests for it, so at most
		// one open request exists per insumo.
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&insumo, "id = ?", in.InsumoID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %d", stock.ErrInsumoNotFound, in.InsumoID)
		}
		if err != nil {
			return err
		}

		var open models.UrgentPurchaseRequest
		err = tx.Where("insumo_id = ? AND status IN ?", in.InsumoID,
			[]models.UrgentStatus{models.UrgentPending, models.UrgentApproved}).
			Order("id").
			First(&open).Error
		switch {
		case err == nil:
			before := open
			if err := Insist(&open, in.Quantity, in.Priority); err != nil {
				return err
			}
			if in.Notes != "" {
				open.Notes = truncate(joinNotes(open.Notes, in.Notes), 255)
			}
			if err := saveGuarded(tx, &before, &open); err != nil {
				return err
			}
			out, insisted = &open, true
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		reqDate := in.RequestDate
		if reqDate.IsZero() {
			reqDate = time.Now()
		}
		r := models.UrgentPurchaseRequest{
			InsumoID:          in.InsumoID,
			QuantityRequested: in.Quantity,
			RequestDate:       reqDate,
			Priority:          in.Priority,
			Status:            models.UrgentPending,
			RequestedBy:       in.RequestedBy,
			Notes:             truncate(in.Notes, 255),
		}
		if err := tx.Create(&r).Error; err != nil {
			return fmt.Errorf("urgent request could not be created: %w", err)
		}
		out = &r
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	out.Insumo = insumo
	return out, insisted, nil
}

func Approve(db *gorm.DB, id uint) (*models.UrgentPurchaseRequest, error) {
	return update(db, id, func(_ *gorm.DB, r *models.UrgentPurchaseRequest) error {
		return markApproved(r)
	})
}

func Reject(db *gorm.DB, id uint, reason string) (*models.UrgentPurchaseRequest, error) {
	return update(db, id, func(_ *gorm.DB, r *models.UrgentPurchaseRequest) error {
		return markRejected(r, reason)
	})
}

// Fulfill links a purchase record to the request, registering the purchase
// first when none is given. Both happen in one transaction.
func Fulfill(db *gorm.DB, id uint, in FulfillInput) (*models.UrgentPurchaseRequest, *models.PurchaseRecord, error) {
	var rec *models.PurchaseRecord
	r, err := update(db, id, func(tx *gorm.DB, r *models.UrgentPurchaseRequest) error {
		if !IsOpen(r.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, models.UrgentFulfilled)
		}
		if in.PurchaseRecordID != nil {
			var existing models.PurchaseRecord
			if err := tx.First(&existing, "id = ?", *in.PurchaseRecordID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %d", purchasing.ErrNotFound, *in.PurchaseRecordID)
				}
				return err
			}
			rec = &existing
		} else {
			p := in.Purchase
			p.InsumoID = r.InsumoID
			if p.Quantity.IsZero() {
				p.Quantity = r.QuantityRequested
			}
			if p.Notes == "" {
				p.Notes = fmt.Sprintf("Urgent request #%d", r.ID)
			}
			created, err := purchasing.CreateTx(tx, p)
			if err != nil {
				return err
			}
			rec = created
		}
		return markFulfilled(r, rec)
	})
	if err != nil {
		return nil, nil, err
	}
	return r, rec, nil
}

func Get(db *gorm.DB, id uint) (*models.UrgentPurchaseRequest, error) {
	return load(db.Preload("Insumo"), id)
}

func List(db *gorm.DB, f ListFilter) ([]models.UrgentPurchaseRequest, error) {
	q := db.Model(&models.UrgentPurchaseRequest{}).Preload("Insumo")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.InsumoID != 0 {
		q = q.Where("insumo_id = ?", f.InsumoID)
	}
	var out []models.UrgentPurchaseRequest
	err := q.Order(`CASE priority WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC`).
		Order("request_date DESC, id DESC").
		Find(&out).Error
	return out, err
}

// update loads the request, applies fn and writes the result back only if
// the status is still the one fn saw.
func update(db *gorm.DB, id uint, fn func(tx *gorm.DB, r *models.UrgentPurchaseRequest) error) (*models.UrgentPurchaseRequest, error) {
	var r *models.UrgentPurchaseRequest
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		r, err = load(tx.Preload("Insumo"), id)
		if err != nil {
			return err
		}
		before := *r
		if err := fn(tx, r); err != nil {
			return err
		}
		return saveGuarded(tx, &before, r)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func load(tx *gorm.DB, id uint) (*models.UrgentPurchaseRequest, error) {
	var r models.UrgentPurchaseRequest
	if err := tx.First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &r, nil
}

func saveGuarded(tx *gorm.DB, before, r *models.UrgentPurchaseRequest) error {
	res := tx.Model(&models.UrgentPurchaseRequest{}).
		Where("id = ? AND status = ? AND insistence_count = ?", before.ID, before.Status, before.InsistenceCount).
		Updates(map[string]interface{}{
			"status":                       r.Status,
			"quantity_requested":           r.QuantityRequested,
			"priority":                     r.Priority,
			"rejection_reason":             r.RejectionReason,
			"fulfilled_purchase_record_id": r.FulfilledPurchaseRecordID,
			"insistence_count":             r.InsistenceCount,
			"notes":                        r.Notes,
		})
	if res.Error != nil {
		return fmt.Errorf("urgent request could not be updated: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	return nil
}

func joinNotes(a, b string) string {
	if a == "" {
		return b
	}
	return a + " | " + b
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
