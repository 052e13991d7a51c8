// Package urgent handles urgent purchase requests raised by the kitchen.
package urgent

import (
	"fmt"
	"strings"

	"catering-backend/internal/apperr"
	"catering-backend/internal/models"
	"catering-backend/internal/stock"

	"github.com/shopspring/decimal"
)

// MinReasonLength is the shortest accepted rejection reason, after trimming.
const MinReasonLength = 5

var (
	ErrInvalidTransition = apperr.New(apperr.Conflict, "invalid urgent request status transition")
	ErrReasonRequired    = apperr.New(apperr.Validation, fmt.Sprintf("rejection reason must have at least %d characters", MinReasonLength))
	ErrInvalidQuantity   = apperr.New(apperr.Validation, "requested quantity must be greater than zero")
	ErrInvalidPriority   = apperr.New(apperr.Validation, "priority must be one of urgent, high, medium, low")
	ErrWrongInsumo       = apperr.New(apperr.Validation, "purchase record belongs to a different insumo")
	ErrPurchaseCancelled = apperr.New(apperr.Conflict, "a cancelled purchase record cannot fulfil a request")
)

var transitions = map[models.UrgentStatus][]models.UrgentStatus{
	models.UrgentPending:  {models.UrgentApproved, models.UrgentRejected, models.UrgentFulfilled},
	models.UrgentApproved: {models.UrgentFulfilled},
}

func CanTransition(from, to models.UrgentStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsOpen reports whether the request still waits for a purchase.
func IsOpen(s models.UrgentStatus) bool {
	return s == models.UrgentPending || s == models.UrgentApproved
}

func move(r *models.UrgentPurchaseRequest, to models.UrgentStatus) error {
	if !CanTransition(r.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, to)
	}
	r.Status = to
	return nil
}

func markApproved(r *models.UrgentPurchaseRequest) error {
	return move(r, models.UrgentApproved)
}

func markRejected(r *models.UrgentPurchaseRequest, reason string) error {
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < MinReasonLength {
		return ErrReasonRequired
	}
	if err := move(r, models.UrgentRejected); err != nil {
		return err
	}
	r.RejectionReason = reason
	return nil
}

// markFulfilled links rec to r. rec must buy the same insumo and not be cancelled.
func markFulfilled(r *models.UrgentPurchaseRequest, rec *models.PurchaseRecord) error {
	if rec.InsumoID != r.InsumoID {
		return fmt.Errorf("%w: record %d is for insumo %d, request for %d", ErrWrongInsumo, rec.ID, rec.InsumoID, r.InsumoID)
	}
	if rec.Status == models.PurchaseCancelled {
		return ErrPurchaseCancelled
	}
	if err := move(r, models.UrgentFulfilled); err != nil {
		return err
	}
	id := rec.ID
	r.FulfilledPurchaseRecordID = &id
	return nil
}

// Insist folds a repeated request into the open one: the count goes up, and
// quantity and priority keep the larger of the two.
//
// The merge rule is provisional until the product owners settle how repeated
// requests should count; change it here and in Request together.
func Insist(r *models.UrgentPurchaseRequest, quantity decimal.Decimal, priority models.UrgentPriority) error {
	if !IsOpen(r.Status) {
		return fmt.Errorf("%w: request %d is %s", ErrInvalidTransition, r.ID, r.Status)
	}
	r.InsistenceCount++
	if quantity.GreaterThan(r.QuantityRequested) {
		r.QuantityRequested = quantity
	}
	if priority.Rank() > r.Priority.Rank() {
		r.Priority = priority
	}
	return nil
}

// ValidateNew checks the fields of a new request.
func ValidateNew(quantity decimal.Decimal, priority models.UrgentPriority) error {
	if !quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	if !stock.FitsScale(quantity) {
		return fmt.Errorf("%w: %s", stock.ErrTooPrecise, quantity)
	}
	if priority.Rank() == 0 {
		return ErrInvalidPriority
	}
	return nil
}
