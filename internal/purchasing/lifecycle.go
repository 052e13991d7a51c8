package purchasing

import (
	"errors"
	"fmt"

	"catering-backend/internal/apperr"
	"catering-backend/internal/models"
	"catering-backend/internal/stock"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity    = apperr.New(apperr.Validation, "quantity must be greater than zero")
	ErrExceedsOutstanding = apperr.New(apperr.Validation, "quantity exceeds the outstanding quantity")
	ErrInvalidTransition  = apperr.New(apperr.Conflict, "invalid purchase status transition")
	ErrCorruptRecord      = errors.New("purchase record quantities are inconsistent")
)

// Stage is where a purchase record currently is. Each stage knows how much of
// the purchased quantity it holds in each insumo counter, so every transition
// is the difference between two stages and a cancellation reverts exactly
// what is still held.
type Stage interface {
	Status() models.PurchaseStatus
	held(purchased decimal.Decimal) stock.Delta
}

// Ordered: waiting for the supplier; Received is what the company got so far.
type Ordered struct {
	Received decimal.Decimal
}

// ReceivedByCompany: fully received by the company; Stocked is what has
// already been moved into warehouse stock.
type ReceivedByCompany struct {
	Stocked decimal.Decimal
}

type ReceivedByWarehouse struct{}

// Cancelled keeps the stage it was cancelled from and what was reverted.
type Cancelled struct {
	From     models.PurchaseStatus
	Reverted stock.Delta
}

func (Ordered) Status() models.PurchaseStatus             { return models.PurchaseOrdered }
func (ReceivedByCompany) Status() models.PurchaseStatus   { return models.PurchaseReceivedByCompany }
func (ReceivedByWarehouse) Status() models.PurchaseStatus { return models.PurchaseReceivedByWarehouse }
func (Cancelled) Status() models.PurchaseStatus           { return models.PurchaseCancelled }

func (s Ordered) held(q decimal.Decimal) stock.Delta {
	return stock.Delta{PendingDelivery: q.Sub(s.Received), PendingReception: s.Received}
}

func (s ReceivedByCompany) held(q decimal.Decimal) stock.Delta {
	return stock.Delta{PendingReception: q.Sub(s.Stocked), Stock: s.Stocked}
}

func (ReceivedByWarehouse) held(q decimal.Decimal) stock.Delta {
	return stock.Delta{Stock: q}
}

func (Cancelled) held(decimal.Decimal) stock.Delta {
	return stock.Delta{}
}

// Lifecycle is the purchased quantity plus the current stage.
type Lifecycle struct {
	Purchased decimal.Decimal
	Stage     Stage
}

// Transition is the outcome of a reception or cancellation.
type Transition struct {
	From     models.PurchaseStatus
	To       models.PurchaseStatus
	Delta    stock.Delta
	Quantity decimal.Decimal
	Movement models.MovementType
}

// Open starts a lifecycle at the given status. A purchase may be registered
// directly as received by the company or by the warehouse, skipping the
// earlier stages and their counters.
func Open(status models.PurchaseStatus, quantity decimal.Decimal) (Lifecycle, Transition, error) {
	if !quantity.IsPositive() {
		return Lifecycle{}, Transition{}, ErrInvalidQuantity
	}
	if !stock.FitsScale(quantity) {
		return Lifecycle{}, Transition{}, fmt.Errorf("%w: %s", stock.ErrTooPrecise, quantity)
	}

	var st Stage
	var mv models.MovementType
	switch status {
	case models.PurchaseOrdered:
		st, mv = Ordered{Received: decimal.Zero}, models.MovementOrderPlaced
	case models.PurchaseReceivedByCompany:
		st, mv = ReceivedByCompany{Stocked: decimal.Zero}, models.MovementReceptionIn
	case models.PurchaseReceivedByWarehouse:
		st, mv = ReceivedByWarehouse{}, models.MovementPurchaseIn
	default:
		return Lifecycle{}, Transition{}, fmt.Errorf("%w: cannot create a record as %q", ErrInvalidTransition, status)
	}

	lc := Lifecycle{Purchased: quantity, Stage: st}
	return lc, Transition{
		To:       st.Status(),
		Delta:    st.held(quantity),
		Quantity: quantity,
		Movement: mv,
	}, nil
}

// Outstanding is what can still be received towards the next stage.
func (l Lifecycle) Outstanding() decimal.Decimal {
	switch s := l.Stage.(type) {
	case Ordered:
		return l.Purchased.Sub(s.Received)
	case ReceivedByCompany:
		return l.Purchased.Sub(s.Stocked)
	}
	return decimal.Zero
}

// NextStatus is the status a reception moves towards, empty for terminal stages.
func (l Lifecycle) NextStatus() models.PurchaseStatus {
	switch l.Stage.(type) {
	case Ordered:
		return models.PurchaseReceivedByCompany
	case ReceivedByCompany:
		return models.PurchaseReceivedByWarehouse
	}
	return ""
}

// Receive books q units towards target, which must be the next stage. The
// status only advances once the cumulative quantity reaches Purchased.
func (l Lifecycle) Receive(target models.PurchaseStatus, q decimal.Decimal) (Lifecycle, Transition, error) {
	next := l.NextStatus()
	if next == "" || target != next {
		return l, Transition{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.Stage.Status(), target)
	}
	if !q.IsPositive() {
		return l, Transition{}, ErrInvalidQuantity
	}
	if !stock.FitsScale(q) {
		return l, Transition{}, fmt.Errorf("%w: %s", stock.ErrTooPrecise, q)
	}
	outstanding := l.Outstanding()
	if q.GreaterThan(outstanding) {
		return l, Transition{}, fmt.Errorf("%w: %s > %s", ErrExceedsOutstanding, q, outstanding)
	}

	var st Stage
	var mv models.MovementType
	switch s := l.Stage.(type) {
	case Ordered:
		mv = models.MovementReceptionIn
		received := s.Received.Add(q)
		if received.Equal(l.Purchased) {
			st = ReceivedByCompany{Stocked: decimal.Zero}
		} else {
			st = Ordered{Received: received}
		}
	case ReceivedByCompany:
		mv = models.MovementPurchaseIn
		stocked := s.Stocked.Add(q)
		if stocked.Equal(l.Purchased) {
			st = ReceivedByWarehouse{}
		} else {
			st = ReceivedByCompany{Stocked: stocked}
		}
	}

	out := Lifecycle{Purchased: l.Purchased, Stage: st}
	return out, Transition{
		From:     l.Stage.Status(),
		To:       st.Status(),
		Delta:    st.held(l.Purchased).Add(l.Stage.held(l.Purchased).Neg()),
		Quantity: q,
		Movement: mv,
	}, nil
}

// Cancel reverts everything the record still holds in the insumo counters.
// Only ordered and received_by_company records can be cancelled.
func (l Lifecycle) Cancel() (Lifecycle, Transition, error) {
	switch l.Stage.(type) {
	case Ordered, ReceivedByCompany:
	default:
		return l, Transition{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.Stage.Status(), models.PurchaseCancelled)
	}

	held := l.Stage.held(l.Purchased)
	out := Lifecycle{Purchased: l.Purchased, Stage: Cancelled{From: l.Stage.Status(), Reverted: held}}
	return out, Transition{
		From:     l.Stage.Status(),
		To:       models.PurchaseCancelled,
		Delta:    held.Neg(),
		Quantity: held.PendingDelivery.Add(held.PendingReception).Add(held.Stock),
		Movement: models.MovementPurchaseCancel,
	}, nil
}

// FromRecord rebuilds the lifecycle of a persisted record.
func FromRecord(r *models.PurchaseRecord) (Lifecycle, error) {
	q := r.QuantityPurchased
	if !q.IsPositive() ||
		r.QuantityReceived.IsNegative() || r.QuantityReceived.GreaterThan(q) ||
		r.QuantityStocked.IsNegative() || r.QuantityStocked.GreaterThan(r.QuantityReceived) {
		return Lifecycle{}, fmt.Errorf("%w: record %d", ErrCorruptRecord, r.ID)
	}

	var st Stage
	switch r.Status {
	case models.PurchaseOrdered:
		st = Ordered{Received: r.QuantityReceived}
	case models.PurchaseReceivedByCompany:
		st = ReceivedByCompany{Stocked: r.QuantityStocked}
	case models.PurchaseReceivedByWarehouse:
		st = ReceivedByWarehouse{}
	case models.PurchaseCancelled:
		st = Cancelled{From: r.CancelledFrom, Reverted: stock.Delta{
			PendingDelivery:  r.RevertedPendingDelivery,
			PendingReception: r.RevertedPendingReception,
			Stock:            r.RevertedStock,
		}}
	default:
		return Lifecycle{}, fmt.Errorf("%w: unknown status %q", ErrCorruptRecord, r.Status)
	}
	return Lifecycle{Purchased: q, Stage: st}, nil
}

// WriteTo copies the lifecycle state onto r. Received and stocked quantities
// of a cancelled record are left as they were for the history.
func (l Lifecycle) WriteTo(r *models.PurchaseRecord) {
	r.QuantityPurchased = l.Purchased
	r.Status = l.Stage.Status()
	switch s := l.Stage.(type) {
	case Ordered:
		r.QuantityReceived = s.Received
		r.QuantityStocked = decimal.Zero
	case ReceivedByCompany:
		r.QuantityReceived = l.Purchased
		r.QuantityStocked = s.Stocked
	case ReceivedByWarehouse:
		r.QuantityReceived = l.Purchased
		r.QuantityStocked = l.Purchased
	case Cancelled:
		r.CancelledFrom = s.From
		r.RevertedPendingDelivery = s.Reverted.PendingDelivery
		r.RevertedPendingReception = s.Reverted.PendingReception
		r.RevertedStock = s.Reverted.Stock
	}
}
