package stock

import (
	"fmt"

	"catering-backend/internal/apperr"
	"catering-backend/internal/models"

	"github.com/shopspring/decimal"
)

var (
	// ErrNegativeCounter: the change would leave a counter below zero.
	ErrNegativeCounter = apperr.New(apperr.Conflict, "insumo counter would become negative")
	// ErrConflict: the insumo row changed since it was read.
	ErrConflict = apperr.New(apperr.Conflict, "insumo was modified concurrently, reload and retry")
	// ErrTooPrecise: the amount has more decimals than the columns store.
	ErrTooPrecise = apperr.New(apperr.Validation, fmt.Sprintf("quantities and costs allow at most %d decimal places", Scale))
)

// Scale is the number of decimals kept by every quantity and cost column.
const Scale = 4

// FitsScale reports whether v is stored without rounding.
func FitsScale(v decimal.Decimal) bool {
	return v.Equal(v.Truncate(Scale))
}

// Delta is a signed change to an insumo's three quantity counters.
type Delta struct {
	PendingDelivery  decimal.Decimal `json:"pending_delivery"`
	PendingReception decimal.Decimal `json:"pending_reception"`
	Stock            decimal.Decimal `json:"stock"`
}

func (d Delta) Add(o Delta) Delta {
	return Delta{
		PendingDelivery:  d.PendingDelivery.Add(o.PendingDelivery),
		PendingReception: d.PendingReception.Add(o.PendingReception),
		Stock:            d.Stock.Add(o.Stock),
	}
}

func (d Delta) Neg() Delta {
	return Delta{
		PendingDelivery:  d.PendingDelivery.Neg(),
		PendingReception: d.PendingReception.Neg(),
		Stock:            d.Stock.Neg(),
	}
}

func (d Delta) IsZero() bool {
	return d.PendingDelivery.IsZero() && d.PendingReception.IsZero() && d.Stock.IsZero()
}

// Counters is a snapshot of an insumo's quantity counters.
type Counters struct {
	PendingDelivery  decimal.Decimal
	PendingReception decimal.Decimal
	Stock            decimal.Decimal
}

func CountersOf(in *models.Insumo) Counters {
	return Counters{
		PendingDelivery:  in.PendingDeliveryQuantity,
		PendingReception: in.PendingReceptionQuantity,
		Stock:            in.StockQuantity,
	}
}

// ApplyTo returns the counters after d, or ErrNegativeCounter naming the
// first counter that would drop below zero.
func (d Delta) ApplyTo(c Counters) (Counters, error) {
	next := Counters{
		PendingDelivery:  c.PendingDelivery.Add(d.PendingDelivery),
		PendingReception: c.PendingReception.Add(d.PendingReception),
		Stock:            c.Stock.Add(d.Stock),
	}
	switch {
	case next.PendingDelivery.IsNegative():
		return c, fmt.Errorf("%w: pending_delivery %s + (%s)", ErrNegativeCounter, c.PendingDelivery, d.PendingDelivery)
	case next.PendingReception.IsNegative():
		return c, fmt.Errorf("%w: pending_reception %s + (%s)", ErrNegativeCounter, c.PendingReception, d.PendingReception)
	case next.Stock.IsNegative():
		return c, fmt.Errorf("%w: stock %s + (%s)", ErrNegativeCounter, c.Stock, d.Stock)
	}
	return next, nil
}
