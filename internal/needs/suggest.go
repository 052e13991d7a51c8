package needs

import (
	"sort"

	"catering-backend/internal/models"

	"github.com/shopspring/decimal"
)

type Reason string

const (
	ReasonZeroStock  Reason = "zero_stock_alert"
	ReasonBoth       Reason = "both"
	ReasonMenuDemand Reason = "menu_demand"
	ReasonMinStock   Reason = "min_stock_level"
	ReasonNone       Reason = "none"
)

func (r Reason) IsValid() bool {
	switch r {
	case ReasonZeroStock, ReasonBoth, ReasonMenuDemand, ReasonMinStock, ReasonNone:
		return true
	}
	return false
}

func (r Reason) rank() int {
	switch r {
	case ReasonZeroStock:
		return 0
	case ReasonBoth:
		return 1
	case ReasonMenuDemand:
		return 2
	case ReasonMinStock:
		return 3
	}
	return 4
}

type Suggestion struct {
	Need

	MinStockLevel            decimal.Decimal `json:"min_stock_level"`
	PendingDeliveryQuantity  decimal.Decimal `json:"pending_delivery_quantity"`
	PendingReceptionQuantity decimal.Decimal `json:"pending_reception_quantity"`

	SuggestionRaw        decimal.Decimal `json:"purchase_suggestion_raw"`
	SuggestionRounded    decimal.Decimal `json:"purchase_suggestion_rounded"`
	SuggestionWasRounded bool            `json:"purchase_suggestion_was_rounded"`
	Reason               Reason          `json:"reason_for_purchase_suggestion"`

	UnitCost      decimal.Decimal `json:"unit_cost"`
	EstimatedCost decimal.Decimal `json:"estimated_purchase_cost"`
	SupplierName  string          `json:"supplier_name"`
}

// Suggest computes how much of in to buy for need n.
//
// Without a minimum shortfall the suggestion covers the demand not met by
// stock. Below the minimum it covers the demand and still leaves the minimum
// in stock afterwards.
func Suggest(n Need, in models.Insumo) Suggestion {
	stock := in.StockQuantity
	demandGap := maxZero(n.NeededRounded.Sub(stock))
	belowMin := stock.LessThan(in.MinStockLevel)

	raw := demandGap
	if belowMin {
		raw = n.NeededRounded.Add(in.MinStockLevel).Sub(stock)
	}
	rounded, wasRounded := CeilFlag(raw)

	var reason Reason
	switch {
	case stock.IsZero():
		reason = ReasonZeroStock
	case demandGap.IsPositive() && belowMin:
		reason = ReasonBoth
	case demandGap.IsPositive():
		reason = ReasonMenuDemand
	case belowMin:
		reason = ReasonMinStock
	default:
		reason = ReasonNone
	}

	n.CurrentStock = stock
	return Suggestion{
		Need:                     n,
		MinStockLevel:            in.MinStockLevel,
		PendingDeliveryQuantity:  in.PendingDeliveryQuantity,
		PendingReceptionQuantity: in.PendingReceptionQuantity,
		SuggestionRaw:            raw,
		SuggestionRounded:        rounded,
		SuggestionWasRounded:     wasRounded,
		Reason:                   reason,
		UnitCost:                 in.UnitCost,
		EstimatedCost:            rounded.Mul(in.UnitCost),
		SupplierName:             in.SupplierName,
	}
}

// Plan suggests purchases for the aggregated needs plus every catalog insumo
// without menu demand that is below its minimum or out of stock. An empty
// filter keeps every reason.
func Plan(needs []Need, cat Catalog, filter Reason) []Suggestion {
	demanded := make(map[uint]bool, len(needs))
	out := make([]Suggestion, 0, len(needs))

	for _, n := range needs {
		demanded[n.InsumoID] = true
		s := Suggest(n, cat[n.InsumoID])
		if filter == "" || s.Reason == filter {
			out = append(out, s)
		}
	}

	for id, in := range cat {
		if demanded[id] {
			continue
		}
		if !in.StockQuantity.IsZero() && !in.StockQuantity.LessThan(in.MinStockLevel) {
			continue
		}
		s := Suggest(idleNeed(in), in)
		if filter == "" || s.Reason == filter {
			out = append(out, s)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Reason.rank(), out[j].Reason.rank()
		if ri != rj {
			return ri < rj
		}
		if out[i].InsumoName != out[j].InsumoName {
			return out[i].InsumoName < out[j].InsumoName
		}
		return out[i].InsumoID < out[j].InsumoID
	})
	return out
}

func idleNeed(in models.Insumo) Need {
	return Need{
		InsumoID:      in.ID,
		InsumoName:    in.Name,
		BaseUnit:      in.BaseUnit,
		PurchaseUnit:  in.PurchaseUnit,
		NeededBase:    decimal.Zero,
		NeededRaw:     decimal.Zero,
		NeededRounded: decimal.Zero,
		CurrentStock:  in.StockQuantity,
		Missing:       decimal.Zero,
		Sufficient:    true,
		MenuIDs:       []uint{},
	}
}
