// Package needs turns scheduled menus into per-insumo requirements. Purchase
// planning and daily prep both build on Aggregate, differing only in how
// lines are grouped.
package needs

import (
	"fmt"
	"sort"

	"catering-backend/internal/apperr"
	"catering-backend/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownInsumo     = apperr.New(apperr.Validation, "recipe references an unknown insumo")
	ErrInvalidConversion = apperr.New(apperr.Validation, "insumo conversion factor must be greater than zero")
)

// Line is one recipe ingredient of one plato served in one menu.
type Line struct {
	MenuID      uint
	MealService string
	InsumoID    uint
	Quantity    decimal.Decimal // base unit per serving
	Servings    decimal.Decimal
}

// Catalog indexes insumos by id.
type Catalog map[uint]models.Insumo

func NewCatalog(insumos []models.Insumo) Catalog {
	cat := make(Catalog, len(insumos))
	for _, in := range insumos {
		cat[in.ID] = in
	}
	return cat
}

// Key identifies an aggregation bucket. MealService is empty when lines are
// grouped by insumo only.
type Key struct {
	InsumoID    uint
	MealService string
}

type GroupBy func(Line) Key

var (
	ByInsumo GroupBy = func(l Line) Key {
		return Key{InsumoID: l.InsumoID}
	}
	ByInsumoAndService GroupBy = func(l Line) Key {
		return Key{InsumoID: l.InsumoID, MealService: l.MealService}
	}
)

type Need struct {
	InsumoID     uint   `json:"insumo_id"`
	InsumoName   string `json:"insumo_name"`
	MealService  string `json:"meal_service,omitempty"`
	BaseUnit     string `json:"base_unit"`
	PurchaseUnit string `json:"purchase_unit"`

	NeededBase    decimal.Decimal `json:"needed_base"`
	NeededRaw     decimal.Decimal `json:"needed_raw"`
	NeededRounded decimal.Decimal `json:"needed_rounded"`
	WasRounded    bool            `json:"was_rounded"`

	CurrentStock decimal.Decimal `json:"current_stock"`
	Missing      decimal.Decimal `json:"missing"`
	Sufficient   bool            `json:"sufficient"`

	MenuIDs []uint `json:"menu_ids"`
}

// Aggregate sums the lines per group and converts the totals to purchase
// units. The result is ordered by meal service, then insumo name.
func Aggregate(lines []Line, cat Catalog, group GroupBy) ([]Need, error) {
	byKey := make(map[Key]*Need)
	var order []Key

	for _, l := range lines {
		in, ok := cat[l.InsumoID]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownInsumo, l.InsumoID)
		}
		k := group(l)
		n, ok := byKey[k]
		if !ok {
			n = &Need{
				InsumoID:     in.ID,
				InsumoName:   in.Name,
				MealService:  k.MealService,
				BaseUnit:     in.BaseUnit,
				PurchaseUnit: in.PurchaseUnit,
				NeededBase:   decimal.Zero,
				CurrentStock: in.StockQuantity,
			}
			byKey[k] = n
			order = append(order, k)
		}
		n.NeededBase = n.NeededBase.Add(l.Quantity.Mul(l.Servings))
		n.MenuIDs = appendUnique(n.MenuIDs, l.MenuID)
	}

	out := make([]Need, 0, len(order))
	for _, k := range order {
		n := byKey[k]
		raw, err := ToPurchaseUnit(n.NeededBase, cat[n.InsumoID].ConversionFactor)
		if err != nil {
			return nil, fmt.Errorf("insumo %d (%s): %w", n.InsumoID, n.InsumoName, err)
		}
		n.NeededRaw = raw
		n.NeededRounded, n.WasRounded = CeilFlag(raw)
		n.Missing = maxZero(n.NeededRounded.Sub(n.CurrentStock))
		n.Sufficient = n.CurrentStock.GreaterThanOrEqual(n.NeededRounded)
		out = append(out, *n)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MealService != out[j].MealService {
			return out[i].MealService < out[j].MealService
		}
		return out[i].InsumoName < out[j].InsumoName
	})
	return out, nil
}

// ToPurchaseUnit converts a base-unit amount with the insumo's factor.
func ToPurchaseUnit(base, factor decimal.Decimal) (decimal.Decimal, error) {
	if !factor.IsPositive() {
		return decimal.Zero, ErrInvalidConversion
	}
	return base.Div(factor), nil
}

// CeilFlag rounds fractional values up and reports whether it did.
func CeilFlag(v decimal.Decimal) (decimal.Decimal, bool) {
	c := v.Ceil()
	return c, !c.Equal(v)
}

func maxZero(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

func appendUnique(ids []uint, id uint) []uint {
	for _, x := range ids {
		if x == id {
			return ids
		}
	}
	return append(ids, id)
}
