// Package dailyprep computes what the kitchen needs for a day's menus and
// deducts it from warehouse stock.
package dailyprep

import (
	"fmt"
	"strings"
	"time"

	"catering-backend/internal/apperr"
	"catering-backend/internal/httpx"
	"catering-backend/internal/models"
	"catering-backend/internal/needs"
	"catering-backend/internal/stock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrOperatorRequired = apperr.New(apperr.Validation, "operator name is required")
	ErrNothingSelected  = apperr.New(apperr.Validation, "select at least one item or all")
	ErrNotInPrep        = apperr.New(apperr.Validation, "item is not part of the day's prep")
	ErrInsufficient     = apperr.New(apperr.Conflict, "insufficient stock for the selected items, adjust the selection")
	ErrSufficient       = apperr.New(apperr.Conflict, "stock covers this item, no urgent request needed")
)

// Item selects one (insumo, meal service) row of the day's prep.
type Item struct {
	InsumoID    uint   `json:"insumo_id" validate:"required"`
	MealService string `json:"meal_service" validate:"required"`
}

type ServiceGroup struct {
	MealService string       `json:"meal_service"`
	Items       []needs.Need `json:"items"`
}

type DeductInput struct {
	Date     time.Time
	Operator string
	All      bool
	Items    []Item
}

type DeductResult struct {
	BatchRef  string                 `json:"batch_ref"`
	Movements []models.StockMovement `json:"movements"`
}

// Shortage is one insumo whose stock cannot cover the selection.
type Shortage struct {
	InsumoID   uint            `json:"insumo_id"`
	InsumoName string          `json:"insumo_name"`
	Needed     decimal.Decimal `json:"needed"`
	Stock      decimal.Decimal `json:"stock"`
	Missing    decimal.Decimal `json:"missing"`
}

// InsufficientError lists the shortages behind ErrInsufficient.
type InsufficientError struct {
	Shortages []Shortage
}

func (e *InsufficientError) Error() string {
	names := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		names = append(names, fmt.Sprintf("%s (missing %s)", s.InsumoName, s.Missing))
	}
	return ErrInsufficient.Error() + ": " + strings.Join(names, ", ")
}

func (e *InsufficientError) Unwrap() error { return ErrInsufficient }

// Compute aggregates the menus of date per insumo and meal service.
func Compute(db *gorm.DB, date time.Time) ([]needs.Need, error) {
	lines, err := needs.LoadLines(db, date, date)
	if err != nil {
		return nil, err
	}
	cat, err := needs.LoadCatalogFor(db, lines)
	if err != nil {
		return nil, err
	}
	return needs.Aggregate(lines, cat, needs.ByInsumoAndService)
}

// Group splits needs by meal service, keeping their order.
func Group(ns []needs.Need) []ServiceGroup {
	var groups []ServiceGroup
	idx := make(map[string]int)
	for _, n := range ns {
		i, ok := idx[n.MealService]
		if !ok {
			i = len(groups)
			idx[n.MealService] = i
			groups = append(groups, ServiceGroup{MealService: n.MealService})
		}
		groups[i].Items = append(groups[i].Items, n)
	}
	return groups
}

// Select picks the needs named by items, or all of them.
func Select(ns []needs.Need, all bool, items []Item) ([]needs.Need, error) {
	if all {
		return ns, nil
	}
	if len(items) == 0 {
		return nil, ErrNothingSelected
	}
	byKey := make(map[needs.Key]needs.Need, len(ns))
	for _, n := range ns {
		byKey[needs.Key{InsumoID: n.InsumoID, MealService: n.MealService}] = n
	}
	out := make([]needs.Need, 0, len(items))
	seen := make(map[needs.Key]bool, len(items))
	for _, it := range items {
		k := needs.Key{InsumoID: it.InsumoID, MealService: it.MealService}
		n, ok := byKey[k]
		if !ok {
			return nil, fmt.Errorf("%w: insumo %d, %s", ErrNotInPrep, it.InsumoID, it.MealService)
		}
		if !seen[k] {
			seen[k] = true
			out = append(out, n)
		}
	}
	return out, nil
}

// Shortages sums the selection per insumo and compares it to stock, so two
// meal services drawing on the same insumo are checked together.
func Shortages(selected []needs.Need, stockOf func(insumoID uint) decimal.Decimal) []Shortage {
	totals := make(map[uint]decimal.Decimal)
	names := make(map[uint]string)
	var order []uint
	for _, n := range selected {
		if _, ok := totals[n.InsumoID]; !ok {
			order = append(order, n.InsumoID)
			totals[n.InsumoID] = decimal.Zero
		}
		totals[n.InsumoID] = totals[n.InsumoID].Add(n.NeededRounded)
		names[n.InsumoID] = n.InsumoName
	}

	var out []Shortage
	for _, id := range order {
		st := stockOf(id)
		if st.LessThan(totals[id]) {
			out = append(out, Shortage{
				InsumoID:   id,
				InsumoName: names[id],
				Needed:     totals[id],
				Stock:      st,
				Missing:    totals[id].Sub(st),
			})
		}
	}
	return out
}

// Deduct takes the selected items out of stock in one transaction. Nothing
// is deducted if any selected insumo falls short.
func Deduct(db *gorm.DB, in DeductInput) (*DeductResult, error) {
	operator := strings.TrimSpace(in.Operator)
	if operator == "" {
		return nil, ErrOperatorRequired
	}
	if !in.All && len(in.Items) == 0 {
		return nil, ErrNothingSelected
	}

	result := &DeductResult{BatchRef: uuid.NewString()}
	err := db.Transaction(func(tx *gorm.DB) error {
		ns, err := Compute(tx, in.Date)
		if err != nil {
			return err
		}
		selected, err := Select(ns, in.All, in.Items)
		if err != nil {
			return err
		}

		insumos := make(map[uint]*models.Insumo)
		for _, n := range selected {
			if _, ok := insumos[n.InsumoID]; ok {
				continue
			}
			ins, err := stock.LoadInsumo(tx, n.InsumoID)
			if err != nil {
				return err
			}
			insumos[n.InsumoID] = ins
		}

		entries, err := planDeduction(selected, func(id uint) decimal.Decimal {
			return insumos[id].StockQuantity
		}, in.Date.Format(httpx.DateLayout), operator, result.BatchRef)
		if err != nil {
			return err
		}
		for _, pe := range entries {
			mv, err := stock.Apply(tx, insumos[pe.InsumoID], pe.Entry)
			if err != nil {
				return err
			}
			result.Movements = append(result.Movements, *mv)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type prepEntry struct {
	InsumoID uint
	Entry    stock.Entry
}

// planDeduction turns the selection into one daily_prep_out entry per
// positive item, or refuses the whole selection with an InsufficientError.
func planDeduction(selected []needs.Need, stockOf func(insumoID uint) decimal.Decimal, day, operator, batchRef string) ([]prepEntry, error) {
	if short := Shortages(selected, stockOf); len(short) > 0 {
		return nil, &InsufficientError{Shortages: short}
	}
	entries := make([]prepEntry, 0, len(selected))
	for _, n := range selected {
		if !n.NeededRounded.IsPositive() {
			continue
		}
		var menuID *uint
		if len(n.MenuIDs) == 1 {
			id := n.MenuIDs[0]
			menuID = &id
		}
		entries = append(entries, prepEntry{
			InsumoID: n.InsumoID,
			Entry: stock.Entry{
				Type:      models.MovementDailyPrepOut,
				Delta:     stock.Delta{Stock: n.NeededRounded.Neg()},
				Quantity:  n.NeededRounded.Neg(),
				Note:      fmt.Sprintf("Daily prep %s %s, by %s", day, n.MealService, operator),
				MenuID:    menuID,
				BatchRef:  batchRef,
				CreatedBy: operator,
			},
		})
	}
	return entries, nil
}

// Shortfall returns the missing quantity of one prep item, failing with
// ErrSufficient when stock covers it.
func Shortfall(db *gorm.DB, date time.Time, item Item) (needs.Need, error) {
	ns, err := Compute(db, date)
	if err != nil {
		return needs.Need{}, err
	}
	sel, err := Select(ns, false, []Item{item})
	if err != nil {
		return needs.Need{}, err
	}
	if !sel[0].Missing.IsPositive() {
		return needs.Need{}, ErrSufficient
	}
	return sel[0], nil
}
