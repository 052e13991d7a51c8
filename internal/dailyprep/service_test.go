package dailyprep

import (
	"errors"
	"testing"
	"time"

	"catering-backend/internal/models"
	"catering-backend/internal/needs"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func prep() []needs.Need {
	return []needs.Need{
		{InsumoID: 1, InsumoName: "Harina", MealService: "almuerzo", NeededRounded: dec("6")},
		{InsumoID: 2, InsumoName: "Aceite", MealService: "almuerzo", NeededRounded: dec("2")},
		{InsumoID: 1, InsumoName: "Harina", MealService: "cena", NeededRounded: dec("4")},
	}
}

func TestGroup(t *testing.T) {
	groups := Group(prep())
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].MealService != "almuerzo" || len(groups[0].Items) != 2 {
		t.Errorf("first group = %+v", groups[0])
	}
	if groups[1].MealService != "cena" || len(groups[1].Items) != 1 {
		t.Errorf("second group = %+v", groups[1])
	}
}

func TestSelect(t *testing.T) {
	all, err := Select(prep(), true, nil)
	if err != nil || len(all) != 3 {
		t.Fatalf("select all = %d items, %v", len(all), err)
	}

	some, err := Select(prep(), false, []Item{{InsumoID: 1, MealService: "cena"}, {InsumoID: 1, MealService: "cena"}})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(some) != 1 || !some[0].NeededRounded.Equal(dec("4")) {
		t.Errorf("selected = %+v", some)
	}

	if _, err := Select(prep(), false, nil); !errors.Is(err, ErrNothingSelected) {
		t.Errorf("empty selection: err = %v", err)
	}
	if _, err := Select(prep(), false, []Item{{InsumoID: 2, MealService: "cena"}}); !errors.Is(err, ErrNotInPrep) {
		t.Errorf("unknown item: err = %v", err)
	}
}

func TestShortagesAreCumulativePerInsumo(t *testing.T) {
	stocks := map[uint]decimal.Decimal{1: dec("8"), 2: dec("5")}
	stockOf := func(id uint) decimal.Decimal { return stocks[id] }

	// Each harina row alone fits in 8, together they need 10.
	short := Shortages(prep(), stockOf)
	if len(short) != 1 {
		t.Fatalf("shortages = %+v", short)
	}
	if short[0].InsumoID != 1 || !short[0].Needed.Equal(dec("10")) || !short[0].Missing.Equal(dec("2")) {
		t.Errorf("shortage = %+v", short[0])
	}

	lunch, _ := Select(prep(), false, []Item{{InsumoID: 1, MealService: "almuerzo"}, {InsumoID: 2, MealService: "almuerzo"}})
	if s := Shortages(lunch, stockOf); len(s) != 0 {
		t.Errorf("lunch alone should fit, got %+v", s)
	}
}

func TestPlanDeductionAllOrNothing(t *testing.T) {
	selected, err := Select(prep(), true, nil)
	if err != nil {
		t.Fatalf("select all: %v", err)
	}

	t.Run("one service short refuses everything", func(t *testing.T) {
		// Harina covers the lunch row but not lunch plus dinner.
		stocks := map[uint]decimal.Decimal{1: dec("7"), 2: dec("5")}
		entries, err := planDeduction(selected, func(id uint) decimal.Decimal { return stocks[id] }, "2026-03-01", "Ana", "batch-1")
		var insufficient *InsufficientError
		if !errors.As(err, &insufficient) {
			t.Fatalf("err = %v, want InsufficientError", err)
		}
		if len(entries) != 0 {
			t.Errorf("entries on refusal = %+v", entries)
		}
		if len(insufficient.Shortages) != 1 || insufficient.Shortages[0].InsumoID != 1 || !insufficient.Shortages[0].Missing.Equal(dec("3")) {
			t.Errorf("shortages = %+v", insufficient.Shortages)
		}
	})

	t.Run("enough stock yields one out entry per item", func(t *testing.T) {
		ns := append(prep(), needs.Need{InsumoID: 3, InsumoName: "Sal", MealService: "cena", NeededRounded: decimal.Zero})
		ns[1].MenuIDs = []uint{9}
		stocks := map[uint]decimal.Decimal{1: dec("10"), 2: dec("2"), 3: decimal.Zero}
		entries, err := planDeduction(ns, func(id uint) decimal.Decimal { return stocks[id] }, "2026-03-01", "Ana", "batch-1")
		if err != nil {
			t.Fatalf("plan: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("got %d entries, want 3 (zero need skipped)", len(entries))
		}
		wantIDs := []uint{1, 2, 1}
		wantQty := []string{"-6", "-2", "-4"}
		for i, pe := range entries {
			if pe.InsumoID != wantIDs[i] {
				t.Errorf("entry %d insumo = %d, want %d", i, pe.InsumoID, wantIDs[i])
			}
			e := pe.Entry
			if e.Type != models.MovementDailyPrepOut || e.BatchRef != "batch-1" || e.CreatedBy != "Ana" {
				t.Errorf("entry %d = %+v", i, e)
			}
			if !e.Quantity.Equal(dec(wantQty[i])) || !e.Delta.Stock.Equal(dec(wantQty[i])) {
				t.Errorf("entry %d quantity = %s, delta = %s, want %s", i, e.Quantity, e.Delta.Stock, wantQty[i])
			}
		}
		if entries[1].Entry.MenuID == nil || *entries[1].Entry.MenuID != 9 {
			t.Errorf("single-menu item should carry its menu id")
		}
		if entries[0].Entry.MenuID != nil {
			t.Errorf("item without a single menu should not carry one")
		}
	})
}

func TestInsufficientErrorUnwraps(t *testing.T) {
	err := error(&InsufficientError{Shortages: []Shortage{{InsumoName: "Harina", Missing: dec("2")}}})
	if !errors.Is(err, ErrInsufficient) {
		t.Errorf("errors.Is(ErrInsufficient) = false")
	}
	if err.Error() == ErrInsufficient.Error() {
		t.Errorf("message should name the insumo: %q", err.Error())
	}
}

// Validation failures return before the database is used.
func TestDeductValidatesInput(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if _, err := Deduct(nil, DeductInput{Date: day, Operator: "   ", All: true}); !errors.Is(err, ErrOperatorRequired) {
		t.Errorf("blank operator: err = %v", err)
	}
	if _, err := Deduct(nil, DeductInput{Date: day, Operator: "Ana"}); !errors.Is(err, ErrNothingSelected) {
		t.Errorf("no selection: err = %v", err)
	}
}
