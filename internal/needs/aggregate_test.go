package needs

import (
	"errors"
	"testing"

	"catering-backend/internal/models"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func flour(stock string) models.Insumo {
	return models.Insumo{
		ID:               1,
		Name:             "Harina",
		BaseUnit:         "g",
		PurchaseUnit:     "kg",
		ConversionFactor: dec("1000"),
		StockQuantity:    dec(stock),
		UnitCost:         dec("1.5"),
	}
}

func TestAggregateConvertsToPurchaseUnit(t *testing.T) {
	tests := []struct {
		name        string
		perServing  string
		wantRaw     string
		wantRounded string
		wantFlag    bool
	}{
		{"exact", "250", "10", "10", false},
		{"fractional", "255", "10.2", "11", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := []Line{{MenuID: 1, MealService: "almuerzo", InsumoID: 1, Quantity: dec(tt.perServing), Servings: dec("40")}}
			got, err := Aggregate(lines, NewCatalog([]models.Insumo{flour("0")}), ByInsumo)
			if err != nil {
				t.Fatalf("Aggregate: %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("got %d needs, want 1", len(got))
			}
			n := got[0]
			if !n.NeededRaw.Equal(dec(tt.wantRaw)) || !n.NeededRounded.Equal(dec(tt.wantRounded)) || n.WasRounded != tt.wantFlag {
				t.Errorf("raw=%s rounded=%s flag=%v, want %s %s %v",
					n.NeededRaw, n.NeededRounded, n.WasRounded, tt.wantRaw, tt.wantRounded, tt.wantFlag)
			}
		})
	}
}

func TestAggregateGrouping(t *testing.T) {
	cat := NewCatalog([]models.Insumo{
		flour("12"),
		{ID: 2, Name: "Aceite", BaseUnit: "ml", PurchaseUnit: "lt", ConversionFactor: dec("1000"), StockQuantity: dec("1")},
	})
	lines := []Line{
		{MenuID: 1, MealService: "almuerzo", InsumoID: 1, Quantity: dec("200"), Servings: dec("30")},
		{MenuID: 1, MealService: "cena", InsumoID: 1, Quantity: dec("100"), Servings: dec("40")},
		{MenuID: 2, MealService: "almuerzo", InsumoID: 2, Quantity: dec("50"), Servings: dec("30")},
	}

	byInsumo, err := Aggregate(lines, cat, ByInsumo)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(byInsumo) != 2 {
		t.Fatalf("got %d needs, want 2", len(byInsumo))
	}
	// sorted by name: Aceite, Harina
	if byInsumo[1].InsumoID != 1 || !byInsumo[1].NeededRounded.Equal(dec("10")) || !byInsumo[1].Sufficient {
		t.Errorf("flour need = %+v", byInsumo[1])
	}
	if byInsumo[0].Sufficient || !byInsumo[0].Missing.Equal(dec("1")) {
		t.Errorf("oil: 1.5 lt rounds to 2 against 1 in stock, got %+v", byInsumo[0])
	}

	byService, err := Aggregate(lines, cat, ByInsumoAndService)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(byService) != 3 {
		t.Fatalf("got %d needs, want 3", len(byService))
	}
	if byService[2].MealService != "cena" || !byService[2].NeededRounded.Equal(dec("4")) {
		t.Errorf("last group = %+v", byService[2])
	}
}

func TestAggregateCollectsMenus(t *testing.T) {
	lines := []Line{
		{MenuID: 3, InsumoID: 1, Quantity: dec("1"), Servings: dec("1")},
		{MenuID: 3, InsumoID: 1, Quantity: dec("1"), Servings: dec("1")},
		{MenuID: 4, InsumoID: 1, Quantity: dec("1"), Servings: dec("1")},
	}
	got, err := Aggregate(lines, NewCatalog([]models.Insumo{flour("0")}), ByInsumo)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(got[0].MenuIDs) != 2 {
		t.Errorf("menu ids = %v, want [3 4]", got[0].MenuIDs)
	}
}

func TestAggregateErrors(t *testing.T) {
	lines := []Line{{InsumoID: 9, Quantity: dec("1"), Servings: dec("1")}}
	if _, err := Aggregate(lines, Catalog{}, ByInsumo); !errors.Is(err, ErrUnknownInsumo) {
		t.Errorf("err = %v, want ErrUnknownInsumo", err)
	}

	bad := flour("0")
	bad.ConversionFactor = decimal.Zero
	lines[0].InsumoID = 1
	if _, err := Aggregate(lines, NewCatalog([]models.Insumo{bad}), ByInsumo); !errors.Is(err, ErrInvalidConversion) {
		t.Errorf("err = %v, want ErrInvalidConversion", err)
	}
}

func TestAggregateEmpty(t *testing.T) {
	got, err := Aggregate(nil, Catalog{}, ByInsumoAndService)
	if err != nil || len(got) != 0 {
		t.Errorf("Aggregate(nil) = %v, %v", got, err)
	}
}
