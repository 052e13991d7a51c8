package needs

import (
	"testing"

	"catering-backend/internal/models"

	"github.com/shopspring/decimal"
)

func TestSuggest(t *testing.T) {
	tests := []struct {
		name        string
		needed      string
		stock       string
		min         string
		wantRaw     string
		wantRounded string
		wantReason  Reason
	}{
		{"covered", "10", "12", "2", "0", "0", ReasonNone},
		{"demand only", "10", "4", "2", "6", "6", ReasonMenuDemand},
		{"below minimum only", "0", "1", "3", "2", "2", ReasonMinStock},
		{"both", "10", "1", "3", "12", "12", ReasonBoth},
		{"zero stock", "10", "0", "3", "13", "13", ReasonZeroStock},
		{"zero stock idle", "0", "0", "0", "0", "0", ReasonZeroStock},
		{"fractional stock", "10", "2.5", "0", "7.5", "8", ReasonMenuDemand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := flour(tt.stock)
			in.MinStockLevel = dec(tt.min)
			s := Suggest(Need{InsumoID: 1, NeededRounded: dec(tt.needed)}, in)
			if !s.SuggestionRaw.Equal(dec(tt.wantRaw)) || !s.SuggestionRounded.Equal(dec(tt.wantRounded)) {
				t.Errorf("suggestion = %s / %s, want %s / %s", s.SuggestionRaw, s.SuggestionRounded, tt.wantRaw, tt.wantRounded)
			}
			if s.Reason != tt.wantReason {
				t.Errorf("reason = %s, want %s", s.Reason, tt.wantReason)
			}
			if !s.EstimatedCost.Equal(s.SuggestionRounded.Mul(in.UnitCost)) {
				t.Errorf("estimated cost = %s", s.EstimatedCost)
			}
		})
	}
}

// The suggestion never falls short of the demand gap and is zero when stock
// covers both demand and minimum.
func TestSuggestBounds(t *testing.T) {
	values := []string{"0", "0.5", "1", "3", "7.25", "10"}
	for _, needed := range values {
		for _, stock := range values {
			for _, min := range values {
				in := flour(stock)
				in.MinStockLevel = dec(min)
				n := Need{NeededRounded: dec(needed)}
				s := Suggest(n, in)

				gap := n.NeededRounded.Sub(in.StockQuantity)
				if s.SuggestionRaw.LessThan(gap) {
					t.Errorf("needed=%s stock=%s min=%s: suggestion %s below gap %s", needed, stock, min, s.SuggestionRaw, gap)
				}
				covered := in.StockQuantity.GreaterThanOrEqual(n.NeededRounded) && in.StockQuantity.GreaterThanOrEqual(in.MinStockLevel)
				if covered && !s.SuggestionRaw.IsZero() {
					t.Errorf("needed=%s stock=%s min=%s: expected zero, got %s", needed, stock, min, s.SuggestionRaw)
				}
				if s.SuggestionRaw.IsNegative() {
					t.Errorf("negative suggestion %s", s.SuggestionRaw)
				}
			}
		}
	}
}

func TestPlan(t *testing.T) {
	cat := NewCatalog([]models.Insumo{
		{ID: 1, Name: "Harina", ConversionFactor: dec("1000"), StockQuantity: dec("4")},
		{ID: 2, Name: "Sal", ConversionFactor: dec("1000"), StockQuantity: dec("1"), MinStockLevel: dec("2")},
		{ID: 3, Name: "Azucar", ConversionFactor: dec("1000"), StockQuantity: decimal.Zero},
		{ID: 4, Name: "Arroz", ConversionFactor: dec("1000"), StockQuantity: dec("9"), MinStockLevel: dec("2")},
	})
	needs := []Need{{InsumoID: 1, InsumoName: "Harina", NeededRounded: dec("10")}}

	all := Plan(needs, cat, "")
	if len(all) != 3 {
		t.Fatalf("got %d suggestions, want 3 (arroz is covered and not demanded)", len(all))
	}
	wantOrder := []models.Insumo{cat[3], cat[1], cat[2]}
	for i, in := range wantOrder {
		if all[i].InsumoID != in.ID {
			t.Errorf("position %d = %s, want %s", i, all[i].InsumoName, in.Name)
		}
	}
	if all[2].Reason != ReasonMinStock || !all[2].SuggestionRounded.Equal(dec("1")) {
		t.Errorf("sal = %+v", all[2])
	}

	onlyDemand := Plan(needs, cat, ReasonMenuDemand)
	if len(onlyDemand) != 1 || onlyDemand[0].InsumoID != 1 {
		t.Errorf("filtered plan = %+v", onlyDemand)
	}
}
