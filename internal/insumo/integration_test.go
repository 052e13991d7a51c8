package insumo

import (
	"errors"
	"testing"

	"catering-backend/internal/dbtest"
	"catering-backend/internal/models"
	"catering-backend/internal/stock"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestCountAndWasteAgainstPostgres(t *testing.T) {
	db := dbtest.Tx(t)

	in, err := Create(db, Fields{
		Name:             "Aceite " + uuid.NewString(),
		BaseUnit:         "ml",
		PurchaseUnit:     "l",
		ConversionFactor: decimal.NewFromInt(1000),
	}, decimal.NewFromInt(5000), "Ana")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !in.StockQuantity.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("opening stock = %s", in.StockQuantity)
	}

	res, err := Count(db, in.ID, CountInput{Quantity: decimal.NewFromInt(4800), Apply: true, Operator: "Ana"})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if !res.Discrepancy.Equal(decimal.NewFromInt(-200)) || res.Movement == nil {
		t.Errorf("count result = %+v", res)
	}

	mv, err := RecordWaste(db, in.ID, WasteInput{Quantity: decimal.NewFromInt(300), Note: "botella rota", Operator: "Luis"})
	if err != nil {
		t.Fatalf("waste: %v", err)
	}
	if mv.Type != models.MovementWasteOut || !mv.QuantityChange.Equal(decimal.NewFromInt(-300)) || !mv.ResultingStock.Equal(decimal.NewFromInt(4500)) {
		t.Errorf("waste movement = %+v", mv)
	}

	if _, err := RecordWaste(db, in.ID, WasteInput{Quantity: decimal.NewFromInt(9000), Note: "derrame"}); !errors.Is(err, stock.ErrNegativeCounter) {
		t.Errorf("oversized waste: err = %v, want ErrNegativeCounter", err)
	}

	rows, err := ListWaste(db, WasteFilter{InsumoID: in.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("list waste = %v, %v", rows, err)
	}
}
