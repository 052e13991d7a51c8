package urgent

import (
	"errors"
	"testing"

	"catering-backend/internal/dbtest"
	"catering-backend/internal/models"
	"catering-backend/internal/purchasing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestRequestLifecycleAgainstPostgres(t *testing.T) {
	db := dbtest.Tx(t)
	in := models.Insumo{
		Name:             "Leche " + uuid.NewString(),
		BaseUnit:         "ml",
		PurchaseUnit:     "lt",
		ConversionFactor: decimal.NewFromInt(1000),
		Version:          1,
	}
	if err := db.Create(&in).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	first, insisted, err := Request(db, RequestInput{InsumoID: in.ID, Quantity: decimal.NewFromInt(5), Priority: models.PriorityMedium})
	if err != nil || insisted {
		t.Fatalf("first request: insisted=%v err=%v", insisted, err)
	}
	again, insisted, err := Request(db, RequestInput{InsumoID: in.ID, Quantity: decimal.NewFromInt(8), Priority: models.PriorityHigh})
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	if !insisted || again.ID != first.ID || again.InsistenceCount != 1 ||
		!again.QuantityRequested.Equal(decimal.NewFromInt(8)) || again.Priority != models.PriorityHigh {
		t.Errorf("insisted request = %+v", again)
	}

	if _, err := Approve(db, first.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	r, rec, err := Fulfill(db, first.ID, FulfillInput{Purchase: purchasing.CreateInput{CreatedBy: "Ana"}})
	if err != nil {
		t.Fatalf("fulfill: %v", err)
	}
	if r.Status != models.UrgentFulfilled || r.FulfilledPurchaseRecordID == nil || *r.FulfilledPurchaseRecordID != rec.ID {
		t.Errorf("fulfilled request = %+v", r)
	}
	if !rec.QuantityPurchased.Equal(decimal.NewFromInt(8)) || rec.Status != models.PurchaseOrdered {
		t.Errorf("purchase = %+v", rec)
	}

	if _, err := Reject(db, first.ID, "too late now"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("reject fulfilled: err = %v", err)
	}

	// Closed requests do not absorb new ones.
	fresh, insisted, err := Request(db, RequestInput{InsumoID: in.ID, Quantity: decimal.NewFromInt(1), Priority: models.PriorityLow})
	if err != nil || insisted || fresh.ID == first.ID {
		t.Errorf("request after fulfilment: %+v insisted=%v err=%v", fresh, insisted, err)
	}
}
