package purchasing

import (
	"errors"
	"testing"

	"catering-backend/internal/models"
	"catering-backend/internal/stock"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDelta(t *testing.T, got stock.Delta, pd, pr, st string) {
	t.Helper()
	if !got.PendingDelivery.Equal(dec(pd)) || !got.PendingReception.Equal(dec(pr)) || !got.Stock.Equal(dec(st)) {
		t.Fatalf("delta = {pd:%s pr:%s stock:%s}, want {pd:%s pr:%s stock:%s}",
			got.PendingDelivery, got.PendingReception, got.Stock, pd, pr, st)
	}
}

func TestOpenCreditsOnlyTheStartingCounter(t *testing.T) {
	tests := []struct {
		status     models.PurchaseStatus
		pd, pr, st string
		movement   models.MovementType
	}{
		{models.PurchaseOrdered, "50", "0", "0", models.MovementOrderPlaced},
		{models.PurchaseReceivedByCompany, "0", "50", "0", models.MovementReceptionIn},
		{models.PurchaseReceivedByWarehouse, "0", "0", "50", models.MovementPurchaseIn},
	}
	for _, tt := range tests {
		lc, tr, err := Open(tt.status, dec("50"))
		if err != nil {
			t.Fatalf("Open(%s): %v", tt.status, err)
		}
		if lc.Stage.Status() != tt.status || tr.To != tt.status {
			t.Errorf("Open(%s) status = %s", tt.status, lc.Stage.Status())
		}
		if tr.Movement != tt.movement {
			t.Errorf("Open(%s) movement = %s, want %s", tt.status, tr.Movement, tt.movement)
		}
		assertDelta(t, tr.Delta, tt.pd, tt.pr, tt.st)
	}
}

func TestOpenRejects(t *testing.T) {
	if _, _, err := Open(models.PurchaseOrdered, dec("0")); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("zero quantity: err = %v", err)
	}
	if _, _, err := Open(models.PurchaseCancelled, dec("1")); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("cancelled status: err = %v", err)
	}
	for _, q := range []string{"0.00004", "10.00005"} {
		if _, _, err := Open(models.PurchaseOrdered, dec(q)); !errors.Is(err, stock.ErrTooPrecise) {
			t.Errorf("quantity %s: err = %v, want ErrTooPrecise", q, err)
		}
	}
	if _, _, err := Open(models.PurchaseOrdered, dec("10.0001")); err != nil {
		t.Errorf("four decimals: %v", err)
	}
}

func TestPartialCompanyReceptions(t *testing.T) {
	lc, _, _ := Open(models.PurchaseOrdered, dec("50"))

	lc, tr, err := lc.Receive(models.PurchaseReceivedByCompany, dec("20"))
	if err != nil {
		t.Fatalf("first reception: %v", err)
	}
	if lc.Stage.Status() != models.PurchaseOrdered {
		t.Fatalf("status after partial = %s, want ordered", lc.Stage.Status())
	}
	assertDelta(t, tr.Delta, "-20", "20", "0")
	if tr.Movement != models.MovementReceptionIn {
		t.Errorf("movement = %s", tr.Movement)
	}

	var rec models.PurchaseRecord
	lc.WriteTo(&rec)
	if !rec.QuantityReceived.Equal(dec("20")) {
		t.Errorf("quantity_received = %s, want 20", rec.QuantityReceived)
	}
	if !lc.Outstanding().Equal(dec("30")) {
		t.Errorf("outstanding = %s, want 30", lc.Outstanding())
	}

	lc, tr, err = lc.Receive(models.PurchaseReceivedByCompany, dec("30"))
	if err != nil {
		t.Fatalf("second reception: %v", err)
	}
	if lc.Stage.Status() != models.PurchaseReceivedByCompany {
		t.Fatalf("status = %s, want received_by_company", lc.Stage.Status())
	}
	assertDelta(t, tr.Delta, "-30", "30", "0")
	lc.WriteTo(&rec)
	if !rec.QuantityReceived.Equal(dec("50")) || !rec.QuantityStocked.IsZero() {
		t.Errorf("record quantities = %s/%s", rec.QuantityReceived, rec.QuantityStocked)
	}
}

func TestWarehouseReceptionAdvancesOnlyWhenComplete(t *testing.T) {
	lc, _, _ := Open(models.PurchaseReceivedByCompany, dec("10"))

	lc, tr, err := lc.Receive(models.PurchaseReceivedByWarehouse, dec("4"))
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	assertDelta(t, tr.Delta, "0", "-4", "4")
	if lc.Stage.Status() != models.PurchaseReceivedByCompany {
		t.Fatalf("status = %s, want received_by_company", lc.Stage.Status())
	}
	if tr.Movement != models.MovementPurchaseIn {
		t.Errorf("movement = %s", tr.Movement)
	}

	lc, tr, err = lc.Receive(models.PurchaseReceivedByWarehouse, dec("6"))
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	assertDelta(t, tr.Delta, "0", "-6", "6")
	if lc.Stage.Status() != models.PurchaseReceivedByWarehouse {
		t.Fatalf("status = %s, want received_by_warehouse", lc.Stage.Status())
	}

	if _, _, err := lc.Receive(models.PurchaseReceivedByWarehouse, dec("1")); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("receive on terminal: err = %v", err)
	}
}

func TestReceiveValidation(t *testing.T) {
	lc, _, _ := Open(models.PurchaseOrdered, dec("5"))

	tests := []struct {
		name   string
		target models.PurchaseStatus
		q      string
		want   error
	}{
		{"zero", models.PurchaseReceivedByCompany, "0", ErrInvalidQuantity},
		{"negative", models.PurchaseReceivedByCompany, "-1", ErrInvalidQuantity},
		{"over outstanding", models.PurchaseReceivedByCompany, "5.5", ErrExceedsOutstanding},
		{"finer than stored", models.PurchaseReceivedByCompany, "4.99995", stock.ErrTooPrecise},
		{"finer than stored near zero", models.PurchaseReceivedByCompany, "0.00001", stock.ErrTooPrecise},
		{"skipping a stage", models.PurchaseReceivedByWarehouse, "1", ErrInvalidTransition},
		{"to cancelled", models.PurchaseCancelled, "1", ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := lc.Receive(tt.target, dec(tt.q))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if got.Stage != lc.Stage {
				t.Errorf("lifecycle changed on failure")
			}
		})
	}
}

func TestCancelRevertsHeldQuantities(t *testing.T) {
	t.Run("never received", func(t *testing.T) {
		lc, _, _ := Open(models.PurchaseOrdered, dec("50"))
		lc, tr, err := lc.Cancel()
		if err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		assertDelta(t, tr.Delta, "-50", "0", "0")
		if lc.Stage.Status() != models.PurchaseCancelled || tr.From != models.PurchaseOrdered {
			t.Errorf("unexpected transition %+v", tr)
		}
	})

	t.Run("partially received by company", func(t *testing.T) {
		lc, _, _ := Open(models.PurchaseOrdered, dec("50"))
		lc, _, _ = lc.Receive(models.PurchaseReceivedByCompany, dec("20"))
		_, tr, err := lc.Cancel()
		if err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		assertDelta(t, tr.Delta, "-30", "-20", "0")
		if !tr.Quantity.Equal(dec("50")) {
			t.Errorf("reverted quantity = %s", tr.Quantity)
		}
	})

	t.Run("partially stocked", func(t *testing.T) {
		lc, _, _ := Open(models.PurchaseReceivedByCompany, dec("10"))
		lc, _, _ = lc.Receive(models.PurchaseReceivedByWarehouse, dec("3"))
		lc, tr, err := lc.Cancel()
		if err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		assertDelta(t, tr.Delta, "0", "-7", "-3")

		var rec models.PurchaseRecord
		lc.WriteTo(&rec)
		if rec.CancelledFrom != models.PurchaseReceivedByCompany || !rec.RevertedStock.Equal(dec("3")) {
			t.Errorf("cancel snapshot = %+v", rec)
		}
	})

	t.Run("terminal stages", func(t *testing.T) {
		lc, _, _ := Open(models.PurchaseReceivedByWarehouse, dec("1"))
		if _, _, err := lc.Cancel(); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("cancel warehouse: err = %v", err)
		}
		lc, _, _ = Open(models.PurchaseOrdered, dec("1"))
		lc, _, _ = lc.Cancel()
		if _, _, err := lc.Cancel(); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("cancel twice: err = %v", err)
		}
	})
}

// Replays transitions against counters starting at zero and checks that
// nothing goes negative and that a cancellation brings the counters back.
func TestCountersStayNonNegative(t *testing.T) {
	counters := stock.Counters{PendingDelivery: dec("0"), PendingReception: dec("0"), Stock: dec("0")}
	apply := func(tr Transition) {
		t.Helper()
		next, err := tr.Delta.ApplyTo(counters)
		if err != nil {
			t.Fatalf("ApplyTo: %v", err)
		}
		counters = next
	}

	lc, tr, _ := Open(models.PurchaseOrdered, dec("12.5"))
	apply(tr)
	for _, q := range []string{"2.5", "10"} {
		var err error
		lc, tr, err = lc.Receive(models.PurchaseReceivedByCompany, dec(q))
		if err != nil {
			t.Fatalf("company %s: %v", q, err)
		}
		apply(tr)
	}
	lc, tr, _ = lc.Receive(models.PurchaseReceivedByWarehouse, dec("5"))
	apply(tr)
	if !counters.PendingReception.Equal(dec("7.5")) || !counters.Stock.Equal(dec("5")) || !counters.PendingDelivery.IsZero() {
		t.Fatalf("counters = %+v", counters)
	}

	_, tr, err := lc.Cancel()
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	apply(tr)
	if !counters.PendingDelivery.IsZero() || !counters.PendingReception.IsZero() || !counters.Stock.IsZero() {
		t.Errorf("counters after cancel = %+v, want zero", counters)
	}
}

func TestFromRecordRoundTrip(t *testing.T) {
	rec := models.PurchaseRecord{
		ID:                1,
		QuantityPurchased: dec("8"),
		QuantityReceived:  dec("8"),
		QuantityStocked:   dec("2"),
		Status:            models.PurchaseReceivedByCompany,
	}
	lc, err := FromRecord(&rec)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if !lc.Outstanding().Equal(dec("6")) {
		t.Errorf("outstanding = %s, want 6", lc.Outstanding())
	}

	bad := rec
	bad.QuantityStocked = dec("9")
	if _, err := FromRecord(&bad); !errors.Is(err, ErrCorruptRecord) {
		t.Errorf("corrupt record: err = %v", err)
	}
}
