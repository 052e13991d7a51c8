package purchasing

import (
	"net/http/httptest"
	"strings"
	"testing"

	"catering-backend/internal/httpx"
	"catering-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func newTestApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler})
	app.Post("/api/purchases", CreatePurchaseHandler())
	app.Get("/api/purchases", ListPurchasesHandler())
	app.Post("/api/purchases/:id/receive", ReceivePurchaseHandler())
	return app
}

func send(t *testing.T, app *fiber.App, method, path, body string) int {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

// These requests are all rejected before the database is touched.
func TestHandlersRejectInvalidInput(t *testing.T) {
	app := newTestApp()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"missing insumo", "POST", "/api/purchases", `{"quantity_purchased":"5"}`},
		{"zero quantity", "POST", "/api/purchases", `{"insumo_id":1,"quantity_purchased":"0"}`},
		{"negative unit cost", "POST", "/api/purchases", `{"insumo_id":1,"quantity_purchased":"5","unit_cost":"-1"}`},
		{"cannot create cancelled", "POST", "/api/purchases", `{"insumo_id":1,"quantity_purchased":"5","status":"cancelled"}`},
		{"bad purchase date", "POST", "/api/purchases", `{"insumo_id":1,"quantity_purchased":"5","purchase_date":"01/03/2026"}`},
		{"bad status filter", "GET", "/api/purchases?status=lost", ""},
		{"bad insumo filter", "GET", "/api/purchases?insumo_id=abc", ""},
		{"inverted range", "GET", "/api/purchases?from=2026-03-10&to=2026-03-01", ""},
		{"bad id", "POST", "/api/purchases/abc/receive", `{"target_status":"received_by_company","quantity":"1"}`},
		{"unknown target", "POST", "/api/purchases/1/receive", `{"target_status":"cancelled","quantity":"1"}`},
		{"zero reception", "POST", "/api/purchases/1/receive", `{"target_status":"received_by_company","quantity":"0"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := send(t, app, tt.method, tt.path, tt.body); got != fiber.StatusBadRequest {
				t.Errorf("status = %d, want 400", got)
			}
		})
	}
}

func TestCreatePurchaseRequestInput(t *testing.T) {
	cost := decimal.RequireFromString("2.5")
	in, err := CreatePurchaseRequest{
		InsumoID:     4,
		PurchaseDate: "2026-03-02",
		Quantity:     decimal.RequireFromString("12"),
		UnitCost:     &cost,
		Status:       models.PurchaseReceivedByCompany,
	}.Input("Ana")
	if err != nil {
		t.Fatalf("Input: %v", err)
	}
	if in.CreatedBy != "Ana" || in.PurchaseDate.Day() != 2 || !in.UnitCost.Equal(cost) {
		t.Errorf("unexpected input %+v", in)
	}
}

func TestToResponseExposesProgress(t *testing.T) {
	rec := &models.PurchaseRecord{
		ID:                7,
		QuantityPurchased: decimal.NewFromInt(50),
		QuantityReceived:  decimal.NewFromInt(20),
		Status:            models.PurchaseOrdered,
	}
	resp := ToResponse(rec)
	if !resp.Outstanding.Equal(decimal.NewFromInt(30)) {
		t.Errorf("outstanding = %s, want 30", resp.Outstanding)
	}
	if resp.NextStatus != models.PurchaseReceivedByCompany {
		t.Errorf("next status = %q", resp.NextStatus)
	}
	if resp.ReceivedDate != nil {
		t.Errorf("received date should be nil")
	}
}
