package urgent

import (
	"net/http/httptest"
	"strings"
	"testing"

	"catering-backend/internal/httpx"

	"github.com/gofiber/fiber/v2"
)

func TestHandlersRejectInvalidInput(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler})
	app.Post("/api/urgent-requests", CreateUrgentRequestHandler())
	app.Get("/api/urgent-requests", ListUrgentRequestsHandler())
	app.Post("/api/urgent-requests/:id/reject", RejectUrgentRequestHandler())
	app.Post("/api/urgent-requests/:id/fulfill", FulfillUrgentRequestHandler())

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"missing priority", "POST", "/api/urgent-requests", `{"insumo_id":1,"quantity_requested":"2"}`},
		{"unknown priority", "POST", "/api/urgent-requests", `{"insumo_id":1,"quantity_requested":"2","priority":"asap"}`},
		{"zero quantity", "POST", "/api/urgent-requests", `{"insumo_id":1,"quantity_requested":"0","priority":"high"}`},
		{"bad status filter", "GET", "/api/urgent-requests?status=done", ""},
		{"bad priority filter", "GET", "/api/urgent-requests?priority=asap", ""},
		{"missing reason", "POST", "/api/urgent-requests/1/reject", `{}`},
		{"bad id", "POST", "/api/urgent-requests/x/reject", `{"reason":"no budget left"}`},
		{"negative purchase", "POST", "/api/urgent-requests/1/fulfill", `{"quantity_purchased":"-3"}`},
		{"cancelled purchase status", "POST", "/api/urgent-requests/1/fulfill", `{"status":"cancelled"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != fiber.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}
