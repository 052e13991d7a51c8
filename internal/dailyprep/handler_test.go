package dailyprep

import (
	"net/http/httptest"
	"strings"
	"testing"

	"catering-backend/internal/httpx"

	"github.com/gofiber/fiber/v2"
)

func TestHandlersRejectInvalidInput(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler})
	app.Get("/api/daily-prep", GetDailyPrepHandler())
	app.Post("/api/daily-prep/deduct", DeductHandler())
	app.Post("/api/daily-prep/urgent-request", UrgentFromPrepHandler())

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"missing date", "GET", "/api/daily-prep", ""},
		{"bad date", "GET", "/api/daily-prep?date=tomorrow", ""},
		{"missing operator", "POST", "/api/daily-prep/deduct", `{"date":"2026-03-01","all":true}`},
		{"nothing selected", "POST", "/api/daily-prep/deduct", `{"date":"2026-03-01","operator_name":"Ana"}`},
		{"item without service", "POST", "/api/daily-prep/deduct", `{"date":"2026-03-01","operator_name":"Ana","items":[{"insumo_id":1}]}`},
		{"bad deduct date", "POST", "/api/daily-prep/deduct", `{"date":"01-03-2026","operator_name":"Ana","all":true}`},
		{"urgent without insumo", "POST", "/api/daily-prep/urgent-request", `{"date":"2026-03-01","meal_service":"cena"}`},
		{"urgent bad priority", "POST", "/api/daily-prep/urgent-request", `{"date":"2026-03-01","insumo_id":1,"meal_service":"cena","priority":"now"}`},
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
