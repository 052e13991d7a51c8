package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type fieldError struct{ field string }

func (e *fieldError) Error() string { return e.field + " is invalid" }

// captureLog routes the shared logger into a buffer at debug level for one test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevLevel := logg.Out, logg.GetLevel()
	logg.SetOutput(&buf)
	logg.SetLevel(logrus.DebugLevel)
	t.Cleanup(func() {
		logg.SetOutput(prevOut)
		logg.SetLevel(prevLevel)
	})
	return &buf
}

func TestRequestLoggerRecordsRenderedStatus(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fieldError
			if errors.As(err, &fe) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
			}
			var e *fiber.Error
			if errors.As(err, &e) {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal"})
		},
	})
	app.Use(RequestLogger())
	app.Get("/invalid", func(c *fiber.Ctx) error { return &fieldError{field: "name"} })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })
	app.Get("/broken", func(c *fiber.Ctx) error { return errors.New("db down") })
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })

	tests := []struct {
		path  string
		want  int
		level string
	}{
		{"/invalid", fiber.StatusBadRequest, "debug"},
		{"/missing", fiber.StatusNotFound, "debug"},
		{"/broken", fiber.StatusInternalServerError, "warning"},
		{"/ok", fiber.StatusOK, "debug"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			buf := captureLog(t)
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Fatalf("response status = %d, want %d", resp.StatusCode, tt.want)
			}

			var line struct {
				Status int    `json:"status"`
				Level  string `json:"level"`
			}
			if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
				t.Fatalf("decode log line %q: %v", buf.String(), err)
			}
			if line.Status != tt.want {
				t.Errorf("logged status = %d, want %d", line.Status, tt.want)
			}
			if line.Level != tt.level {
				t.Errorf("logged level = %s, want %s", line.Level, tt.level)
			}
		})
	}
}
