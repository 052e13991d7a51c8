// Package httpx holds the request/response helpers shared by the handlers.
package httpx

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"catering-backend/internal/apperr"
	"catering-backend/internal/logging"
	"catering-backend/internal/stock"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

var validate = validator.New()

// ValidationError is returned for bodies failing struct validation; the
// error handler renders Fields next to the message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, tag := range e.Fields {
		parts = append(parts, f+": "+tag)
	}
	return "invalid request: " + strings.Join(parts, ", ")
}

// ParseBody decodes the JSON body into dst and runs the validate tags.
func ParseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, ve := range verrs {
				fields[ve.Field()] = ve.Tag()
			}
			return &ValidationError{Fields: fields}
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// Fail turns a service error into the HTTP error to return. Unclassified
// errors are logged and hidden behind a generic message.
func Fail(module, funcName string, err error) error {
	switch apperr.KindOf(err) {
	case apperr.Validation:
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case apperr.NotFound:
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case apperr.Conflict:
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	logging.LogError(module, funcName, "unexpected error", nil, err)
	return fiber.NewError(fiber.StatusInternalServerError, "Unexpected server error")
}

// ErrorHandler renders every error as {"error": msg}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Invalid request",
			"fields": verr.Fields,
		})
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	logging.LogError("http", "ErrorHandler", c.Path(), nil, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Unexpected server error",
	})
}

func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

func QueryID(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// ParseDate parses a "YYYY-MM-DD" value; empty returns the zero time.
func ParseDate(field, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, field+" must be formatted as YYYY-MM-DD")
	}
	return d, nil
}

// RequireDate is ParseDate for mandatory values.
func RequireDate(field, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, field+" is required")
	}
	return ParseDate(field, raw)
}

// PositiveDecimal rejects zero and negative amounts and amounts finer than
// the stored scale.
func PositiveDecimal(field string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return fiber.NewError(fiber.StatusBadRequest, field+" must be greater than zero")
	}
	return StoredDecimal(field, v)
}

// StoredDecimal rejects amounts with more decimals than the columns keep,
// which Postgres would otherwise round silently.
func StoredDecimal(field string, v decimal.Decimal) error {
	if !stock.FitsScale(v) {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s allows at most %d decimal places", field, stock.Scale))
	}
	return nil
}
