package dailyprep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catering-backend/internal/audit"
	"catering-backend/internal/auth"
	"catering-backend/internal/database"
	"catering-backend/internal/httpx"
	"catering-backend/internal/locking"
	"catering-backend/internal/models"
	"catering-backend/internal/urgent"

	"github.com/gofiber/fiber/v2"
)

type DeductRequest struct {
	Date         string `json:"date" validate:"required"`
	OperatorName string `json:"operator_name" validate:"required,max=100"`
	All          bool   `json:"all"`
	Items        []Item `json:"items" validate:"omitempty,dive"`
}

type UrgentFromPrepRequest struct {
	Date        string                `json:"date" validate:"required"`
	InsumoID    uint                  `json:"insumo_id" validate:"required"`
	MealService string                `json:"meal_service" validate:"required"`
	Priority    models.UrgentPriority `json:"priority" validate:"omitempty,oneof=urgent high medium low"`
	Notes       string                `json:"notes" validate:"max=200"`
}

// GET /api/daily-prep?date=2026-03-01
func GetDailyPrepHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		date, err := httpx.RequireDate("date", c.Query("date"))
		if err != nil {
			return err
		}
		ns, err := Compute(database.DB, date)
		if err != nil {
			return httpx.Fail("dailyprep", "GetDailyPrepHandler", err)
		}
		groups := Group(ns)
		if groups == nil {
			groups = []ServiceGroup{}
		}
		return c.JSON(fiber.Map{
			"date":     date.Format(httpx.DateLayout),
			"services": groups,
		})
	}
}

// POST /api/daily-prep/deduct
func DeductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body DeductRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		date, err := httpx.RequireDate("date", body.Date)
		if err != nil {
			return err
		}
		if !body.All && len(body.Items) == 0 {
			return httpx.Fail("dailyprep", "DeductHandler", ErrNothingSelected)
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()
		release, err := locking.Obtain(ctx, "daily-prep:"+date.Format(httpx.DateLayout), time.Minute)
		if err != nil {
			return httpx.Fail("dailyprep", "DeductHandler", err)
		}
		defer release()

		res, err := Deduct(database.DB, DeductInput{
			Date:     date,
			Operator: body.OperatorName,
			All:      body.All,
			Items:    body.Items,
		})
		var short *InsufficientError
		if errors.As(err, &short) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":     ErrInsufficient.Error(),
				"shortages": short.Shortages,
			})
		}
		if err != nil {
			return httpx.Fail("dailyprep", "DeductHandler", err)
		}

		audit.Record(c, "daily_prep", 0, models.AuditActionCreate,
			fmt.Sprintf("Daily prep %s deducted by %s: %d items (batch %s)",
				date.Format(httpx.DateLayout), body.OperatorName, len(res.Movements), res.BatchRef),
			nil, res)

		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// POST /api/daily-prep/urgent-request
// Opens an urgent request for the missing quantity of an insufficient item.
func UrgentFromPrepHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body UrgentFromPrepRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		date, err := httpx.RequireDate("date", body.Date)
		if err != nil {
			return err
		}
		priority := body.Priority
		if priority == "" {
			priority = models.PriorityUrgent
		}

		need, err := Shortfall(database.DB, date, Item{InsumoID: body.InsumoID, MealService: body.MealService})
		if err != nil {
			return httpx.Fail("dailyprep", "UrgentFromPrepHandler", err)
		}

		notes := fmt.Sprintf("Daily prep %s %s", date.Format(httpx.DateLayout), body.MealService)
		if body.Notes != "" {
			notes += ": " + body.Notes
		}
		_, operator := auth.Operator(c)
		r, insisted, err := urgent.Request(database.DB, urgent.RequestInput{
			InsumoID:    need.InsumoID,
			Quantity:    need.Missing,
			Priority:    priority,
			RequestDate: time.Now(),
			RequestedBy: operator,
			Notes:       notes,
		})
		if err != nil {
			return httpx.Fail("dailyprep", "UrgentFromPrepHandler", err)
		}
		return urgent.Respond(c, r, insisted)
	}
}
