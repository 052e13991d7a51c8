package insumo

import (
	"fmt"
	"strconv"

	"catering-backend/internal/audit"
	"catering-backend/internal/auth"
	"catering-backend/internal/database"
	"catering-backend/internal/httpx"
	"catering-backend/internal/models"
	"catering-backend/internal/stock"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type InsumoRequest struct {
	Name             string          `json:"name" validate:"required,max=150"`
	BaseUnit         string          `json:"base_unit" validate:"required,max=20"`
	PurchaseUnit     string          `json:"purchase_unit" validate:"required,max=20"`
	ConversionFactor decimal.Decimal `json:"conversion_factor"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	MinStockLevel    decimal.Decimal `json:"min_stock_level"`
	SupplierName     string          `json:"supplier_name" validate:"max=150"`
	SupplierContact  string          `json:"supplier_contact" validate:"max=150"`
	// Only read on create.
	InitialStock decimal.Decimal `json:"initial_stock"`
}

func (r InsumoRequest) fields() (Fields, error) {
	if err := httpx.PositiveDecimal("conversion_factor", r.ConversionFactor); err != nil {
		return Fields{}, err
	}
	if r.UnitCost.IsNegative() || r.MinStockLevel.IsNegative() || r.InitialStock.IsNegative() {
		return Fields{}, fiber.NewError(fiber.StatusBadRequest, "unit_cost, min_stock_level and initial_stock cannot be negative")
	}
	return Fields{
		Name:             r.Name,
		BaseUnit:         r.BaseUnit,
		PurchaseUnit:     r.PurchaseUnit,
		ConversionFactor: r.ConversionFactor,
		UnitCost:         r.UnitCost,
		MinStockLevel:    r.MinStockLevel,
		SupplierName:     r.SupplierName,
		SupplierContact:  r.SupplierContact,
	}, nil
}

type CountRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Date     string          `json:"date"`
	Apply    bool            `json:"apply"`
}

// GET /api/insumos?search=har&below_min=true
func ListInsumosHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := List(database.DB, ListFilter{
			Search:       c.Query("search"),
			BelowMinimum: c.QueryBool("below_min"),
		})
		if err != nil {
			return httpx.Fail("insumo", "ListInsumosHandler", err)
		}
		return c.JSON(list)
	}
}

// GET /api/insumos/:id
func GetInsumoHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		in, err := Get(database.DB, id)
		if err != nil {
			return httpx.Fail("insumo", "GetInsumoHandler", err)
		}
		return c.JSON(in)
	}
}

// POST /api/insumos
func CreateInsumoHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body InsumoRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		f, err := body.fields()
		if err != nil {
			return err
		}

		_, operator := auth.Operator(c)
		in, err := Create(database.DB, f, body.InitialStock, operator)
		if err != nil {
			return httpx.Fail("insumo", "CreateInsumoHandler", err)
		}

		audit.Record(c, "insumo", in.ID, models.AuditActionCreate,
			fmt.Sprintf("Insumo created: %s (%s, 1 %s = %s %s)", in.Name, in.PurchaseUnit, in.PurchaseUnit, in.ConversionFactor, in.BaseUnit),
			nil, in)

		return c.Status(fiber.StatusCreated).JSON(in)
	}
}

// PUT /api/insumos/:id
func UpdateInsumoHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body InsumoRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		f, err := body.fields()
		if err != nil {
			return err
		}

		before, after, err := Update(database.DB, id, f)
		if err != nil {
			return httpx.Fail("insumo", "UpdateInsumoHandler", err)
		}

		audit.Record(c, "insumo", id, models.AuditActionUpdate,
			fmt.Sprintf("Insumo updated: %s", after.Name), before, after)

		return c.JSON(after)
	}
}

// DELETE /api/insumos/:id
func DeleteInsumoHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		in, err := Delete(database.DB, id)
		if err != nil {
			return httpx.Fail("insumo", "DeleteInsumoHandler", err)
		}

		audit.Record(c, "insumo", id, models.AuditActionDelete,
			fmt.Sprintf("Insumo deleted: %s", in.Name), in, nil)

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/insumos/:id/count
func CountInsumoHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body CountRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		if body.Quantity.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "quantity cannot be negative")
		}
		date, err := httpx.ParseDate("date", body.Date)
		if err != nil {
			return err
		}

		_, operator := auth.Operator(c)
		res, err := Count(database.DB, id, CountInput{
			Quantity: body.Quantity,
			Date:     date,
			Apply:    body.Apply,
			Operator: operator,
		})
		if err != nil {
			return httpx.Fail("insumo", "CountInsumoHandler", err)
		}

		desc := fmt.Sprintf("Physical count of %s: %s (discrepancy %s)", res.Insumo.Name, body.Quantity, res.Discrepancy)
		if res.Movement != nil {
			desc += ", stock adjusted"
		}
		audit.Record(c, "insumo", id, models.AuditActionUpdate, desc, nil, res)

		return c.JSON(res)
	}
}

// GET /api/insumos/:id/movements?limit=100
func ListMovementsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil || limit <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid limit")
			}
		}
		if _, err := Get(database.DB, id); err != nil {
			return httpx.Fail("insumo", "ListMovementsHandler", err)
		}
		mvs, err := stock.ListMovements(database.DB, id, limit)
		if err != nil {
			return httpx.Fail("insumo", "ListMovementsHandler", err)
		}
		return c.JSON(mvs)
	}
}

type WasteRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Date     string          `json:"date"`
	Note     string          `json:"note" validate:"required,min=3,max=200"`
}

// POST /api/insumos/:id/waste
func RecordWasteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body WasteRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		if err := httpx.PositiveDecimal("quantity", body.Quantity); err != nil {
			return err
		}
		date, err := httpx.ParseDate("date", body.Date)
		if err != nil {
			return err
		}

		_, operator := auth.Operator(c)
		mv, err := RecordWaste(database.DB, id, WasteInput{
			Quantity: body.Quantity,
			Date:     date,
			Note:     body.Note,
			Operator: operator,
		})
		if err != nil {
			return httpx.Fail("insumo", "RecordWasteHandler", err)
		}

		audit.Record(c, "insumo", id, models.AuditActionUpdate,
			fmt.Sprintf("Waste of %s recorded (note: %s)", body.Quantity, body.Note), nil, mv)

		return c.Status(fiber.StatusCreated).JSON(mv)
	}
}

// GET /api/waste?from=2026-03-01&to=2026-03-31&insumo_id=4
func ListWasteHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		insumoID, err := httpx.QueryID(c, "insumo_id")
		if err != nil {
			return err
		}
		var f WasteFilter
		f.InsumoID = insumoID
		if from, err := httpx.ParseDate("from", c.Query("from")); err != nil {
			return err
		} else if !from.IsZero() {
			f.From = &from
		}
		if to, err := httpx.ParseDate("to", c.Query("to")); err != nil {
			return err
		} else if !to.IsZero() {
			f.To = &to
		}

		rows, err := ListWaste(database.DB, f)
		if err != nil {
			return httpx.Fail("insumo", "ListWasteHandler", err)
		}
		return c.JSON(rows)
	}
}
