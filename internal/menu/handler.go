package menu

import (
	"fmt"

	"catering-backend/internal/audit"
	"catering-backend/internal/database"
	"catering-backend/internal/httpx"
	"catering-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type IngredientRequest struct {
	InsumoID uint            `json:"insumo_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

type PlatoRequest struct {
	Name        string              `json:"name" validate:"required,max=150"`
	Description string              `json:"description" validate:"max=255"`
	Insumos     []IngredientRequest `json:"insumos" validate:"required,min=1,dive"`
}

type CourseRequest struct {
	PlatoID     uint            `json:"plato_id" validate:"required"`
	MealService string          `json:"meal_service" validate:"required,max=40"`
	Servings    decimal.Decimal `json:"servings"`
}

type MenuRequest struct {
	Date   string          `json:"date" validate:"required"`
	Name   string          `json:"name" validate:"required,max=150"`
	Notes  string          `json:"notes" validate:"max=255"`
	Platos []CourseRequest `json:"platos" validate:"required,min=1,dive"`
}

// POST /api/platos
func CreatePlatoHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PlatoRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		ings := make([]Ingredient, 0, len(body.Insumos))
		for i, ing := range body.Insumos {
			if err := httpx.PositiveDecimal(fmt.Sprintf("insumos[%d].quantity", i), ing.Quantity); err != nil {
				return err
			}
			ings = append(ings, Ingredient{InsumoID: ing.InsumoID, Quantity: ing.Quantity})
		}

		p, err := CreatePlato(database.DB, body.Name, body.Description, ings)
		if err != nil {
			return httpx.Fail("menu", "CreatePlatoHandler", err)
		}
		audit.Record(c, "plato", p.ID, models.AuditActionCreate,
			fmt.Sprintf("Plato created: %s (%d insumos)", p.Name, len(p.Insumos)), nil, p)
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// GET /api/platos
func ListPlatosHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := ListPlatos(database.DB)
		if err != nil {
			return httpx.Fail("menu", "ListPlatosHandler", err)
		}
		return c.JSON(list)
	}
}

// GET /api/platos/:id
func GetPlatoHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		p, err := GetPlato(database.DB, id)
		if err != nil {
			return httpx.Fail("menu", "GetPlatoHandler", err)
		}
		return c.JSON(p)
	}
}

// DELETE /api/platos/:id
func DeletePlatoHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := DeletePlato(database.DB, id); err != nil {
			return httpx.Fail("menu", "DeletePlatoHandler", err)
		}
		audit.Record(c, "plato", id, models.AuditActionDelete, fmt.Sprintf("Plato #%d deleted", id), nil, nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/menus
func CreateMenuHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body MenuRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		date, err := httpx.RequireDate("date", body.Date)
		if err != nil {
			return err
		}
		courses := make([]Course, 0, len(body.Platos))
		for i, co := range body.Platos {
			if err := httpx.PositiveDecimal(fmt.Sprintf("platos[%d].servings", i), co.Servings); err != nil {
				return err
			}
			courses = append(courses, Course{PlatoID: co.PlatoID, MealService: co.MealService, Servings: co.Servings})
		}

		m, err := CreateMenu(database.DB, date, body.Name, body.Notes, courses)
		if err != nil {
			return httpx.Fail("menu", "CreateMenuHandler", err)
		}
		audit.Record(c, "menu", m.ID, models.AuditActionCreate,
			fmt.Sprintf("Menu %s created for %s", m.Name, date.Format(httpx.DateLayout)), nil, m)
		return c.Status(fiber.StatusCreated).JSON(m)
	}
}

// GET /api/menus?from=2026-03-01&to=2026-03-07
func ListMenusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, err := httpx.ParseDate("from", c.Query("from"))
		if err != nil {
			return err
		}
		to, err := httpx.ParseDate("to", c.Query("to"))
		if err != nil {
			return err
		}
		list, err := ListMenus(database.DB, from, to)
		if err != nil {
			return httpx.Fail("menu", "ListMenusHandler", err)
		}
		return c.JSON(list)
	}
}

// GET /api/menus/:id
func GetMenuHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		m, err := GetMenu(database.DB, id)
		if err != nil {
			return httpx.Fail("menu", "GetMenuHandler", err)
		}
		return c.JSON(m)
	}
}

// DELETE /api/menus/:id
func DeleteMenuHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := DeleteMenu(database.DB, id); err != nil {
			return httpx.Fail("menu", "DeleteMenuHandler", err)
		}
		audit.Record(c, "menu", id, models.AuditActionDelete, fmt.Sprintf("Menu #%d deleted", id), nil, nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
