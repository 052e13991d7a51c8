package planning

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"catering-backend/internal/audit"
	"catering-backend/internal/auth"
	"catering-backend/internal/database"
	"catering-backend/internal/httpx"
	"catering-backend/internal/locking"
	"catering-backend/internal/models"
	"catering-backend/internal/needs"
	"catering-backend/internal/purchasing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const maxPlanDays = 92

type BatchItem struct {
	InsumoID      uint             `json:"insumo_id" validate:"required"`
	Quantity      decimal.Decimal  `json:"quantity"`
	UnitCost      *decimal.Decimal `json:"unit_cost"`
	SupplierName  string           `json:"supplier_name" validate:"max=150"`
	InvoiceNumber string           `json:"invoice_number" validate:"max=60"`
	Notes         string           `json:"notes" validate:"max=255"`
}

type BatchRequest struct {
	PurchaseDate string      `json:"purchase_date"`
	Items        []BatchItem `json:"items" validate:"required,min=1,max=200,dive"`
}

type PlanResponse struct {
	From          string             `json:"from"`
	To            string             `json:"to"`
	Items         []needs.Suggestion `json:"items"`
	EstimatedCost decimal.Decimal    `json:"estimated_total_cost"`
}

// parseRange reads from/to/reason; to defaults to from.
func parseRange(c *fiber.Ctx) (time.Time, time.Time, needs.Reason, error) {
	from, err := httpx.RequireDate("from", c.Query("from"))
	if err != nil {
		return time.Time{}, time.Time{}, "", err
	}
	to, err := httpx.ParseDate("to", c.Query("to"))
	if err != nil {
		return time.Time{}, time.Time{}, "", err
	}
	if to.IsZero() {
		to = from
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, "", fiber.NewError(fiber.StatusBadRequest, "to must not be before from")
	}
	if to.Sub(from) > maxPlanDays*24*time.Hour {
		return time.Time{}, time.Time{}, "", fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("range cannot exceed %d days", maxPlanDays))
	}
	reason := needs.Reason(c.Query("reason"))
	if reason != "" && !reason.IsValid() {
		return time.Time{}, time.Time{}, "", fiber.NewError(fiber.StatusBadRequest, "Invalid reason")
	}
	return from, to, reason, nil
}

// GET /api/purchase-needs?from=2026-03-01&to=2026-03-07&reason=menu_demand
func GetPurchaseNeedsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, reason, err := parseRange(c)
		if err != nil {
			return err
		}
		plan, err := BuildPlan(database.DB, from, to, reason)
		if err != nil {
			return httpx.Fail("planning", "GetPurchaseNeedsHandler", err)
		}

		total := decimal.Zero
		for _, s := range plan {
			total = total.Add(s.EstimatedCost)
		}
		return c.JSON(PlanResponse{
			From:          from.Format(httpx.DateLayout),
			To:            to.Format(httpx.DateLayout),
			Items:         plan,
			EstimatedCost: total,
		})
	}
}

// GET /api/purchase-needs/export?from=2026-03-01&to=2026-03-07
func ExportPurchaseNeedsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, reason, err := parseRange(c)
		if err != nil {
			return err
		}
		plan, err := BuildPlan(database.DB, from, to, reason)
		if err != nil {
			return httpx.Fail("planning", "ExportPurchaseNeedsHandler", err)
		}
		buf, err := WritePlan(from, to, plan)
		if err != nil {
			return httpx.Fail("planning", "ExportPurchaseNeedsHandler", err)
		}

		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=compras_%s_%s.xlsx",
			from.Format(httpx.DateLayout), to.Format(httpx.DateLayout)))
		return c.Send(buf.Bytes())
	}
}

// POST /api/purchase-needs/purchase
// Registers one purchase for a suggestion; the body is the same as
// POST /api/purchases.
func CreateFromSuggestionHandler() fiber.Handler {
	return purchasing.CreatePurchaseHandler()
}

// POST /api/purchase-needs/batch
func BatchPurchaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BatchRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		purchaseDate, err := httpx.ParseDate("purchase_date", body.PurchaseDate)
		if err != nil {
			return err
		}

		userID, operator := auth.Operator(c)
		inputs := make([]purchasing.CreateInput, 0, len(body.Items))
		for i, it := range body.Items {
			if err := httpx.PositiveDecimal(fmt.Sprintf("items[%d].quantity", i), it.Quantity); err != nil {
				return err
			}
			if it.UnitCost != nil && it.UnitCost.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("items[%d].unit_cost cannot be negative", i))
			}
			inputs = append(inputs, purchasing.CreateInput{
				InsumoID:      it.InsumoID,
				PurchaseDate:  purchaseDate,
				Quantity:      it.Quantity,
				UnitCost:      it.UnitCost,
				SupplierName:  it.SupplierName,
				InvoiceNumber: it.InvoiceNumber,
				Notes:         it.Notes,
				CreatedBy:     operator,
			})
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()
		release, err := locking.Obtain(ctx, fmt.Sprintf("purchase-batch:%d", userID), 2*time.Minute)
		if err != nil {
			return httpx.Fail("planning", "BatchPurchaseHandler", err)
		}
		defer release()

		report := purchasing.BatchCreate(database.DB, inputs)

		audit.Record(c, "purchase_batch", 0, models.AuditActionCreate,
			fmt.Sprintf("Batch purchase %s: %d registered, %d failed", report.BatchRef, report.Succeeded, report.Failed),
			nil, report)

		status := fiber.StatusCreated
		if report.Succeeded == 0 {
			status = fiber.StatusUnprocessableEntity
		} else if report.Failed > 0 {
			status = fiber.StatusMultiStatus
		}
		return c.Status(status).JSON(report)
	}
}

type ImportResponse struct {
	purchasing.BatchReport
	Rejected []RowError `json:"rejected"`
}

// POST /api/purchase-needs/batch/import (multipart, field "file", .xlsx)
func ImportBatchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "file is required")
		}
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "only .xlsx files are accepted")
		}
		f, err := fh.Open()
		if err != nil {
			return httpx.Fail("planning", "ImportBatchHandler", err)
		}
		defer f.Close()

		rows, rejected, err := ParseSheet(f)
		if errors.Is(err, ErrEmptySheet) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "the file is not a readable xlsx workbook")
		}

		var insumos []models.Insumo
		if err := database.DB.Select("id", "name").Find(&insumos).Error; err != nil {
			return httpx.Fail("planning", "ImportBatchHandler", err)
		}
		userID, operator := auth.Operator(c)
		inputs, unmatched := MatchRows(rows, insumos, operator)
		rejected = append(rejected, unmatched...)
		if rejected == nil {
			rejected = []RowError{}
		}

		resp := ImportResponse{Rejected: rejected}
		if len(inputs) == 0 {
			resp.Results = []purchasing.BatchResult{}
			return c.Status(fiber.StatusUnprocessableEntity).JSON(resp)
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()
		release, err := locking.Obtain(ctx, fmt.Sprintf("purchase-batch:%d", userID), 2*time.Minute)
		if err != nil {
			return httpx.Fail("planning", "ImportBatchHandler", err)
		}
		defer release()

		resp.BatchReport = purchasing.BatchCreate(database.DB, inputs)

		audit.Record(c, "purchase_batch", 0, models.AuditActionCreate,
			fmt.Sprintf("Imported %s from %s: %d registered, %d failed, %d rows rejected",
				resp.BatchRef, fh.Filename, resp.Succeeded, resp.Failed, len(rejected)),
			nil, resp)

		status := fiber.StatusCreated
		if resp.Succeeded == 0 {
			status = fiber.StatusUnprocessableEntity
		} else if resp.Failed > 0 || len(rejected) > 0 {
			status = fiber.StatusMultiStatus
		}
		return c.Status(status).JSON(resp)
	}
}
