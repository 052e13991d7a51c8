package purchasing

import (
	"fmt"
	"time"

	"catering-backend/internal/audit"
	"catering-backend/internal/auth"
	"catering-backend/internal/database"
	"catering-backend/internal/httpx"
	"catering-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreatePurchaseRequest struct {
	InsumoID        uint                  `json:"insumo_id" validate:"required"`
	PurchaseDate    string                `json:"purchase_date"` // "2026-03-01", empty: today
	Quantity        decimal.Decimal       `json:"quantity_purchased"`
	UnitCost        *decimal.Decimal      `json:"unit_cost"`
	Status          models.PurchaseStatus `json:"status" validate:"omitempty,oneof=ordered received_by_company received_by_warehouse"`
	SupplierName    string                `json:"supplier_name" validate:"max=150"`
	SupplierContact string                `json:"supplier_contact" validate:"max=150"`
	InvoiceNumber   string                `json:"invoice_number" validate:"max=60"`
	Notes           string                `json:"notes" validate:"max=255"`
}

// Input checks the fields validate tags cannot express and builds the
// service input.
func (r CreatePurchaseRequest) Input(operator string) (CreateInput, error) {
	if err := httpx.PositiveDecimal("quantity_purchased", r.Quantity); err != nil {
		return CreateInput{}, err
	}
	if r.UnitCost != nil && r.UnitCost.IsNegative() {
		return CreateInput{}, fiber.NewError(fiber.StatusBadRequest, "unit_cost cannot be negative")
	}
	d, err := httpx.ParseDate("purchase_date", r.PurchaseDate)
	if err != nil {
		return CreateInput{}, err
	}
	return CreateInput{
		InsumoID:        r.InsumoID,
		PurchaseDate:    d,
		Quantity:        r.Quantity,
		UnitCost:        r.UnitCost,
		Status:          r.Status,
		SupplierName:    r.SupplierName,
		SupplierContact: r.SupplierContact,
		InvoiceNumber:   r.InvoiceNumber,
		Notes:           r.Notes,
		CreatedBy:       operator,
	}, nil
}

type ReceivePurchaseRequest struct {
	TargetStatus models.PurchaseStatus `json:"target_status" validate:"required,oneof=received_by_company received_by_warehouse"`
	Quantity     decimal.Decimal       `json:"quantity"`
	ReceivedDate string                `json:"received_date"`
	Note         string                `json:"note" validate:"max=200"`
}

type CancelPurchaseRequest struct {
	Reason string `json:"reason" validate:"max=200"`
}

type PurchaseResponse struct {
	ID                uint                  `json:"id"`
	InsumoID          uint                  `json:"insumo_id"`
	InsumoName        string                `json:"insumo_name"`
	PurchaseUnit      string                `json:"purchase_unit"`
	PurchaseDate      string                `json:"purchase_date"`
	QuantityPurchased decimal.Decimal       `json:"quantity_purchased"`
	QuantityReceived  decimal.Decimal       `json:"quantity_received"`
	QuantityStocked   decimal.Decimal       `json:"quantity_stocked"`
	Outstanding       decimal.Decimal       `json:"outstanding"`
	NextStatus        models.PurchaseStatus `json:"next_status,omitempty"`
	UnitCost          decimal.Decimal       `json:"unit_cost"`
	TotalAmount       decimal.Decimal       `json:"total_amount"`
	SupplierName      string                `json:"supplier_name"`
	SupplierContact   string                `json:"supplier_contact"`
	InvoiceNumber     string                `json:"invoice_number"`
	Status            models.PurchaseStatus `json:"status"`
	ReceivedDate      *string               `json:"received_date"`
	CancelledFrom     models.PurchaseStatus `json:"cancelled_from,omitempty"`
	Notes             string                `json:"notes"`
	CreatedBy         string                `json:"created_by"`
	CreatedAt         string                `json:"created_at"`
}

type TransitionResponse struct {
	Purchase PurchaseResponse      `json:"purchase"`
	From     models.PurchaseStatus `json:"from"`
	To       models.PurchaseStatus `json:"to"`
	Quantity decimal.Decimal       `json:"quantity"`
}

func ToResponse(rec *models.PurchaseRecord) PurchaseResponse {
	resp := PurchaseResponse{
		ID:                rec.ID,
		InsumoID:          rec.InsumoID,
		InsumoName:        rec.Insumo.Name,
		PurchaseUnit:      rec.Insumo.PurchaseUnit,
		PurchaseDate:      rec.PurchaseDate.Format(httpx.DateLayout),
		QuantityPurchased: rec.QuantityPurchased,
		QuantityReceived:  rec.QuantityReceived,
		QuantityStocked:   rec.QuantityStocked,
		UnitCost:          rec.UnitCost,
		TotalAmount:       rec.TotalAmount,
		SupplierName:      rec.SupplierName,
		SupplierContact:   rec.SupplierContact,
		InvoiceNumber:     rec.InvoiceNumber,
		Status:            rec.Status,
		CancelledFrom:     rec.CancelledFrom,
		Notes:             rec.Notes,
		CreatedBy:         rec.CreatedBy,
		CreatedAt:         rec.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if rec.ReceivedDate != nil {
		s := rec.ReceivedDate.Format(httpx.DateLayout)
		resp.ReceivedDate = &s
	}
	if lc, err := FromRecord(rec); err == nil {
		resp.Outstanding = lc.Outstanding()
		resp.NextStatus = lc.NextStatus()
	}
	return resp
}

// POST /api/purchases
func CreatePurchaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreatePurchaseRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		_, operator := auth.Operator(c)
		in, err := body.Input(operator)
		if err != nil {
			return err
		}

		rec, err := Create(database.DB, in)
		if err != nil {
			return httpx.Fail("purchasing", "CreatePurchaseHandler", err)
		}

		audit.Record(c, "purchase_record", rec.ID, models.AuditActionCreate,
			fmt.Sprintf("Purchase: %s %s of %s (%s)", rec.QuantityPurchased, rec.Insumo.PurchaseUnit, rec.Insumo.Name, rec.Status),
			nil, rec)

		return c.Status(fiber.StatusCreated).JSON(ToResponse(rec))
	}
}

// GET /api/purchases?status=ordered&insumo_id=3&from=2026-03-01&to=2026-03-31
func ListPurchasesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var f ListFilter
		if s := models.PurchaseStatus(c.Query("status")); s != "" {
			if !s.IsValid() {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid status")
			}
			f.Status = s
		}
		insumoID, err := httpx.QueryID(c, "insumo_id")
		if err != nil {
			return err
		}
		f.InsumoID = insumoID

		from, err := httpx.ParseDate("from", c.Query("from"))
		if err != nil {
			return err
		}
		to, err := httpx.ParseDate("to", c.Query("to"))
		if err != nil {
			return err
		}
		if !from.IsZero() {
			f.From = &from
		}
		if !to.IsZero() {
			f.To = &to
		}
		if f.From != nil && f.To != nil && f.To.Before(*f.From) {
			return fiber.NewError(fiber.StatusBadRequest, "to must not be before from")
		}

		recs, err := List(database.DB, f)
		if err != nil {
			return httpx.Fail("purchasing", "ListPurchasesHandler", err)
		}
		resp := make([]PurchaseResponse, 0, len(recs))
		for i := range recs {
			resp = append(resp, ToResponse(&recs[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/purchases/:id
func GetPurchaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		rec, err := Get(database.DB, id)
		if err != nil {
			return httpx.Fail("purchasing", "GetPurchaseHandler", err)
		}
		return c.JSON(ToResponse(rec))
	}
}

// POST /api/purchases/:id/receive
func ReceivePurchaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body ReceivePurchaseRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		if err := httpx.PositiveDecimal("quantity", body.Quantity); err != nil {
			return err
		}
		receivedAt, err := httpx.ParseDate("received_date", body.ReceivedDate)
		if err != nil {
			return err
		}
		if receivedAt.IsZero() {
			receivedAt = time.Now()
		}

		_, operator := auth.Operator(c)
		rec, tr, err := Receive(database.DB, id, ReceiveInput{
			Target:       body.TargetStatus,
			Quantity:     body.Quantity,
			ReceivedDate: receivedAt,
			Note:         body.Note,
			Operator:     operator,
		})
		if err != nil {
			return httpx.Fail("purchasing", "ReceivePurchaseHandler", err)
		}

		audit.Record(c, "purchase_record", rec.ID, models.AuditActionUpdate,
			fmt.Sprintf("Reception (%s): %s of %s %s", stageLabel(body.TargetStatus), body.Quantity, rec.QuantityPurchased, rec.Insumo.Name),
			fiber.Map{"status": tr.From}, fiber.Map{"status": tr.To, "quantity": tr.Quantity})

		return c.JSON(TransitionResponse{
			Purchase: ToResponse(rec),
			From:     tr.From,
			To:       tr.To,
			Quantity: tr.Quantity,
		})
	}
}

// POST /api/purchases/:id/cancel
func CancelPurchaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body CancelPurchaseRequest
		if len(c.Body()) > 0 {
			if err := httpx.ParseBody(c, &body); err != nil {
				return err
			}
		}

		_, operator := auth.Operator(c)
		rec, tr, err := Cancel(database.DB, id, operator, body.Reason)
		if err != nil {
			return httpx.Fail("purchasing", "CancelPurchaseHandler", err)
		}

		audit.Record(c, "purchase_record", rec.ID, models.AuditActionUpdate,
			fmt.Sprintf("Purchase cancelled from %s, %s %s reverted", tr.From, tr.Quantity, rec.Insumo.Name),
			fiber.Map{"status": tr.From}, fiber.Map{"status": tr.To, "reason": body.Reason})

		return c.JSON(TransitionResponse{
			Purchase: ToResponse(rec),
			From:     tr.From,
			To:       tr.To,
			Quantity: tr.Quantity,
		})
	}
}

// DELETE /api/purchases/:id
func DeletePurchaseHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		rec, err := Delete(database.DB, id)
		if err != nil {
			return httpx.Fail("purchasing", "DeletePurchaseHandler", err)
		}

		audit.Record(c, "purchase_record", rec.ID, models.AuditActionDelete,
			fmt.Sprintf("Cancelled purchase #%d deleted", rec.ID), rec, nil)

		return c.SendStatus(fiber.StatusNoContent)
	}
}
