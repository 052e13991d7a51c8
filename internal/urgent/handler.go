package urgent

import (
	"fmt"

	"catering-backend/internal/audit"
	"catering-backend/internal/auth"
	"catering-backend/internal/database"
	"catering-backend/internal/httpx"
	"catering-backend/internal/models"
	"catering-backend/internal/purchasing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateRequest struct {
	InsumoID    uint                  `json:"insumo_id" validate:"required"`
	Quantity    decimal.Decimal       `json:"quantity_requested"`
	Priority    models.UrgentPriority `json:"priority" validate:"required,oneof=urgent high medium low"`
	RequestDate string                `json:"request_date"`
	Notes       string                `json:"notes" validate:"max=255"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=255"`
}

// FulfillRequest either names an existing purchase record or describes the
// purchase to register; quantity defaults to the requested one.
type FulfillRequest struct {
	PurchaseRecordID *uint                 `json:"purchase_record_id"`
	Quantity         decimal.Decimal       `json:"quantity_purchased"`
	UnitCost         *decimal.Decimal      `json:"unit_cost"`
	Status           models.PurchaseStatus `json:"status" validate:"omitempty,oneof=ordered received_by_company received_by_warehouse"`
	SupplierName     string                `json:"supplier_name" validate:"max=150"`
	SupplierContact  string                `json:"supplier_contact" validate:"max=150"`
	InvoiceNumber    string                `json:"invoice_number" validate:"max=60"`
	Notes            string                `json:"notes" validate:"max=255"`
}

type RequestResponse struct {
	ID                        uint                  `json:"id"`
	InsumoID                  uint                  `json:"insumo_id"`
	InsumoName                string                `json:"insumo_name"`
	PurchaseUnit              string                `json:"purchase_unit"`
	QuantityRequested         decimal.Decimal       `json:"quantity_requested"`
	RequestDate               string                `json:"request_date"`
	Priority                  models.UrgentPriority `json:"priority"`
	Status                    models.UrgentStatus   `json:"status"`
	RejectionReason           string                `json:"rejection_reason,omitempty"`
	FulfilledPurchaseRecordID *uint                 `json:"fulfilled_purchase_record_id"`
	InsistenceCount           int                   `json:"insistence_count"`
	RequestedBy               string                `json:"requested_by"`
	Notes                     string                `json:"notes"`
}

func toResponse(r *models.UrgentPurchaseRequest) RequestResponse {
	return RequestResponse{
		ID:                        r.ID,
		InsumoID:                  r.InsumoID,
		InsumoName:                r.Insumo.Name,
		PurchaseUnit:              r.Insumo.PurchaseUnit,
		QuantityRequested:         r.QuantityRequested,
		RequestDate:               r.RequestDate.Format(httpx.DateLayout),
		Priority:                  r.Priority,
		Status:                    r.Status,
		RejectionReason:           r.RejectionReason,
		FulfilledPurchaseRecordID: r.FulfilledPurchaseRecordID,
		InsistenceCount:           r.InsistenceCount,
		RequestedBy:               r.RequestedBy,
		Notes:                     r.Notes,
	}
}

// Respond writes the outcome of Request: 201 for a new request, 200 when an
// open one was insisted on.
func Respond(c *fiber.Ctx, r *models.UrgentPurchaseRequest, insisted bool) error {
	action, status := models.AuditActionCreate, fiber.StatusCreated
	desc := fmt.Sprintf("Urgent request: %s of insumo %d (%s)", r.QuantityRequested, r.InsumoID, r.Priority)
	if insisted {
		action, status = models.AuditActionUpdate, fiber.StatusOK
		desc = fmt.Sprintf("Urgent request #%d insisted (%d times)", r.ID, r.InsistenceCount)
	}
	audit.Record(c, "urgent_request", r.ID, action, desc, nil, r)

	return c.Status(status).JSON(fiber.Map{
		"request":  toResponse(r),
		"insisted": insisted,
	})
}

// POST /api/urgent-requests
func CreateUrgentRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		if err := httpx.PositiveDecimal("quantity_requested", body.Quantity); err != nil {
			return err
		}
		reqDate, err := httpx.ParseDate("request_date", body.RequestDate)
		if err != nil {
			return err
		}

		_, operator := auth.Operator(c)
		r, insisted, err := Request(database.DB, RequestInput{
			InsumoID:    body.InsumoID,
			Quantity:    body.Quantity,
			Priority:    body.Priority,
			RequestDate: reqDate,
			RequestedBy: operator,
			Notes:       body.Notes,
		})
		if err != nil {
			return httpx.Fail("urgent", "CreateUrgentRequestHandler", err)
		}
		return Respond(c, r, insisted)
	}
}

// GET /api/urgent-requests?status=pending&priority=urgent&insumo_id=3
func ListUrgentRequestsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := ListFilter{
			Status:   models.UrgentStatus(c.Query("status")),
			Priority: models.UrgentPriority(c.Query("priority")),
		}
		switch f.Status {
		case "", models.UrgentPending, models.UrgentApproved, models.UrgentRejected, models.UrgentFulfilled:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Invalid status")
		}
		if f.Priority != "" && f.Priority.Rank() == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid priority")
		}
		insumoID, err := httpx.QueryID(c, "insumo_id")
		if err != nil {
			return err
		}
		f.InsumoID = insumoID

		list, err := List(database.DB, f)
		if err != nil {
			return httpx.Fail("urgent", "ListUrgentRequestsHandler", err)
		}
		resp := make([]RequestResponse, 0, len(list))
		for i := range list {
			resp = append(resp, toResponse(&list[i]))
		}
		return c.JSON(resp)
	}
}

// GET /api/urgent-requests/:id
func GetUrgentRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		r, err := Get(database.DB, id)
		if err != nil {
			return httpx.Fail("urgent", "GetUrgentRequestHandler", err)
		}
		return c.JSON(toResponse(r))
	}
}

// POST /api/urgent-requests/:id/approve
func ApproveUrgentRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		r, err := Approve(database.DB, id)
		if err != nil {
			return httpx.Fail("urgent", "ApproveUrgentRequestHandler", err)
		}
		audit.Record(c, "urgent_request", r.ID, models.AuditActionUpdate,
			fmt.Sprintf("Urgent request #%d approved", r.ID), nil, r)
		return c.JSON(toResponse(r))
	}
}

// POST /api/urgent-requests/:id/reject
func RejectUrgentRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body RejectRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		r, err := Reject(database.DB, id, body.Reason)
		if err != nil {
			return httpx.Fail("urgent", "RejectUrgentRequestHandler", err)
		}
		audit.Record(c, "urgent_request", r.ID, models.AuditActionUpdate,
			fmt.Sprintf("Urgent request #%d rejected: %s", r.ID, r.RejectionReason), nil, r)
		return c.JSON(toResponse(r))
	}
}

// POST /api/urgent-requests/:id/fulfill
func FulfillUrgentRequestHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body FulfillRequest
		if err := httpx.ParseBody(c, &body); err != nil {
			return err
		}
		if body.Quantity.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "quantity_purchased cannot be negative")
		}
		if body.UnitCost != nil && body.UnitCost.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "unit_cost cannot be negative")
		}

		_, operator := auth.Operator(c)
		r, rec, err := Fulfill(database.DB, id, FulfillInput{
			PurchaseRecordID: body.PurchaseRecordID,
			Purchase: purchasing.CreateInput{
				Quantity:        body.Quantity,
				UnitCost:        body.UnitCost,
				Status:          body.Status,
				SupplierName:    body.SupplierName,
				SupplierContact: body.SupplierContact,
				InvoiceNumber:   body.InvoiceNumber,
				Notes:           body.Notes,
				CreatedBy:       operator,
			},
		})
		if err != nil {
			return httpx.Fail("urgent", "FulfillUrgentRequestHandler", err)
		}

		audit.Record(c, "urgent_request", r.ID, models.AuditActionUpdate,
			fmt.Sprintf("Urgent request #%d fulfilled by purchase #%d", r.ID, rec.ID), nil, r)

		return c.JSON(fiber.Map{
			"request":  toResponse(r),
			"purchase": purchasing.ToResponse(rec),
		})
	}
}
