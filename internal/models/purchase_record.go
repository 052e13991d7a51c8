package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseStatus string

const (
	PurchaseOrdered             PurchaseStatus = "ordered"
	PurchaseReceivedByCompany   PurchaseStatus = "received_by_company"
	PurchaseReceivedByWarehouse PurchaseStatus = "received_by_warehouse"
	PurchaseCancelled           PurchaseStatus = "cancelled"
)

func (s PurchaseStatus) IsValid() bool {
	switch s {
	case PurchaseOrdered, PurchaseReceivedByCompany, PurchaseReceivedByWarehouse, PurchaseCancelled:
		return true
	}
	return false
}

// PurchaseRecord is one purchase of one insumo.
//
// QuantityReceived counts what the company has received so far and
// QuantityStocked what has been put into warehouse stock; both are cumulative
// and bounded by QuantityPurchased.
type PurchaseRecord struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	InsumoID uint   `gorm:"index;not null" json:"insumo_id"`
	Insumo   Insumo `json:"-"`

	PurchaseDate      time.Time       `gorm:"index;not null" json:"purchase_date"`
	QuantityPurchased decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity_purchased"`
	QuantityReceived  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"quantity_received"`
	QuantityStocked   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"quantity_stocked"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"unit_cost"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_amount"`

	// Supplier snapshot at purchase time
	SupplierName    string `gorm:"size:150" json:"supplier_name"`
	SupplierContact string `gorm:"size:150" json:"supplier_contact"`
	InvoiceNumber   string `gorm:"size:60" json:"invoice_number"`

	Status       PurchaseStatus `gorm:"size:30;index;not null" json:"status"`
	ReceivedDate *time.Time     `json:"received_date"`

	// Filled on cancellation: the status the record was cancelled from and the
	// counter contributions that were reverted.
	CancelledFrom            PurchaseStatus  `gorm:"size:30" json:"cancelled_from,omitempty"`
	RevertedPendingDelivery  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"reverted_pending_delivery"`
	RevertedPendingReception decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"reverted_pending_reception"`
	RevertedStock            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"reverted_stock"`

	Notes     string    `gorm:"size:255" json:"notes"`
	CreatedBy string    `gorm:"size:100" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
