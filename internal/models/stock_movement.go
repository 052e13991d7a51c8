package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MovementType string

const (
	MovementOrderPlaced     MovementType = "order_placed"
	MovementReceptionIn     MovementType = "reception_in"
	MovementPurchaseIn      MovementType = "purchase_in"
	MovementPurchaseCancel  MovementType = "purchase_cancel"
	MovementDailyPrepOut    MovementType = "daily_prep_out"
	MovementCountAdjustment MovementType = "count_adjustment"
	MovementWasteOut        MovementType = "waste_out"
)

// StockMovement is an append-only ledger row. Rows are never updated.
type StockMovement struct {
	ID       uint         `gorm:"primaryKey" json:"id"`
	InsumoID uint         `gorm:"index;not null" json:"insumo_id"`
	Type     MovementType `gorm:"size:30;index;not null" json:"type"`

	QuantityChange         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity_change"`
	PendingDeliveryChange  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"pending_delivery_change"`
	PendingReceptionChange decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"pending_reception_change"`
	StockChange            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"stock_change"`
	ResultingStock         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"resulting_stock"`

	Note             string `gorm:"size:255" json:"note"`
	MenuID           *uint  `gorm:"index" json:"menu_id"`
	PurchaseRecordID *uint  `gorm:"index" json:"purchase_record_id"`
	BatchRef         string `gorm:"size:36;index" json:"batch_ref,omitempty"`
	CreatedBy        string `gorm:"size:100" json:"created_by"`

	CreatedAt time.Time `json:"created_at"`
}
