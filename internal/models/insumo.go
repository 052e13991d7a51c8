package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Insumo is an ingredient / raw material kept in the warehouse.
// Stock and pending counters are expressed in purchase units and only change
// through the stock ledger (see package stock).
type Insumo struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Name             string          `gorm:"size:150;not null;uniqueIndex" json:"name"`
	BaseUnit         string          `gorm:"size:20;not null" json:"base_unit"`     // g, ml, unidad
	PurchaseUnit     string          `gorm:"size:20;not null" json:"purchase_unit"` // kg, lt, caja
	ConversionFactor decimal.Decimal `gorm:"type:decimal(18,6);not null;default:1" json:"conversion_factor"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"unit_cost"`

	StockQuantity            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"stock_quantity"`
	PendingDeliveryQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"pending_delivery_quantity"`
	PendingReceptionQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"pending_reception_quantity"`
	MinStockLevel            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"min_stock_level"`

	LastCountQuantity   *decimal.Decimal `gorm:"type:decimal(18,4)" json:"last_count_quantity"`
	LastCountDate       *time.Time       `json:"last_count_date"`
	DiscrepancyQuantity decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0" json:"discrepancy_quantity"`

	// Default supplier, copied onto purchase records at creation time
	SupplierName    string `gorm:"size:150" json:"supplier_name"`
	SupplierContact string `gorm:"size:150" json:"supplier_contact"`

	// Bumped by every counter update; guards against concurrent writers.
	Version uint `gorm:"not null;default:1" json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
