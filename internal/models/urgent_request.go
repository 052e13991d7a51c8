package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type UrgentPriority string

const (
	PriorityUrgent UrgentPriority = "urgent"
	PriorityHigh   UrgentPriority = "high"
	PriorityMedium UrgentPriority = "medium"
	PriorityLow    UrgentPriority = "low"
)

// Rank orders priorities, higher is more pressing. Unknown values rank 0.
func (p UrgentPriority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

type UrgentStatus string

const (
	UrgentPending   UrgentStatus = "pending"
	UrgentApproved  UrgentStatus = "approved"
	UrgentRejected  UrgentStatus = "rejected"
	UrgentFulfilled UrgentStatus = "fulfilled"
)

type UrgentPurchaseRequest struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	InsumoID uint   `gorm:"index;not null" json:"insumo_id"`
	Insumo   Insumo `json:"-"`

	QuantityRequested decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity_requested"`
	RequestDate       time.Time       `gorm:"index;not null" json:"request_date"`
	Priority          UrgentPriority  `gorm:"size:20;not null" json:"priority"`
	Status            UrgentStatus    `gorm:"size:20;index;not null" json:"status"`

	RejectionReason           string `gorm:"size:255" json:"rejection_reason,omitempty"`
	FulfilledPurchaseRecordID *uint  `json:"fulfilled_purchase_record_id"`
	InsistenceCount           int    `gorm:"not null;default:0" json:"insistence_count"`

	RequestedBy string    `gorm:"size:100" json:"requested_by"`
	Notes       string    `gorm:"size:255" json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
