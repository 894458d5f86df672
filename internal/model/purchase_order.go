package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrder is the buyer side of a trade. Creating one always creates its
// counterpart SalesOrder on the seller side; the pair stays in lock-step at
// every key transition, enforced centrally by the fulfillment orchestrator
// rather than at call sites.
type PurchaseOrder struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code          string          `gorm:"not null;uniqueIndex"`
	CompanyID     uuid.UUID       `gorm:"type:uuid;not null;index"` // buyer
	SellerID      uuid.UUID       `gorm:"type:uuid;not null"`       // counterparty company
	WarehouseID   uuid.UUID       `gorm:"type:uuid;not null"`       // buyer receiving warehouse
	SalesOrderID  *uuid.UUID      `gorm:"type:uuid;uniqueIndex"`    // counterpart, set at creation
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status        Status          `gorm:"not null;default:'pending_confirmation'"`
	CancelReason  *string
	CreatedBy     uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Lines []DocumentLine `gorm:"polymorphic:Document"`
}

func (PurchaseOrder) TableName() string { return "purchase_orders" }
