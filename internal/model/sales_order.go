package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesOrder is the seller-side counterpart of a PurchaseOrder. It carries its
// own status but is only ever transitioned by the orchestrator together with
// its purchase order.
type SalesOrder struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code            string          `gorm:"not null;uniqueIndex"`
	CompanyID       uuid.UUID       `gorm:"type:uuid;not null;index"` // seller
	BuyerID         uuid.UUID       `gorm:"type:uuid;not null"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	WarehouseID     uuid.UUID       `gorm:"type:uuid;not null"` // seller shipping warehouse
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status          Status          `gorm:"not null;default:'pending_confirmation'"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Lines []DocumentLine `gorm:"polymorphic:Document"`
}

func (SalesOrder) TableName() string { return "sales_orders" }
