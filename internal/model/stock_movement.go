package model

import (
	"time"

	"github.com/google/uuid"
)

// Movement kinds.
const (
	MovementReserve      = "reserve"      // reserved += qty (confirm)
	MovementRelease      = "release"      // reserved -= qty (compensation)
	MovementIssue        = "issue"        // on_hand -= qty, reserved -= qty
	MovementReceive      = "receive"      // on_hand += qty
	MovementCompensation = "compensation" // reversal of a prior movement
)

// StockMovement records every ledger mutation with before/after snapshots of
// both quantities. Written in the same transaction as the mutation itself, so
// the audit trail can never drift from the ledger.
type StockMovement struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemID         uuid.UUID `gorm:"type:uuid;not null;index"`
	WarehouseID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind           string    `gorm:"not null"`
	Quantity       int       `gorm:"not null"` // positive = inbound, negative = outbound
	OnHandBefore   int       `gorm:"not null"`
	OnHandAfter    int       `gorm:"not null"`
	ReservedBefore int       `gorm:"not null"`
	ReservedAfter  int       `gorm:"not null"`
	Reason         string
	ReferenceType  *string    // originating document kind, if any
	ReferenceID    *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt      time.Time
}

func (StockMovement) TableName() string { return "stock_movements" }
