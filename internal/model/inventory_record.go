package model

import (
	"time"

	"github.com/google/uuid"
)

// InventoryRecord is the per (item, warehouse) ledger entry — the single
// source of truth for stock availability. Reserved is a forward-looking claim
// by confirmed-but-not-yet-issued demand; the schema deliberately does NOT
// enforce Reserved <= OnHand, which is why the reservation check must run
// inside the same transaction that commits the increment.
type InventoryRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ItemID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_item_warehouse,priority:1"`
	WarehouseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_item_warehouse,priority:2"`
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;index"`
	OnHand      int       `gorm:"not null;default:0;check:on_hand >= 0"`
	Reserved    int       `gorm:"not null;default:0;check:reserved >= 0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (InventoryRecord) TableName() string { return "inventory_records" }

// Available is what a new demand can still claim: on-hand minus reserved.
func (r *InventoryRecord) Available() int { return r.OnHand - r.Reserved }
