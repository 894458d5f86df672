package model

import (
	"time"

	"github.com/google/uuid"
)

// ProductionOrder manufactures Quantity units of ItemID on a production line.
// Its demand lines (raw-material consumption) come from BOM explosion at
// confirmation time and are stored as detail lines so later steps never
// re-explode against a possibly edited BOM.
type ProductionOrder struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code              string     `gorm:"not null;uniqueIndex"`
	CompanyID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	WarehouseID       uuid.UUID  `gorm:"type:uuid;not null"` // raw materials out, finished goods in
	ItemID            uuid.UUID  `gorm:"type:uuid;not null"` // finished good
	LineID            *uuid.UUID `gorm:"type:uuid"`          // production line, master data
	Quantity          int        `gorm:"not null"`           // planned quantity
	CompletedQuantity int        `gorm:"not null;default:0"` // actual, set at completion
	BatchNo           *string
	Status            Status    `gorm:"not null;default:'pending_confirmation'"`
	CreatedBy         uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Lines  []DocumentLine    `gorm:"polymorphic:Document"`
	Stages []ProductionStage `gorm:"foreignKey:ProductionOrderID"`
}

func (ProductionOrder) TableName() string { return "production_orders" }

// ProductionStage is one step of the in-production sub-sequence. Stages must
// complete in ascending Sequence order; completing the last one is what moves
// the order from InProduction to PendingStockIn.
type ProductionStage struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductionOrderID uuid.UUID `gorm:"type:uuid;not null;index"`
	Sequence          int       `gorm:"not null"`
	Name              string    `gorm:"not null"`
	CompletedAt       *time.Time
	CompletedBy       *uuid.UUID `gorm:"type:uuid"`
}

func (ProductionStage) TableName() string { return "production_stages" }

// ProductionOutputUnit is one serialized finished unit. All units of a
// completion share the order's batch number.
type ProductionOutputUnit struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductionOrderID uuid.UUID `gorm:"type:uuid;not null;index"`
	ItemID            uuid.UUID `gorm:"type:uuid;not null"`
	SerialNo          string    `gorm:"not null;uniqueIndex"`
	BatchNo           string    `gorm:"not null;index"`
	CreatedAt         time.Time
}

func (ProductionOutputUnit) TableName() string { return "production_output_units" }

// BOMComponent is one row of an item's bill of materials: building one unit
// of ParentItemID consumes QuantityPer units of ComponentItemID.
type BOMComponent struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ParentItemID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ComponentItemID uuid.UUID `gorm:"type:uuid;not null"`
	QuantityPer     int       `gorm:"not null;check:quantity_per > 0"`
	CreatedAt       time.Time
}

func (BOMComponent) TableName() string { return "bom_components" }
