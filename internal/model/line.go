package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentLine is a detail line shared by every document kind
// (polymorphic owner). Quantity is in whole units; UnitPrice only carries a
// value on purchase/sales orders.
type DocumentLine struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentType string          `gorm:"not null;index:idx_line_document,priority:1"`
	DocumentID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_line_document,priority:2"`
	ItemID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity     int             `gorm:"not null;check:quantity > 0"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CreatedAt    time.Time
}

func (DocumentLine) TableName() string { return "document_lines" }

// DemandLine is a single (item, quantity) requirement fed to the reservation
// checker. For production orders it comes out of BOM explosion; for every
// other kind it maps 1:1 from the document's detail lines.
type DemandLine struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

// Demand converts a detail line into checker input.
func (l DocumentLine) Demand() DemandLine {
	return DemandLine{ItemID: l.ItemID, Quantity: l.Quantity}
}
