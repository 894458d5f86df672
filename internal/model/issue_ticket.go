package model

import (
	"time"

	"github.com/google/uuid"
)

// IssueTicket authorizes the physical removal of stock from one warehouse.
// Always spawned by the orchestrator with a back-pointer to its originating
// document — that reference is the only durable link between the two.
type IssueTicket struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code          string    `gorm:"not null;uniqueIndex"`
	CompanyID     uuid.UUID `gorm:"type:uuid;not null;index"`
	WarehouseID   uuid.UUID `gorm:"type:uuid;not null"`
	IssueType     FlowType  `gorm:"not null"` // production | transfer | sale
	ReferenceType DocumentType `gorm:"not null"`
	ReferenceID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Status        Status    `gorm:"not null;default:'pending_confirmation'"`
	PickListPath  *string   // filled by the async pick-list PDF worker
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Lines []DocumentLine `gorm:"polymorphic:Document"`
}

func (IssueTicket) TableName() string { return "issue_tickets" }
