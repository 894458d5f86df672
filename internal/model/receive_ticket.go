package model

import (
	"time"

	"github.com/google/uuid"
)

// ReceiveTicket authorizes the physical addition of stock to one warehouse.
type ReceiveTicket struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code          string       `gorm:"not null;uniqueIndex"`
	CompanyID     uuid.UUID    `gorm:"type:uuid;not null;index"`
	WarehouseID   uuid.UUID    `gorm:"type:uuid;not null"`
	ReceiveType   FlowType     `gorm:"not null"` // production | transfer | purchase
	ReferenceType DocumentType `gorm:"not null"`
	ReferenceID   uuid.UUID    `gorm:"type:uuid;not null;index"`
	Status        Status       `gorm:"not null;default:'pending_confirmation'"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Lines []DocumentLine `gorm:"polymorphic:Document"`
}

func (ReceiveTicket) TableName() string { return "receive_tickets" }
