package model

import (
	"time"

	"github.com/google/uuid"
)

// TransferRequest moves stock between two warehouses of the same company.
// Reservation happens at the source; the destination only sees stock when the
// matching receive ticket completes.
type TransferRequest struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code            string    `gorm:"not null;uniqueIndex"`
	CompanyID       uuid.UUID `gorm:"type:uuid;not null;index"`
	FromWarehouseID uuid.UUID `gorm:"type:uuid;not null"`
	ToWarehouseID   uuid.UUID `gorm:"type:uuid;not null"`
	Status          Status    `gorm:"not null;default:'pending_confirmation'"`
	CreatedBy       uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Lines []DocumentLine `gorm:"polymorphic:Document"`
}

func (TransferRequest) TableName() string { return "transfer_requests" }
