package model

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryOrder carries goods from the seller's warehouse to the buyer. It is
// spawned when the seller-side issue ticket completes and, on completion,
// spawns the buyer-side receive ticket.
type DeliveryOrder struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code            string    `gorm:"not null;uniqueIndex"`
	SalesOrderID    uuid.UUID `gorm:"type:uuid;not null;index"`
	PickupLocation  string    `gorm:"not null"`
	DropoffLocation string    `gorm:"not null"`
	Status          Status    `gorm:"not null;default:'pending_confirmation'"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Events []DeliveryEvent `gorm:"foreignKey:DeliveryOrderID"`
}

func (DeliveryOrder) TableName() string { return "delivery_orders" }

// Delivery event kinds.
const (
	DeliveryEventPickupArrival  = "pickup_arrival"
	DeliveryEventDropoffArrival = "dropoff_arrival"
)

// DeliveryEvent is one arrival record in a delivery's process history.
type DeliveryEvent struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DeliveryOrderID uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind            string    `gorm:"not null"`
	Location        string
	RecordedBy      uuid.UUID `gorm:"type:uuid;not null"`
	OccurredAt      time.Time `gorm:"not null"`
}

func (DeliveryEvent) TableName() string { return "delivery_events" }
