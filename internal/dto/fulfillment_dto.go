package dto

import "time"

type CompleteProductionRequest struct {
	CompletedQuantity int `json:"completed_quantity" validate:"required,gt=0"`
}

type CompleteProductionResponse struct {
	OrderID           string   `json:"order_id"`
	BatchNo           string   `json:"batch_no"`
	CompletedQuantity int      `json:"completed_quantity"`
	UnitSerials       []string `json:"unit_serials"`
}

type DeliveryEventRequest struct {
	Location string `json:"location" validate:"required"`
}

type PipelineStepResponse struct {
	Seq    int     `json:"seq"`
	Name   string  `json:"name"`
	Status string  `json:"status"`
	Error  *string `json:"error,omitempty"`
}

// PipelineResponse exposes the durable journal of one orchestrated action —
// the raw material for manual reconciliation of stalled runs.
type PipelineResponse struct {
	ID           string                 `json:"id"`
	Action       string                 `json:"action"`
	DocumentType string                 `json:"document_type"`
	DocumentID   string                 `json:"document_id"`
	Status       string                 `json:"status"`
	FailedStep   *string                `json:"failed_step,omitempty"`
	LastError    *string                `json:"last_error,omitempty"`
	RetryCount   int                    `json:"retry_count"`
	NextRetryAt  *time.Time             `json:"next_retry_at,omitempty"`
	Steps        []PipelineStepResponse `json:"steps,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

type MovementResponse struct {
	ID             string    `json:"id"`
	ItemID         string    `json:"item_id"`
	WarehouseID    string    `json:"warehouse_id"`
	Kind           string    `json:"kind"`
	Quantity       int       `json:"quantity"`
	OnHandBefore   int       `json:"on_hand_before"`
	OnHandAfter    int       `json:"on_hand_after"`
	ReservedBefore int       `json:"reserved_before"`
	ReservedAfter  int       `json:"reserved_after"`
	Reason         string    `json:"reason"`
	CreatedAt      time.Time `json:"created_at"`
}
