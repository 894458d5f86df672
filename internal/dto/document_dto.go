package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// CreateProductionOrderRequest creates a production order in
// pending-confirmation state. Demand lines are derived from the item's BOM at
// confirmation time, not supplied here.
type CreateProductionOrderRequest struct {
	WarehouseID string   `json:"warehouse_id" validate:"required,uuid"`
	ItemID      string   `json:"item_id" validate:"required,uuid"`
	LineID      *string  `json:"line_id" validate:"omitempty,uuid"`
	Quantity    int      `json:"quantity" validate:"required,gt=0"`
	Stages      []string `json:"stages" validate:"required,min=1,dive,required"`
}

type CreateLineRequest struct {
	ItemID    string          `json:"item_id" validate:"required,uuid"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"omitempty,min=0"`
}

type CreateTransferRequestRequest struct {
	FromWarehouseID string              `json:"from_warehouse_id" validate:"required,uuid"`
	ToWarehouseID   string              `json:"to_warehouse_id" validate:"required,uuid"`
	Lines           []CreateLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// CreatePurchaseOrderRequest creates the buyer-side purchase order AND its
// seller-side sales order counterpart in one call.
type CreatePurchaseOrderRequest struct {
	SellerID          string              `json:"seller_id" validate:"required,uuid"`
	SellerWarehouseID string              `json:"seller_warehouse_id" validate:"required,uuid"`
	WarehouseID       string              `json:"warehouse_id" validate:"required,uuid"` // buyer receiving warehouse
	Lines             []CreateLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

type LineResponse struct {
	ItemID    string          `json:"item_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type StageResponse struct {
	ID          string     `json:"id"`
	Sequence    int        `json:"sequence"`
	Name        string     `json:"name"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type ProductionOrderResponse struct {
	ID                string          `json:"id"`
	Code              string          `json:"code"`
	Status            string          `json:"status"`
	WarehouseID       string          `json:"warehouse_id"`
	ItemID            string          `json:"item_id"`
	Quantity          int             `json:"quantity"`
	CompletedQuantity int             `json:"completed_quantity"`
	BatchNo           *string         `json:"batch_no,omitempty"`
	Lines             []LineResponse  `json:"lines"`
	Stages            []StageResponse `json:"stages"`
	CreatedAt         time.Time       `json:"created_at"`
}

type TransferRequestResponse struct {
	ID              string         `json:"id"`
	Code            string         `json:"code"`
	Status          string         `json:"status"`
	FromWarehouseID string         `json:"from_warehouse_id"`
	ToWarehouseID   string         `json:"to_warehouse_id"`
	Lines           []LineResponse `json:"lines"`
	CreatedAt       time.Time      `json:"created_at"`
}

type PurchaseOrderResponse struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	Status       string          `json:"status"`
	SellerID     string          `json:"seller_id"`
	WarehouseID  string          `json:"warehouse_id"`
	SalesOrderID *string         `json:"sales_order_id,omitempty"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Lines        []LineResponse  `json:"lines"`
	CreatedAt    time.Time       `json:"created_at"`
}

type SalesOrderResponse struct {
	ID              string          `json:"id"`
	Code            string          `json:"code"`
	Status          string          `json:"status"`
	BuyerID         string          `json:"buyer_id"`
	PurchaseOrderID string          `json:"purchase_order_id"`
	WarehouseID     string          `json:"warehouse_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Lines           []LineResponse  `json:"lines"`
	CreatedAt       time.Time       `json:"created_at"`
}

type TicketResponse struct {
	ID            string         `json:"id"`
	Code          string         `json:"code"`
	Status        string         `json:"status"`
	WarehouseID   string         `json:"warehouse_id"`
	FlowType      string         `json:"flow_type"`
	ReferenceType string         `json:"reference_type"`
	ReferenceID   string         `json:"reference_id"`
	PickListPath  *string        `json:"pick_list_path,omitempty"`
	Lines         []LineResponse `json:"lines"`
	CreatedAt     time.Time      `json:"created_at"`
}

type DeliveryEventResponse struct {
	Kind       string    `json:"kind"`
	Location   string    `json:"location"`
	OccurredAt time.Time `json:"occurred_at"`
}

type DeliveryOrderResponse struct {
	ID              string                  `json:"id"`
	Code            string                  `json:"code"`
	Status          string                  `json:"status"`
	SalesOrderID    string                  `json:"sales_order_id"`
	PickupLocation  string                  `json:"pickup_location"`
	DropoffLocation string                  `json:"dropoff_location"`
	Events          []DeliveryEventResponse `json:"events"`
	CreatedAt       time.Time               `json:"created_at"`
}
