package model

import (
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/apierror"
)

// DocumentType identifies each document kind driven by the fulfillment
// orchestrator.
type DocumentType string

const (
	DocProductionOrder DocumentType = "production_order"
	DocTransferRequest DocumentType = "transfer_request"
	DocPurchaseOrder   DocumentType = "purchase_order"
	DocSalesOrder      DocumentType = "sales_order"
	DocIssueTicket     DocumentType = "issue_ticket"
	DocReceiveTicket   DocumentType = "receive_ticket"
	DocDeliveryOrder   DocumentType = "delivery_order"
)

// Status is a document lifecycle state. Each document kind uses a closed
// subset of these values; legality is encoded in the transitions table below,
// never by string comparison at call sites.
type Status string

const (
	StatusPendingConfirmation Status = "pending_confirmation"
	StatusPendingProduction   Status = "pending_production"
	StatusInProduction        Status = "in_production"
	StatusPendingStockIn      Status = "pending_stock_in"
	StatusPendingIssue        Status = "pending_issue"
	StatusPendingReceive      Status = "pending_receive"
	StatusConfirmed           Status = "confirmed"
	StatusShipping            Status = "shipping"
	StatusPendingPickup       Status = "pending_pickup"
	StatusInTransit           Status = "in_transit"
	StatusCompleted           Status = "completed"
	StatusCancelled           Status = "cancelled"
)

// FlowType distinguishes what an issue/receive ticket moves stock for.
type FlowType string

const (
	FlowProduction FlowType = "production"
	FlowTransfer   FlowType = "transfer"
	FlowSale       FlowType = "sale"
	FlowPurchase   FlowType = "purchase"
)

// transitions is the single source of truth for legal status changes.
// Documents only move forward; Cancelled is reachable solely from the initial
// state and only for the kinds listed here.
var transitions = map[DocumentType]map[Status][]Status{
	DocProductionOrder: {
		StatusPendingConfirmation: {StatusPendingProduction, StatusCancelled},
		StatusPendingProduction:   {StatusInProduction},
		StatusInProduction:        {StatusPendingStockIn},
		StatusPendingStockIn:      {StatusCompleted},
	},
	DocTransferRequest: {
		StatusPendingConfirmation: {StatusPendingIssue},
		StatusPendingIssue:        {StatusPendingReceive},
		StatusPendingReceive:      {StatusCompleted},
	},
	DocPurchaseOrder: {
		StatusPendingConfirmation: {StatusConfirmed, StatusCancelled},
		StatusConfirmed:           {StatusShipping},
		StatusShipping:            {StatusPendingStockIn},
		StatusPendingStockIn:      {StatusCompleted},
	},
	// Sales orders mirror purchase orders; the orchestrator drives both sides
	// of a pair through the same transitions in lock-step.
	DocSalesOrder: {
		StatusPendingConfirmation: {StatusConfirmed, StatusCancelled},
		StatusConfirmed:           {StatusShipping},
		StatusShipping:            {StatusPendingStockIn},
		StatusPendingStockIn:      {StatusCompleted},
	},
	DocIssueTicket: {
		StatusPendingConfirmation: {StatusPendingIssue},
		StatusPendingIssue:        {StatusCompleted},
	},
	DocReceiveTicket: {
		StatusPendingConfirmation: {StatusPendingStockIn},
		StatusPendingStockIn:      {StatusCompleted},
	},
	DocDeliveryOrder: {
		StatusPendingConfirmation: {StatusPendingPickup},
		StatusPendingPickup:       {StatusInTransit},
		StatusInTransit:           {StatusCompleted},
	},
}

// CanTransition reports whether from -> to is listed for the document kind.
func CanTransition(doc DocumentType, from, to Status) bool {
	for _, next := range transitions[doc][from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns an InvalidTransitionError unless from -> to is legal.
func CheckTransition(doc DocumentType, from, to Status) error {
	if !CanTransition(doc, from, to) {
		return apierror.NewInvalidTransition(string(doc), string(from), string(to))
	}
	return nil
}

// IsTerminal reports whether a status has no outgoing transitions for the kind.
func IsTerminal(doc DocumentType, s Status) bool {
	return len(transitions[doc][s]) == 0
}
