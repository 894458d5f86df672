package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/apierror"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/dto"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/gateway"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/model"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/repository"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// FulfillmentService is the orchestration core: every cross-document action
// (confirm, issue, receive, completion, delivery) runs here as a journaled
// multi-step pipeline. Single-document transitions without side effects run
// directly in one transaction.
type FulfillmentService interface {
	Confirm(ctx context.Context, actor dto.Actor, docType model.DocumentType, id uuid.UUID) (*dto.PipelineResponse, error)
	Cancel(ctx context.Context, actor dto.Actor, docType model.DocumentType, id uuid.UUID, reason string) error

	Issue(ctx context.Context, actor dto.Actor, ticketID uuid.UUID) (*dto.PipelineResponse, error)
	Receive(ctx context.Context, actor dto.Actor, ticketID uuid.UUID) (*dto.PipelineResponse, error)

	CompleteStage(ctx context.Context, actor dto.Actor, orderID, stageID uuid.UUID) (*dto.ProductionOrderResponse, error)
	CompleteProduction(ctx context.Context, actor dto.Actor, orderID uuid.UUID, req *dto.CompleteProductionRequest) (*dto.CompleteProductionResponse, error)

	ConfirmDelivery(ctx context.Context, actor dto.Actor, deliveryID uuid.UUID) error
	RecordPickup(ctx context.Context, actor dto.Actor, deliveryID uuid.UUID, req *dto.DeliveryEventRequest) error
	CompleteDelivery(ctx context.Context, actor dto.Actor, deliveryID uuid.UUID, req *dto.DeliveryEventRequest) (*dto.PipelineResponse, error)

	GetPipeline(ctx context.Context, id uuid.UUID) (*dto.PipelineResponse, error)
	ListPipelines(ctx context.Context, status string, page, limit int) ([]dto.PipelineResponse, int64, error)
	ResolvePipeline(ctx context.Context, actor dto.Actor, id uuid.UUID) (*dto.PipelineResponse, error)
}

type fulfillmentService struct {
	saga       *sagaRunner
	ledger     repository.LedgerRepository
	production repository.ProductionOrderRepository
	transfers  repository.TransferRequestRepository
	trades     repository.TradeOrderRepository
	tickets    repository.TicketRepository
	deliveries repository.DeliveryOrderRepository
	pipelines  repository.PipelineRepository
	bom        repository.BOMRepository
	masterData *gateway.MasterDataClient
	dispatcher *worker.Dispatcher

	overproductionPct int
}

// NewFulfillmentService wires the orchestrator. db may be nil in unit tests;
// saga steps then run without transactions against stub repositories.
func NewFulfillmentService(
	db *gorm.DB,
	ledger repository.LedgerRepository,
	production repository.ProductionOrderRepository,
	transfers repository.TransferRequestRepository,
	trades repository.TradeOrderRepository,
	tickets repository.TicketRepository,
	deliveries repository.DeliveryOrderRepository,
	pipelines repository.PipelineRepository,
	bom repository.BOMRepository,
	masterData *gateway.MasterDataClient,
	dispatcher *worker.Dispatcher,
	overproductionPct int,
) FulfillmentService {
	return &fulfillmentService{
		saga:              &sagaRunner{db: db, pipelines: pipelines, dispatcher: dispatcher},
		ledger:            ledger,
		production:        production,
		transfers:         transfers,
		trades:            trades,
		tickets:           tickets,
		deliveries:        deliveries,
		pipelines:         pipelines,
		bom:               bom,
		masterData:        masterData,
		dispatcher:        dispatcher,
		overproductionPct: overproductionPct,
	}
}

// newCode mints a human-readable document code, e.g. "IT-3F9A2C41D0".
func newCode(prefix string) string {
	return prefix + "-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:10]
}

func demandOf(lines []model.DocumentLine) []model.DemandLine {
	demand := make([]model.DemandLine, 0, len(lines))
	for _, l := range lines {
		demand = append(demand, l.Demand())
	}
	return demand
}

func copyLines(lines []model.DocumentLine) []model.DocumentLine {
	out := make([]model.DocumentLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, model.DocumentLine{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	return out
}

// ── Ledger step helpers ───────────────────────────────────────────────────────

// adjustLines applies one ledger adjustment per demand line, all under the
// caller's transaction. Signs are per unit: a reserve is (0, +1), an issue is
// (-1, -1), a receive is (+1, 0).
func (s *fulfillmentService) adjustLines(tx *gorm.DB, warehouseID uuid.UUID, demand []model.DemandLine, onHandSign, reservedSign int, kind, reason string, refType model.DocumentType, refID uuid.UUID) error {
	rt := string(refType)
	for _, d := range demand {
		adj := repository.LedgerAdjustment{
			ItemID:        d.ItemID,
			WarehouseID:   warehouseID,
			OnHandDelta:   onHandSign * d.Quantity,
			ReservedDelta: reservedSign * d.Quantity,
			Kind:          kind,
			Reason:        reason,
			ReferenceType: &rt,
			ReferenceID:   &refID,
		}
		if err := s.ledger.AdjustTx(tx, adj); err != nil {
			return err
		}
	}
	return nil
}

// checkAndReserve is the authoritative reservation: it locks every ledger row
// for the demand set (deterministic item order), re-checks each line under
// the lock, and only then commits the reserved increments. All-or-nothing; a
// single short line rejects the whole batch with the ledger untouched.
func (s *fulfillmentService) checkAndReserve(tx *gorm.DB, warehouseID uuid.UUID, demand []model.DemandLine, reason string, refType model.DocumentType, refID uuid.UUID) error {
	itemIDs := make([]uuid.UUID, 0, len(demand))
	for _, d := range demand {
		itemIDs = append(itemIDs, d.ItemID)
	}

	recs, err := s.ledger.LockRecordsTx(tx, warehouseID, itemIDs)
	if err != nil {
		return err
	}
	byItem := make(map[uuid.UUID]*model.InventoryRecord, len(recs))
	for i := range recs {
		byItem[recs[i].ItemID] = &recs[i]
	}

	var shortages []apierror.LineShortage
	for _, d := range demand {
		rec := byItem[d.ItemID]
		switch CheckLine(rec, d.Quantity) {
		case CheckNoRecord:
			shortages = append(shortages, apierror.LineShortage{ItemID: d.ItemID, Needed: d.Quantity, NoRecord: true})
		case CheckInsufficient:
			shortages = append(shortages, apierror.LineShortage{ItemID: d.ItemID, Needed: d.Quantity, Available: rec.Available()})
		}
	}
	if len(shortages) > 0 {
		return &apierror.InsufficientInventoryError{WarehouseID: warehouseID, Lines: shortages}
	}

	return s.adjustLines(tx, warehouseID, demand, 0, +1, model.MovementReserve, reason, refType, refID)
}

// preflightCheck is the advisory (unlocked) pass before a confirm spins up a
// pipeline. It rejects obviously short batches early; the locked re-check
// inside the reserve step remains the source of truth.
func (s *fulfillmentService) preflightCheck(ctx context.Context, warehouseID uuid.UUID, demand []model.DemandLine) error {
	var shortages []apierror.LineShortage
	for _, d := range demand {
		rec, err := s.ledger.GetRecord(ctx, d.ItemID, warehouseID)
		var nf *apierror.NotFoundError
		if err != nil && !errors.As(err, &nf) {
			return err
		}
		switch CheckLine(rec, d.Quantity) {
		case CheckNoRecord:
			shortages = append(shortages, apierror.LineShortage{ItemID: d.ItemID, Needed: d.Quantity, NoRecord: true})
		case CheckInsufficient:
			shortages = append(shortages, apierror.LineShortage{ItemID: d.ItemID, Needed: d.Quantity, Available: rec.Available()})
		}
	}
	if len(shortages) > 0 {
		return &apierror.InsufficientInventoryError{WarehouseID: warehouseID, Lines: shortages}
	}
	return nil
}

// ── Confirm ───────────────────────────────────────────────────────────────────

func (s *fulfillmentService) Confirm(ctx context.Context, actor dto.Actor, docType model.DocumentType, id uuid.UUID) (*dto.PipelineResponse, error) {
	switch docType {
	case model.DocProductionOrder:
		return s.confirmProduction(ctx, actor, id)
	case model.DocTransferRequest:
		return s.confirmTransfer(ctx, actor, id)
	case model.DocPurchaseOrder:
		return s.confirmTrade(ctx, actor, id)
	default:
		return nil, apierror.NewValidationMsg("this document kind cannot be confirmed directly")
	}
}

func (s *fulfillmentService) confirmProduction(ctx context.Context, actor dto.Actor, id uuid.UUID) (*dto.PipelineResponse, error) {
	order, err := s.production.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := model.CheckTransition(model.DocProductionOrder, order.Status, model.StatusPendingProduction); err != nil {
		return nil, err
	}

	comps, err := s.bom.ListComponents(ctx, order.ItemID)
	if err != nil {
		return nil, err
	}
	if len(comps) == 0 {
		return nil, apierror.NewValidationMsg("item has no bill of materials")
	}

	demand := make([]model.DemandLine, 0, len(comps))
	exploded := make([]model.DocumentLine, 0, len(comps))
	for _, c := range comps {
		qty := c.QuantityPer * order.Quantity
		demand = append(demand, model.DemandLine{ItemID: c.ComponentItemID, Quantity: qty})
		exploded = append(exploded, model.DocumentLine{ItemID: c.ComponentItemID, Quantity: qty})
	}

	if err := s.preflightCheck(ctx, order.WarehouseID, demand); err != nil {
		return nil, err
	}

	ticket := s.newIssueTicket(order.CompanyID, order.WarehouseID, model.FlowProduction, model.DocProductionOrder, order.ID, exploded)
	reason := "confirm " + order.Code

	steps := []sagaStep{
		{
			Name: "transition_status",
			Run: func(tx *gorm.DB) error {
				return s.production.UpdateStatusTx(tx, order.ID, model.StatusPendingConfirmation, model.StatusPendingProduction)
			},
			Undo: func(tx *gorm.DB) error {
				return s.production.UpdateStatusTx(tx, order.ID, model.StatusPendingProduction, model.StatusPendingConfirmation)
			},
		},
		{
			Name: "reserve_inventory",
			Run: func(tx *gorm.DB) error {
				if err := s.checkAndReserve(tx, order.WarehouseID, demand, reason, model.DocProductionOrder, order.ID); err != nil {
					return err
				}
				return s.production.ReplaceLinesTx(tx, order.ID, copyLines(exploded))
			},
			Undo: func(tx *gorm.DB) error {
				return s.adjustLines(tx, order.WarehouseID, demand, 0, -1, model.MovementRelease,
					"compensate "+reason, model.DocProductionOrder, order.ID)
			},
		},
		s.spawnIssueTicketStep(ticket),
	}

	pipeline, err := s.saga.run(ctx, actor, "confirm", model.DocProductionOrder, order.ID, steps)
	if err != nil {
		return nil, err
	}
	s.queuePickList(ctx, ticket.ID)
	return s.pipelineResponse(ctx, pipeline), nil
}

func (s *fulfillmentService) confirmTransfer(ctx context.Context, actor dto.Actor, id uuid.UUID) (*dto.PipelineResponse, error) {
	tr, err := s.transfers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := model.CheckTransition(model.DocTransferRequest, tr.Status, model.StatusPendingIssue); err != nil {
		return nil, err
	}

	demand := demandOf(tr.Lines)
	if err := s.preflightCheck(ctx, tr.FromWarehouseID, demand); err != nil {
		return nil, err
	}

	ticket := s.newIssueTicket(tr.CompanyID, tr.FromWarehouseID, model.FlowTransfer, model.DocTransferRequest, tr.ID, copyLines(tr.Lines))
	reason := "confirm " + tr.Code

	steps := []sagaStep{
		{
			Name: "transition_status",
			Run: func(tx *gorm.DB) error {
				return s.transfers.UpdateStatusTx(tx, tr.ID, model.StatusPendingConfirmation, model.StatusPendingIssue)
			},
			Undo: func(tx *gorm.DB) error {
				return s.transfers.UpdateStatusTx(tx, tr.ID, model.StatusPendingIssue, model.StatusPendingConfirmation)
			},
		},
		{
			Name: "reserve_inventory",
			Run: func(tx *gorm.DB) error {
				return s.checkAndReserve(tx, tr.FromWarehouseID, demand, reason, model.DocTransferRequest, tr.ID)
			},
			Undo: func(tx *gorm.DB) error {
				return s.adjustLines(tx, tr.FromWarehouseID, demand, 0, -1, model.MovementRelease,
					"compensate "+reason, model.DocTransferRequest, tr.ID)
			},
		},
		s.spawnIssueTicketStep(ticket),
	}

	pipeline, err := s.saga.run(ctx, actor, "confirm", model.DocTransferRequest, tr.ID, steps)
	if err != nil {
		return nil, err
	}
	s.queuePickList(ctx, ticket.ID)
	return s.pipelineResponse(ctx, pipeline), nil
}

func (s *fulfillmentService) confirmTrade(ctx context.Context, actor dto.Actor, id uuid.UUID) (*dto.PipelineResponse, error) {
	po, err := s.trades.FindPurchaseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := model.CheckTransition(model.DocPurchaseOrder, po.Status, model.StatusConfirmed); err != nil {
		return nil, err
	}
	so, err := s.trades.FindSalesByPurchaseID(ctx, po.ID)
	if err != nil {
		return nil, err
	}
	if err := model.CheckTransition(model.DocSalesOrder, so.Status, model.StatusConfirmed); err != nil {
		return nil, err
	}

	// Reservation happens at the seller's shipping warehouse.
	demand := demandOf(so.Lines)
	if err := s.preflightCheck(ctx, so.WarehouseID, demand); err != nil {
		return nil, err
	}

	ticket := s.newIssueTicket(so.CompanyID, so.WarehouseID, model.FlowSale, model.DocSalesOrder, so.ID, copyLines(so.Lines))
	reason := "confirm " + po.Code

	steps := []sagaStep{
		{
			Name: "transition_pair",
			Run: func(tx *gorm.DB) error {
				if err := s.trades.UpdatePurchaseStatusTx(tx, po.ID, model.StatusPendingConfirmation, model.StatusConfirmed); err != nil {
					return err
				}
				return s.trades.UpdateSalesStatusTx(tx, so.ID, model.StatusPendingConfirmation, model.StatusConfirmed)
			},
			Undo: func(tx *gorm.DB) error {
				if err := s.trades.UpdateSalesStatusTx(tx, so.ID, model.StatusConfirmed, model.StatusPendingConfirmation); err != nil {
					return err
				}
				return s.trades.UpdatePurchaseStatusTx(tx, po.ID, model.StatusConfirmed, model.StatusPendingConfirmation)
			},
		},
		{
			Name: "reserve_inventory",
			Run: func(tx *gorm.DB) error {
				return s.checkAndReserve(tx, so.WarehouseID, demand, reason, model.DocSalesOrder, so.ID)
			},
			Undo: func(tx *gorm.DB) error {
				return s.adjustLines(tx, so.WarehouseID, demand, 0, -1, model.MovementRelease,
					"compensate "+reason, model.DocSalesOrder, so.ID)
			},
		},
		s.spawnIssueTicketStep(ticket),
	}

	pipeline, err := s.saga.run(ctx, actor, "confirm", model.DocPurchaseOrder, po.ID, steps)
	if err != nil {
		return nil, err
	}
	s.queuePickList(ctx, ticket.ID)
	return s.pipelineResponse(ctx, pipeline), nil
}

// ── Cancel ────────────────────────────────────────────────────────────────────

func (s *fulfillmentService) Cancel(ctx context.Context, actor dto.Actor, docType model.DocumentType, id uuid.UUID, reason string) error {
	switch docType {
	case model.DocProductionOrder:
		order, err := s.production.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := model.CheckTransition(model.DocProductionOrder, order.Status, model.StatusCancelled); err != nil {
			return err
		}
		return runTx(ctx, s.saga.db, func(tx *gorm.DB) error {
			return s.production.UpdateStatusTx(tx, order.ID, order.Status, model.StatusCancelled)
		})

	case model.DocPurchaseOrder:
		po, err := s.trades.FindPurchaseByID(ctx, id)
		if err != nil {
			return err
		}
		if err := model.CheckTransition(model.DocPurchaseOrder, po.Status, model.StatusCancelled); err != nil {
			return err
		}
		so, err := s.trades.FindSalesByPurchaseID(ctx, po.ID)
		if err != nil {
			return err
		}
		if err := model.CheckTransition(model.DocSalesOrder, so.Status, model.StatusCancelled); err != nil {
			return err
		}
		// Both sides cancel in one transaction; the pair never splits.
		return runTx(ctx, s.saga.db, func(tx *gorm.DB) error {
			if err := s.trades.UpdatePurchaseStatusTx(tx, po.ID, po.Status, model.StatusCancelled); err != nil {
				return err
			}
			if err := s.trades.UpdateSalesStatusTx(tx, so.ID, so.Status, model.StatusCancelled); err != nil {
				return err
			}
			return s.trades.SetCancelReasonTx(tx, po.ID, reason)
		})

	default:
		return apierror.NewValidationMsg("this document kind cannot be cancelled")
	}
}

// ── Issue ─────────────────────────────────────────────────────────────────────

func (s *fulfillmentService) Issue(ctx context.Context, actor dto.Actor, ticketID uuid.UUID) (*dto.PipelineResponse, error) {
	ticket, err := s.tickets.FindIssueByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := model.CheckTransition(model.DocIssueTicket, ticket.Status, model.StatusCompleted); err != nil {
		return nil, err
	}

	demand := demandOf(ticket.Lines)
	reason := "issue " + ticket.Code

	deduct := sagaStep{
		Name: "deduct_inventory",
		Run: func(tx *gorm.DB) error {
			return s.adjustLines(tx, ticket.WarehouseID, demand, -1, -1, model.MovementIssue,
				reason, model.DocIssueTicket, ticket.ID)
		},
		Undo: func(tx *gorm.DB) error {
			return s.adjustLines(tx, ticket.WarehouseID, demand, +1, +1, model.MovementCompensation,
				"compensate "+reason, model.DocIssueTicket, ticket.ID)
		},
	}
	completeTicket := sagaStep{
		Name: "complete_issue_ticket",
		Run: func(tx *gorm.DB) error {
			return s.tickets.UpdateIssueStatusTx(tx, ticket.ID, model.StatusPendingIssue, model.StatusCompleted)
		},
		Undo: func(tx *gorm.DB) error {
			return s.tickets.UpdateIssueStatusTx(tx, ticket.ID, model.StatusCompleted, model.StatusPendingIssue)
		},
	}

	var steps []sagaStep
	switch ticket.IssueType {
	case model.FlowProduction:
		order, err := s.production.FindByID(ctx, ticket.ReferenceID)
		if err != nil {
			return nil, err
		}
		if err := model.CheckTransition(model.DocProductionOrder, order.Status, model.StatusInProduction); err != nil {
			return nil, err
		}
		// Finished goods come back in through this ticket once production
		// completes; spawned at planned quantity, adjusted to actual later.
		receive := s.newReceiveTicket(order.CompanyID, order.WarehouseID, model.FlowProduction, model.DocProductionOrder, order.ID,
			[]model.DocumentLine{{ItemID: order.ItemID, Quantity: order.Quantity}})
		steps = []sagaStep{
			completeTicket,
			deduct,
			{
				Name: "transition_order",
				Run: func(tx *gorm.DB) error {
					return s.production.UpdateStatusTx(tx, order.ID, model.StatusPendingProduction, model.StatusInProduction)
				},
				Undo: func(tx *gorm.DB) error {
					return s.production.UpdateStatusTx(tx, order.ID, model.StatusInProduction, model.StatusPendingProduction)
				},
			},
			s.spawnReceiveTicketStep(receive),
		}

	case model.FlowTransfer:
		tr, err := s.transfers.FindByID(ctx, ticket.ReferenceID)
		if err != nil {
			return nil, err
		}
		if err := model.CheckTransition(model.DocTransferRequest, tr.Status, model.StatusPendingReceive); err != nil {
			return nil, err
		}
		receive := s.newReceiveTicket(tr.CompanyID, tr.ToWarehouseID, model.FlowTransfer, model.DocTransferRequest, tr.ID, copyLines(ticket.Lines))
		steps = []sagaStep{
			completeTicket,
			deduct,
			{
				Name: "transition_transfer",
				Run: func(tx *gorm.DB) error {
					return s.transfers.UpdateStatusTx(tx, tr.ID, model.StatusPendingIssue, model.StatusPendingReceive)
				},
				Undo: func(tx *gorm.DB) error {
					return s.transfers.UpdateStatusTx(tx, tr.ID, model.StatusPendingReceive, model.StatusPendingIssue)
				},
			},
			s.spawnReceiveTicketStep(receive),
		}

	case model.FlowSale:
		so, err := s.trades.FindSalesByID(ctx, ticket.ReferenceID)
		if err != nil {
			return nil, err
		}
		if err := model.CheckTransition(model.DocSalesOrder, so.Status, model.StatusShipping); err != nil {
			return nil, err
		}
		po, err := s.trades.FindPurchaseByID(ctx, so.PurchaseOrderID)
		if err != nil {
			return nil, err
		}
		if err := model.CheckTransition(model.DocPurchaseOrder, po.Status, model.StatusShipping); err != nil {
			return nil, err
		}
		delivery := &model.DeliveryOrder{
			ID:              uuid.New(),
			Code:            newCode("DO"),
			SalesOrderID:    so.ID,
			PickupLocation:  s.locationOf(ctx, so.WarehouseID),
			DropoffLocation: s.locationOf(ctx, po.WarehouseID),
			Status:          model.StatusPendingConfirmation,
		}
		steps = []sagaStep{
			completeTicket,
			deduct,
			{
				Name: "transition_pair",
				Run: func(tx *gorm.DB) error {
					if err := s.trades.UpdateSalesStatusTx(tx, so.ID, model.StatusConfirmed, model.StatusShipping); err != nil {
						return err
					}
					return s.trades.UpdatePurchaseStatusTx(tx, po.ID, model.StatusConfirmed, model.StatusShipping)
				},
				Undo: func(tx *gorm.DB) error {
					if err := s.trades.UpdatePurchaseStatusTx(tx, po.ID, model.StatusShipping, model.StatusConfirmed); err != nil {
						return err
					}
					return s.trades.UpdateSalesStatusTx(tx, so.ID, model.StatusShipping, model.StatusConfirmed)
				},
			},
			{
				Name: "spawn_delivery_order",
				Run:  func(tx *gorm.DB) error { return s.deliveries.CreateTx(tx, delivery) },
				Undo: func(tx *gorm.DB) error { return s.deliveries.DeleteTx(tx, delivery.ID) },
			},
		}

	default:
		return nil, apierror.NewValidationMsg(fmt.Sprintf("unknown issue type %q", ticket.IssueType))
	}

	pipeline, err := s.saga.run(ctx, actor, "issue", model.DocIssueTicket, ticket.ID, steps)
	if err != nil {
		return nil, err
	}
	return s.pipelineResponse(ctx, pipeline), nil
}

// ── Receive ───────────────────────────────────────────────────────────────────

func (s *fulfillmentService) Receive(ctx context.Context, actor dto.Actor, ticketID uuid.UUID) (*dto.PipelineResponse, error) {
	ticket, err := s.tickets.FindReceiveByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := model.CheckTransition(model.DocReceiveTicket, ticket.Status, model.StatusCompleted); err != nil {
		return nil, err
	}

	demand := demandOf(ticket.Lines)
	reason := "receive " + ticket.Code

	add := sagaStep{
		Name: "add_inventory",
		Run: func(tx *gorm.DB) error {
			return s.adjustLines(tx, ticket.WarehouseID, demand, +1, 0, model.MovementReceive,
				reason, model.DocReceiveTicket, ticket.ID)
		},
		Undo: func(tx *gorm.DB) error {
			return s.adjustLines(tx, ticket.WarehouseID, demand, -1, 0, model.MovementCompensation,
				"compensate "+reason, model.DocReceiveTicket, ticket.ID)
		},
	}
	completeTicket := sagaStep{
		Name: "complete_receive_ticket",
		Run: func(tx *gorm.DB) error {
			return s.tickets.UpdateReceiveStatusTx(tx, ticket.ID, model.StatusPendingStockIn, model.StatusCompleted)
		},
		Undo: func(tx *gorm.DB) error {
			return s.tickets.UpdateReceiveStatusTx(tx, ticket.ID, model.StatusCompleted, model.StatusPendingStockIn)
		},
	}

	var steps []sagaStep
	switch ticket.ReceiveType {
	case model.FlowProduction:
		order, err := s.production.FindByID(ctx, ticket.ReferenceID)
		if err != nil {
			return nil, err
		}
		// Stock-in of finished goods requires the recorded completion; the
		// ticket line was adjusted to actual output at that point.
		if order.Status != model.StatusCompleted {
			return nil, apierror.NewValidationMsg("production completion must be recorded before stock-in")
		}
		steps = []sagaStep{completeTicket, add}

	case model.FlowTransfer:
		tr, err := s.transfers.FindByID(ctx, ticket.ReferenceID)
		if err != nil {
			return nil, err
		}
		if err := model.CheckTransition(model.DocTransferRequest, tr.Status, model.StatusCompleted); err != nil {
			return nil, err
		}
		steps = []sagaStep{
			completeTicket,
			add,
			{
				Name: "transition_transfer",
				Run: func(tx *gorm.DB) error {
					return s.transfers.UpdateStatusTx(tx, tr.ID, model.StatusPendingReceive, model.StatusCompleted)
				},
				Undo: func(tx *gorm.DB) error {
					return s.transfers.UpdateStatusTx(tx, tr.ID, model.StatusCompleted, model.StatusPendingReceive)
				},
			},
		}

	case model.FlowPurchase:
		po, err := s.trades.FindPurchaseByID(ctx, ticket.ReferenceID)
		if err != nil {
			return nil, err
		}
		if err := model.CheckTransition(model.DocPurchaseOrder, po.Status, model.StatusCompleted); err != nil {
			return nil, err
		}
		so, err := s.trades.FindSalesByPurchaseID(ctx, po.ID)
		if err != nil {
			return nil, err
		}
		if err := model.CheckTransition(model.DocSalesOrder, so.Status, model.StatusCompleted); err != nil {
			return nil, err
		}
		steps = []sagaStep{
			completeTicket,
			add,
			{
				Name: "transition_pair",
				Run: func(tx *gorm.DB) error {
					if err := s.trades.UpdatePurchaseStatusTx(tx, po.ID, model.StatusPendingStockIn, model.StatusCompleted); err != nil {
						return err
					}
					return s.trades.UpdateSalesStatusTx(tx, so.ID, model.StatusPendingStockIn, model.StatusCompleted)
				},
				Undo: func(tx *gorm.DB) error {
					if err := s.trades.UpdateSalesStatusTx(tx, so.ID, model.StatusCompleted, model.StatusPendingStockIn); err != nil {
						return err
					}
					return s.trades.UpdatePurchaseStatusTx(tx, po.ID, model.StatusCompleted, model.StatusPendingStockIn)
				},
			},
		}

	default:
		return nil, apierror.NewValidationMsg(fmt.Sprintf("unknown receive type %q", ticket.ReceiveType))
	}

	pipeline, err := s.saga.run(ctx, actor, "receive", model.DocReceiveTicket, ticket.ID, steps)
	if err != nil {
		return nil, err
	}
	return s.pipelineResponse(ctx, pipeline), nil
}

// ── Production completion ─────────────────────────────────────────────────────

func (s *fulfillmentService) CompleteStage(ctx context.Context, actor dto.Actor, orderID, stageID uuid.UUID) (*dto.ProductionOrderResponse, error) {
	order, err := s.production.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != model.StatusInProduction {
		return nil, apierror.NewValidationMsg("stages can only be completed while the order is in production")
	}

	var target *model.ProductionStage
	remaining := 0
	for i := range order.Stages {
		st := &order.Stages[i]
		if st.ID == stageID {
			target = st
			continue
		}
		if st.CompletedAt == nil {
			remaining++
			// Stages complete strictly in ascending order.
			if target == nil {
				return nil, apierror.NewValidationMsg("previous stages must be completed first")
			}
		}
	}
	if target == nil {
		return nil, apierror.NewNotFound("production stage", stageID.String())
	}
	if target.CompletedAt != nil {
		return nil, apierror.NewValidationMsg("stage already completed")
	}
	isLast := remaining == 0

	err = runTx(ctx, s.saga.db, func(tx *gorm.DB) error {
		if err := s.production.CompleteStageTx(tx, stageID, actor.UserID, time.Now()); err != nil {
			return err
		}
		if isLast {
			return s.production.UpdateStatusTx(tx, orderID, model.StatusInProduction, model.StatusPendingStockIn)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	refreshed, err := s.production.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return toProductionOrderResponse(refreshed), nil
}

func (s *fulfillmentService) CompleteProduction(ctx context.Context, actor dto.Actor, orderID uuid.UUID, req *dto.CompleteProductionRequest) (*dto.CompleteProductionResponse, error) {
	order, err := s.production.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := model.CheckTransition(model.DocProductionOrder, order.Status, model.StatusCompleted); err != nil {
		return nil, err
	}

	qty := req.CompletedQuantity
	if qty <= 0 {
		return nil, apierror.NewValidation(map[string]string{
			"completed_quantity": "must be greater than zero",
		})
	}
	max := order.Quantity + order.Quantity*s.overproductionPct/100
	if qty > max {
		return nil, apierror.NewValidation(map[string]string{
			"completed_quantity": fmt.Sprintf("exceeds planned quantity %d plus %d%% tolerance", order.Quantity, s.overproductionPct),
		})
	}

	receive, err := s.tickets.FindReceiveByReference(ctx, model.DocProductionOrder, order.ID)
	if err != nil {
		return nil, err
	}

	batch := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:12]
	units := make([]model.ProductionOutputUnit, 0, qty)
	serials := make([]string, 0, qty)
	for i := 1; i <= qty; i++ {
		serial := fmt.Sprintf("%s-%s-%04d", order.Code, batch, i)
		serials = append(serials, serial)
		units = append(units, model.ProductionOutputUnit{
			ProductionOrderID: order.ID,
			ItemID:            order.ItemID,
			SerialNo:          serial,
			BatchNo:           batch,
		})
	}

	steps := []sagaStep{
		{
			Name: "record_completion",
			Run: func(tx *gorm.DB) error {
				if err := s.production.SetCompletionTx(tx, order.ID, qty, batch); err != nil {
					return err
				}
				return s.production.CreateOutputUnitsTx(tx, units)
			},
			Undo: func(tx *gorm.DB) error {
				return s.production.UndoCompletionTx(tx, order.ID, batch)
			},
		},
		{
			// The finished-goods ticket was spawned at planned quantity;
			// rewrite it to actual output before stock-in.
			Name: "adjust_receive_ticket",
			Run: func(tx *gorm.DB) error {
				return s.tickets.SetReceiveLineQuantityTx(tx, receive.ID, order.ItemID, qty)
			},
			Undo: func(tx *gorm.DB) error {
				return s.tickets.SetReceiveLineQuantityTx(tx, receive.ID, order.ItemID, order.Quantity)
			},
		},
		{
			Name: "transition_order",
			Run: func(tx *gorm.DB) error {
				return s.production.UpdateStatusTx(tx, order.ID, model.StatusPendingStockIn, model.StatusCompleted)
			},
			Undo: func(tx *gorm.DB) error {
				return s.production.UpdateStatusTx(tx, order.ID, model.StatusCompleted, model.StatusPendingStockIn)
			},
		},
	}

	if _, err := s.saga.run(ctx, actor, "complete_production", model.DocProductionOrder, order.ID, steps); err != nil {
		return nil, err
	}

	return &dto.CompleteProductionResponse{
		OrderID:           order.ID.String(),
		BatchNo:           batch,
		CompletedQuantity: qty,
		UnitSerials:       serials,
	}, nil
}

// ── Delivery ──────────────────────────────────────────────────────────────────

func (s *fulfillmentService) ConfirmDelivery(ctx context.Context, actor dto.Actor, deliveryID uuid.UUID) error {
	d, err := s.deliveries.FindByID(ctx, deliveryID)
	if err != nil {
		return err
	}
	if err := model.CheckTransition(model.DocDeliveryOrder, d.Status, model.StatusPendingPickup); err != nil {
		return err
	}
	return runTx(ctx, s.saga.db, func(tx *gorm.DB) error {
		return s.deliveries.UpdateStatusTx(tx, d.ID, model.StatusPendingConfirmation, model.StatusPendingPickup)
	})
}

func (s *fulfillmentService) RecordPickup(ctx context.Context, actor dto.Actor, deliveryID uuid.UUID, req *dto.DeliveryEventRequest) error {
	d, err := s.deliveries.FindByID(ctx, deliveryID)
	if err != nil {
		return err
	}
	if err := model.CheckTransition(model.DocDeliveryOrder, d.Status, model.StatusInTransit); err != nil {
		return err
	}
	return runTx(ctx, s.saga.db, func(tx *gorm.DB) error {
		if err := s.deliveries.UpdateStatusTx(tx, d.ID, model.StatusPendingPickup, model.StatusInTransit); err != nil {
			return err
		}
		return s.deliveries.AddEventTx(tx, &model.DeliveryEvent{
			DeliveryOrderID: d.ID,
			Kind:            model.DeliveryEventPickupArrival,
			Location:        req.Location,
			RecordedBy:      actor.UserID,
			OccurredAt:      time.Now(),
		})
	})
}

func (s *fulfillmentService) CompleteDelivery(ctx context.Context, actor dto.Actor, deliveryID uuid.UUID, req *dto.DeliveryEventRequest) (*dto.PipelineResponse, error) {
	d, err := s.deliveries.FindByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if err := model.CheckTransition(model.DocDeliveryOrder, d.Status, model.StatusCompleted); err != nil {
		return nil, err
	}
	so, err := s.trades.FindSalesByID(ctx, d.SalesOrderID)
	if err != nil {
		return nil, err
	}
	if err := model.CheckTransition(model.DocSalesOrder, so.Status, model.StatusPendingStockIn); err != nil {
		return nil, err
	}
	po, err := s.trades.FindPurchaseByID(ctx, so.PurchaseOrderID)
	if err != nil {
		return nil, err
	}
	if err := model.CheckTransition(model.DocPurchaseOrder, po.Status, model.StatusPendingStockIn); err != nil {
		return nil, err
	}

	event := &model.DeliveryEvent{
		ID:              uuid.New(),
		DeliveryOrderID: d.ID,
		Kind:            model.DeliveryEventDropoffArrival,
		Location:        req.Location,
		RecordedBy:      actor.UserID,
		OccurredAt:      time.Now(),
	}
	receive := s.newReceiveTicket(po.CompanyID, po.WarehouseID, model.FlowPurchase, model.DocPurchaseOrder, po.ID, copyLines(po.Lines))

	steps := []sagaStep{
		{
			Name: "complete_delivery",
			Run: func(tx *gorm.DB) error {
				if err := s.deliveries.UpdateStatusTx(tx, d.ID, model.StatusInTransit, model.StatusCompleted); err != nil {
					return err
				}
				return s.deliveries.AddEventTx(tx, event)
			},
			Undo: func(tx *gorm.DB) error {
				if err := s.deliveries.DeleteEventTx(tx, event.ID); err != nil {
					return err
				}
				return s.deliveries.UpdateStatusTx(tx, d.ID, model.StatusCompleted, model.StatusInTransit)
			},
		},
		{
			Name: "transition_pair",
			Run: func(tx *gorm.DB) error {
				if err := s.trades.UpdateSalesStatusTx(tx, so.ID, model.StatusShipping, model.StatusPendingStockIn); err != nil {
					return err
				}
				return s.trades.UpdatePurchaseStatusTx(tx, po.ID, model.StatusShipping, model.StatusPendingStockIn)
			},
			Undo: func(tx *gorm.DB) error {
				if err := s.trades.UpdatePurchaseStatusTx(tx, po.ID, model.StatusPendingStockIn, model.StatusShipping); err != nil {
					return err
				}
				return s.trades.UpdateSalesStatusTx(tx, so.ID, model.StatusPendingStockIn, model.StatusShipping)
			},
		},
		s.spawnReceiveTicketStep(receive),
	}

	pipeline, err := s.saga.run(ctx, actor, "complete_delivery", model.DocDeliveryOrder, d.ID, steps)
	if err != nil {
		return nil, err
	}
	return s.pipelineResponse(ctx, pipeline), nil
}

// ── Pipeline queries ──────────────────────────────────────────────────────────

func (s *fulfillmentService) GetPipeline(ctx context.Context, id uuid.UUID) (*dto.PipelineResponse, error) {
	p, err := s.pipelines.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toPipelineResponse(p), nil
}

func (s *fulfillmentService) ListPipelines(ctx context.Context, status string, page, limit int) ([]dto.PipelineResponse, int64, error) {
	ps, total, err := s.pipelines.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.PipelineResponse, 0, len(ps))
	for i := range ps {
		out = append(out, *toPipelineResponse(&ps[i]))
	}
	return out, total, nil
}

// ResolvePipeline marks a stalled run as manually reconciled, stopping the
// escalation cron. It does not touch the ledger or documents; the operator is
// asserting those were already fixed by hand.
func (s *fulfillmentService) ResolvePipeline(ctx context.Context, actor dto.Actor, id uuid.UUID) (*dto.PipelineResponse, error) {
	p, err := s.pipelines.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != model.PipelineStalled {
		return nil, apierror.NewValidationMsg("only stalled pipelines can be resolved")
	}
	if err := s.pipelines.SetStatus(ctx, p.ID, model.PipelineResolved, p.FailedStep, p.LastError); err != nil {
		return nil, err
	}
	if err := s.pipelines.ScheduleRetry(ctx, p.ID, p.RetryCount, nil); err != nil {
		return nil, err
	}
	log.Info().
		Str("pipeline_id", p.ID.String()).
		Str("resolved_by", actor.Username).
		Msg("stalled pipeline resolved")

	refreshed, err := s.pipelines.FindByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return toPipelineResponse(refreshed), nil
}

// ── Spawn helpers ─────────────────────────────────────────────────────────────

func (s *fulfillmentService) newIssueTicket(companyID, warehouseID uuid.UUID, flow model.FlowType, refType model.DocumentType, refID uuid.UUID, lines []model.DocumentLine) *model.IssueTicket {
	return &model.IssueTicket{
		ID:            uuid.New(),
		Code:          newCode("IT"),
		CompanyID:     companyID,
		WarehouseID:   warehouseID,
		IssueType:     flow,
		ReferenceType: refType,
		ReferenceID:   refID,
		Status:        model.StatusPendingConfirmation,
		Lines:         lines,
	}
}

func (s *fulfillmentService) newReceiveTicket(companyID, warehouseID uuid.UUID, flow model.FlowType, refType model.DocumentType, refID uuid.UUID, lines []model.DocumentLine) *model.ReceiveTicket {
	return &model.ReceiveTicket{
		ID:            uuid.New(),
		Code:          newCode("RT"),
		CompanyID:     companyID,
		WarehouseID:   warehouseID,
		ReceiveType:   flow,
		ReferenceType: refType,
		ReferenceID:   refID,
		Status:        model.StatusPendingConfirmation,
		Lines:         lines,
	}
}

// spawnIssueTicketStep creates the ticket and immediately advances it to
// pending-issue through the guarded update, so its lifecycle stays inside the
// transition table like every other document.
func (s *fulfillmentService) spawnIssueTicketStep(ticket *model.IssueTicket) sagaStep {
	return sagaStep{
		Name: "spawn_issue_ticket",
		Run: func(tx *gorm.DB) error {
			if err := s.tickets.CreateIssueTx(tx, ticket); err != nil {
				return err
			}
			return s.tickets.UpdateIssueStatusTx(tx, ticket.ID, model.StatusPendingConfirmation, model.StatusPendingIssue)
		},
		Undo: func(tx *gorm.DB) error {
			return s.tickets.DeleteIssueTx(tx, ticket.ID)
		},
	}
}

func (s *fulfillmentService) spawnReceiveTicketStep(ticket *model.ReceiveTicket) sagaStep {
	return sagaStep{
		Name: "spawn_receive_ticket",
		Run: func(tx *gorm.DB) error {
			if err := s.tickets.CreateReceiveTx(tx, ticket); err != nil {
				return err
			}
			return s.tickets.UpdateReceiveStatusTx(tx, ticket.ID, model.StatusPendingConfirmation, model.StatusPendingStockIn)
		},
		Undo: func(tx *gorm.DB) error {
			return s.tickets.DeleteReceiveTx(tx, ticket.ID)
		},
	}
}

func (s *fulfillmentService) queuePickList(ctx context.Context, ticketID uuid.UUID) {
	if s.dispatcher == nil {
		return
	}
	payload := worker.PickListJobPayload{IssueTicketID: ticketID.String()}
	if err := s.dispatcher.EnqueuePickList(ctx, payload); err != nil {
		log.Error().Err(err).Str("issue_ticket_id", ticketID.String()).Msg("failed to enqueue pick list job")
	}
}

// locationOf resolves a warehouse's display name for delivery paperwork,
// falling back to the raw id when master data is unreachable.
func (s *fulfillmentService) locationOf(ctx context.Context, warehouseID uuid.UUID) string {
	if s.masterData != nil {
		if w, err := s.masterData.GetWarehouse(ctx, warehouseID); err == nil && w.Name != "" {
			return w.Name
		}
	}
	return warehouseID.String()
}

// pipelineResponse re-reads the pipeline so the response carries the journaled
// steps; falls back to the in-memory record if the read fails.
func (s *fulfillmentService) pipelineResponse(ctx context.Context, p *model.FulfillmentPipeline) *dto.PipelineResponse {
	if refreshed, err := s.pipelines.FindByID(ctx, p.ID); err == nil {
		return toPipelineResponse(refreshed)
	}
	return toPipelineResponse(p)
}
