package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/apierror"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/dto"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/gateway"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/model"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentService creates and reads documents. Creation always lands in
// pending-confirmation; all movement through the lifecycle goes through the
// fulfillment orchestrator.
type DocumentService interface {
	CreateProductionOrder(ctx context.Context, actor dto.Actor, req *dto.CreateProductionOrderRequest) (*dto.ProductionOrderResponse, error)
	GetProductionOrder(ctx context.Context, id uuid.UUID) (*dto.ProductionOrderResponse, error)

	CreateTransferRequest(ctx context.Context, actor dto.Actor, req *dto.CreateTransferRequestRequest) (*dto.TransferRequestResponse, error)
	GetTransferRequest(ctx context.Context, id uuid.UUID) (*dto.TransferRequestResponse, error)

	CreatePurchaseOrder(ctx context.Context, actor dto.Actor, req *dto.CreatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error)
	GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*dto.PurchaseOrderResponse, error)
	GetSalesOrder(ctx context.Context, id uuid.UUID) (*dto.SalesOrderResponse, error)

	GetIssueTicket(ctx context.Context, id uuid.UUID) (*dto.TicketResponse, error)
	GetReceiveTicket(ctx context.Context, id uuid.UUID) (*dto.TicketResponse, error)
	GetDeliveryOrder(ctx context.Context, id uuid.UUID) (*dto.DeliveryOrderResponse, error)

	ListMovements(ctx context.Context, filter repository.StockMovementFilter) ([]dto.MovementResponse, int64, error)
}

type documentService struct {
	production repository.ProductionOrderRepository
	transfers  repository.TransferRequestRepository
	trades     repository.TradeOrderRepository
	tickets    repository.TicketRepository
	deliveries repository.DeliveryOrderRepository
	movements  repository.StockMovementRepository
	masterData *gateway.MasterDataClient
}

func NewDocumentService(
	production repository.ProductionOrderRepository,
	transfers repository.TransferRequestRepository,
	trades repository.TradeOrderRepository,
	tickets repository.TicketRepository,
	deliveries repository.DeliveryOrderRepository,
	movements repository.StockMovementRepository,
	masterData *gateway.MasterDataClient,
) DocumentService {
	return &documentService{
		production: production,
		transfers:  transfers,
		trades:     trades,
		tickets:    tickets,
		deliveries: deliveries,
		movements:  movements,
		masterData: masterData,
	}
}

// validateItems checks each item against the master-data registry when a
// client is configured. Unknown items are a validation error; a registry
// outage surfaces as a retryable gateway error instead of silently skipping
// the check.
func (s *documentService) validateItems(ctx context.Context, itemIDs []uuid.UUID) error {
	if s.masterData == nil {
		return nil
	}
	for _, id := range itemIDs {
		if _, err := s.masterData.GetItem(ctx, id); err != nil {
			if errors.Is(err, gateway.ErrNotFound) {
				return apierror.NewValidation(map[string]string{"item_id": fmt.Sprintf("unknown item %s", id)})
			}
			return apierror.NewGateway("master data registry", err)
		}
	}
	return nil
}

func parseUUID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, apierror.NewValidation(map[string]string{field: "must be a valid UUID"})
	}
	return id, nil
}

func linesFromRequests(reqs []dto.CreateLineRequest) ([]model.DocumentLine, []uuid.UUID, error) {
	lines := make([]model.DocumentLine, 0, len(reqs))
	itemIDs := make([]uuid.UUID, 0, len(reqs))
	for _, lr := range reqs {
		itemID, err := parseUUID("lines.item_id", lr.ItemID)
		if err != nil {
			return nil, nil, err
		}
		lines = append(lines, model.DocumentLine{
			ItemID:    itemID,
			Quantity:  lr.Quantity,
			UnitPrice: lr.UnitPrice,
		})
		itemIDs = append(itemIDs, itemID)
	}
	return lines, itemIDs, nil
}

// ── Production orders ─────────────────────────────────────────────────────────

func (s *documentService) CreateProductionOrder(ctx context.Context, actor dto.Actor, req *dto.CreateProductionOrderRequest) (*dto.ProductionOrderResponse, error) {
	warehouseID, err := parseUUID("warehouse_id", req.WarehouseID)
	if err != nil {
		return nil, err
	}
	itemID, err := parseUUID("item_id", req.ItemID)
	if err != nil {
		return nil, err
	}
	var lineID *uuid.UUID
	if req.LineID != nil {
		id, err := parseUUID("line_id", *req.LineID)
		if err != nil {
			return nil, err
		}
		lineID = &id
	}
	if err := s.validateItems(ctx, []uuid.UUID{itemID}); err != nil {
		return nil, err
	}

	stages := make([]model.ProductionStage, 0, len(req.Stages))
	for i, name := range req.Stages {
		stages = append(stages, model.ProductionStage{Sequence: i + 1, Name: name})
	}

	order := &model.ProductionOrder{
		Code:        newCode("PRO"),
		CompanyID:   actor.CompanyID,
		WarehouseID: warehouseID,
		ItemID:      itemID,
		LineID:      lineID,
		Quantity:    req.Quantity,
		Status:      model.StatusPendingConfirmation,
		CreatedBy:   actor.UserID,
		Stages:      stages,
	}
	if err := s.production.Create(ctx, order); err != nil {
		return nil, err
	}
	return toProductionOrderResponse(order), nil
}

func (s *documentService) GetProductionOrder(ctx context.Context, id uuid.UUID) (*dto.ProductionOrderResponse, error) {
	order, err := s.production.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProductionOrderResponse(order), nil
}

// ── Transfer requests ─────────────────────────────────────────────────────────

func (s *documentService) CreateTransferRequest(ctx context.Context, actor dto.Actor, req *dto.CreateTransferRequestRequest) (*dto.TransferRequestResponse, error) {
	fromID, err := parseUUID("from_warehouse_id", req.FromWarehouseID)
	if err != nil {
		return nil, err
	}
	toID, err := parseUUID("to_warehouse_id", req.ToWarehouseID)
	if err != nil {
		return nil, err
	}
	if fromID == toID {
		return nil, apierror.NewValidation(map[string]string{"to_warehouse_id": "must differ from the source warehouse"})
	}
	lines, itemIDs, err := linesFromRequests(req.Lines)
	if err != nil {
		return nil, err
	}
	if err := s.validateItems(ctx, itemIDs); err != nil {
		return nil, err
	}

	tr := &model.TransferRequest{
		Code:            newCode("TR"),
		CompanyID:       actor.CompanyID,
		FromWarehouseID: fromID,
		ToWarehouseID:   toID,
		Status:          model.StatusPendingConfirmation,
		CreatedBy:       actor.UserID,
		Lines:           lines,
	}
	if err := s.transfers.Create(ctx, tr); err != nil {
		return nil, err
	}
	return toTransferRequestResponse(tr), nil
}

func (s *documentService) GetTransferRequest(ctx context.Context, id uuid.UUID) (*dto.TransferRequestResponse, error) {
	tr, err := s.transfers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toTransferRequestResponse(tr), nil
}

// ── Trade orders ──────────────────────────────────────────────────────────────

// CreatePurchaseOrder creates the buyer-side order and its seller-side sales
// order in one transaction; neither ever exists without the other.
func (s *documentService) CreatePurchaseOrder(ctx context.Context, actor dto.Actor, req *dto.CreatePurchaseOrderRequest) (*dto.PurchaseOrderResponse, error) {
	sellerID, err := parseUUID("seller_id", req.SellerID)
	if err != nil {
		return nil, err
	}
	sellerWarehouseID, err := parseUUID("seller_warehouse_id", req.SellerWarehouseID)
	if err != nil {
		return nil, err
	}
	warehouseID, err := parseUUID("warehouse_id", req.WarehouseID)
	if err != nil {
		return nil, err
	}
	if sellerID == actor.CompanyID {
		return nil, apierror.NewValidation(map[string]string{"seller_id": "cannot trade with your own company"})
	}
	lines, itemIDs, err := linesFromRequests(req.Lines)
	if err != nil {
		return nil, err
	}
	if err := s.validateItems(ctx, itemIDs); err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	po := &model.PurchaseOrder{
		Code:        newCode("PO"),
		CompanyID:   actor.CompanyID,
		SellerID:    sellerID,
		WarehouseID: warehouseID,
		TotalAmount: total,
		Status:      model.StatusPendingConfirmation,
		CreatedBy:   actor.UserID,
		Lines:       lines,
	}
	so := &model.SalesOrder{
		Code:        newCode("SO"),
		CompanyID:   sellerID,
		BuyerID:     actor.CompanyID,
		WarehouseID: sellerWarehouseID,
		TotalAmount: total,
		Status:      model.StatusPendingConfirmation,
		Lines:       copyTradeLines(lines),
	}
	if err := s.trades.CreatePair(ctx, po, so); err != nil {
		return nil, err
	}
	return toPurchaseOrderResponse(po), nil
}

func copyTradeLines(lines []model.DocumentLine) []model.DocumentLine {
	out := make([]model.DocumentLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, model.DocumentLine{ItemID: l.ItemID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return out
}

func (s *documentService) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*dto.PurchaseOrderResponse, error) {
	po, err := s.trades.FindPurchaseByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toPurchaseOrderResponse(po), nil
}

func (s *documentService) GetSalesOrder(ctx context.Context, id uuid.UUID) (*dto.SalesOrderResponse, error) {
	so, err := s.trades.FindSalesByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toSalesOrderResponse(so), nil
}

// ── Tickets and deliveries ────────────────────────────────────────────────────

func (s *documentService) GetIssueTicket(ctx context.Context, id uuid.UUID) (*dto.TicketResponse, error) {
	t, err := s.tickets.FindIssueByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toIssueTicketResponse(t), nil
}

func (s *documentService) GetReceiveTicket(ctx context.Context, id uuid.UUID) (*dto.TicketResponse, error) {
	t, err := s.tickets.FindReceiveByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toReceiveTicketResponse(t), nil
}

func (s *documentService) GetDeliveryOrder(ctx context.Context, id uuid.UUID) (*dto.DeliveryOrderResponse, error) {
	d, err := s.deliveries.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDeliveryOrderResponse(d), nil
}

// ── Ledger audit trail ────────────────────────────────────────────────────────

func (s *documentService) ListMovements(ctx context.Context, filter repository.StockMovementFilter) ([]dto.MovementResponse, int64, error) {
	movements, total, err := s.movements.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.MovementResponse, 0, len(movements))
	for i := range movements {
		out = append(out, toMovementResponse(&movements[i]))
	}
	return out, total, nil
}
