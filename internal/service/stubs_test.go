package service

// stubs_test.go holds in-memory repository implementations shared by the
// service tests. Fail switches let individual tests force a forward step or
// its compensation to break, exercising the saga's failure paths without a
// database.

import (
	"context"
	"errors"
	"time"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/apierror"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/model"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// guardStatus mimics the repository's guarded UPDATE: the write only applies
// when the current status equals from.
func guardStatus(doc model.DocumentType, cur *model.Status, from, to model.Status) error {
	if *cur != from {
		return apierror.NewInvalidTransition(string(doc), string(from), string(to))
	}
	*cur = to
	return nil
}

// ── Ledger ───────────────────────────────────────────────────────────────────

type stubLedgerRepo struct {
	recs         map[string]*model.InventoryRecord
	movements    []model.StockMovement
	failKinds    map[string]bool // AdjustTx fails for these movement kinds
	getRecordErr error           // GetRecord fails with this when set
}

func newStubLedgerRepo() *stubLedgerRepo {
	return &stubLedgerRepo{
		recs:      make(map[string]*model.InventoryRecord),
		failKinds: make(map[string]bool),
	}
}

func ledgerKey(itemID, warehouseID uuid.UUID) string {
	return itemID.String() + "|" + warehouseID.String()
}

func (r *stubLedgerRepo) put(itemID, warehouseID uuid.UUID, onHand, reserved int) {
	r.recs[ledgerKey(itemID, warehouseID)] = &model.InventoryRecord{
		ID: uuid.New(), ItemID: itemID, WarehouseID: warehouseID, OnHand: onHand, Reserved: reserved,
	}
}

func (r *stubLedgerRepo) rec(itemID, warehouseID uuid.UUID) *model.InventoryRecord {
	return r.recs[ledgerKey(itemID, warehouseID)]
}

func (r *stubLedgerRepo) DB() *gorm.DB { return nil }

func (r *stubLedgerRepo) GetRecord(_ context.Context, itemID, warehouseID uuid.UUID) (*model.InventoryRecord, error) {
	if r.getRecordErr != nil {
		return nil, r.getRecordErr
	}
	rec, ok := r.recs[ledgerKey(itemID, warehouseID)]
	if !ok {
		return nil, apierror.NewNotFound("inventory record", itemID.String())
	}
	cp := *rec
	return &cp, nil
}

func (r *stubLedgerRepo) LockRecordsTx(_ *gorm.DB, warehouseID uuid.UUID, itemIDs []uuid.UUID) ([]model.InventoryRecord, error) {
	out := make([]model.InventoryRecord, 0, len(itemIDs))
	for _, id := range itemIDs {
		if rec, ok := r.recs[ledgerKey(id, warehouseID)]; ok {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *stubLedgerRepo) AdjustTx(_ *gorm.DB, adj repository.LedgerAdjustment) error {
	if r.failKinds[adj.Kind] {
		return errors.New("ledger unavailable")
	}
	rec, ok := r.recs[ledgerKey(adj.ItemID, adj.WarehouseID)]
	if !ok {
		return apierror.NewNotFound("inventory record", adj.ItemID.String())
	}
	onHand := rec.OnHand + adj.OnHandDelta
	reserved := rec.Reserved + adj.ReservedDelta
	if onHand < 0 || reserved < 0 {
		return errors.New("adjustment would drive a quantity negative")
	}
	r.movements = append(r.movements, model.StockMovement{
		ItemID: adj.ItemID, WarehouseID: adj.WarehouseID, Kind: adj.Kind,
		OnHandBefore: rec.OnHand, OnHandAfter: onHand,
		ReservedBefore: rec.Reserved, ReservedAfter: reserved,
		Reason: adj.Reason,
	})
	rec.OnHand, rec.Reserved = onHand, reserved
	return nil
}

func (r *stubLedgerRepo) Create(_ context.Context, rec *model.InventoryRecord) error {
	r.recs[ledgerKey(rec.ItemID, rec.WarehouseID)] = rec
	return nil
}

var _ repository.LedgerRepository = (*stubLedgerRepo)(nil)

// ── Pipelines ────────────────────────────────────────────────────────────────

type stubPipelineRepo struct {
	pipelines map[uuid.UUID]*model.FulfillmentPipeline
	steps     map[uuid.UUID][]model.PipelineStep
}

func newStubPipelineRepo() *stubPipelineRepo {
	return &stubPipelineRepo{
		pipelines: make(map[uuid.UUID]*model.FulfillmentPipeline),
		steps:     make(map[uuid.UUID][]model.PipelineStep),
	}
}

func (r *stubPipelineRepo) Create(_ context.Context, p *model.FulfillmentPipeline) error {
	r.pipelines[p.ID] = p
	return nil
}

func (r *stubPipelineRepo) AddStep(_ context.Context, s *model.PipelineStep) error {
	r.steps[s.PipelineID] = append(r.steps[s.PipelineID], *s)
	return nil
}

func (r *stubPipelineRepo) UpdateStepStatus(_ context.Context, stepID uuid.UUID, status string, stepErr *string) error {
	for pid := range r.steps {
		for i := range r.steps[pid] {
			if r.steps[pid][i].ID == stepID {
				r.steps[pid][i].Status = status
				r.steps[pid][i].Error = stepErr
				return nil
			}
		}
	}
	return errors.New("step not found")
}

func (r *stubPipelineRepo) SetStatus(_ context.Context, id uuid.UUID, status string, failedStep, lastErr *string) error {
	p, ok := r.pipelines[id]
	if !ok {
		return errors.New("pipeline not found")
	}
	p.Status = status
	p.FailedStep = failedStep
	p.LastError = lastErr
	return nil
}

func (r *stubPipelineRepo) ScheduleRetry(_ context.Context, id uuid.UUID, retryCount int, nextAt *time.Time) error {
	p, ok := r.pipelines[id]
	if !ok {
		return errors.New("pipeline not found")
	}
	p.RetryCount = retryCount
	p.NextRetryAt = nextAt
	return nil
}

func (r *stubPipelineRepo) FindByID(_ context.Context, id uuid.UUID) (*model.FulfillmentPipeline, error) {
	p, ok := r.pipelines[id]
	if !ok {
		return nil, apierror.NewNotFound("pipeline", id.String())
	}
	cp := *p
	cp.Steps = append([]model.PipelineStep(nil), r.steps[id]...)
	return &cp, nil
}

func (r *stubPipelineRepo) ListStalled(_ context.Context, before time.Time, limit int) ([]model.FulfillmentPipeline, error) {
	var out []model.FulfillmentPipeline
	for _, p := range r.pipelines {
		if p.Status == model.PipelineStalled && p.NextRetryAt != nil && p.NextRetryAt.Before(before) {
			out = append(out, *p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *stubPipelineRepo) List(_ context.Context, status string, _, _ int) ([]model.FulfillmentPipeline, int64, error) {
	var out []model.FulfillmentPipeline
	for _, p := range r.pipelines {
		if status == "" || p.Status == status {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

var _ repository.PipelineRepository = (*stubPipelineRepo)(nil)

// ── Production orders ────────────────────────────────────────────────────────

type stubProductionRepo struct {
	orders map[uuid.UUID]*model.ProductionOrder
	units  []model.ProductionOutputUnit
}

func newStubProductionRepo() *stubProductionRepo {
	return &stubProductionRepo{orders: make(map[uuid.UUID]*model.ProductionOrder)}
}

func (r *stubProductionRepo) DB() *gorm.DB { return nil }

func (r *stubProductionRepo) Create(_ context.Context, po *model.ProductionOrder) error {
	r.orders[po.ID] = po
	return nil
}

func (r *stubProductionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ProductionOrder, error) {
	po, ok := r.orders[id]
	if !ok {
		return nil, apierror.NewNotFound("production order", id.String())
	}
	cp := *po
	cp.Stages = append([]model.ProductionStage(nil), po.Stages...)
	return &cp, nil
}

func (r *stubProductionRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, from, to model.Status) error {
	po, ok := r.orders[id]
	if !ok {
		return apierror.NewNotFound("production order", id.String())
	}
	return guardStatus(model.DocProductionOrder, &po.Status, from, to)
}

func (r *stubProductionRepo) ReplaceLinesTx(_ *gorm.DB, orderID uuid.UUID, lines []model.DocumentLine) error {
	po, ok := r.orders[orderID]
	if !ok {
		return apierror.NewNotFound("production order", orderID.String())
	}
	po.Lines = lines
	return nil
}

func (r *stubProductionRepo) CompleteStageTx(_ *gorm.DB, stageID, by uuid.UUID, at time.Time) error {
	for _, po := range r.orders {
		for i := range po.Stages {
			if po.Stages[i].ID == stageID {
				if po.Stages[i].CompletedAt != nil {
					return errors.New("stage already completed")
				}
				po.Stages[i].CompletedAt = &at
				po.Stages[i].CompletedBy = &by
				return nil
			}
		}
	}
	return apierror.NewNotFound("production stage", stageID.String())
}

func (r *stubProductionRepo) UncompleteStageTx(_ *gorm.DB, stageID uuid.UUID) error {
	for _, po := range r.orders {
		for i := range po.Stages {
			if po.Stages[i].ID == stageID {
				po.Stages[i].CompletedAt = nil
				po.Stages[i].CompletedBy = nil
				return nil
			}
		}
	}
	return apierror.NewNotFound("production stage", stageID.String())
}

func (r *stubProductionRepo) SetCompletionTx(_ *gorm.DB, id uuid.UUID, completedQty int, batchNo string) error {
	po, ok := r.orders[id]
	if !ok {
		return apierror.NewNotFound("production order", id.String())
	}
	po.CompletedQuantity = completedQty
	po.BatchNo = &batchNo
	return nil
}

func (r *stubProductionRepo) CreateOutputUnitsTx(_ *gorm.DB, units []model.ProductionOutputUnit) error {
	r.units = append(r.units, units...)
	return nil
}

func (r *stubProductionRepo) UndoCompletionTx(_ *gorm.DB, id uuid.UUID, batchNo string) error {
	po, ok := r.orders[id]
	if !ok {
		return apierror.NewNotFound("production order", id.String())
	}
	po.CompletedQuantity = 0
	po.BatchNo = nil
	kept := r.units[:0]
	for _, u := range r.units {
		if u.BatchNo != batchNo {
			kept = append(kept, u)
		}
	}
	r.units = kept
	return nil
}

var _ repository.ProductionOrderRepository = (*stubProductionRepo)(nil)

// ── Transfer requests ────────────────────────────────────────────────────────

type stubTransferRepo struct {
	transfers map[uuid.UUID]*model.TransferRequest
}

func newStubTransferRepo() *stubTransferRepo {
	return &stubTransferRepo{transfers: make(map[uuid.UUID]*model.TransferRequest)}
}

func (r *stubTransferRepo) DB() *gorm.DB { return nil }

func (r *stubTransferRepo) Create(_ context.Context, tr *model.TransferRequest) error {
	r.transfers[tr.ID] = tr
	return nil
}

func (r *stubTransferRepo) FindByID(_ context.Context, id uuid.UUID) (*model.TransferRequest, error) {
	tr, ok := r.transfers[id]
	if !ok {
		return nil, apierror.NewNotFound("transfer request", id.String())
	}
	cp := *tr
	return &cp, nil
}

func (r *stubTransferRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, from, to model.Status) error {
	tr, ok := r.transfers[id]
	if !ok {
		return apierror.NewNotFound("transfer request", id.String())
	}
	return guardStatus(model.DocTransferRequest, &tr.Status, from, to)
}

var _ repository.TransferRequestRepository = (*stubTransferRepo)(nil)

// ── Trade orders ─────────────────────────────────────────────────────────────

type stubTradeRepo struct {
	pos map[uuid.UUID]*model.PurchaseOrder
	sos map[uuid.UUID]*model.SalesOrder
}

func newStubTradeRepo() *stubTradeRepo {
	return &stubTradeRepo{
		pos: make(map[uuid.UUID]*model.PurchaseOrder),
		sos: make(map[uuid.UUID]*model.SalesOrder),
	}
}

func (r *stubTradeRepo) DB() *gorm.DB { return nil }

func (r *stubTradeRepo) CreatePair(_ context.Context, po *model.PurchaseOrder, so *model.SalesOrder) error {
	so.PurchaseOrderID = po.ID
	po.SalesOrderID = &so.ID
	r.pos[po.ID] = po
	r.sos[so.ID] = so
	return nil
}

func (r *stubTradeRepo) FindPurchaseByID(_ context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	po, ok := r.pos[id]
	if !ok {
		return nil, apierror.NewNotFound("purchase order", id.String())
	}
	cp := *po
	return &cp, nil
}

func (r *stubTradeRepo) FindSalesByID(_ context.Context, id uuid.UUID) (*model.SalesOrder, error) {
	so, ok := r.sos[id]
	if !ok {
		return nil, apierror.NewNotFound("sales order", id.String())
	}
	cp := *so
	return &cp, nil
}

func (r *stubTradeRepo) FindSalesByPurchaseID(_ context.Context, poID uuid.UUID) (*model.SalesOrder, error) {
	for _, so := range r.sos {
		if so.PurchaseOrderID == poID {
			cp := *so
			return &cp, nil
		}
	}
	return nil, apierror.NewNotFound("sales order", poID.String())
}

func (r *stubTradeRepo) UpdatePurchaseStatusTx(_ *gorm.DB, id uuid.UUID, from, to model.Status) error {
	po, ok := r.pos[id]
	if !ok {
		return apierror.NewNotFound("purchase order", id.String())
	}
	return guardStatus(model.DocPurchaseOrder, &po.Status, from, to)
}

func (r *stubTradeRepo) UpdateSalesStatusTx(_ *gorm.DB, id uuid.UUID, from, to model.Status) error {
	so, ok := r.sos[id]
	if !ok {
		return apierror.NewNotFound("sales order", id.String())
	}
	return guardStatus(model.DocSalesOrder, &so.Status, from, to)
}

func (r *stubTradeRepo) SetCancelReasonTx(_ *gorm.DB, poID uuid.UUID, reason string) error {
	po, ok := r.pos[poID]
	if !ok {
		return apierror.NewNotFound("purchase order", poID.String())
	}
	po.CancelReason = &reason
	return nil
}

var _ repository.TradeOrderRepository = (*stubTradeRepo)(nil)

// ── Tickets ──────────────────────────────────────────────────────────────────

type stubTicketRepo struct {
	issues   map[uuid.UUID]*model.IssueTicket
	receives map[uuid.UUID]*model.ReceiveTicket

	failCreateIssue   bool
	failCreateReceive bool
}

func newStubTicketRepo() *stubTicketRepo {
	return &stubTicketRepo{
		issues:   make(map[uuid.UUID]*model.IssueTicket),
		receives: make(map[uuid.UUID]*model.ReceiveTicket),
	}
}

func (r *stubTicketRepo) DB() *gorm.DB { return nil }

func (r *stubTicketRepo) CreateIssueTx(_ *gorm.DB, t *model.IssueTicket) error {
	if r.failCreateIssue {
		return errors.New("issue ticket insert failed")
	}
	r.issues[t.ID] = t
	return nil
}

func (r *stubTicketRepo) FindIssueByID(_ context.Context, id uuid.UUID) (*model.IssueTicket, error) {
	t, ok := r.issues[id]
	if !ok {
		return nil, apierror.NewNotFound("issue ticket", id.String())
	}
	cp := *t
	return &cp, nil
}

func (r *stubTicketRepo) UpdateIssueStatusTx(_ *gorm.DB, id uuid.UUID, from, to model.Status) error {
	t, ok := r.issues[id]
	if !ok {
		return apierror.NewNotFound("issue ticket", id.String())
	}
	return guardStatus(model.DocIssueTicket, &t.Status, from, to)
}

func (r *stubTicketRepo) DeleteIssueTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.issues, id)
	return nil
}

func (r *stubTicketRepo) SetPickListPath(_ context.Context, id uuid.UUID, path string) error {
	t, ok := r.issues[id]
	if !ok {
		return apierror.NewNotFound("issue ticket", id.String())
	}
	t.PickListPath = &path
	return nil
}

func (r *stubTicketRepo) CreateReceiveTx(_ *gorm.DB, t *model.ReceiveTicket) error {
	if r.failCreateReceive {
		return errors.New("receive ticket insert failed")
	}
	r.receives[t.ID] = t
	return nil
}

func (r *stubTicketRepo) FindReceiveByID(_ context.Context, id uuid.UUID) (*model.ReceiveTicket, error) {
	t, ok := r.receives[id]
	if !ok {
		return nil, apierror.NewNotFound("receive ticket", id.String())
	}
	cp := *t
	return &cp, nil
}

func (r *stubTicketRepo) FindReceiveByReference(_ context.Context, refType model.DocumentType, refID uuid.UUID) (*model.ReceiveTicket, error) {
	for _, t := range r.receives {
		if t.ReferenceType == refType && t.ReferenceID == refID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apierror.NewNotFound("receive ticket", refID.String())
}

func (r *stubTicketRepo) UpdateReceiveStatusTx(_ *gorm.DB, id uuid.UUID, from, to model.Status) error {
	t, ok := r.receives[id]
	if !ok {
		return apierror.NewNotFound("receive ticket", id.String())
	}
	return guardStatus(model.DocReceiveTicket, &t.Status, from, to)
}

func (r *stubTicketRepo) SetReceiveLineQuantityTx(_ *gorm.DB, ticketID, itemID uuid.UUID, quantity int) error {
	t, ok := r.receives[ticketID]
	if !ok {
		return apierror.NewNotFound("receive ticket", ticketID.String())
	}
	for i := range t.Lines {
		if t.Lines[i].ItemID == itemID {
			t.Lines[i].Quantity = quantity
			return nil
		}
	}
	return apierror.NewNotFound("receive ticket line", itemID.String())
}

func (r *stubTicketRepo) DeleteReceiveTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.receives, id)
	return nil
}

// firstReceiveFor returns the receive ticket spawned for a document, if any.
func (r *stubTicketRepo) firstReceiveFor(refType model.DocumentType, refID uuid.UUID) *model.ReceiveTicket {
	for _, t := range r.receives {
		if t.ReferenceType == refType && t.ReferenceID == refID {
			return t
		}
	}
	return nil
}

func (r *stubTicketRepo) firstIssueFor(refType model.DocumentType, refID uuid.UUID) *model.IssueTicket {
	for _, t := range r.issues {
		if t.ReferenceType == refType && t.ReferenceID == refID {
			return t
		}
	}
	return nil
}

var _ repository.TicketRepository = (*stubTicketRepo)(nil)

// ── Delivery orders ──────────────────────────────────────────────────────────

type stubDeliveryRepo struct {
	deliveries map[uuid.UUID]*model.DeliveryOrder
}

func newStubDeliveryRepo() *stubDeliveryRepo {
	return &stubDeliveryRepo{deliveries: make(map[uuid.UUID]*model.DeliveryOrder)}
}

func (r *stubDeliveryRepo) DB() *gorm.DB { return nil }

func (r *stubDeliveryRepo) CreateTx(_ *gorm.DB, d *model.DeliveryOrder) error {
	r.deliveries[d.ID] = d
	return nil
}

func (r *stubDeliveryRepo) FindByID(_ context.Context, id uuid.UUID) (*model.DeliveryOrder, error) {
	d, ok := r.deliveries[id]
	if !ok {
		return nil, apierror.NewNotFound("delivery order", id.String())
	}
	cp := *d
	return &cp, nil
}

func (r *stubDeliveryRepo) FindBySalesOrderID(_ context.Context, soID uuid.UUID) (*model.DeliveryOrder, error) {
	for _, d := range r.deliveries {
		if d.SalesOrderID == soID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, apierror.NewNotFound("delivery order", soID.String())
}

func (r *stubDeliveryRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, from, to model.Status) error {
	d, ok := r.deliveries[id]
	if !ok {
		return apierror.NewNotFound("delivery order", id.String())
	}
	return guardStatus(model.DocDeliveryOrder, &d.Status, from, to)
}

func (r *stubDeliveryRepo) AddEventTx(_ *gorm.DB, ev *model.DeliveryEvent) error {
	d, ok := r.deliveries[ev.DeliveryOrderID]
	if !ok {
		return apierror.NewNotFound("delivery order", ev.DeliveryOrderID.String())
	}
	d.Events = append(d.Events, *ev)
	return nil
}

func (r *stubDeliveryRepo) DeleteEventTx(_ *gorm.DB, id uuid.UUID) error {
	for _, d := range r.deliveries {
		for i := range d.Events {
			if d.Events[i].ID == id {
				d.Events = append(d.Events[:i], d.Events[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (r *stubDeliveryRepo) DeleteTx(_ *gorm.DB, id uuid.UUID) error {
	delete(r.deliveries, id)
	return nil
}

var _ repository.DeliveryOrderRepository = (*stubDeliveryRepo)(nil)

// ── BOM ──────────────────────────────────────────────────────────────────────

type stubBOMRepo struct {
	comps map[uuid.UUID][]model.BOMComponent
}

func newStubBOMRepo() *stubBOMRepo {
	return &stubBOMRepo{comps: make(map[uuid.UUID][]model.BOMComponent)}
}

func (r *stubBOMRepo) ListComponents(_ context.Context, parentItemID uuid.UUID) ([]model.BOMComponent, error) {
	return r.comps[parentItemID], nil
}

func (r *stubBOMRepo) Create(_ context.Context, c *model.BOMComponent) error {
	r.comps[c.ParentItemID] = append(r.comps[c.ParentItemID], *c)
	return nil
}

var _ repository.BOMRepository = (*stubBOMRepo)(nil)

// ── Stock movements ──────────────────────────────────────────────────────────

type stubMovementRepo struct {
	movements []model.StockMovement
}

func (r *stubMovementRepo) List(_ context.Context, filter repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	var out []model.StockMovement
	for _, m := range r.movements {
		if filter.ItemID != nil && m.ItemID != *filter.ItemID {
			continue
		}
		if filter.WarehouseID != nil && m.WarehouseID != *filter.WarehouseID {
			continue
		}
		if filter.Kind != "" && m.Kind != filter.Kind {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

// ── Accounts ─────────────────────────────────────────────────────────────────

type stubAccountRepo struct {
	byUsername map[string]*model.Account
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{byUsername: make(map[string]*model.Account)}
}

func (r *stubAccountRepo) Create(_ context.Context, acc *model.Account) error {
	r.byUsername[acc.Username] = acc
	return nil
}

func (r *stubAccountRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	for _, acc := range r.byUsername {
		if acc.ID == id {
			return acc, nil
		}
	}
	return nil, apierror.NewNotFound("account", id.String())
}

func (r *stubAccountRepo) FindByUsername(_ context.Context, username string) (*model.Account, error) {
	acc, ok := r.byUsername[username]
	if !ok {
		return nil, apierror.NewNotFound("account", username)
	}
	return acc, nil
}

var _ repository.AccountRepository = (*stubAccountRepo)(nil)
