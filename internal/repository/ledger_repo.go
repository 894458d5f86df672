package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/apierror"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerAdjustment describes one ledger mutation. Deltas may be negative;
// either may be zero. Kind/Reason/Reference feed the audit movement row
// written in the same transaction.
type LedgerAdjustment struct {
	ItemID        uuid.UUID
	WarehouseID   uuid.UUID
	OnHandDelta   int
	ReservedDelta int
	Kind          string
	Reason        string
	ReferenceType *string
	ReferenceID   *uuid.UUID
}

// LedgerRepository owns all access to inventory_records. Mutations only run
// inside a caller-supplied transaction so the orchestrator can lock, check,
// and commit atomically per (item, warehouse).
type LedgerRepository interface {
	DB() *gorm.DB
	GetRecord(ctx context.Context, itemID, warehouseID uuid.UUID) (*model.InventoryRecord, error)
	// LockRecordsTx loads the records for (warehouse, items) with row locks,
	// in deterministic item order so concurrent confirms cannot deadlock.
	LockRecordsTx(tx *gorm.DB, warehouseID uuid.UUID, itemIDs []uuid.UUID) ([]model.InventoryRecord, error)
	// AdjustTx applies one adjustment under the caller's transaction and
	// writes the matching stock movement. Fails without mutating if the
	// record is missing or either quantity would go negative.
	AdjustTx(tx *gorm.DB, adj LedgerAdjustment) error
	Create(ctx context.Context, rec *model.InventoryRecord) error
}

type ledgerRepo struct{ db *gorm.DB }

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepo{db: db}
}

func (r *ledgerRepo) DB() *gorm.DB { return r.db }

func (r *ledgerRepo) GetRecord(ctx context.Context, itemID, warehouseID uuid.UUID) (*model.InventoryRecord, error) {
	var rec model.InventoryRecord
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND warehouse_id = ?", itemID, warehouseID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NewNotFound("inventory record", itemID.String())
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *ledgerRepo) LockRecordsTx(tx *gorm.DB, warehouseID uuid.UUID, itemIDs []uuid.UUID) ([]model.InventoryRecord, error) {
	var recs []model.InventoryRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("warehouse_id = ? AND item_id IN ?", warehouseID, itemIDs).
		Order("item_id").
		Find(&recs).Error
	return recs, err
}

func (r *ledgerRepo) AdjustTx(tx *gorm.DB, adj LedgerAdjustment) error {
	var rec model.InventoryRecord
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("item_id = ? AND warehouse_id = ?", adj.ItemID, adj.WarehouseID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NewNotFound("inventory record", adj.ItemID.String())
	}
	if err != nil {
		return err
	}

	newOnHand := rec.OnHand + adj.OnHandDelta
	newReserved := rec.Reserved + adj.ReservedDelta
	if newOnHand < 0 {
		return fmt.Errorf("ledger: on_hand would go negative for item %s (have %d, delta %d)",
			adj.ItemID, rec.OnHand, adj.OnHandDelta)
	}
	if newReserved < 0 {
		return fmt.Errorf("ledger: reserved would go negative for item %s (have %d, delta %d)",
			adj.ItemID, rec.Reserved, adj.ReservedDelta)
	}

	res := tx.Model(&model.InventoryRecord{}).
		Where("id = ?", rec.ID).
		Updates(map[string]interface{}{"on_hand": newOnHand, "reserved": newReserved})
	if res.Error != nil {
		return res.Error
	}

	mov := model.StockMovement{
		ItemID:         adj.ItemID,
		WarehouseID:    adj.WarehouseID,
		Kind:           adj.Kind,
		Quantity:       adj.OnHandDelta,
		OnHandBefore:   rec.OnHand,
		OnHandAfter:    newOnHand,
		ReservedBefore: rec.Reserved,
		ReservedAfter:  newReserved,
		Reason:         adj.Reason,
		ReferenceType:  adj.ReferenceType,
		ReferenceID:    adj.ReferenceID,
	}
	return tx.Create(&mov).Error
}

func (r *ledgerRepo) Create(ctx context.Context, rec *model.InventoryRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}
