package repository

import (
	"context"
	"errors"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/apierror"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TradeOrderRepository owns both sides of a purchase/sales pair. Creating the
// pair and transitioning either side goes through here so the lock-step
// invariant has a single enforcement point.
type TradeOrderRepository interface {
	DB() *gorm.DB
	// CreatePair persists the purchase order, its counterpart sales order,
	// and the cross-links, in one transaction.
	CreatePair(ctx context.Context, po *model.PurchaseOrder, so *model.SalesOrder) error
	FindPurchaseByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	FindSalesByID(ctx context.Context, id uuid.UUID) (*model.SalesOrder, error)
	FindSalesByPurchaseID(ctx context.Context, poID uuid.UUID) (*model.SalesOrder, error)
	UpdatePurchaseStatusTx(tx *gorm.DB, id uuid.UUID, from, to model.Status) error
	UpdateSalesStatusTx(tx *gorm.DB, id uuid.UUID, from, to model.Status) error
	SetCancelReasonTx(tx *gorm.DB, poID uuid.UUID, reason string) error
}

type tradeOrderRepo struct{ db *gorm.DB }

func NewTradeOrderRepository(db *gorm.DB) TradeOrderRepository {
	return &tradeOrderRepo{db: db}
}

func (r *tradeOrderRepo) DB() *gorm.DB { return r.db }

func (r *tradeOrderRepo) CreatePair(ctx context.Context, po *model.PurchaseOrder, so *model.SalesOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(po).Error; err != nil {
			return err
		}
		so.PurchaseOrderID = po.ID
		if err := tx.Create(so).Error; err != nil {
			return err
		}
		return tx.Model(po).Update("sales_order_id", so.ID).Error
	})
}

func (r *tradeOrderRepo) FindPurchaseByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	err := r.db.WithContext(ctx).Preload("Lines").First(&po, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NewNotFound("purchase order", id.String())
	}
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *tradeOrderRepo) FindSalesByID(ctx context.Context, id uuid.UUID) (*model.SalesOrder, error) {
	var so model.SalesOrder
	err := r.db.WithContext(ctx).Preload("Lines").First(&so, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NewNotFound("sales order", id.String())
	}
	if err != nil {
		return nil, err
	}
	return &so, nil
}

func (r *tradeOrderRepo) FindSalesByPurchaseID(ctx context.Context, poID uuid.UUID) (*model.SalesOrder, error) {
	var so model.SalesOrder
	err := r.db.WithContext(ctx).Preload("Lines").First(&so, "purchase_order_id = ?", poID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NewNotFound("sales order for purchase order", poID.String())
	}
	if err != nil {
		return nil, err
	}
	return &so, nil
}

func (r *tradeOrderRepo) UpdatePurchaseStatusTx(tx *gorm.DB, id uuid.UUID, from, to model.Status) error {
	return updateStatusGuarded(tx, &model.PurchaseOrder{}, model.DocPurchaseOrder, id, from, to)
}

func (r *tradeOrderRepo) UpdateSalesStatusTx(tx *gorm.DB, id uuid.UUID, from, to model.Status) error {
	return updateStatusGuarded(tx, &model.SalesOrder{}, model.DocSalesOrder, id, from, to)
}

func (r *tradeOrderRepo) SetCancelReasonTx(tx *gorm.DB, poID uuid.UUID, reason string) error {
	return tx.Model(&model.PurchaseOrder{}).
		Where("id = ?", poID).
		Update("cancel_reason", reason).Error
}
