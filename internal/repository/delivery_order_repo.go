package repository

import (
	"context"
	"errors"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/apierror"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeliveryOrderRepository interface {
	DB() *gorm.DB
	CreateTx(tx *gorm.DB, d *model.DeliveryOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.DeliveryOrder, error)
	FindBySalesOrderID(ctx context.Context, soID uuid.UUID) (*model.DeliveryOrder, error)
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, from, to model.Status) error
	AddEventTx(tx *gorm.DB, ev *model.DeliveryEvent) error
	DeleteEventTx(tx *gorm.DB, id uuid.UUID) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
}

type deliveryOrderRepo struct{ db *gorm.DB }

func NewDeliveryOrderRepository(db *gorm.DB) DeliveryOrderRepository {
	return &deliveryOrderRepo{db: db}
}

func (r *deliveryOrderRepo) DB() *gorm.DB { return r.db }

func (r *deliveryOrderRepo) CreateTx(tx *gorm.DB, d *model.DeliveryOrder) error {
	return tx.Create(d).Error
}

func (r *deliveryOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.DeliveryOrder, error) {
	var d model.DeliveryOrder
	err := r.db.WithContext(ctx).
		Preload("Events", func(db *gorm.DB) *gorm.DB { return db.Order("occurred_at ASC") }).
		First(&d, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NewNotFound("delivery order", id.String())
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *deliveryOrderRepo) FindBySalesOrderID(ctx context.Context, soID uuid.UUID) (*model.DeliveryOrder, error) {
	var d model.DeliveryOrder
	err := r.db.WithContext(ctx).First(&d, "sales_order_id = ?", soID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NewNotFound("delivery order for sales order", soID.String())
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *deliveryOrderRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, from, to model.Status) error {
	return updateStatusGuarded(tx, &model.DeliveryOrder{}, model.DocDeliveryOrder, id, from, to)
}

func (r *deliveryOrderRepo) AddEventTx(tx *gorm.DB, ev *model.DeliveryEvent) error {
	return tx.Create(ev).Error
}

func (r *deliveryOrderRepo) DeleteEventTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.DeliveryEvent{}, "id = ?", id).Error
}

func (r *deliveryOrderRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.DeliveryOrder{}, "id = ?", id).Error
}
