package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/apierror"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductionOrderRepository interface {
	DB() *gorm.DB
	Create(ctx context.Context, po *model.ProductionOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ProductionOrder, error)
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, from, to model.Status) error
	// ReplaceLinesTx stores the exploded demand lines computed at confirm time.
	ReplaceLinesTx(tx *gorm.DB, orderID uuid.UUID, lines []model.DocumentLine) error
	CompleteStageTx(tx *gorm.DB, stageID, by uuid.UUID, at time.Time) error
	UncompleteStageTx(tx *gorm.DB, stageID uuid.UUID) error
	SetCompletionTx(tx *gorm.DB, id uuid.UUID, completedQty int, batchNo string) error
	CreateOutputUnitsTx(tx *gorm.DB, units []model.ProductionOutputUnit) error
	UndoCompletionTx(tx *gorm.DB, id uuid.UUID, batchNo string) error
}

type productionOrderRepo struct{ db *gorm.DB }

func NewProductionOrderRepository(db *gorm.DB) ProductionOrderRepository {
	return &productionOrderRepo{db: db}
}

func (r *productionOrderRepo) DB() *gorm.DB { return r.db }

func (r *productionOrderRepo) Create(ctx context.Context, po *model.ProductionOrder) error {
	return r.db.WithContext(ctx).Create(po).Error
}

func (r *productionOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ProductionOrder, error) {
	var po model.ProductionOrder
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Stages", func(db *gorm.DB) *gorm.DB { return db.Order("sequence ASC") }).
		First(&po, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NewNotFound("production order", id.String())
	}
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *productionOrderRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, from, to model.Status) error {
	return updateStatusGuarded(tx, &model.ProductionOrder{}, model.DocProductionOrder, id, from, to)
}

func (r *productionOrderRepo) ReplaceLinesTx(tx *gorm.DB, orderID uuid.UUID, lines []model.DocumentLine) error {
	if err := tx.Where("document_type = ? AND document_id = ?", string(model.DocProductionOrder), orderID).
		Delete(&model.DocumentLine{}).Error; err != nil {
		return err
	}
	for i := range lines {
		lines[i].DocumentType = string(model.DocProductionOrder)
		lines[i].DocumentID = orderID
	}
	return tx.Create(&lines).Error
}

func (r *productionOrderRepo) CompleteStageTx(tx *gorm.DB, stageID, by uuid.UUID, at time.Time) error {
	res := tx.Model(&model.ProductionStage{}).
		Where("id = ? AND completed_at IS NULL", stageID).
		Updates(map[string]interface{}{"completed_at": at, "completed_by": by})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierror.NewValidationMsg("stage already completed")
	}
	return nil
}

func (r *productionOrderRepo) UncompleteStageTx(tx *gorm.DB, stageID uuid.UUID) error {
	return tx.Model(&model.ProductionStage{}).
		Where("id = ?", stageID).
		Updates(map[string]interface{}{"completed_at": nil, "completed_by": nil}).Error
}

func (r *productionOrderRepo) SetCompletionTx(tx *gorm.DB, id uuid.UUID, completedQty int, batchNo string) error {
	return tx.Model(&model.ProductionOrder{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"completed_quantity": completedQty, "batch_no": batchNo}).Error
}

func (r *productionOrderRepo) CreateOutputUnitsTx(tx *gorm.DB, units []model.ProductionOutputUnit) error {
	return tx.Create(&units).Error
}

func (r *productionOrderRepo) UndoCompletionTx(tx *gorm.DB, id uuid.UUID, batchNo string) error {
	if err := tx.Where("production_order_id = ? AND batch_no = ?", id, batchNo).
		Delete(&model.ProductionOutputUnit{}).Error; err != nil {
		return err
	}
	return tx.Model(&model.ProductionOrder{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"completed_quantity": 0, "batch_no": nil}).Error
}
