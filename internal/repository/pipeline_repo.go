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

// PipelineRepository persists the orchestrator's journal. Writes here happen
// OUTSIDE the saga step transactions on purpose: the journal must survive a
// step rollback, otherwise a failed run would leave no trace to reconcile.
type PipelineRepository interface {
	Create(ctx context.Context, p *model.FulfillmentPipeline) error
	AddStep(ctx context.Context, s *model.PipelineStep) error
	UpdateStepStatus(ctx context.Context, stepID uuid.UUID, status string, stepErr *string) error
	SetStatus(ctx context.Context, id uuid.UUID, status string, failedStep, lastErr *string) error
	ScheduleRetry(ctx context.Context, id uuid.UUID, retryCount int, nextAt *time.Time) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.FulfillmentPipeline, error)
	// ListStalled returns stalled pipelines whose next retry is due.
	ListStalled(ctx context.Context, before time.Time, limit int) ([]model.FulfillmentPipeline, error)
	List(ctx context.Context, status string, page, limit int) ([]model.FulfillmentPipeline, int64, error)
}

type pipelineRepo struct{ db *gorm.DB }

func NewPipelineRepository(db *gorm.DB) PipelineRepository {
	return &pipelineRepo{db: db}
}

func (r *pipelineRepo) Create(ctx context.Context, p *model.FulfillmentPipeline) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *pipelineRepo) AddStep(ctx context.Context, s *model.PipelineStep) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *pipelineRepo) UpdateStepStatus(ctx context.Context, stepID uuid.UUID, status string, stepErr *string) error {
	return r.db.WithContext(ctx).Model(&model.PipelineStep{}).
		Where("id = ?", stepID).
		Updates(map[string]interface{}{"status": status, "error": stepErr}).Error
}

func (r *pipelineRepo) SetStatus(ctx context.Context, id uuid.UUID, status string, failedStep, lastErr *string) error {
	return r.db.WithContext(ctx).Model(&model.FulfillmentPipeline{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "failed_step": failedStep, "last_error": lastErr}).Error
}

func (r *pipelineRepo) ScheduleRetry(ctx context.Context, id uuid.UUID, retryCount int, nextAt *time.Time) error {
	return r.db.WithContext(ctx).Model(&model.FulfillmentPipeline{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"retry_count": retryCount, "next_retry_at": nextAt}).Error
}

func (r *pipelineRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.FulfillmentPipeline, error) {
	var p model.FulfillmentPipeline
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NewNotFound("pipeline", id.String())
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pipelineRepo) ListStalled(ctx context.Context, before time.Time, limit int) ([]model.FulfillmentPipeline, error) {
	var ps []model.FulfillmentPipeline
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Where("status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", model.PipelineStalled, before).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&ps).Error
	return ps, err
}

func (r *pipelineRepo) List(ctx context.Context, status string, page, limit int) ([]model.FulfillmentPipeline, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.FulfillmentPipeline{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}

	var ps []model.FulfillmentPipeline
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&ps).Error
	return ps, total, err
}
