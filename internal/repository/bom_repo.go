package repository

import (
	"context"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BOMRepository interface {
	ListComponents(ctx context.Context, parentItemID uuid.UUID) ([]model.BOMComponent, error)
	Create(ctx context.Context, c *model.BOMComponent) error
}

type bomRepo struct{ db *gorm.DB }

func NewBOMRepository(db *gorm.DB) BOMRepository {
	return &bomRepo{db: db}
}

func (r *bomRepo) ListComponents(ctx context.Context, parentItemID uuid.UUID) ([]model.BOMComponent, error) {
	var comps []model.BOMComponent
	err := r.db.WithContext(ctx).
		Where("parent_item_id = ?", parentItemID).
		Order("component_item_id").
		Find(&comps).Error
	return comps, err
}

func (r *bomRepo) Create(ctx context.Context, c *model.BOMComponent) error {
	return r.db.WithContext(ctx).Create(c).Error
}
