package repository

import (
	"context"
	"errors"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/apierror"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransferRequestRepository interface {
	DB() *gorm.DB
	Create(ctx context.Context, tr *model.TransferRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.TransferRequest, error)
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, from, to model.Status) error
}

type transferRequestRepo struct{ db *gorm.DB }

func NewTransferRequestRepository(db *gorm.DB) TransferRequestRepository {
	return &transferRequestRepo{db: db}
}

func (r *transferRequestRepo) DB() *gorm.DB { return r.db }

func (r *transferRequestRepo) Create(ctx context.Context, tr *model.TransferRequest) error {
	return r.db.WithContext(ctx).Create(tr).Error
}

func (r *transferRequestRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.TransferRequest, error) {
	var tr model.TransferRequest
	err := r.db.WithContext(ctx).Preload("Lines").First(&tr, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NewNotFound("transfer request", id.String())
	}
	if err != nil {
		return nil, err
	}
	return &tr, nil
}

func (r *transferRequestRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, from, to model.Status) error {
	return updateStatusGuarded(tx, &model.TransferRequest{}, model.DocTransferRequest, id, from, to)
}
