package repository

import (
	"context"
	"errors"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/apierror"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TicketRepository covers both issue and receive tickets. Spawned tickets are
// created inside orchestrator steps, so all creates take a transaction.
type TicketRepository interface {
	DB() *gorm.DB

	CreateIssueTx(tx *gorm.DB, t *model.IssueTicket) error
	FindIssueByID(ctx context.Context, id uuid.UUID) (*model.IssueTicket, error)
	UpdateIssueStatusTx(tx *gorm.DB, id uuid.UUID, from, to model.Status) error
	DeleteIssueTx(tx *gorm.DB, id uuid.UUID) error
	SetPickListPath(ctx context.Context, id uuid.UUID, path string) error

	CreateReceiveTx(tx *gorm.DB, t *model.ReceiveTicket) error
	FindReceiveByID(ctx context.Context, id uuid.UUID) (*model.ReceiveTicket, error)
	FindReceiveByReference(ctx context.Context, refType model.DocumentType, refID uuid.UUID) (*model.ReceiveTicket, error)
	UpdateReceiveStatusTx(tx *gorm.DB, id uuid.UUID, from, to model.Status) error
	// SetReceiveLineQuantityTx rewrites one line's quantity, used when actual
	// production output differs from the planned quantity the ticket was
	// spawned with.
	SetReceiveLineQuantityTx(tx *gorm.DB, ticketID, itemID uuid.UUID, quantity int) error
	DeleteReceiveTx(tx *gorm.DB, id uuid.UUID) error
}

type ticketRepo struct{ db *gorm.DB }

func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepo{db: db}
}

func (r *ticketRepo) DB() *gorm.DB { return r.db }

func (r *ticketRepo) CreateIssueTx(tx *gorm.DB, t *model.IssueTicket) error {
	return tx.Create(t).Error
}

func (r *ticketRepo) FindIssueByID(ctx context.Context, id uuid.UUID) (*model.IssueTicket, error) {
	var t model.IssueTicket
	err := r.db.WithContext(ctx).Preload("Lines").First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NewNotFound("issue ticket", id.String())
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ticketRepo) UpdateIssueStatusTx(tx *gorm.DB, id uuid.UUID, from, to model.Status) error {
	return updateStatusGuarded(tx, &model.IssueTicket{}, model.DocIssueTicket, id, from, to)
}

func (r *ticketRepo) DeleteIssueTx(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("document_type = ? AND document_id = ?", string(model.DocIssueTicket), id).
		Delete(&model.DocumentLine{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.IssueTicket{}, "id = ?", id).Error
}

func (r *ticketRepo) SetPickListPath(ctx context.Context, id uuid.UUID, path string) error {
	return r.db.WithContext(ctx).Model(&model.IssueTicket{}).
		Where("id = ?", id).
		Update("pick_list_path", path).Error
}

func (r *ticketRepo) CreateReceiveTx(tx *gorm.DB, t *model.ReceiveTicket) error {
	return tx.Create(t).Error
}

func (r *ticketRepo) FindReceiveByID(ctx context.Context, id uuid.UUID) (*model.ReceiveTicket, error) {
	var t model.ReceiveTicket
	err := r.db.WithContext(ctx).Preload("Lines").First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NewNotFound("receive ticket", id.String())
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ticketRepo) FindReceiveByReference(ctx context.Context, refType model.DocumentType, refID uuid.UUID) (*model.ReceiveTicket, error) {
	var t model.ReceiveTicket
	err := r.db.WithContext(ctx).Preload("Lines").
		First(&t, "reference_type = ? AND reference_id = ?", refType, refID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NewNotFound("receive ticket for "+string(refType), refID.String())
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *ticketRepo) SetReceiveLineQuantityTx(tx *gorm.DB, ticketID, itemID uuid.UUID, quantity int) error {
	return tx.Model(&model.DocumentLine{}).
		Where("document_type = ? AND document_id = ? AND item_id = ?", string(model.DocReceiveTicket), ticketID, itemID).
		Update("quantity", quantity).Error
}

func (r *ticketRepo) UpdateReceiveStatusTx(tx *gorm.DB, id uuid.UUID, from, to model.Status) error {
	return updateStatusGuarded(tx, &model.ReceiveTicket{}, model.DocReceiveTicket, id, from, to)
}

func (r *ticketRepo) DeleteReceiveTx(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("document_type = ? AND document_id = ?", string(model.DocReceiveTicket), id).
		Delete(&model.DocumentLine{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.ReceiveTicket{}, "id = ?", id).Error
}
