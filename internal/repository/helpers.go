package repository

import (
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/apierror"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// updateStatusGuarded flips a document's status with a WHERE guard on the
// current value. Zero rows affected means another actor moved the document
// first (or it no longer exists) — reported as an illegal transition so the
// caller aborts before any further mutation.
func updateStatusGuarded(tx *gorm.DB, table interface{}, doc model.DocumentType, id uuid.UUID, from, to model.Status) error {
	res := tx.Model(table).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierror.NewInvalidTransition(string(doc), string(from), string(to))
	}
	return nil
}
