package service

import (
	"context"
	"errors"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/apierror"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/dto"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/model"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/repository"

	"github.com/google/uuid"
)

// CheckResult classifies one demand line against its ledger record.
type CheckResult string

const (
	CheckSufficient   CheckResult = "sufficient"
	CheckInsufficient CheckResult = "insufficient"
	CheckNoRecord     CheckResult = "no_record"
)

// CheckLine is the reservation rule in its pure form: a demand is satisfiable
// when on-hand minus reserved covers it. A missing record is a distinct
// outcome, not zero availability, so callers can tell "never stocked here"
// apart from "sold out".
func CheckLine(rec *model.InventoryRecord, needed int) CheckResult {
	if rec == nil {
		return CheckNoRecord
	}
	if rec.Available() >= needed {
		return CheckSufficient
	}
	return CheckInsufficient
}

// AvailabilityService answers advisory availability questions. The answer is a
// snapshot and can go stale immediately; only the locked re-check inside a
// confirm is authoritative.
type AvailabilityService interface {
	CheckAvailability(ctx context.Context, req *dto.CheckAvailabilityRequest) (*dto.CheckAvailabilityResponse, error)
}

type availabilityService struct {
	ledger repository.LedgerRepository
}

func NewAvailabilityService(ledger repository.LedgerRepository) AvailabilityService {
	return &availabilityService{ledger: ledger}
}

func (s *availabilityService) CheckAvailability(ctx context.Context, req *dto.CheckAvailabilityRequest) (*dto.CheckAvailabilityResponse, error) {
	warehouseID, err := uuid.Parse(req.WarehouseID)
	if err != nil {
		return nil, apierror.NewValidation(map[string]string{"warehouse_id": "must be a valid UUID"})
	}

	resp := &dto.CheckAvailabilityResponse{
		WarehouseID:   req.WarehouseID,
		AllSufficient: true,
		Lines:         make([]dto.LineAvailability, 0, len(req.Lines)),
	}

	for _, line := range req.Lines {
		itemID, err := uuid.Parse(line.ItemID)
		if err != nil {
			return nil, apierror.NewValidation(map[string]string{"item_id": "must be a valid UUID"})
		}

		rec, err := s.ledger.GetRecord(ctx, itemID, warehouseID)
		var nf *apierror.NotFoundError
		if err != nil && !errors.As(err, &nf) {
			return nil, err
		}

		la := dto.LineAvailability{
			ItemID:    line.ItemID,
			Requested: line.Quantity,
			Status:    string(CheckLine(rec, line.Quantity)),
		}
		if rec != nil {
			la.OnHand = rec.OnHand
			la.Reserved = rec.Reserved
			la.Available = rec.Available()
		}
		if la.Status != string(CheckSufficient) {
			resp.AllSufficient = false
		}
		resp.Lines = append(resp.Lines, la)
	}

	return resp, nil
}
