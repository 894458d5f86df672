package service

import (
	"context"
	"testing"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/apierror"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/dto"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckLine(t *testing.T) {
	rec := &model.InventoryRecord{OnHand: 10, Reserved: 4} // available 6

	assert.Equal(t, CheckSufficient, CheckLine(rec, 6))
	assert.Equal(t, CheckInsufficient, CheckLine(rec, 7))
	assert.Equal(t, CheckNoRecord, CheckLine(nil, 1))
	// Zero available still satisfies a zero demand, never a positive one
	empty := &model.InventoryRecord{OnHand: 5, Reserved: 5}
	assert.Equal(t, CheckInsufficient, CheckLine(empty, 1))
}

func TestCheckAvailability(t *testing.T) {
	ledger := newStubLedgerRepo()
	svc := NewAvailabilityService(ledger)

	warehouse := uuid.New()
	stocked := uuid.New()
	short := uuid.New()
	unknown := uuid.New()
	ledger.put(stocked, warehouse, 100, 20) // available 80
	ledger.put(short, warehouse, 10, 8)     // available 2

	resp, err := svc.CheckAvailability(context.Background(), &dto.CheckAvailabilityRequest{
		WarehouseID: warehouse.String(),
		Lines: []dto.DemandLineRequest{
			{ItemID: stocked.String(), Quantity: 50},
			{ItemID: short.String(), Quantity: 5},
			{ItemID: unknown.String(), Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.False(t, resp.AllSufficient)
	require.Len(t, resp.Lines, 3)
	assert.Equal(t, string(CheckSufficient), resp.Lines[0].Status)
	assert.Equal(t, 80, resp.Lines[0].Available)
	assert.Equal(t, string(CheckInsufficient), resp.Lines[1].Status)
	assert.Equal(t, string(CheckNoRecord), resp.Lines[2].Status)
}

func TestCheckAvailabilityAllSufficient(t *testing.T) {
	ledger := newStubLedgerRepo()
	svc := NewAvailabilityService(ledger)

	warehouse := uuid.New()
	item := uuid.New()
	ledger.put(item, warehouse, 10, 0)

	resp, err := svc.CheckAvailability(context.Background(), &dto.CheckAvailabilityRequest{
		WarehouseID: warehouse.String(),
		Lines:       []dto.DemandLineRequest{{ItemID: item.String(), Quantity: 10}},
	})
	require.NoError(t, err)
	assert.True(t, resp.AllSufficient)
}

func TestCheckAvailabilityInvalidUUID(t *testing.T) {
	svc := NewAvailabilityService(newStubLedgerRepo())

	_, err := svc.CheckAvailability(context.Background(), &dto.CheckAvailabilityRequest{
		WarehouseID: "not-a-uuid",
	})

	var ve *apierror.ValidationError
	require.ErrorAs(t, err, &ve)
}
