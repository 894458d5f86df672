package worker

// picklist_worker.go
// Generates the warehouse pick-list PDF for a freshly spawned issue ticket.
// Item display names are resolved best-effort from master data; a gateway
// outage only degrades the PDF to raw item ids, it never fails the job.

import (
	"context"
	"encoding/json"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/gateway"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/infra"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PickListJobPayload is the job envelope sent to QueuePickList.
type PickListJobPayload struct {
	IssueTicketID string `json:"issue_ticket_id"`
}

type PickListWorker struct {
	tickets     repository.TicketRepository
	masterData  *gateway.MasterDataClient
	storagePath string
}

func NewPickListWorker(tickets repository.TicketRepository, masterData *gateway.MasterDataClient, storagePath string) *PickListWorker {
	return &PickListWorker{tickets: tickets, masterData: masterData, storagePath: storagePath}
}

// Process renders the PDF and stores its path on the ticket.
func (w *PickListWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload PickListJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("picklist_worker: invalid payload")
		return
	}

	ticketID, err := uuid.Parse(payload.IssueTicketID)
	if err != nil {
		log.Error().Str("issue_ticket_id", payload.IssueTicketID).Msg("picklist_worker: invalid ticket id")
		return
	}

	ticket, err := w.tickets.FindIssueByID(ctx, ticketID)
	if err != nil {
		log.Error().Err(err).Str("issue_ticket_id", payload.IssueTicketID).Msg("picklist_worker: ticket not found")
		return
	}

	itemIDs := make([]uuid.UUID, 0, len(ticket.Lines))
	for _, line := range ticket.Lines {
		itemIDs = append(itemIDs, line.ItemID)
	}
	names := map[string]string{}
	if w.masterData != nil {
		names = w.masterData.ItemNames(ctx, itemIDs)
	}

	path, err := infra.GeneratePickListPDF(ticket, names, w.storagePath)
	if err != nil {
		log.Error().Err(err).Str("ticket_code", ticket.Code).Msg("picklist_worker: PDF generation failed")
		return
	}

	if err := w.tickets.SetPickListPath(ctx, ticketID, path); err != nil {
		log.Error().Err(err).Str("ticket_code", ticket.Code).Msg("picklist_worker: failed to store pick list path")
		return
	}

	log.Info().Str("ticket_code", ticket.Code).Str("path", path).Msg("picklist_worker: pick list generated")
}
