package service

import (
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/dto"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/model"
)

func toLineResponses(lines []model.DocumentLine) []dto.LineResponse {
	out := make([]dto.LineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, dto.LineResponse{
			ItemID:    l.ItemID.String(),
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return out
}

func toProductionOrderResponse(po *model.ProductionOrder) *dto.ProductionOrderResponse {
	stages := make([]dto.StageResponse, 0, len(po.Stages))
	for _, st := range po.Stages {
		stages = append(stages, dto.StageResponse{
			ID:          st.ID.String(),
			Sequence:    st.Sequence,
			Name:        st.Name,
			CompletedAt: st.CompletedAt,
		})
	}
	return &dto.ProductionOrderResponse{
		ID:                po.ID.String(),
		Code:              po.Code,
		Status:            string(po.Status),
		WarehouseID:       po.WarehouseID.String(),
		ItemID:            po.ItemID.String(),
		Quantity:          po.Quantity,
		CompletedQuantity: po.CompletedQuantity,
		BatchNo:           po.BatchNo,
		Lines:             toLineResponses(po.Lines),
		Stages:            stages,
		CreatedAt:         po.CreatedAt,
	}
}

func toTransferRequestResponse(tr *model.TransferRequest) *dto.TransferRequestResponse {
	return &dto.TransferRequestResponse{
		ID:              tr.ID.String(),
		Code:            tr.Code,
		Status:          string(tr.Status),
		FromWarehouseID: tr.FromWarehouseID.String(),
		ToWarehouseID:   tr.ToWarehouseID.String(),
		Lines:           toLineResponses(tr.Lines),
		CreatedAt:       tr.CreatedAt,
	}
}

func toPurchaseOrderResponse(po *model.PurchaseOrder) *dto.PurchaseOrderResponse {
	resp := &dto.PurchaseOrderResponse{
		ID:          po.ID.String(),
		Code:        po.Code,
		Status:      string(po.Status),
		SellerID:    po.SellerID.String(),
		WarehouseID: po.WarehouseID.String(),
		TotalAmount: po.TotalAmount,
		Lines:       toLineResponses(po.Lines),
		CreatedAt:   po.CreatedAt,
	}
	if po.SalesOrderID != nil {
		id := po.SalesOrderID.String()
		resp.SalesOrderID = &id
	}
	return resp
}

func toSalesOrderResponse(so *model.SalesOrder) *dto.SalesOrderResponse {
	return &dto.SalesOrderResponse{
		ID:              so.ID.String(),
		Code:            so.Code,
		Status:          string(so.Status),
		BuyerID:         so.BuyerID.String(),
		PurchaseOrderID: so.PurchaseOrderID.String(),
		WarehouseID:     so.WarehouseID.String(),
		TotalAmount:     so.TotalAmount,
		Lines:           toLineResponses(so.Lines),
		CreatedAt:       so.CreatedAt,
	}
}

func toIssueTicketResponse(t *model.IssueTicket) *dto.TicketResponse {
	return &dto.TicketResponse{
		ID:            t.ID.String(),
		Code:          t.Code,
		Status:        string(t.Status),
		WarehouseID:   t.WarehouseID.String(),
		FlowType:      string(t.IssueType),
		ReferenceType: string(t.ReferenceType),
		ReferenceID:   t.ReferenceID.String(),
		PickListPath:  t.PickListPath,
		Lines:         toLineResponses(t.Lines),
		CreatedAt:     t.CreatedAt,
	}
}

func toReceiveTicketResponse(t *model.ReceiveTicket) *dto.TicketResponse {
	return &dto.TicketResponse{
		ID:            t.ID.String(),
		Code:          t.Code,
		Status:        string(t.Status),
		WarehouseID:   t.WarehouseID.String(),
		FlowType:      string(t.ReceiveType),
		ReferenceType: string(t.ReferenceType),
		ReferenceID:   t.ReferenceID.String(),
		Lines:         toLineResponses(t.Lines),
		CreatedAt:     t.CreatedAt,
	}
}

func toDeliveryOrderResponse(d *model.DeliveryOrder) *dto.DeliveryOrderResponse {
	events := make([]dto.DeliveryEventResponse, 0, len(d.Events))
	for _, ev := range d.Events {
		events = append(events, dto.DeliveryEventResponse{
			Kind:       ev.Kind,
			Location:   ev.Location,
			OccurredAt: ev.OccurredAt,
		})
	}
	return &dto.DeliveryOrderResponse{
		ID:              d.ID.String(),
		Code:            d.Code,
		Status:          string(d.Status),
		SalesOrderID:    d.SalesOrderID.String(),
		PickupLocation:  d.PickupLocation,
		DropoffLocation: d.DropoffLocation,
		Events:          events,
		CreatedAt:       d.CreatedAt,
	}
}

func toPipelineResponse(p *model.FulfillmentPipeline) *dto.PipelineResponse {
	steps := make([]dto.PipelineStepResponse, 0, len(p.Steps))
	for _, st := range p.Steps {
		steps = append(steps, dto.PipelineStepResponse{
			Seq:    st.Seq,
			Name:   st.Name,
			Status: st.Status,
			Error:  st.Error,
		})
	}
	return &dto.PipelineResponse{
		ID:           p.ID.String(),
		Action:       p.Action,
		DocumentType: string(p.DocumentType),
		DocumentID:   p.DocumentID.String(),
		Status:       p.Status,
		FailedStep:   p.FailedStep,
		LastError:    p.LastError,
		RetryCount:   p.RetryCount,
		NextRetryAt:  p.NextRetryAt,
		Steps:        steps,
		CreatedAt:    p.CreatedAt,
	}
}

func toMovementResponse(m *model.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:             m.ID.String(),
		ItemID:         m.ItemID.String(),
		WarehouseID:    m.WarehouseID.String(),
		Kind:           m.Kind,
		Quantity:       m.Quantity,
		OnHandBefore:   m.OnHandBefore,
		OnHandAfter:    m.OnHandAfter,
		ReservedBefore: m.ReservedBefore,
		ReservedAfter:  m.ReservedAfter,
		Reason:         m.Reason,
		CreatedAt:      m.CreatedAt,
	}
}
