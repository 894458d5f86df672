package handler

import (
	"net/http"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/apierror"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/dto"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/middleware"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/model"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FulfillmentHandler struct{ svc service.FulfillmentService }

func NewFulfillmentHandler(svc service.FulfillmentService) *FulfillmentHandler {
	return &FulfillmentHandler{svc: svc}
}

// Confirm godoc
// @Summary      Confirm a document
// @Description  Runs the confirmation pipeline: status transition, atomic all-or-nothing reservation at the relevant warehouse, issue-ticket spawn. Purchase orders confirm together with their sales order counterpart.
// @Tags         fulfillment
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Document UUID"
// @Success      200 {object} dto.PipelineResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/production-orders/{id}/confirm [post]
func (h *FulfillmentHandler) Confirm(docType model.DocumentType) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		resp, err := h.svc.Confirm(c.Request.Context(), middleware.ActorFrom(c), docType, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Cancel godoc
// @Summary      Cancel a document
// @Description  Only pending-confirmation production and purchase orders can be cancelled; a purchase order cancels together with its sales order.
// @Tags         fulfillment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string             true "Document UUID"
// @Param        body body dto.CancelRequest true "Reason"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/purchase-orders/{id}/cancel [post]
func (h *FulfillmentHandler) Cancel(docType model.DocumentType) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req dto.CancelRequest
		if !bindAndValidate(c, &req) {
			return
		}
		if err := h.svc.Cancel(c.Request.Context(), middleware.ActorFrom(c), docType, id, req.Reason); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// Issue godoc
// @Summary      Execute an issue ticket
// @Description  Physically removes stock: per line on-hand and reserved both decrease. Advances the originating document and spawns the downstream document for its flow.
// @Tags         fulfillment
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Issue ticket UUID"
// @Success      200 {object} dto.PipelineResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/issue-tickets/{id}/execute [post]
func (h *FulfillmentHandler) Issue(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Issue(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Receive godoc
// @Summary      Execute a receive ticket
// @Description  Physically adds stock: per line on-hand increases at the receiving warehouse. Advances the originating document where its flow requires it.
// @Tags         fulfillment
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Receive ticket UUID"
// @Success      200 {object} dto.PipelineResponse
// @Failure      409 {object} apierror.APIError
// @Router       /v1/receive-tickets/{id}/execute [post]
func (h *FulfillmentHandler) Receive(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Receive(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CompleteStage godoc
// @Summary      Complete a production stage
// @Description  Stages complete strictly in ascending order; completing the final stage moves the order to pending stock-in.
// @Tags         fulfillment
// @Produce      json
// @Security     BearerAuth
// @Param        id       path string true "Production order UUID"
// @Param        stage_id path string true "Stage UUID"
// @Success      200 {object} dto.ProductionOrderResponse
// @Failure      422 {object} apierror.APIError
// @Router       /v1/production-orders/{id}/stages/{stage_id}/complete [post]
func (h *FulfillmentHandler) CompleteStage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	stageID, err := uuid.Parse(c.Param("stage_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid stage id"))
		return
	}
	resp, err := h.svc.CompleteStage(c.Request.Context(), middleware.ActorFrom(c), id, stageID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CompleteProduction godoc
// @Summary      Record production completion
// @Description  Records actual output, mints one serialized unit per finished item under a shared batch id, adjusts the finished-goods receive ticket to actual quantity, and completes the order.
// @Tags         fulfillment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                         true "Production order UUID"
// @Param        body body dto.CompleteProductionRequest true "Actual output"
// @Success      200  {object} dto.CompleteProductionResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/production-orders/{id}/complete [post]
func (h *FulfillmentHandler) CompleteProduction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.CompleteProductionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CompleteProduction(c.Request.Context(), middleware.ActorFrom(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmDelivery godoc
// @Summary      Confirm a delivery order
// @Tags         fulfillment
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Delivery order UUID"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/delivery-orders/{id}/confirm [post]
func (h *FulfillmentHandler) ConfirmDelivery(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.ConfirmDelivery(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RecordPickup godoc
// @Summary      Record pickup arrival
// @Tags         fulfillment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "Delivery order UUID"
// @Param        body body dto.DeliveryEventRequest true "Arrival location"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/delivery-orders/{id}/pickup [post]
func (h *FulfillmentHandler) RecordPickup(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.DeliveryEventRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.RecordPickup(c.Request.Context(), middleware.ActorFrom(c), id, &req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CompleteDelivery godoc
// @Summary      Complete a delivery order
// @Description  Records the drop-off, moves the trade pair to pending stock-in, and spawns the buyer-side receive ticket.
// @Tags         fulfillment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "Delivery order UUID"
// @Param        body body dto.DeliveryEventRequest true "Arrival location"
// @Success      200  {object} dto.PipelineResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/delivery-orders/{id}/complete [post]
func (h *FulfillmentHandler) CompleteDelivery(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.DeliveryEventRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CompleteDelivery(c.Request.Context(), middleware.ActorFrom(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
