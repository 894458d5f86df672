package handler

import (
	"net/http"
	"strconv"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/apierror"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/dto"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/middleware"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/repository"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DocumentsHandler struct{ svc service.DocumentService }

func NewDocumentsHandler(svc service.DocumentService) *DocumentsHandler {
	return &DocumentsHandler{svc: svc}
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

// CreateProductionOrder godoc
// @Summary      Create production order
// @Description  Creates a production order in pending confirmation. Component demand is derived from the item's BOM when the order is confirmed.
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateProductionOrderRequest true "Order"
// @Success      201  {object} dto.ProductionOrderResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/production-orders [post]
func (h *DocumentsHandler) CreateProductionOrder(c *gin.Context) {
	var req dto.CreateProductionOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateProductionOrder(c.Request.Context(), middleware.ActorFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetProductionOrder godoc
// @Summary      Get production order
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID"
// @Success      200 {object} dto.ProductionOrderResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/production-orders/{id} [get]
func (h *DocumentsHandler) GetProductionOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetProductionOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateTransferRequest godoc
// @Summary      Create transfer request
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateTransferRequestRequest true "Transfer"
// @Success      201  {object} dto.TransferRequestResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/transfer-requests [post]
func (h *DocumentsHandler) CreateTransferRequest(c *gin.Context) {
	var req dto.CreateTransferRequestRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateTransferRequest(c.Request.Context(), middleware.ActorFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetTransferRequest godoc
// @Summary      Get transfer request
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID"
// @Success      200 {object} dto.TransferRequestResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/transfer-requests/{id} [get]
func (h *DocumentsHandler) GetTransferRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetTransferRequest(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreatePurchaseOrder godoc
// @Summary      Create purchase order (and its sales order counterpart)
// @Description  Creates the buyer-side purchase order and the seller-side sales order in one transaction; the pair stays in lock-step for its whole lifecycle.
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreatePurchaseOrderRequest true "Order"
// @Success      201  {object} dto.PurchaseOrderResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/purchase-orders [post]
func (h *DocumentsHandler) CreatePurchaseOrder(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreatePurchaseOrder(c.Request.Context(), middleware.ActorFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetPurchaseOrder godoc
// @Summary      Get purchase order
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID"
// @Success      200 {object} dto.PurchaseOrderResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/purchase-orders/{id} [get]
func (h *DocumentsHandler) GetPurchaseOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetPurchaseOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetSalesOrder godoc
// @Summary      Get sales order
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID"
// @Success      200 {object} dto.SalesOrderResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/sales-orders/{id} [get]
func (h *DocumentsHandler) GetSalesOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetSalesOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetIssueTicket godoc
// @Summary      Get issue ticket
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID"
// @Success      200 {object} dto.TicketResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/issue-tickets/{id} [get]
func (h *DocumentsHandler) GetIssueTicket(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetIssueTicket(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetReceiveTicket godoc
// @Summary      Get receive ticket
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID"
// @Success      200 {object} dto.TicketResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/receive-tickets/{id} [get]
func (h *DocumentsHandler) GetReceiveTicket(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetReceiveTicket(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetDeliveryOrder godoc
// @Summary      Get delivery order
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID"
// @Success      200 {object} dto.DeliveryOrderResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/delivery-orders/{id} [get]
func (h *DocumentsHandler) GetDeliveryOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetDeliveryOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListMovements godoc
// @Summary      List stock movements
// @Description  Paginated ledger audit trail, newest first. Filter by item, warehouse, or movement kind.
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        item_id      query string false "Item UUID"
// @Param        warehouse_id query string false "Warehouse UUID"
// @Param        kind         query string false "reserve | release | issue | receive | compensation"
// @Param        page         query int    false "Page (default 1)"
// @Param        limit        query int    false "Per page (default 100, max 500)"
// @Success      200 {object} map[string]interface{}
// @Router       /v1/stock-movements [get]
func (h *DocumentsHandler) ListMovements(c *gin.Context) {
	filter := repository.StockMovementFilter{Kind: c.Query("kind")}
	if v := c.Query("item_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid item_id"))
			return
		}
		filter.ItemID = &id
	}
	if v := c.Query("warehouse_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid warehouse_id"))
			return
		}
		filter.WarehouseID = &id
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "100"))

	movements, total, err := h.svc.ListMovements(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movements": movements, "total": total})
}
