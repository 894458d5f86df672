package handler

import (
	"net/http"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/dto"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

type AvailabilityHandler struct{ svc service.AvailabilityService }

func NewAvailabilityHandler(svc service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc}
}

// Check godoc
// @Summary      Check inventory availability
// @Description  Advisory per-line availability for a demand set against one warehouse. The answer can go stale immediately; only confirming reserves stock.
// @Tags         availability
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CheckAvailabilityRequest true "Demand set"
// @Success      200  {object} dto.CheckAvailabilityResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/availability [post]
func (h *AvailabilityHandler) Check(c *gin.Context) {
	var req dto.CheckAvailabilityRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CheckAvailability(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
