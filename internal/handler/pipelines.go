package handler

import (
	"net/http"
	"strconv"

	"github.com/hoanggiatri/supply-chain-management-sub002/internal/middleware"
	"github.com/hoanggiatri/supply-chain-management-sub002/internal/service"

	"github.com/gin-gonic/gin"
)

// PipelinesHandler exposes the orchestrator's journal: the reconciliation
// view for operators chasing a stalled run.
type PipelinesHandler struct{ svc service.FulfillmentService }

func NewPipelinesHandler(svc service.FulfillmentService) *PipelinesHandler {
	return &PipelinesHandler{svc: svc}
}

// List godoc
// @Summary      List fulfillment pipelines
// @Tags         pipelines
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "running | completed | compensated | stalled | resolved"
// @Param        page   query int    false "Page (default 1)"
// @Param        limit  query int    false "Per page (default 100, max 500)"
// @Success      200 {object} map[string]interface{}
// @Router       /v1/pipelines [get]
func (h *PipelinesHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	pipelines, total, err := h.svc.ListPipelines(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pipelines": pipelines, "total": total})
}

// Get godoc
// @Summary      Get a fulfillment pipeline with its journaled steps
// @Tags         pipelines
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Pipeline UUID"
// @Success      200 {object} dto.PipelineResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/pipelines/{id} [get]
func (h *PipelinesHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.GetPipeline(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Resolve godoc
// @Summary      Resolve a stalled pipeline
// @Description  Marks a stalled pipeline as manually reconciled and stops the escalation cron. The operator asserts ledger and documents were already fixed by hand.
// @Tags         pipelines
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Pipeline UUID"
// @Success      200 {object} dto.PipelineResponse
// @Failure      422 {object} apierror.APIError
// @Router       /v1/pipelines/{id}/resolve [post]
func (h *PipelinesHandler) Resolve(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := h.svc.ResolvePipeline(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
