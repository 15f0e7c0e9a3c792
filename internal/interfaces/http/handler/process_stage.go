package handler

import (
	"context"
	"strings"

	costingapp "github.com/erp/costing/internal/application/costing"
	"github.com/gin-gonic/gin"
)

// ProcessStageHandler handles process stage endpoints
type ProcessStageHandler struct {
	BaseHandler
	service *costingapp.ProcessStageService
}

// NewProcessStageHandler creates a new ProcessStageHandler
func NewProcessStageHandler(service *costingapp.ProcessStageService) *ProcessStageHandler {
	return &ProcessStageHandler{service: service}
}

// Create godoc
// @ID           createProcessStage
// @Summary      Add a process stage to an order
// @Tags         process-stages
// @Accept       json
// @Produce      json
// @Param        orderId  path      string                         true  "Manufacturing order ID"
// @Param        request  body      costingapp.CreateStageRequest  true  "Stage"
// @Success      201      {object}  dto.Response{data=costingapp.ProcessStageResponse}
// @Failure      400      {object}  dto.Response
// @Failure      409      {object}  dto.Response
// @Router       /manufacturing-orders/{orderId}/stages [post]
func (h *ProcessStageHandler) Create(c *gin.Context) {
	var req costingapp.CreateStageRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.Currency = strings.ToUpper(req.Currency)

	stage, err := h.service.CreateStage(c.Request.Context(), c.Param("orderId"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, stage)
}

// List godoc
// @ID           listProcessStages
// @Summary      List an order's stages in sequence order
// @Tags         process-stages
// @Produce      json
// @Param        orderId  path      string  true  "Manufacturing order ID"
// @Success      200      {object}  dto.Response{data=[]costingapp.ProcessStageResponse}
// @Router       /manufacturing-orders/{orderId}/stages [get]
func (h *ProcessStageHandler) List(c *gin.Context) {
	stages, err := h.service.ListStages(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stages)
}

// Summary godoc
// @ID           summarizeProcessStages
// @Summary      Summarize equivalent units, cost and WIP across an order's stages
// @Tags         process-stages
// @Produce      json
// @Param        orderId  path      string  true  "Manufacturing order ID"
// @Success      200      {object}  dto.Response{data=costingapp.StageSummaryResponse}
// @Failure      422      {object}  dto.Response
// @Router       /manufacturing-orders/{orderId}/stages/summary [get]
func (h *ProcessStageHandler) Summary(c *gin.Context) {
	summary, err := h.service.SummarizeOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Get godoc
// @ID           getProcessStage
// @Summary      Get a process stage
// @Tags         process-stages
// @Produce      json
// @Param        id   path      string  true  "Stage ID"
// @Success      200  {object}  dto.Response{data=costingapp.ProcessStageResponse}
// @Failure      404  {object}  dto.Response
// @Router       /process-stages/{id} [get]
func (h *ProcessStageHandler) Get(c *gin.Context) {
	stage, err := h.service.GetStage(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stage)
}

// Start godoc
// @ID           startProcessStage
// @Summary      Start a stage
// @Tags         process-stages
// @Produce      json
// @Param        id   path      string  true  "Stage ID"
// @Success      200  {object}  dto.Response{data=costingapp.ProcessStageResponse}
// @Failure      404  {object}  dto.Response
// @Failure      422  {object}  dto.Response
// @Failure      409  {object}  dto.Response
// @Router       /process-stages/{id}/start [post]
func (h *ProcessStageHandler) Start(c *gin.Context) {
	h.transition(c, h.service.Start)
}

// Complete godoc
// @ID           completeProcessStage
// @Summary      Complete an in-progress stage
// @Tags         process-stages
// @Produce      json
// @Param        id   path      string  true  "Stage ID"
// @Success      200  {object}  dto.Response{data=costingapp.ProcessStageResponse}
// @Failure      422  {object}  dto.Response
// @Failure      409  {object}  dto.Response
// @Router       /process-stages/{id}/complete [post]
func (h *ProcessStageHandler) Complete(c *gin.Context) {
	h.transition(c, h.service.Complete)
}

// Hold godoc
// @ID           holdProcessStage
// @Summary      Put an in-progress stage on hold
// @Tags         process-stages
// @Produce      json
// @Param        id   path      string  true  "Stage ID"
// @Success      200  {object}  dto.Response{data=costingapp.ProcessStageResponse}
// @Failure      422  {object}  dto.Response
// @Failure      409  {object}  dto.Response
// @Router       /process-stages/{id}/hold [post]
func (h *ProcessStageHandler) Hold(c *gin.Context) {
	h.transition(c, h.service.PutOnHold)
}

// Resume godoc
// @ID           resumeProcessStage
// @Summary      Resume a stage that is on hold
// @Tags         process-stages
// @Produce      json
// @Param        id   path      string  true  "Stage ID"
// @Success      200  {object}  dto.Response{data=costingapp.ProcessStageResponse}
// @Failure      422  {object}  dto.Response
// @Failure      409  {object}  dto.Response
// @Router       /process-stages/{id}/resume [post]
func (h *ProcessStageHandler) Resume(c *gin.Context) {
	h.transition(c, h.service.Resume)
}

// RecordProgress godoc
// @ID           recordProcessStageProgress
// @Summary      Record completed units and in-process completion
// @Tags         process-stages
// @Accept       json
// @Produce      json
// @Param        id       path      string                            true  "Stage ID"
// @Param        request  body      costingapp.RecordProgressRequest  true  "Progress"
// @Success      200      {object}  dto.Response{data=costingapp.ProcessStageResponse}
// @Failure      400      {object}  dto.Response
// @Failure      422      {object}  dto.Response
// @Failure      409      {object}  dto.Response
// @Router       /process-stages/{id}/progress [put]
func (h *ProcessStageHandler) RecordProgress(c *gin.Context) {
	var req costingapp.RecordProgressRequest
	if !h.BindJSON(c, &req) {
		return
	}
	stage, err := h.service.RecordProgress(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stage)
}

// SetUnitsStarted godoc
// @ID           setProcessStageUnitsStarted
// @Summary      Replace the number of units that entered a stage
// @Tags         process-stages
// @Accept       json
// @Produce      json
// @Param        id       path      string                             true  "Stage ID"
// @Param        request  body      costingapp.SetUnitsStartedRequest  true  "Units started"
// @Success      200      {object}  dto.Response{data=costingapp.ProcessStageResponse}
// @Failure      400      {object}  dto.Response
// @Failure      422      {object}  dto.Response
// @Failure      409      {object}  dto.Response
// @Router       /process-stages/{id}/units-started [put]
func (h *ProcessStageHandler) SetUnitsStarted(c *gin.Context) {
	var req costingapp.SetUnitsStartedRequest
	if !h.BindJSON(c, &req) {
		return
	}
	stage, err := h.service.SetUnitsStarted(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stage)
}

// AddCost godoc
// @ID           addProcessStageCost
// @Summary      Charge an amount to a stage
// @Tags         process-stages
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Stage ID"
// @Param        request  body      costingapp.AddCostRequest  true  "Cost"
// @Success      200      {object}  dto.Response{data=costingapp.ProcessStageResponse}
// @Failure      400      {object}  dto.Response
// @Failure      409      {object}  dto.Response
// @Router       /process-stages/{id}/costs [post]
func (h *ProcessStageHandler) AddCost(c *gin.Context) {
	var req costingapp.AddCostRequest
	if !h.BindJSON(c, &req) {
		return
	}
	stage, err := h.service.AddCost(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stage)
}

func (h *ProcessStageHandler) transition(
	c *gin.Context,
	fn func(ctx context.Context, id string) (*costingapp.ProcessStageResponse, error),
) {
	stage, err := fn(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stage)
}
