package handler

import (
	"strconv"
	"strings"

	costingapp "github.com/erp/costing/internal/application/costing"
	"github.com/gin-gonic/gin"
)

// ProcessCostHandler handles process cost calculation endpoints
type ProcessCostHandler struct {
	BaseHandler
	useCase *costingapp.CalculateProcessCostUseCase
}

// NewProcessCostHandler creates a new ProcessCostHandler
func NewProcessCostHandler(useCase *costingapp.CalculateProcessCostUseCase) *ProcessCostHandler {
	return &ProcessCostHandler{useCase: useCase}
}

// calculateInput reads the order from the path and the optional currency and
// refresh flag from the query string
func (h *ProcessCostHandler) calculateInput(c *gin.Context) (costingapp.CalculateProcessCostInput, bool) {
	input := costingapp.CalculateProcessCostInput{
		OrderID:  c.Param("orderId"),
		Currency: strings.ToUpper(strings.TrimSpace(c.Query("currency"))),
	}
	if input.Currency != "" && len(input.Currency) != 3 {
		h.BadRequest(c, "currency must be a 3-letter ISO code")
		return input, false
	}
	if raw := c.Query("refresh"); raw != "" {
		refresh, err := strconv.ParseBool(raw)
		if err != nil {
			h.BadRequest(c, "refresh must be a boolean")
			return input, false
		}
		input.Refresh = refresh
	}
	return input, true
}

// Calculate godoc
// @ID           calculateProcessCost
// @Summary      Calculate process cost
// @Description  Totals material, labor and overhead booked against a manufacturing order
// @Tags         process-cost
// @Produce      json
// @Param        orderId   path      string  true   "Manufacturing order ID"
// @Param        currency  query     string  false  "ISO currency code (default from configuration)"
// @Param        refresh   query     bool    false  "Drop cached cost data for the order before calculating"
// @Success      200       {object}  dto.Response{data=costingapp.ProcessCostResponse}
// @Failure      400       {object}  dto.Response
// @Failure      404       {object}  dto.Response
// @Failure      500       {object}  dto.Response
// @Router       /manufacturing-orders/{orderId}/process-cost [get]
func (h *ProcessCostHandler) Calculate(c *gin.Context) {
	input, ok := h.calculateInput(c)
	if !ok {
		return
	}

	out, err := h.useCase.Execute(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, costingapp.ToProcessCostResponse(input.OrderID, out))
}

// Variance godoc
// @ID           compareProcessCost
// @Summary      Compare process cost with a baseline
// @Description  Calculates the order's cost and reports absolute and percentage variance against a budget
// @Tags         process-cost
// @Accept       json
// @Produce      json
// @Param        orderId   path      string                          true   "Manufacturing order ID"
// @Param        currency  query     string                          false  "ISO currency code"
// @Param        request   body      costingapp.BaselineCostRequest  true   "Baseline breakdown"
// @Success      200       {object}  dto.Response{data=costingapp.VarianceResponse}
// @Failure      400       {object}  dto.Response
// @Failure      404       {object}  dto.Response
// @Failure      422       {object}  dto.Response
// @Router       /manufacturing-orders/{orderId}/process-cost/variance [post]
func (h *ProcessCostHandler) Variance(c *gin.Context) {
	input, ok := h.calculateInput(c)
	if !ok {
		return
	}

	var req costingapp.BaselineCostRequest
	if !h.BindJSON(c, &req) {
		return
	}
	req.Currency = strings.ToUpper(req.Currency)

	resp, err := h.useCase.CompareToBaseline(c.Request.Context(), input, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
