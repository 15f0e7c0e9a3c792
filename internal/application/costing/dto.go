package costing

import (
	"github.com/erp/costing/internal/domain/costing"
	"github.com/shopspring/decimal"
)

// CalculateProcessCostInput identifies the order to cost and the currency to
// report in. An empty currency falls back to the use case default. Refresh
// drops any cached cost data for the order before it is read.
type CalculateProcessCostInput struct {
	OrderID  string
	Currency string
	Refresh  bool
}

// RecordCounts reports how many source lines contributed to a calculation
type RecordCounts struct {
	Materials int `json:"materials"`
	Labor     int `json:"labor"`
	Overhead  int `json:"overhead"`
}

// CalculateProcessCostOutput is the assembled breakdown plus diagnostics
type CalculateProcessCostOutput struct {
	CostBreakdown costing.CostBreakdown
	RecordCounts  RecordCounts
}

// ProcessCostResponse represents a process cost calculation in API responses
type ProcessCostResponse struct {
	OrderID            string          `json:"order_id"`
	Currency           string          `json:"currency"`
	MaterialCost       decimal.Decimal `json:"material_cost"`
	LaborCost          decimal.Decimal `json:"labor_cost"`
	OverheadCost       decimal.Decimal `json:"overhead_cost"`
	TotalCost          decimal.Decimal `json:"total_cost"`
	Quantity           decimal.Decimal `json:"quantity"`
	CostPerUnit        decimal.Decimal `json:"cost_per_unit"`
	MaterialPercentage decimal.Decimal `json:"material_percentage"`
	LaborPercentage    decimal.Decimal `json:"labor_percentage"`
	OverheadPercentage decimal.Decimal `json:"overhead_percentage"`
	RecordCounts       RecordCounts    `json:"record_counts"`
}

// BaselineCostRequest is a budgeted or standard breakdown to compare against
type BaselineCostRequest struct {
	MaterialCost float64 `json:"material_cost" binding:"min=0"`
	LaborCost    float64 `json:"labor_cost" binding:"min=0"`
	OverheadCost float64 `json:"overhead_cost" binding:"min=0"`
	Quantity     float64 `json:"quantity" binding:"required,gt=0"`
	Currency     string  `json:"currency" binding:"omitempty,len=3"`
}

// VarianceResponse compares an order's actual cost against a baseline.
// Variance amounts are only present when every bucket is at or above baseline.
type VarianceResponse struct {
	Actual             ProcessCostResponse        `json:"actual"`
	Baseline           costing.CostBreakdownData  `json:"baseline"`
	PercentageVariance costing.PercentageVariance `json:"percentage_variance"`
	Variance           *costing.CostBreakdownData `json:"variance,omitempty"`
}

// CreateStageRequest represents a request to add a stage to an order
type CreateStageRequest struct {
	Name         string  `json:"name" binding:"required,min=1,max=100"`
	Sequence     int     `json:"sequence" binding:"required,min=1"`
	UnitsStarted float64 `json:"units_started" binding:"min=0"`
	Currency     string  `json:"currency" binding:"omitempty,len=3"`
}

// RecordProgressRequest updates completed units and in-process completion
type RecordProgressRequest struct {
	UnitsCompleted       float64 `json:"units_completed" binding:"min=0"`
	CompletionPercentage float64 `json:"completion_percentage" binding:"min=0,max=100"`
}

// SetUnitsStartedRequest replaces the number of units that entered a stage
type SetUnitsStartedRequest struct {
	UnitsStarted float64 `json:"units_started" binding:"min=0"`
}

// AddCostRequest charges an amount to a stage
type AddCostRequest struct {
	Amount float64 `json:"amount" binding:"gt=0"`
}

// ProcessStageResponse represents a process stage in API responses
type ProcessStageResponse struct {
	ID                    string          `json:"id"`
	OrderID               string          `json:"order_id"`
	Name                  string          `json:"name"`
	Sequence              int             `json:"sequence"`
	Status                string          `json:"status"`
	UnitsStarted          decimal.Decimal `json:"units_started"`
	UnitsCompleted        decimal.Decimal `json:"units_completed"`
	UnitsInProgress       decimal.Decimal `json:"units_in_progress"`
	CompletionPercentage  decimal.Decimal `json:"completion_percentage"`
	WIPPercentage         decimal.Decimal `json:"wip_percentage"`
	EquivalentUnits       decimal.Decimal `json:"equivalent_units"`
	AccumulatedCost       decimal.Decimal `json:"accumulated_cost"`
	CostPerEquivalentUnit decimal.Decimal `json:"cost_per_equivalent_unit"`
	TotalWIP              decimal.Decimal `json:"total_wip"`
	Currency              string          `json:"currency"`
}

// StageSummaryResponse aggregates all stages of an order
type StageSummaryResponse struct {
	OrderID         string          `json:"order_id"`
	Currency        string          `json:"currency"`
	StageCount      int             `json:"stage_count"`
	CompletedStages int             `json:"completed_stages"`
	EquivalentUnits decimal.Decimal `json:"equivalent_units"`
	AccumulatedCost decimal.Decimal `json:"accumulated_cost"`
	TotalWIP        decimal.Decimal `json:"total_wip"`
}

// ToProcessCostResponse converts a calculation result to its API form
func ToProcessCostResponse(orderID string, out *CalculateProcessCostOutput) ProcessCostResponse {
	b := out.CostBreakdown
	return ProcessCostResponse{
		OrderID:            orderID,
		Currency:           string(b.Currency()),
		MaterialCost:       b.MaterialCost().Amount(),
		LaborCost:          b.LaborCost().Amount(),
		OverheadCost:       b.OverheadCost().Amount(),
		TotalCost:          b.TotalCost().Amount(),
		Quantity:           b.Quantity().Amount(),
		CostPerUnit:        b.CostPerUnit().Amount(),
		MaterialPercentage: b.MaterialPercentage().Round(2),
		LaborPercentage:    b.LaborPercentage().Round(2),
		OverheadPercentage: b.OverheadPercentage().Round(2),
		RecordCounts:       out.RecordCounts,
	}
}

// ToProcessStageResponse converts a stage to its API form
func ToProcessStageResponse(orderID string, s costing.ProcessStage) ProcessStageResponse {
	return ProcessStageResponse{
		ID:                    s.ID(),
		OrderID:               orderID,
		Name:                  s.Name(),
		Sequence:              s.Sequence(),
		Status:                s.Status().String(),
		UnitsStarted:          s.UnitsStarted().Amount(),
		UnitsCompleted:        s.UnitsCompleted().Amount(),
		UnitsInProgress:       s.UnitsInProgress().Amount(),
		CompletionPercentage:  s.CompletionPercentage(),
		WIPPercentage:         s.WIPPercentage().Round(2),
		EquivalentUnits:       s.EquivalentUnits().Amount(),
		AccumulatedCost:       s.AccumulatedCost().Amount(),
		CostPerEquivalentUnit: s.CostPerEquivalentUnit().Amount().Round(4),
		TotalWIP:              s.TotalWIP().Amount().Round(2),
		Currency:              string(s.Currency()),
	}
}

// ToProcessStageResponses converts a slice of stages
func ToProcessStageResponses(orderID string, stages []costing.ProcessStage) []ProcessStageResponse {
	responses := make([]ProcessStageResponse, len(stages))
	for i, s := range stages {
		responses[i] = ToProcessStageResponse(orderID, s)
	}
	return responses
}
