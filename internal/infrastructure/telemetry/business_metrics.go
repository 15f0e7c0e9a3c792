package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Outcome labels for recorded operations
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// CostingMetrics records process-costing activity.
// A nil *CostingMetrics is valid and records nothing.
type CostingMetrics struct {
	calculationsTotal   *Counter
	calculationDuration *Histogram
	stageTransitions    *Counter
}

// MetricsError is returned when a metrics component cannot be built
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = &MetricsError{Op: "NewCostingMetrics", Err: "meter cannot be nil"}

// NewCostingMetrics registers the costing instruments on meter.
func NewCostingMetrics(meter metric.Meter) (*CostingMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var (
		cm  CostingMetrics
		err error
	)

	cm.calculationsTotal, err = NewCounter(meter,
		"erp_process_cost_calculations_total",
		"Total number of process cost calculations",
		"{calculations}",
	)
	if err != nil {
		return nil, err
	}

	cm.calculationDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "erp_process_cost_calculation_duration_seconds",
		Description: "Duration of process cost calculations",
		Unit:        "s",
		Boundaries:  DurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	cm.stageTransitions, err = NewCounter(meter,
		"erp_process_stage_transitions_total",
		"Total number of process stage lifecycle transitions",
		"{transitions}",
	)
	if err != nil {
		return nil, err
	}

	return &cm, nil
}

// RecordCalculation records one cost calculation and its duration
func (cm *CostingMetrics) RecordCalculation(ctx context.Context, currency, outcome string, d time.Duration) {
	if cm == nil {
		return
	}
	cm.calculationsTotal.Inc(ctx, AttrCurrency.String(currency), AttrOutcome.String(outcome))
	cm.calculationDuration.RecordDuration(ctx, d, AttrOutcome.String(outcome))
}

// RecordStageTransition records a stage lifecycle action and the status it ended in
func (cm *CostingMetrics) RecordStageTransition(ctx context.Context, action, status string) {
	if cm == nil {
		return
	}
	cm.stageTransitions.Inc(ctx, AttrStageAction.String(action), AttrStageStatus.String(status))
}
