package costing

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/erp/costing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProcessStageService handles the lifecycle and progress of production stages
type ProcessStageService struct {
	repo            costing.ProcessStageRepository
	logger          *zap.Logger
	metrics         *telemetry.CostingMetrics
	defaultCurrency valueobject.Currency
}

// NewProcessStageService creates a new ProcessStageService
func NewProcessStageService(repo costing.ProcessStageRepository, logger *zap.Logger) *ProcessStageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessStageService{
		repo:            repo,
		logger:          logger,
		defaultCurrency: valueobject.DefaultCurrency,
	}
}

// SetMetrics sets the metrics recorder for stage transitions
func (s *ProcessStageService) SetMetrics(m *telemetry.CostingMetrics) {
	s.metrics = m
}

// SetDefaultCurrency overrides the currency used for new stages that name none
func (s *ProcessStageService) SetDefaultCurrency(c valueobject.Currency) {
	if c != "" {
		s.defaultCurrency = c
	}
}

// CreateStage adds a new NOT_STARTED stage to an order.
// Sequences are unique within an order.
func (s *ProcessStageService) CreateStage(ctx context.Context, orderID string, req CreateStageRequest) (*ProcessStageResponse, error) {
	if orderID == "" {
		return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "Order ID cannot be empty")
	}

	exists, err := s.repo.ExistsBySequence(ctx, orderID, req.Sequence)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainErrorWithDetails(shared.ErrAlreadyExists.Code,
			fmt.Sprintf("stage with sequence %d already exists for this order", req.Sequence),
			map[string]string{"sequence": fmt.Sprintf("%d", req.Sequence)})
	}

	unitsStarted, err := valueobject.DecimalFromFloat(req.UnitsStarted)
	if err != nil {
		return nil, err
	}

	currency := valueobject.Currency(req.Currency)
	if currency == "" {
		currency = s.defaultCurrency
	}

	stage, err := costing.NewProcessStage(uuid.New().String(), req.Name, req.Sequence, unitsStarted, currency)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, orderID, stage); err != nil {
		return nil, err
	}

	s.logger.Info("Process stage created",
		zap.String("order_id", orderID),
		zap.String("stage_id", stage.ID()),
		zap.Int("sequence", stage.Sequence()),
	)

	resp := ToProcessStageResponse(orderID, stage)
	return &resp, nil
}

// GetStage returns a stage by ID
func (s *ProcessStageService) GetStage(ctx context.Context, id string) (*ProcessStageResponse, error) {
	stage, orderID, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProcessStageResponse(orderID, stage)
	return &resp, nil
}

// ListStages returns an order's stages in sequence order
func (s *ProcessStageService) ListStages(ctx context.Context, orderID string) ([]ProcessStageResponse, error) {
	stages, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToProcessStageResponses(orderID, stages), nil
}

// Start moves a stage to IN_PROGRESS
func (s *ProcessStageService) Start(ctx context.Context, id string) (*ProcessStageResponse, error) {
	return s.transition(ctx, id, "start", costing.ProcessStage.Start)
}

// Complete finishes an in-progress stage
func (s *ProcessStageService) Complete(ctx context.Context, id string) (*ProcessStageResponse, error) {
	return s.transition(ctx, id, "complete", costing.ProcessStage.Complete)
}

// PutOnHold pauses an in-progress stage
func (s *ProcessStageService) PutOnHold(ctx context.Context, id string) (*ProcessStageResponse, error) {
	return s.transition(ctx, id, "hold", costing.ProcessStage.PutOnHold)
}

// Resume continues a stage that is on hold
func (s *ProcessStageService) Resume(ctx context.Context, id string) (*ProcessStageResponse, error) {
	return s.transition(ctx, id, "resume", costing.ProcessStage.Resume)
}

// RecordProgress sets units completed and the completion of units still in process
func (s *ProcessStageService) RecordProgress(ctx context.Context, id string, req RecordProgressRequest) (*ProcessStageResponse, error) {
	completed, err := valueobject.DecimalFromFloat(req.UnitsCompleted)
	if err != nil {
		return nil, err
	}
	percentage, err := valueobject.DecimalFromFloat(req.CompletionPercentage)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, id, "record_progress", func(stage costing.ProcessStage) (costing.ProcessStage, error) {
		stage, err := stage.WithUnitsCompleted(completed)
		if err != nil {
			return costing.ProcessStage{}, err
		}
		return stage.WithCompletionPercentage(percentage)
	})
}

// SetUnitsStarted replaces the number of units that entered a stage
func (s *ProcessStageService) SetUnitsStarted(ctx context.Context, id string, req SetUnitsStartedRequest) (*ProcessStageResponse, error) {
	started, err := valueobject.DecimalFromFloat(req.UnitsStarted)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, id, "set_units_started", func(stage costing.ProcessStage) (costing.ProcessStage, error) {
		return stage.WithUnitsStarted(started)
	})
}

// AddCost charges an amount to a stage's accumulated cost
func (s *ProcessStageService) AddCost(ctx context.Context, id string, req AddCostRequest) (*ProcessStageResponse, error) {
	amount, err := valueobject.DecimalFromFloat(req.Amount)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, id, "add_cost", func(stage costing.ProcessStage) (costing.ProcessStage, error) {
		return stage.AddCost(amount)
	})
}

// SummarizeOrder totals equivalent units, accumulated cost and WIP across an
// order's stages. All stages must share a currency.
func (s *ProcessStageService) SummarizeOrder(ctx context.Context, orderID string) (*StageSummaryResponse, error) {
	stages, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	currency := s.defaultCurrency
	if len(stages) > 0 {
		currency = stages[0].Currency()
	}

	accumulated := valueobject.Zero(currency)
	wip := valueobject.Zero(currency)
	equivalentUnits := decimal.Zero
	completed := 0

	for _, stage := range stages {
		if accumulated, err = accumulated.Add(stage.AccumulatedCost()); err != nil {
			return nil, err
		}
		if wip, err = wip.Add(stage.TotalWIP()); err != nil {
			return nil, err
		}
		equivalentUnits = equivalentUnits.Add(stage.EquivalentUnits().Amount())
		if stage.Status() == costing.StageStatusCompleted {
			completed++
		}
	}

	return &StageSummaryResponse{
		OrderID:         orderID,
		Currency:        string(currency),
		StageCount:      len(stages),
		CompletedStages: completed,
		EquivalentUnits: equivalentUnits,
		AccumulatedCost: accumulated.Amount(),
		TotalWIP:        wip.Amount().Round(2),
	}, nil
}

func (s *ProcessStageService) transition(
	ctx context.Context,
	id, action string,
	fn func(costing.ProcessStage) (costing.ProcessStage, error),
) (*ProcessStageResponse, error) {
	resp, err := s.update(ctx, id, action, fn)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordStageTransition(ctx, action, resp.Status)
	return resp, nil
}

// update loads a stage, applies fn and saves the result
func (s *ProcessStageService) update(
	ctx context.Context,
	id, action string,
	fn func(costing.ProcessStage) (costing.ProcessStage, error),
) (*ProcessStageResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "process_stage", action,
		telemetry.WithAttribute(telemetry.SpanAttrStageID, id),
	)
	defer span.End()

	stage, orderID, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	updated, err := fn(stage)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("Process stage update rejected",
			zap.String("stage_id", id),
			zap.String("action", action),
			zap.Error(err),
		)
		return nil, err
	}

	// A concurrent writer that saved first wins; the caller reloads and retries.
	if err := s.repo.Save(ctx, orderID, updated); err != nil {
		telemetry.RecordError(span, err)
		if errors.Is(err, shared.ErrConcurrencyConflict) {
			s.logger.Warn("Process stage changed since it was loaded",
				zap.String("stage_id", id),
				zap.String("action", action),
				zap.Int("version", stage.Version()),
			)
			return nil, err
		}
		s.logger.Error("Failed to save process stage", zap.String("stage_id", id), zap.Error(err))
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, orderID,
		telemetry.SpanAttrStageStatus, updated.Status().String(),
	)
	s.logger.Debug("Process stage updated",
		zap.String("order_id", orderID),
		zap.String("stage_id", id),
		zap.String("action", action),
		zap.String("status", updated.Status().String()),
	)

	resp := ToProcessStageResponse(orderID, updated)
	return &resp, nil
}
