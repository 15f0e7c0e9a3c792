package costing

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/erp/costing/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CalculateProcessCostUseCase assembles a CostBreakdown for a manufacturing
// order from the raw cost records supplied by a CostDataRepository.
type CalculateProcessCostUseCase struct {
	repo            costing.CostDataRepository
	logger          *zap.Logger
	metrics         *telemetry.CostingMetrics
	defaultCurrency valueobject.Currency
}

// NewCalculateProcessCostUseCase creates a new CalculateProcessCostUseCase
func NewCalculateProcessCostUseCase(repo costing.CostDataRepository, logger *zap.Logger) *CalculateProcessCostUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalculateProcessCostUseCase{
		repo:            repo,
		logger:          logger,
		defaultCurrency: valueobject.DefaultCurrency,
	}
}

// SetMetrics sets the metrics recorder for calculations
func (uc *CalculateProcessCostUseCase) SetMetrics(m *telemetry.CostingMetrics) {
	uc.metrics = m
}

// SetDefaultCurrency overrides the currency used when the input names none
func (uc *CalculateProcessCostUseCase) SetDefaultCurrency(c valueobject.Currency) {
	if c != "" {
		uc.defaultCurrency = c
	}
}

// Execute queries materials, labor, overhead and order quantity concurrently,
// then builds the breakdown. A reported quantity of zero is costed as one unit.
// Repository and construction errors are returned unchanged.
func (uc *CalculateProcessCostUseCase) Execute(ctx context.Context, input CalculateProcessCostInput) (*CalculateProcessCostOutput, error) {
	currency := valueobject.Currency(input.Currency)
	if currency == "" {
		currency = uc.defaultCurrency
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "process_cost", "calculate",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, input.OrderID),
		telemetry.WithAttribute(telemetry.SpanAttrCurrency, string(currency)),
	)
	defer span.End()

	log := uc.logger.With(zap.String("order_id", input.OrderID), zap.String("currency", string(currency)))
	log.Debug("Calculating process cost")
	start := time.Now()

	if input.Refresh {
		uc.invalidate(ctx, log, input.OrderID)
	}

	var (
		materials []costing.DirectMaterialRecord
		labor     []costing.DirectLaborRecord
		overhead  []costing.OverheadCostRecord
		quantity  decimal.Decimal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		materials, err = uc.repo.GetDirectMaterials(gctx, input.OrderID)
		return err
	})
	g.Go(func() (err error) {
		labor, err = uc.repo.GetDirectLabor(gctx, input.OrderID)
		return err
	})
	g.Go(func() (err error) {
		overhead, err = uc.repo.GetOverheadCosts(gctx, input.OrderID)
		return err
	})
	g.Go(func() (err error) {
		quantity, err = uc.repo.GetManufacturingOrderQuantity(gctx, input.OrderID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, uc.fail(ctx, span, log, currency, start, "Failed to load cost data", err)
	}

	if quantity.IsZero() {
		quantity = decimal.NewFromInt(1)
	}

	breakdown, err := costing.NewCostBreakdown(
		sumMaterials(materials),
		sumLabor(labor),
		sumOverhead(overhead),
		quantity,
		currency,
	)
	if err != nil {
		return nil, uc.fail(ctx, span, log, currency, start, "Failed to build cost breakdown", err)
	}

	counts := RecordCounts{
		Materials: len(materials),
		Labor:     len(labor),
		Overhead:  len(overhead),
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrMaterialRecords, counts.Materials,
		telemetry.SpanAttrLaborRecords, counts.Labor,
		telemetry.SpanAttrOverheadRecords, counts.Overhead,
		telemetry.SpanAttrTotalCost, breakdown.TotalCost().Amount().String(),
	)
	telemetry.SetOK(span)
	uc.metrics.RecordCalculation(ctx, string(currency), telemetry.OutcomeSuccess, time.Since(start))

	log.Info("Process cost calculated",
		zap.String("total_cost", breakdown.TotalCost().Amount().String()),
		zap.String("quantity", breakdown.Quantity().Amount().String()),
		zap.Int("material_records", counts.Materials),
		zap.Int("labor_records", counts.Labor),
		zap.Int("overhead_records", counts.Overhead),
	)

	return &CalculateProcessCostOutput{
		CostBreakdown: breakdown,
		RecordCounts:  counts,
	}, nil
}

func (uc *CalculateProcessCostUseCase) fail(
	ctx context.Context,
	span trace.Span,
	log *zap.Logger,
	currency valueobject.Currency,
	start time.Time,
	msg string,
	err error,
) error {
	telemetry.RecordError(span, err)
	uc.metrics.RecordCalculation(ctx, string(currency), telemetry.OutcomeFailure, time.Since(start))
	log.Error(msg, zap.Error(err))
	return err
}

func sumMaterials(records []costing.DirectMaterialRecord) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range records {
		sum = sum.Add(r.TotalCost)
	}
	return sum
}

// invalidate drops cached cost data for the order. Failures are logged, not
// returned.
func (uc *CalculateProcessCostUseCase) invalidate(ctx context.Context, log *zap.Logger, orderID string) {
	inv, ok := uc.repo.(costing.CostDataInvalidator)
	if !ok {
		return
	}
	if err := inv.Invalidate(ctx, orderID); err != nil {
		log.Warn("Failed to drop cached cost data", zap.Error(err))
		return
	}
	log.Debug("Dropped cached cost data")
}

func sumLabor(records []costing.DirectLaborRecord) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range records {
		sum = sum.Add(r.TotalCost)
	}
	return sum
}

func sumOverhead(records []costing.OverheadCostRecord) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range records {
		sum = sum.Add(r.Amount)
	}
	return sum
}

// CompareToBaseline calculates the order's actual cost and compares it with a
// budgeted breakdown. The baseline currency defaults to the calculation
// currency and must match it. Absolute variance is omitted when any actual
// bucket is below its baseline.
func (uc *CalculateProcessCostUseCase) CompareToBaseline(ctx context.Context, input CalculateProcessCostInput, req BaselineCostRequest) (*VarianceResponse, error) {
	out, err := uc.Execute(ctx, input)
	if err != nil {
		return nil, err
	}
	actual := out.CostBreakdown

	currency := valueobject.Currency(req.Currency)
	if currency == "" {
		currency = actual.Currency()
	}
	if currency != actual.Currency() {
		return nil, shared.NewDomainErrorWithDetails(shared.ErrCurrencyMismatch.Code,
			fmt.Sprintf("baseline currency %s does not match calculation currency %s", currency, actual.Currency()),
			map[string]string{"baseline": string(currency), "actual": string(actual.Currency())})
	}

	baseline, err := costing.NewCostBreakdownFromFloat(req.MaterialCost, req.LaborCost, req.OverheadCost, req.Quantity, currency)
	if err != nil {
		return nil, err
	}

	resp := &VarianceResponse{
		Actual:             ToProcessCostResponse(input.OrderID, out),
		Baseline:           baseline.ToData(),
		PercentageVariance: roundVariance(actual.PercentageVarianceFrom(baseline)),
	}
	if variance, err := actual.VarianceFrom(baseline); err == nil {
		data := variance.ToData()
		resp.Variance = &data
	} else {
		uc.logger.Debug("Actual cost below baseline, absolute variance omitted",
			zap.String("order_id", input.OrderID), zap.Error(err))
	}
	return resp, nil
}

func roundVariance(v costing.PercentageVariance) costing.PercentageVariance {
	return costing.PercentageVariance{
		Material: v.Material.Round(2),
		Labor:    v.Labor.Round(2),
		Overhead: v.Overhead.Round(2),
		Total:    v.Total.Round(2),
	}
}
