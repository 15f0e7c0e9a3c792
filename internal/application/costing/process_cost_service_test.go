package costing

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// MockCostDataRepository is a mock implementation of costing.CostDataRepository
type MockCostDataRepository struct {
	mock.Mock
}

func (m *MockCostDataRepository) GetDirectMaterials(ctx context.Context, orderID string) ([]costing.DirectMaterialRecord, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]costing.DirectMaterialRecord), args.Error(1)
}

func (m *MockCostDataRepository) GetDirectLabor(ctx context.Context, orderID string) ([]costing.DirectLaborRecord, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]costing.DirectLaborRecord), args.Error(1)
}

func (m *MockCostDataRepository) GetOverheadCosts(ctx context.Context, orderID string) ([]costing.OverheadCostRecord, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]costing.OverheadCostRecord), args.Error(1)
}

func (m *MockCostDataRepository) GetManufacturingOrderQuantity(ctx context.Context, orderID string) (decimal.Decimal, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func setupRepo(orderID string, materials []costing.DirectMaterialRecord, labor []costing.DirectLaborRecord, overhead []costing.OverheadCostRecord, qty decimal.Decimal) *MockCostDataRepository {
	repo := new(MockCostDataRepository)
	repo.On("GetDirectMaterials", mock.Anything, orderID).Return(materials, nil)
	repo.On("GetDirectLabor", mock.Anything, orderID).Return(labor, nil)
	repo.On("GetOverheadCosts", mock.Anything, orderID).Return(overhead, nil)
	repo.On("GetManufacturingOrderQuantity", mock.Anything, orderID).Return(qty, nil)
	return repo
}

func TestCalculateProcessCost_SumsRecords(t *testing.T) {
	repo := setupRepo("MO-1",
		[]costing.DirectMaterialRecord{
			{ItemID: "RM-1", ItemName: "Flour", Quantity: d("10"), UnitCost: d("60"), TotalCost: d("600")},
			{ItemID: "RM-2", ItemName: "Sugar", Quantity: d("8"), UnitCost: d("50"), TotalCost: d("400")},
		},
		[]costing.DirectLaborRecord{
			{Hours: d("10"), HourlyRate: d("50"), TotalCost: d("500")},
		},
		[]costing.OverheadCostRecord{
			{Type: "utilities", Description: "Power", Amount: d("200")},
			{Type: "depreciation", Description: "Mixer", Amount: d("100")},
		},
		d("100"),
	)

	uc := NewCalculateProcessCostUseCase(repo, zap.NewNop())
	out, err := uc.Execute(context.Background(), CalculateProcessCostInput{OrderID: "MO-1"})
	require.NoError(t, err)

	b := out.CostBreakdown
	assert.True(t, b.MaterialCost().Amount().Equal(d("1000")))
	assert.True(t, b.LaborCost().Amount().Equal(d("500")))
	assert.True(t, b.OverheadCost().Amount().Equal(d("300")))
	assert.True(t, b.TotalCost().Amount().Equal(d("1800")))
	assert.True(t, b.CostPerUnit().Amount().Equal(d("18")))
	assert.Equal(t, valueobject.SAR, b.Currency())
	assert.Equal(t, RecordCounts{Materials: 2, Labor: 1, Overhead: 2}, out.RecordCounts)
	repo.AssertExpectations(t)
}

func TestCalculateProcessCost_EmptyDataAndZeroQuantity(t *testing.T) {
	repo := setupRepo("MO-EMPTY",
		[]costing.DirectMaterialRecord{},
		[]costing.DirectLaborRecord{},
		[]costing.OverheadCostRecord{},
		decimal.Zero,
	)

	uc := NewCalculateProcessCostUseCase(repo, nil)
	out, err := uc.Execute(context.Background(), CalculateProcessCostInput{OrderID: "MO-EMPTY", Currency: "USD"})
	require.NoError(t, err)

	assert.True(t, out.CostBreakdown.Quantity().Amount().Equal(decimal.NewFromInt(1)))
	assert.True(t, out.CostBreakdown.TotalCost().IsZero())
	assert.Equal(t, valueobject.USD, out.CostBreakdown.Currency())
	assert.Equal(t, RecordCounts{}, out.RecordCounts)
}

func TestCalculateProcessCost_LaborSumsLineTotals(t *testing.T) {
	repo := setupRepo("MO-2",
		nil,
		[]costing.DirectLaborRecord{
			{Hours: d("4"), HourlyRate: d("25"), TotalCost: decimal.Zero},
			{Hours: d("1"), HourlyRate: d("30"), TotalCost: d("30")},
		},
		nil,
		d("2"),
	)

	uc := NewCalculateProcessCostUseCase(repo, zap.NewNop())
	out, err := uc.Execute(context.Background(), CalculateProcessCostInput{OrderID: "MO-2"})
	require.NoError(t, err)
	assert.True(t, out.CostBreakdown.LaborCost().Amount().Equal(d("30")))
	assert.True(t, out.CostBreakdown.CostPerUnit().Amount().Equal(d("15")))
}

// invalidatingCostDataRepository is a cost data source that also caches
type invalidatingCostDataRepository struct {
	*MockCostDataRepository
}

func (m invalidatingCostDataRepository) Invalidate(ctx context.Context, orderID string) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func TestCalculateProcessCost_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("drops cached data before reading", func(t *testing.T) {
		repo := invalidatingCostDataRepository{setupRepo("MO-R", nil, nil, nil, d("1"))}
		repo.On("Invalidate", mock.Anything, "MO-R").Return(nil).Once()

		uc := NewCalculateProcessCostUseCase(repo, zap.NewNop())
		_, err := uc.Execute(ctx, CalculateProcessCostInput{OrderID: "MO-R", Refresh: true})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("cache failure still calculates", func(t *testing.T) {
		repo := invalidatingCostDataRepository{setupRepo("MO-R", nil,
			[]costing.DirectLaborRecord{{Hours: d("1"), HourlyRate: d("10"), TotalCost: d("10")}}, nil, d("1"))}
		repo.On("Invalidate", mock.Anything, "MO-R").Return(errors.New("redis down"))

		uc := NewCalculateProcessCostUseCase(repo, zap.NewNop())
		out, err := uc.Execute(ctx, CalculateProcessCostInput{OrderID: "MO-R", Refresh: true})
		require.NoError(t, err)
		assert.True(t, out.CostBreakdown.LaborCost().Amount().Equal(d("10")))
	})

	t.Run("no refresh leaves cache alone", func(t *testing.T) {
		repo := invalidatingCostDataRepository{setupRepo("MO-R", nil, nil, nil, d("1"))}

		uc := NewCalculateProcessCostUseCase(repo, zap.NewNop())
		_, err := uc.Execute(ctx, CalculateProcessCostInput{OrderID: "MO-R"})
		require.NoError(t, err)
		repo.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
	})

	t.Run("uncached source ignores refresh", func(t *testing.T) {
		repo := setupRepo("MO-R", nil, nil, nil, d("1"))

		uc := NewCalculateProcessCostUseCase(repo, zap.NewNop())
		_, err := uc.Execute(ctx, CalculateProcessCostInput{OrderID: "MO-R", Refresh: true})
		require.NoError(t, err)
	})
}

func TestCalculateProcessCost_DefaultCurrencyOverride(t *testing.T) {
	repo := setupRepo("MO-3", nil, nil, nil, d("1"))

	uc := NewCalculateProcessCostUseCase(repo, zap.NewNop())
	uc.SetDefaultCurrency(valueobject.EUR)
	uc.SetDefaultCurrency("")

	out, err := uc.Execute(context.Background(), CalculateProcessCostInput{OrderID: "MO-3"})
	require.NoError(t, err)
	assert.Equal(t, valueobject.EUR, out.CostBreakdown.Currency())
}

func TestCalculateProcessCost_PropagatesRepositoryError(t *testing.T) {
	dbErr := errors.New("connection refused")

	repo := new(MockCostDataRepository)
	repo.On("GetDirectMaterials", mock.Anything, "MO-ERR").Return([]costing.DirectMaterialRecord{}, nil)
	repo.On("GetDirectLabor", mock.Anything, "MO-ERR").Return(nil, dbErr)
	repo.On("GetOverheadCosts", mock.Anything, "MO-ERR").Return([]costing.OverheadCostRecord{}, nil).Maybe()
	repo.On("GetManufacturingOrderQuantity", mock.Anything, "MO-ERR").Return(d("1"), nil).Maybe()

	core, logs := observer.New(zapcore.ErrorLevel)
	uc := NewCalculateProcessCostUseCase(repo, zap.New(core))

	out, err := uc.Execute(context.Background(), CalculateProcessCostInput{OrderID: "MO-ERR"})
	assert.Nil(t, out)
	assert.Same(t, dbErr, err)

	entries := logs.FilterMessage("Failed to load cost data").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "MO-ERR", entries[0].ContextMap()["order_id"])
}

func TestCalculateProcessCost_PropagatesConstructionError(t *testing.T) {
	repo := setupRepo("MO-NEG", nil, nil, nil, d("-5"))

	uc := NewCalculateProcessCostUseCase(repo, zap.NewNop())
	_, err := uc.Execute(context.Background(), CalculateProcessCostInput{OrderID: "MO-NEG"})
	assert.ErrorIs(t, err, shared.ErrNonPositiveQuantity)
}

// queryBarrier blocks every query until all four have started
type queryBarrier struct {
	started atomic.Int32
	release chan struct{}
}

func (b *queryBarrier) enter() {
	if b.started.Add(1) == 4 {
		close(b.release)
	}
	<-b.release
}

func (b *queryBarrier) GetDirectMaterials(context.Context, string) ([]costing.DirectMaterialRecord, error) {
	b.enter()
	return nil, nil
}

func (b *queryBarrier) GetDirectLabor(context.Context, string) ([]costing.DirectLaborRecord, error) {
	b.enter()
	return nil, nil
}

func (b *queryBarrier) GetOverheadCosts(context.Context, string) ([]costing.OverheadCostRecord, error) {
	b.enter()
	return nil, nil
}

func (b *queryBarrier) GetManufacturingOrderQuantity(context.Context, string) (decimal.Decimal, error) {
	b.enter()
	return decimal.NewFromInt(3), nil
}

func TestCalculateProcessCost_QueriesRunConcurrently(t *testing.T) {
	barrier := &queryBarrier{release: make(chan struct{})}
	uc := NewCalculateProcessCostUseCase(barrier, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := uc.Execute(context.Background(), CalculateProcessCostInput{OrderID: "MO-C"})
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("queries were not issued concurrently")
	}
}

func TestToProcessCostResponse(t *testing.T) {
	b, err := costing.NewCostBreakdown(d("1000"), d("500"), d("500"), d("10"), valueobject.SAR)
	require.NoError(t, err)

	resp := ToProcessCostResponse("MO-1", &CalculateProcessCostOutput{
		CostBreakdown: b,
		RecordCounts:  RecordCounts{Materials: 1},
	})
	assert.Equal(t, "MO-1", resp.OrderID)
	assert.Equal(t, "SAR", resp.Currency)
	assert.True(t, resp.TotalCost.Equal(d("2000")))
	assert.True(t, resp.CostPerUnit.Equal(d("200")))
	assert.True(t, resp.MaterialPercentage.Equal(d("50")))
	assert.Equal(t, 1, resp.RecordCounts.Materials)
}

func TestCompareToBaseline(t *testing.T) {
	newUseCase := func() *CalculateProcessCostUseCase {
		repo := setupRepo("MO-1",
			[]costing.DirectMaterialRecord{{ItemID: "RM-1", TotalCost: d("1100")}},
			[]costing.DirectLaborRecord{{Hours: d("10"), HourlyRate: d("50"), TotalCost: d("500")}},
			[]costing.OverheadCostRecord{{Type: "utilities", Amount: d("400")}},
			d("100"),
		)
		return NewCalculateProcessCostUseCase(repo, zap.NewNop())
	}
	input := CalculateProcessCostInput{OrderID: "MO-1", Currency: "SAR"}

	t.Run("over baseline", func(t *testing.T) {
		resp, err := newUseCase().CompareToBaseline(context.Background(), input, BaselineCostRequest{
			MaterialCost: 1000, LaborCost: 500, OverheadCost: 400, Quantity: 100,
		})
		require.NoError(t, err)

		assert.True(t, resp.Actual.TotalCost.Equal(d("2000")))
		assert.Equal(t, valueobject.SAR, resp.Baseline.Currency)
		assert.True(t, resp.PercentageVariance.Material.Equal(d("10")))
		assert.True(t, resp.PercentageVariance.Labor.IsZero())
		assert.True(t, resp.PercentageVariance.Total.Equal(d("5.26")))
		require.NotNil(t, resp.Variance)
		assert.True(t, resp.Variance.MaterialCost.Equal(d("100")))
		assert.True(t, resp.Variance.OverheadCost.IsZero())
	})

	t.Run("under baseline omits absolute variance", func(t *testing.T) {
		resp, err := newUseCase().CompareToBaseline(context.Background(), input, BaselineCostRequest{
			MaterialCost: 1000, LaborCost: 600, OverheadCost: 400, Quantity: 100,
		})
		require.NoError(t, err)
		assert.Nil(t, resp.Variance)
		assert.True(t, resp.PercentageVariance.Labor.IsNegative())
	})

	t.Run("currency mismatch", func(t *testing.T) {
		_, err := newUseCase().CompareToBaseline(context.Background(), input, BaselineCostRequest{
			MaterialCost: 1000, Quantity: 100, Currency: "USD",
		})
		assert.ErrorIs(t, err, shared.ErrCurrencyMismatch)
	})

	t.Run("invalid baseline", func(t *testing.T) {
		_, err := newUseCase().CompareToBaseline(context.Background(), input, BaselineCostRequest{
			MaterialCost: 1000, Quantity: 0,
		})
		assert.ErrorIs(t, err, shared.ErrNonPositiveQuantity)
	})
}
