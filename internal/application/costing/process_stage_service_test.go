package costing

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erp/costing/internal/domain/costing"
	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockProcessStageRepository is a mock implementation of costing.ProcessStageRepository
type MockProcessStageRepository struct {
	mock.Mock
}

func (m *MockProcessStageRepository) FindByID(ctx context.Context, id string) (costing.ProcessStage, string, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(costing.ProcessStage), args.String(1), args.Error(2)
}

func (m *MockProcessStageRepository) FindByOrder(ctx context.Context, orderID string) ([]costing.ProcessStage, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]costing.ProcessStage), args.Error(1)
}

func (m *MockProcessStageRepository) Save(ctx context.Context, orderID string, stage costing.ProcessStage) error {
	args := m.Called(ctx, orderID, stage)
	return args.Error(0)
}

func (m *MockProcessStageRepository) ExistsBySequence(ctx context.Context, orderID string, sequence int) (bool, error) {
	args := m.Called(ctx, orderID, sequence)
	return args.Bool(0), args.Error(1)
}

func mustStage(t *testing.T, id string, sequence int, unitsStarted string) costing.ProcessStage {
	t.Helper()
	s, err := costing.NewProcessStage(id, "Stage "+id, sequence, d(unitsStarted), valueobject.SAR)
	require.NoError(t, err)
	return s
}

func TestProcessStageService_CreateStage(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a NOT_STARTED stage with a generated ID", func(t *testing.T) {
		repo := new(MockProcessStageRepository)
		repo.On("ExistsBySequence", ctx, "MO-1", 1).Return(false, nil)
		repo.On("Save", ctx, "MO-1", mock.MatchedBy(func(s costing.ProcessStage) bool {
			return s.Name() == "Mixing" && s.Status() == costing.StageStatusNotStarted
		})).Return(nil)

		svc := NewProcessStageService(repo, zap.NewNop())
		resp, err := svc.CreateStage(ctx, "MO-1", CreateStageRequest{Name: "Mixing", Sequence: 1, UnitsStarted: 500})
		require.NoError(t, err)

		_, parseErr := uuid.Parse(resp.ID)
		assert.NoError(t, parseErr)
		assert.Equal(t, "MO-1", resp.OrderID)
		assert.Equal(t, "NOT_STARTED", resp.Status)
		assert.Equal(t, "SAR", resp.Currency)
		assert.True(t, resp.UnitsStarted.Equal(d("500")))
		repo.AssertExpectations(t)
	})

	t.Run("rejects duplicate sequence", func(t *testing.T) {
		repo := new(MockProcessStageRepository)
		repo.On("ExistsBySequence", ctx, "MO-1", 2).Return(true, nil)

		svc := NewProcessStageService(repo, nil)
		_, err := svc.CreateStage(ctx, "MO-1", CreateStageRequest{Name: "Baking", Sequence: 2})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects empty order", func(t *testing.T) {
		svc := NewProcessStageService(new(MockProcessStageRepository), nil)
		_, err := svc.CreateStage(ctx, "", CreateStageRequest{Name: "Baking", Sequence: 1})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("propagates domain validation", func(t *testing.T) {
		repo := new(MockProcessStageRepository)
		repo.On("ExistsBySequence", ctx, "MO-1", 1).Return(false, nil)

		svc := NewProcessStageService(repo, nil)
		_, err := svc.CreateStage(ctx, "MO-1", CreateStageRequest{Name: "Mixing", Sequence: 1, UnitsStarted: -1})
		assert.ErrorIs(t, err, shared.ErrNegativeUnits)
	})
}

func TestProcessStageService_Transitions(t *testing.T) {
	ctx := context.Background()

	t.Run("start then complete", func(t *testing.T) {
		stage := mustStage(t, "s1", 1, "100")
		started, err := stage.Start()
		require.NoError(t, err)

		repo := new(MockProcessStageRepository)
		repo.On("FindByID", mock.Anything, "s1").Return(stage, "MO-1", nil).Once()
		repo.On("FindByID", mock.Anything, "s1").Return(started, "MO-1", nil).Once()
		repo.On("Save", mock.Anything, "MO-1", mock.Anything).Return(nil)

		svc := NewProcessStageService(repo, zap.NewNop())

		resp, err := svc.Start(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "IN_PROGRESS", resp.Status)

		resp, err = svc.Complete(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, "COMPLETED", resp.Status)
		assert.True(t, resp.UnitsCompleted.Equal(d("100")))
		assert.True(t, resp.CompletionPercentage.Equal(d("100")))
		repo.AssertNumberOfCalls(t, "Save", 2)
	})

	t.Run("invalid transition is not saved", func(t *testing.T) {
		repo := new(MockProcessStageRepository)
		repo.On("FindByID", mock.Anything, "s1").Return(mustStage(t, "s1", 1, "10"), "MO-1", nil)

		svc := NewProcessStageService(repo, zap.NewNop())
		_, err := svc.Resume(ctx, "s1")
		assert.ErrorIs(t, err, shared.ErrInvalidStageTransition)

		_, err = svc.PutOnHold(ctx, "s1")
		assert.ErrorIs(t, err, shared.ErrInvalidStageTransition)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not found propagates", func(t *testing.T) {
		repo := new(MockProcessStageRepository)
		repo.On("FindByID", mock.Anything, "missing").Return(costing.ProcessStage{}, "", shared.ErrNotFound)

		svc := NewProcessStageService(repo, zap.NewNop())
		_, err := svc.Start(ctx, "missing")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("save failure propagates", func(t *testing.T) {
		saveErr := errors.New("disk full")
		repo := new(MockProcessStageRepository)
		repo.On("FindByID", mock.Anything, "s1").Return(mustStage(t, "s1", 1, "10"), "MO-1", nil)
		repo.On("Save", mock.Anything, "MO-1", mock.Anything).Return(saveErr)

		svc := NewProcessStageService(repo, zap.NewNop())
		_, err := svc.Start(ctx, "s1")
		assert.ErrorIs(t, err, saveErr)
	})
}

func TestProcessStageService_Progress(t *testing.T) {
	ctx := context.Background()
	stage, err := mustStage(t, "s1", 1, "1000").Start()
	require.NoError(t, err)

	repo := new(MockProcessStageRepository)
	repo.On("FindByID", mock.Anything, "s1").Return(stage, "MO-1", nil)
	repo.On("Save", mock.Anything, "MO-1", mock.Anything).Return(nil)
	svc := NewProcessStageService(repo, zap.NewNop())

	t.Run("record progress", func(t *testing.T) {
		resp, err := svc.RecordProgress(ctx, "s1", RecordProgressRequest{UnitsCompleted: 400, CompletionPercentage: 50})
		require.NoError(t, err)
		assert.True(t, resp.EquivalentUnits.Equal(d("700")))
		assert.True(t, resp.UnitsInProgress.Equal(d("600")))
	})

	t.Run("record progress rejects completed above started", func(t *testing.T) {
		_, err := svc.RecordProgress(ctx, "s1", RecordProgressRequest{UnitsCompleted: 1001, CompletionPercentage: 0})
		assert.ErrorIs(t, err, shared.ErrCompletedExceedsStarted)
	})

	t.Run("record progress rejects percentage out of range", func(t *testing.T) {
		_, err := svc.RecordProgress(ctx, "s1", RecordProgressRequest{UnitsCompleted: 1, CompletionPercentage: 120})
		assert.ErrorIs(t, err, shared.ErrPercentageOutOfRange)
	})

	t.Run("set units started", func(t *testing.T) {
		resp, err := svc.SetUnitsStarted(ctx, "s1", SetUnitsStartedRequest{UnitsStarted: 1200})
		require.NoError(t, err)
		assert.True(t, resp.UnitsStarted.Equal(d("1200")))
	})

	t.Run("add cost", func(t *testing.T) {
		resp, err := svc.AddCost(ctx, "s1", AddCostRequest{Amount: 7000})
		require.NoError(t, err)
		assert.True(t, resp.AccumulatedCost.Equal(d("7000")))
	})
}

func TestProcessStageService_ListAndSummarize(t *testing.T) {
	ctx := context.Background()

	wip := mustStage(t, "s1", 1, "1000")
	wip, _ = wip.Start()
	wip, _ = wip.WithUnitsCompleted(d("400"))
	wip, _ = wip.WithCompletionPercentage(d("50"))
	wip, _ = wip.WithAccumulatedCost(d("7000"))

	done := mustStage(t, "s2", 2, "400")
	done, _ = done.Start()
	done, _ = done.Complete()
	done, _ = done.WithAccumulatedCost(d("800"))

	t.Run("summarizes stages", func(t *testing.T) {
		repo := new(MockProcessStageRepository)
		repo.On("FindByOrder", ctx, "MO-1").Return([]costing.ProcessStage{wip, done}, nil)
		svc := NewProcessStageService(repo, zap.NewNop())

		list, err := svc.ListStages(ctx, "MO-1")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, 1, list[0].Sequence)

		summary, err := svc.SummarizeOrder(ctx, "MO-1")
		require.NoError(t, err)
		assert.Equal(t, 2, summary.StageCount)
		assert.Equal(t, 1, summary.CompletedStages)
		assert.True(t, summary.EquivalentUnits.Equal(d("1100")))
		assert.True(t, summary.AccumulatedCost.Equal(d("7800")))
		assert.True(t, summary.TotalWIP.Equal(d("3000")))
		assert.Equal(t, "SAR", summary.Currency)
	})

	t.Run("empty order summarizes to zero", func(t *testing.T) {
		repo := new(MockProcessStageRepository)
		repo.On("FindByOrder", ctx, "MO-2").Return([]costing.ProcessStage{}, nil)
		svc := NewProcessStageService(repo, zap.NewNop())

		summary, err := svc.SummarizeOrder(ctx, "MO-2")
		require.NoError(t, err)
		assert.Zero(t, summary.StageCount)
		assert.True(t, summary.AccumulatedCost.IsZero())
		assert.Equal(t, "SAR", summary.Currency)
	})

	t.Run("mixed currencies fail", func(t *testing.T) {
		usd, err := costing.NewProcessStage("s3", "Pack", 3, d("1"), valueobject.USD)
		require.NoError(t, err)

		repo := new(MockProcessStageRepository)
		repo.On("FindByOrder", ctx, "MO-3").Return([]costing.ProcessStage{wip, usd}, nil)
		svc := NewProcessStageService(repo, zap.NewNop())

		_, err = svc.SummarizeOrder(ctx, "MO-3")
		assert.ErrorIs(t, err, shared.ErrCurrencyMismatch)
	})
}

// versionedStageRepository keeps stages in memory and rejects saves of a stage
// whose version moved on since it was loaded. FindByID blocks until the
// expected number of callers have all loaded, so they read the same version.
type versionedStageRepository struct {
	mu      sync.Mutex
	rows    map[string]costing.ProcessStageData
	orders  map[string]string
	readers sync.WaitGroup
}

func newVersionedStageRepository(readers int) *versionedStageRepository {
	r := &versionedStageRepository{
		rows:   make(map[string]costing.ProcessStageData),
		orders: make(map[string]string),
	}
	r.readers.Add(readers)
	return r
}

func (r *versionedStageRepository) FindByID(_ context.Context, id string) (costing.ProcessStage, string, error) {
	r.mu.Lock()
	data, ok := r.rows[id]
	orderID := r.orders[id]
	r.mu.Unlock()
	r.readers.Done()
	r.readers.Wait()
	if !ok {
		return costing.ProcessStage{}, "", shared.ErrNotFound
	}
	stage, err := costing.ProcessStageFromData(data)
	return stage, orderID, err
}

func (r *versionedStageRepository) FindByOrder(context.Context, string) ([]costing.ProcessStage, error) {
	return nil, nil
}

func (r *versionedStageRepository) Save(_ context.Context, orderID string, stage costing.ProcessStage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	data := stage.ToData()
	if current, ok := r.rows[stage.ID()]; ok && current.Version != stage.Version() {
		return shared.ErrConcurrencyConflict
	}
	data.Version = stage.Version() + 1
	r.rows[stage.ID()] = data
	r.orders[stage.ID()] = orderID
	return nil
}

func (r *versionedStageRepository) ExistsBySequence(context.Context, string, int) (bool, error) {
	return false, nil
}

func TestProcessStageService_ConcurrentAddCost(t *testing.T) {
	ctx := context.Background()
	repo := newVersionedStageRepository(2)

	stage := mustStage(t, "s1", 1, "100")
	require.NoError(t, repo.Save(ctx, "MO-1", stage))

	svc := NewProcessStageService(repo, zap.NewNop())

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AddCost(ctx, "s1", AddCostRequest{Amount: 100})
		}(i)
	}
	wg.Wait()

	succeeded, conflicted := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, shared.ErrConcurrencyConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)

	stored := repo.rows["s1"]
	assert.Equal(t, 2, stored.Version)
	assert.True(t, stored.AccumulatedCost.Equal(d("100")), "the losing write must be rejected, not applied on top")
}
