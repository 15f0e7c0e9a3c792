package costing

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/erp/costing/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStage(t *testing.T, unitsStarted int64) ProcessStage {
	t.Helper()
	s, err := NewProcessStage("s1", "Mix", 1, decimal.NewFromInt(unitsStarted), valueobject.SAR)
	require.NoError(t, err)
	return s
}

// wipStage builds a stage with U=1000, C=400, P=50, cost=7000
func wipStage(t *testing.T) ProcessStage {
	t.Helper()
	s := newStage(t, 1000)
	s, err := s.Start()
	require.NoError(t, err)
	s, err = s.WithUnitsCompleted(d("400"))
	require.NoError(t, err)
	s, err = s.WithCompletionPercentage(d("50"))
	require.NoError(t, err)
	s, err = s.WithAccumulatedCost(d("7000"))
	require.NoError(t, err)
	return s
}

func TestProcessStageStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from ProcessStageStatus
		to   ProcessStageStatus
		want bool
	}{
		{StageStatusNotStarted, StageStatusInProgress, true},
		{StageStatusNotStarted, StageStatusCompleted, false},
		{StageStatusNotStarted, StageStatusOnHold, false},
		{StageStatusInProgress, StageStatusCompleted, true},
		{StageStatusInProgress, StageStatusOnHold, true},
		{StageStatusInProgress, StageStatusNotStarted, false},
		{StageStatusOnHold, StageStatusInProgress, true},
		{StageStatusOnHold, StageStatusCompleted, false},
		{StageStatusCompleted, StageStatusInProgress, false},
		{StageStatusCompleted, StageStatusOnHold, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.False(t, ProcessStageStatus("UNKNOWN").IsValid())
	assert.True(t, StageStatusOnHold.IsValid())
}

func TestNewProcessStage(t *testing.T) {
	t.Run("starts in NOT_STARTED with zero progress", func(t *testing.T) {
		s := newStage(t, 100)
		assert.Equal(t, "s1", s.ID())
		assert.Equal(t, "Mix", s.Name())
		assert.Equal(t, 1, s.Sequence())
		assert.Equal(t, StageStatusNotStarted, s.Status())
		assert.True(t, s.UnitsStarted().Amount().Equal(d("100")))
		assert.True(t, s.UnitsCompleted().IsZero())
		assert.True(t, s.CompletionPercentage().IsZero())
		assert.True(t, s.AccumulatedCost().IsZero())
		assert.Equal(t, valueobject.SAR, s.Currency())
	})

	t.Run("defaults currency", func(t *testing.T) {
		s, err := NewProcessStage("s2", "Bake", 2, decimal.Zero, "")
		require.NoError(t, err)
		assert.Equal(t, valueobject.DefaultCurrency, s.Currency())
	})

	t.Run("validates input", func(t *testing.T) {
		_, err := NewProcessStage("", "Mix", 1, decimal.Zero, valueobject.SAR)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		_, err = NewProcessStage("s1", "", 1, decimal.Zero, valueobject.SAR)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		_, err = NewProcessStage("s1", "Mix", 0, decimal.Zero, valueobject.SAR)
		assert.ErrorIs(t, err, shared.ErrInvalidSequence)

		_, err = NewProcessStage("s1", "Mix", 1, d("-1"), valueobject.SAR)
		assert.ErrorIs(t, err, shared.ErrNegativeUnits)
	})
}

func TestProcessStage_Transitions(t *testing.T) {
	t.Run("start then complete", func(t *testing.T) {
		s, err := newStage(t, 100).Start()
		require.NoError(t, err)
		assert.Equal(t, StageStatusInProgress, s.Status())

		s, err = s.Complete()
		require.NoError(t, err)
		assert.Equal(t, StageStatusCompleted, s.Status())
		assert.True(t, s.UnitsCompleted().Amount().Equal(d("100")))
		assert.True(t, s.CompletionPercentage().Equal(d("100")))
		assert.True(t, s.EquivalentUnits().Amount().Equal(d("100")))
	})

	t.Run("hold and resume", func(t *testing.T) {
		s, err := newStage(t, 10).Start()
		require.NoError(t, err)

		held, err := s.PutOnHold()
		require.NoError(t, err)
		assert.Equal(t, StageStatusOnHold, held.Status())
		assert.Equal(t, StageStatusInProgress, s.Status(), "original must be unchanged")

		resumed, err := held.Resume()
		require.NoError(t, err)
		assert.Equal(t, StageStatusInProgress, resumed.Status())

		restarted, err := held.Start()
		require.NoError(t, err)
		assert.Equal(t, StageStatusInProgress, restarted.Status())
	})

	t.Run("rejects invalid transitions with current status", func(t *testing.T) {
		notStarted := newStage(t, 10)
		inProgress, _ := notStarted.Start()
		completed, _ := inProgress.Complete()

		invalid := []struct {
			name   string
			status ProcessStageStatus
			call   func() (ProcessStage, error)
		}{
			{"complete from NOT_STARTED", StageStatusNotStarted, notStarted.Complete},
			{"hold from NOT_STARTED", StageStatusNotStarted, notStarted.PutOnHold},
			{"resume from NOT_STARTED", StageStatusNotStarted, notStarted.Resume},
			{"start from IN_PROGRESS", StageStatusInProgress, inProgress.Start},
			{"resume from IN_PROGRESS", StageStatusInProgress, inProgress.Resume},
			{"start from COMPLETED", StageStatusCompleted, completed.Start},
			{"complete from COMPLETED", StageStatusCompleted, completed.Complete},
			{"hold from COMPLETED", StageStatusCompleted, completed.PutOnHold},
		}

		for _, tc := range invalid {
			t.Run(tc.name, func(t *testing.T) {
				_, err := tc.call()
				require.ErrorIs(t, err, shared.ErrInvalidStageTransition)

				var domainErr *shared.DomainError
				require.True(t, errors.As(err, &domainErr))
				assert.Equal(t, string(tc.status), domainErr.Details["status"])
			})
		}
	})
}

func TestProcessStage_Mutators(t *testing.T) {
	s := newStage(t, 100)

	t.Run("units started", func(t *testing.T) {
		updated, err := s.WithUnitsStarted(d("150"))
		require.NoError(t, err)
		assert.True(t, updated.UnitsStarted().Amount().Equal(d("150")))

		_, err = s.WithUnitsStarted(d("-1"))
		assert.ErrorIs(t, err, shared.ErrNegativeUnits)

		withCompleted, err := s.WithUnitsCompleted(d("80"))
		require.NoError(t, err)
		_, err = withCompleted.WithUnitsStarted(d("50"))
		assert.ErrorIs(t, err, shared.ErrCompletedExceedsStarted)
	})

	t.Run("units completed", func(t *testing.T) {
		updated, err := s.WithUnitsCompleted(d("100"))
		require.NoError(t, err)
		assert.True(t, updated.UnitsCompleted().Amount().Equal(d("100")))

		_, err = s.WithUnitsCompleted(d("-1"))
		assert.ErrorIs(t, err, shared.ErrNegativeUnits)

		_, err = s.WithUnitsCompleted(d("101"))
		assert.ErrorIs(t, err, shared.ErrCompletedExceedsStarted)
	})

	t.Run("completion percentage", func(t *testing.T) {
		for _, p := range []string{"0", "42.5", "100"} {
			_, err := s.WithCompletionPercentage(d(p))
			assert.NoError(t, err)
		}
		for _, p := range []string{"-0.1", "100.01"} {
			_, err := s.WithCompletionPercentage(d(p))
			assert.ErrorIs(t, err, shared.ErrPercentageOutOfRange)
		}
	})

	t.Run("costs", func(t *testing.T) {
		withCost, err := s.WithAccumulatedCost(d("500"))
		require.NoError(t, err)
		added, err := withCost.AddCost(d("250.50"))
		require.NoError(t, err)
		assert.True(t, added.AccumulatedCost().Amount().Equal(d("750.50")))

		replaced, err := added.WithAccumulatedCost(d("10"))
		require.NoError(t, err)
		assert.True(t, replaced.AccumulatedCost().Amount().Equal(d("10")))

		_, err = s.AddCost(d("-1"))
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
	})
}

func TestProcessStage_DerivedValues(t *testing.T) {
	t.Run("work in process scenario", func(t *testing.T) {
		s := wipStage(t)

		assert.True(t, s.UnitsInProgress().Amount().Equal(d("600")))
		assert.True(t, s.WIPPercentage().Equal(d("60")))
		assert.True(t, s.EquivalentUnits().Amount().Equal(d("700")))
		assert.True(t, s.CostPerEquivalentUnit().Amount().Equal(d("10")))
		assert.True(t, s.TotalWIP().Amount().Equal(d("3000")))
	})

	t.Run("equivalent units formula", func(t *testing.T) {
		cases := []struct{ u, c, p string }{
			{"1000", "400", "50"},
			{"250", "0", "33.3"},
			{"80", "80", "0"},
			{"10", "3", "100"},
			{"0", "0", "75"},
		}
		for _, tc := range cases {
			s := newStage(t, 0)
			s, err := s.WithUnitsStarted(d(tc.u))
			require.NoError(t, err)
			s, err = s.WithUnitsCompleted(d(tc.c))
			require.NoError(t, err)
			s, err = s.WithCompletionPercentage(d(tc.p))
			require.NoError(t, err)

			expected := d(tc.c).Add(d(tc.u).Sub(d(tc.c)).Mul(d(tc.p)).Div(d("100")))
			assert.True(t, s.EquivalentUnits().Amount().Equal(expected), "U=%s C=%s P=%s", tc.u, tc.c, tc.p)
		}
	})

	t.Run("zero guards", func(t *testing.T) {
		s := newStage(t, 0)
		assert.True(t, s.WIPPercentage().IsZero())
		assert.True(t, s.EquivalentUnits().IsZero())
		assert.True(t, s.CostPerEquivalentUnit().IsZero())
		assert.True(t, s.TotalWIP().IsZero())

		withCost, err := s.WithAccumulatedCost(d("100"))
		require.NoError(t, err)
		assert.True(t, withCost.CostPerEquivalentUnit().IsZero())
		assert.True(t, withCost.TotalWIP().IsZero())
	})

	t.Run("completed stage carries no WIP", func(t *testing.T) {
		s, err := wipStage(t).Complete()
		require.NoError(t, err)
		assert.True(t, s.UnitsInProgress().IsZero())
		assert.True(t, s.TotalWIP().IsZero())
		assert.True(t, s.EquivalentUnits().Amount().Equal(d("1000")))
		assert.True(t, s.CostPerEquivalentUnit().Amount().Equal(d("7")))
	})
}

func TestProcessStage_Serialization(t *testing.T) {
	original := wipStage(t)

	t.Run("data round-trips", func(t *testing.T) {
		rebuilt, err := ProcessStageFromData(original.ToData())
		require.NoError(t, err)
		assert.Equal(t, original.ToData(), rebuilt.ToData())
	})

	t.Run("json contains full attribute set", func(t *testing.T) {
		data, err := json.Marshal(original)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"id":"s1","name":"Mix","sequence":1,"status":"IN_PROGRESS",
			"unitsStarted":1000,"unitsCompleted":400,"completionPercentage":50,
			"accumulatedCost":7000,"currency":"SAR"
		}`, string(data))

		var decoded ProcessStage
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, original.ToData(), decoded.ToData())
	})

	t.Run("rehydration enforces invariants", func(t *testing.T) {
		data := original.ToData()
		data.UnitsCompleted = d("2000")
		_, err := ProcessStageFromData(data)
		assert.ErrorIs(t, err, shared.ErrCompletedExceedsStarted)

		data = original.ToData()
		data.Status = "DONE"
		_, err = ProcessStageFromData(data)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		data = original.ToData()
		data.Version = -1
		_, err = ProcessStageFromData(data)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("stored version survives mutators", func(t *testing.T) {
		assert.Zero(t, original.Version())

		data := original.ToData()
		data.Version = 4
		loaded, err := ProcessStageFromData(data)
		require.NoError(t, err)
		assert.Equal(t, 4, loaded.Version())

		held, err := loaded.PutOnHold()
		require.NoError(t, err)
		costed, err := held.AddCost(d("10"))
		require.NoError(t, err)
		assert.Equal(t, 4, costed.Version())

		encoded, err := json.Marshal(costed)
		require.NoError(t, err)
		assert.Contains(t, string(encoded), `"version":4`)
	})
}
