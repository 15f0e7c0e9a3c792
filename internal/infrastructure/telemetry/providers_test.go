package telemetry

import (
	"context"
	"runtime/pprof"
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDisabledProviders(t *testing.T) {
	ctx := context.Background()
	log := zap.NewNop()

	tp, err := NewTracerProvider(ctx, Config{Enabled: false, ServiceName: "costing"}, log)
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("costing"))
	require.NoError(t, tp.EnableSpanProfiles())
	assert.False(t, tp.IsSpanProfilesEnabled())
	assert.Equal(t, "costing", tp.GetConfig().ServiceName)
	assert.NoError(t, tp.Shutdown(ctx))

	mp, err := NewMeterProvider(ctx, MetricsConfig{Enabled: false}, log)
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("costing"))
	assert.NoError(t, mp.Shutdown(ctx))

	lp, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false}, log)
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.Shutdown(ctx))

	base := zap.NewExample()
	assert.Same(t, base, BridgeLogger(base, lp, zapcore.InfoLevel))
	assert.Same(t, base, BridgeLogger(base, nil, zapcore.InfoLevel))

	p, err := NewProfiler(ProfilerConfig{Enabled: false}, log)
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_RequiresTarget(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "costing"}, zap.NewNop())
	assert.ErrorContains(t, err, "server address")

	_, err = NewProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://pyroscope:4040"}, zap.NewNop())
	assert.ErrorContains(t, err, "application name")
}

func TestProfiler_ProfileTypes(t *testing.T) {
	p := &Profiler{config: ProfilerConfig{}}
	assert.Equal(t, []pyroscope.ProfileType{pyroscope.ProfileCPU, pyroscope.ProfileInuseSpace}, p.profileTypes())

	p.config.ProfileAlloc = true
	p.config.ProfileGoroutines = true
	types := p.profileTypes()
	assert.Len(t, types, 5)
	assert.Contains(t, types, pyroscope.ProfileAllocSpace)
	assert.Contains(t, types, pyroscope.ProfileGoroutines)
}

func TestWithProfilingLabels(t *testing.T) {
	t.Run("labels visible inside fn", func(t *testing.T) {
		called := false
		WithProfilingLabels(context.Background(), map[string]string{
			ProfilingLabelRoute:   "/api/v1/process-stages/:id",
			ProfilingLabelOrderID: "",
		}, func(ctx context.Context) {
			called = true
			route, ok := pprof.Label(ctx, ProfilingLabelRoute)
			assert.True(t, ok)
			assert.Equal(t, "/api/v1/process-stages/:id", route)
			_, ok = pprof.Label(ctx, ProfilingLabelOrderID)
			assert.False(t, ok)
		})
		assert.True(t, called)
	})

	t.Run("no labels runs fn directly", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), struct{}{}, "marker")
		WithProfilingLabels(ctx, nil, func(got context.Context) {
			assert.Equal(t, ctx, got)
		})
	})
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1).Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(2).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.25).Description(), samplerFor(0.25).Description())
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}
	log := zap.New(core)

	log.Info("stage started")
	log.Warn("stage on hold")
	log.With(zap.String("stage_id", "s-1")).Debug("progress recorded")
	log.With(zap.String("stage_id", "s-1")).Error("completion rejected")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "stage on hold", entries[0].Message)
	assert.Equal(t, "completion rejected", entries[1].Message)
	assert.Equal(t, "s-1", entries[1].ContextMap()["stage_id"])

	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))
}
