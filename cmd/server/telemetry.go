package main

import (
	"context"
	"time"

	"github.com/erp/costing/internal/infrastructure/config"
	"github.com/erp/costing/internal/infrastructure/logger"
	"github.com/erp/costing/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// telemetryStack holds the providers started for the process
type telemetryStack struct {
	tracer   *telemetry.TracerProvider
	meter    *telemetry.MeterProvider
	logs     *telemetry.LoggerProvider
	profiler *telemetry.Profiler
	logger   *zap.Logger
}

// setupTelemetry starts tracing, metrics, OTLP log export and continuous
// profiling as configured. The returned logger also ships records to the
// collector when log export is enabled.
func setupTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) (*telemetryStack, error) {
	tc := cfg.Telemetry
	stack := &telemetryStack{logger: log}

	var err error
	stack.tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}

	stack.meter, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tc.Enabled && tc.MetricsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ExportInterval:    tc.MetricsExportInterval,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}

	stack.logs, err = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           tc.Enabled && tc.LogsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}
	stack.logger = telemetry.BridgeLogger(log, stack.logs, logger.ParseLevel(tc.LogsExportLevel))

	stack.profiler, err = telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         tc.ProfilingEnabled,
		ServerAddress:   tc.ProfilingAddress,
		ApplicationName: tc.ServiceName,
		ProfileAlloc:    true,
	}, log)
	if err != nil {
		return nil, err
	}
	if tc.ProfilingEnabled {
		if err := stack.tracer.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}

	return stack, nil
}

// httpMeter returns the meter for HTTP server metrics, nil when metrics are
// off so the middleware is skipped
func (s *telemetryStack) httpMeter() metric.Meter {
	if !s.meter.IsEnabled() {
		return nil
	}
	return s.meter.Meter("http.server")
}

// shutdown flushes and stops every provider, logging failures
func (s *telemetryStack) shutdown(log *zap.Logger, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.profiler.Stop(); err != nil {
		log.Error("Failed to stop profiler", zap.Error(err))
	}
	if err := s.meter.Shutdown(ctx); err != nil {
		log.Error("Failed to shut down meter provider", zap.Error(err))
	}
	if err := s.logs.Shutdown(ctx); err != nil {
		log.Error("Failed to shut down logger provider", zap.Error(err))
	}
	if err := s.tracer.Shutdown(ctx); err != nil {
		log.Error("Failed to shut down tracer provider", zap.Error(err))
	}
}
