package observability

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/zhouzirui/core-companion/backend/internal/config"
)

const instrumentationName = "core-companion"

// InitTelemetry installs global trace and meter providers that export to rotating
// files. With no trace file configured the otel no-op globals stay in place.
func InitTelemetry(ctx context.Context, cfg config.LogConfig) (func(context.Context) error, error) {
	if cfg.TraceFile == "" {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(instrumentationName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.TraceFile), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create trace directory: %w", err)
	}

	traceFile := &lumberjack.Logger{
		Filename:   cfg.TraceFile,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
	traceExporter, err := stdouttrace.New(stdouttrace.WithWriter(traceFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	metricsFile := &lumberjack.Logger{
		Filename:   metricsPath(cfg.TraceFile),
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
	metricExporter, err := stdoutmetric.New(stdoutmetric.WithWriter(metricsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(30*time.Second))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	shutdown := func(ctx context.Context) error {
		return errors.Join(
			tp.Shutdown(ctx),
			mp.Shutdown(ctx),
			traceFile.Close(),
			metricsFile.Close(),
		)
	}
	return shutdown, nil
}

func metricsPath(traceFile string) string {
	ext := filepath.Ext(traceFile)
	return traceFile[:len(traceFile)-len(ext)] + ".metrics" + ext
}

// Metrics holds the counters recorded by the chat flow. A nil *Metrics records nothing.
type Metrics struct {
	turns         metric.Int64Counter
	sessionsEnded metric.Int64Counter
	failures      metric.Int64Counter
}

// NewMetrics registers the chat counters on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	turns, err := meter.Int64Counter("chat.turns", metric.WithDescription("Completed chat turns"))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat.turns counter: %w", err)
	}
	sessionsEnded, err := meter.Int64Counter("chat.sessions_ended", metric.WithDescription("Sessions persisted at end of conversation"))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat.sessions_ended counter: %w", err)
	}
	failures, err := meter.Int64Counter("chat.failures", metric.WithDescription("Failed chat requests by kind"))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat.failures counter: %w", err)
	}

	return &Metrics{turns: turns, sessionsEnded: sessionsEnded, failures: failures}, nil
}

func (m *Metrics) RecordTurn(ctx context.Context) {
	if m == nil {
		return
	}
	m.turns.Add(ctx, 1)
}

func (m *Metrics) RecordSessionEnded(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessionsEnded.Add(ctx, 1)
}

func (m *Metrics) RecordFailure(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
