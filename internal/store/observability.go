package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/arllen133/wikisvc/internal/store"
	meterName  = "github.com/arllen133/wikisvc/internal/store"
)

// queryMetrics holds the OpenTelemetry metric instruments
type queryMetrics struct {
	QueryCount    metric.Int64Counter
	QueryDuration metric.Float64Histogram
	QueryErrors   metric.Int64Counter
}

// observabilityConfig holds logging, tracing, and metrics configuration
type observabilityConfig struct {
	logger             zerolog.Logger
	tracer             trace.Tracer
	metrics            *queryMetrics
	slowQueryThreshold time.Duration
}

func defaultObservabilityConfig() *observabilityConfig {
	return &observabilityConfig{
		logger:             zerolog.Nop(),
		slowQueryThreshold: 200 * time.Millisecond,
	}
}

// Option configures a Store
type Option func(*Store)

// WithRecorder sets the recorder notified after successful creates.
func WithRecorder(r Recorder) Option {
	return func(s *Store) {
		s.recorder = r
	}
}

// WithLogger sets the logger used for slow-query and retry logging.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.obs.logger = logger
	}
}

// WithTracer sets the OpenTelemetry tracer for query spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Store) {
		s.obs.tracer = tracer
	}
}

// WithDefaultTracer uses the global OpenTelemetry tracer.
func WithDefaultTracer() Option {
	return func(s *Store) {
		s.obs.tracer = otel.Tracer(tracerName)
	}
}

// WithMeter sets the OpenTelemetry meter for query metrics.
func WithMeter(meter metric.Meter) Option {
	return func(s *Store) {
		s.obs.metrics = initQueryMetrics(meter)
	}
}

// WithDefaultMeter uses the global OpenTelemetry meter.
func WithDefaultMeter() Option {
	return func(s *Store) {
		s.obs.metrics = initQueryMetrics(otel.Meter(meterName))
	}
}

// WithSlowQueryThreshold sets the slow query threshold for logging.
func WithSlowQueryThreshold(d time.Duration) Option {
	return func(s *Store) {
		s.obs.slowQueryThreshold = d
	}
}

// WithInitRetry overrides the startup retry budget. Attempts must be at
// least 1; the budget stays bounded.
func WithInitRetry(attempts int, base, ceil time.Duration) Option {
	return func(s *Store) {
		if attempts < 1 {
			attempts = 1
		}
		s.retry = initRetry{attempts: attempts, backoffBase: base, backoffCap: ceil}
	}
}

// initQueryMetrics creates all metric instruments
func initQueryMetrics(meter metric.Meter) *queryMetrics {
	queryCount, _ := meter.Int64Counter("wikisvc.query.count",
		metric.WithDescription("Total number of SQL queries executed"),
		metric.WithUnit("{query}"),
	)

	queryDuration, _ := meter.Float64Histogram("wikisvc.query.duration",
		metric.WithDescription("Query execution duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	)

	queryErrors, _ := meter.Int64Counter("wikisvc.query.errors",
		metric.WithDescription("Total number of query errors"),
		metric.WithUnit("{error}"),
	)

	return &queryMetrics{
		QueryCount:    queryCount,
		QueryDuration: queryDuration,
		QueryErrors:   queryErrors,
	}
}

// instrument wraps a store operation with tracing, metrics, and slow-query
// logging. The returned context carries the span when tracing is enabled.
func (s *Store) instrument(ctx context.Context, op, table string, fn func(ctx context.Context) error) error {
	var span trace.Span
	if s.obs.tracer != nil {
		ctx, span = s.obs.tracer.Start(ctx, op,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("db.operation", op),
				attribute.String("db.sql.table", table),
			),
		)
		defer span.End()
	}

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	if s.obs.metrics != nil {
		attrs := metric.WithAttributes(
			attribute.String("operation", op),
			attribute.String("table", table),
		)
		s.obs.metrics.QueryCount.Add(ctx, 1, attrs)
		s.obs.metrics.QueryDuration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
		if err != nil {
			s.obs.metrics.QueryErrors.Add(ctx, 1, attrs)
		}
	}

	if span != nil && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if elapsed > s.obs.slowQueryThreshold {
		s.obs.logger.Warn().
			Str("operation", op).
			Str("table", table).
			Dur("elapsed", elapsed).
			Msg("slow query")
	}
	return err
}
