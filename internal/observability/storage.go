package observability

import (
	"context"
	"errors"
	"notifier/internal/models"
	"notifier/internal/storage"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedStorage wraps a storage.Storage implementation with
// OpenTelemetry tracing and metrics instrumentation.
type InstrumentedStorage struct {
	inner    storage.Storage
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

// StorageOption customises the instrumentation providers.
type StorageOption func(*storageProviders)

type storageProviders struct {
	meters  metric.MeterProvider
	tracers trace.TracerProvider
}

// WithMeterProvider records storage metrics on mp instead of the global provider.
func WithMeterProvider(mp metric.MeterProvider) StorageOption {
	return func(p *storageProviders) { p.meters = mp }
}

// WithTracerProvider records storage spans on tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) StorageOption {
	return func(p *storageProviders) { p.tracers = tp }
}

// NewInstrumentedStorage creates a new storage wrapper that records trace spans,
// operation latency histograms, and error counters for every storage method call.
// A missing record is an expected answer, not an error, and is not counted.
func NewInstrumentedStorage(inner storage.Storage, opts ...StorageOption) (*InstrumentedStorage, error) {
	providers := storageProviders{
		meters:  otel.GetMeterProvider(),
		tracers: otel.GetTracerProvider(),
	}
	for _, opt := range opts {
		opt(&providers)
	}

	tracer := providers.tracers.Tracer("notifier/storage")
	meter := providers.meters.Meter("notifier/storage")

	duration, err := meter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Duration of storage operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"storage.operation.errors",
		metric.WithDescription("Number of storage operation errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedStorage{
		inner:    inner,
		tracer:   tracer,
		duration: duration,
		errors:   errCounter,
	}, nil
}

func (s *InstrumentedStorage) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, "storage."+operation,
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("storage.operation", operation),
		}, attrs...)...),
	)
	return ctx, span
}

func (s *InstrumentedStorage) record(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	elapsed := time.Since(start).Seconds()
	attrs := metric.WithAttributes(attribute.String("operation", operation))

	s.duration.Record(ctx, elapsed, attrs)

	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(err, storage.ErrNotFound):
		span.SetAttributes(attribute.Bool("storage.found", false))
		span.SetStatus(codes.Ok, "")
	default:
		s.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.End()
}

func seenAttrs(key models.SeenKey) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("notify.kind", string(key.Kind)),
		attribute.String("notify.identity", key.Identity),
	}
}

func (s *InstrumentedStorage) GetSeen(ctx context.Context, key models.SeenKey) (*models.SeenRecord, error) {
	ctx, span := s.startSpan(ctx, "GetSeen", seenAttrs(key)...)
	start := time.Now()
	result, err := s.inner.GetSeen(ctx, key)
	s.record(ctx, span, "GetSeen", start, err)
	return result, err
}

func (s *InstrumentedStorage) SetSeen(ctx context.Context, key models.SeenKey, record models.SeenRecord) error {
	ctx, span := s.startSpan(ctx, "SetSeen", append(seenAttrs(key),
		attribute.Bool("notify.accepted", record.Accepted),
	)...)
	start := time.Now()
	err := s.inner.SetSeen(ctx, key, record)
	s.record(ctx, span, "SetSeen", start, err)
	return err
}

func (s *InstrumentedStorage) GetSetting(ctx context.Context, name string) (string, error) {
	ctx, span := s.startSpan(ctx, "GetSetting", attribute.String("setting", name))
	start := time.Now()
	value, err := s.inner.GetSetting(ctx, name)
	s.record(ctx, span, "GetSetting", start, err)
	return value, err
}

func (s *InstrumentedStorage) SetSetting(ctx context.Context, name, value string) error {
	ctx, span := s.startSpan(ctx, "SetSetting", attribute.String("setting", name))
	start := time.Now()
	err := s.inner.SetSetting(ctx, name, value)
	s.record(ctx, span, "SetSetting", start, err)
	return err
}

func (s *InstrumentedStorage) Ping(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Ping")
	start := time.Now()
	err := s.inner.Ping(ctx)
	s.record(ctx, span, "Ping", start, err)
	return err
}

func (s *InstrumentedStorage) Close() error {
	return s.inner.Close()
}

// Ensure InstrumentedStorage implements storage.Storage
var _ storage.Storage = (*InstrumentedStorage)(nil)
