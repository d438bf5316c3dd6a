package observability

import (
	"context"
	"notifier/internal/models"
	"notifier/internal/notify"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ArbiterMetrics counts presentations, rejections and resolutions of
// notification items. It satisfies notify.Recorder.
type ArbiterMetrics struct {
	presented metric.Int64Counter
	rejected  metric.Int64Counter
	resolved  metric.Int64Counter
}

// NewArbiterMetrics registers the arbiter counters on mp, or on the global
// meter provider when mp is nil.
func NewArbiterMetrics(mp metric.MeterProvider) (*ArbiterMetrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter("notifier/notify")

	presented, err := meter.Int64Counter(
		"notify.presentations",
		metric.WithDescription("Number of notification items handed to the presenter"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	rejected, err := meter.Int64Counter(
		"notify.rejections",
		metric.WithDescription("Number of presentation requests refused by the arbiter"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	resolved, err := meter.Int64Counter(
		"notify.resolutions",
		metric.WithDescription("Number of presentations answered by the user"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	return &ArbiterMetrics{presented: presented, rejected: rejected, resolved: resolved}, nil
}

func (m *ArbiterMetrics) Presented(ctx context.Context, kind models.Kind) {
	m.presented.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
}

func (m *ArbiterMetrics) Rejected(ctx context.Context, kind models.Kind, reason string) {
	m.rejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.String("reason", reason),
	))
}

func (m *ArbiterMetrics) Resolved(ctx context.Context, kind models.Kind, outcome models.Outcome) {
	attrs := []attribute.KeyValue{
		attribute.String("kind", string(kind)),
		attribute.Bool("accepted", outcome.Accepted),
	}
	if kind == models.KindRateReminder {
		attrs = append(attrs, attribute.String("answer", string(outcome.Answer)))
	}
	m.resolved.Add(ctx, 1, metric.WithAttributes(attrs...))
}

var _ notify.Recorder = (*ArbiterMetrics)(nil)
