// Package observability wires OpenTelemetry into the notifier. Storage calls
// and arbiter decisions are recorded on one meter provider that exports to a
// private Prometheus registry; spans go to stdout or an OTLP collector.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"notifier/internal/models"
	"notifier/internal/storage"
	"notifier/internal/version"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Provider owns the notifier's telemetry pipeline for one process.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	registry       *prometheus.Registry
	metrics        models.MetricsConfig
}

// Registry returns the registry the Prometheus exporter writes to, or nil
// when metrics are disabled.
func (p *Provider) Registry() *prometheus.Registry {
	return p.registry
}

// MeterProvider returns the configured meter provider, or nil when metrics
// are disabled.
func (p *Provider) MeterProvider() *sdkmetric.MeterProvider {
	return p.meterProvider
}

func (p *Provider) meters() metric.MeterProvider {
	if p.meterProvider != nil {
		return p.meterProvider
	}
	return otel.GetMeterProvider()
}

func (p *Provider) tracers() trace.TracerProvider {
	if p.tracerProvider != nil {
		return p.tracerProvider
	}
	return otel.GetTracerProvider()
}

// Instrument wraps store so its calls are traced and timed on this provider.
func (p *Provider) Instrument(store storage.Storage) (*InstrumentedStorage, error) {
	return NewInstrumentedStorage(store,
		WithMeterProvider(p.meters()),
		WithTracerProvider(p.tracers()),
	)
}

// ArbiterMetrics registers the arbiter counters on this provider.
func (p *Provider) ArbiterMetrics() (*ArbiterMetrics, error) {
	return NewArbiterMetrics(p.meters())
}

// Serve exposes the registry on the configured metrics port until the
// returned stop function is called. With metrics disabled it does nothing.
func (p *Provider) Serve(log *slog.Logger) func(context.Context) error {
	if p.registry == nil {
		return func(context.Context) error { return nil }
	}
	if log == nil {
		log = slog.Default()
	}

	server := NewMetricsServer(p.metrics.Port, p.metrics.Path, p)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", "addr", server.server.Addr, "error", err)
		}
	}()
	return server.Shutdown
}

// WriteSummary writes the current notify counters, one series per line, in
// the form `name{label="value"} count`. Nothing is written when metrics are
// disabled.
func (p *Provider) WriteSummary(w io.Writer) error {
	if p.registry == nil {
		return nil
	}
	families, err := p.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	var lines []string
	for _, mf := range families {
		if mf.GetType() != dto.MetricType_COUNTER || !strings.HasPrefix(mf.GetName(), "notify_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			lines = append(lines, fmt.Sprintf("%s%s %g", mf.GetName(), formatLabels(m.GetLabel()), m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// formatLabels renders labels without the scope labels the exporter adds.
func formatLabels(labels []*dto.LabelPair) string {
	var parts []string
	for _, l := range labels {
		if strings.HasPrefix(l.GetName(), "otel_scope_") {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}
	if len(parts) == 0 {
		return ""
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}

// Shutdown flushes and stops the tracer and meter providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Setup builds the providers described by cfg and installs them as the
// OpenTelemetry globals, so HTTP instrumentation shares them. The resource
// identifies the app the notifier runs for as well as the build.
func Setup(cfg *models.Config, ver version.Info) (*Provider, error) {
	p := &Provider{metrics: cfg.Metrics}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.Observability.ServiceName),
			semconv.ServiceVersion(ver.Version),
			attribute.String("service.instance.id", ver.InstanceID),
			attribute.String("host.name", ver.Hostname),
			attribute.String("git.commit", ver.GitCommit),
			attribute.String("deployment.environment", environment()),
			attribute.String("notifier.app_id", cfg.Client.AppID),
			attribute.String("notifier.platform", cfg.Client.Platform),
			attribute.String("notifier.app_version", cfg.Versions().Effective()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if cfg.Observability.Tracing.Enabled {
		tp, err := newTracerProvider(res, cfg.Observability.Tracing)
		if err != nil {
			return nil, fmt.Errorf("failed to setup tracing: %w", err)
		}
		p.tracerProvider = tp
		otel.SetTracerProvider(tp)
	}

	// A private registry per provider keeps repeated Setup calls from
	// colliding on registration.
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		p.registry = reg
		p.meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		otel.SetMeterProvider(p.meterProvider)
	}

	return p, nil
}

func newTracerProvider(res *resource.Resource, cfg models.TracingConfig) (*sdktrace.TracerProvider, error) {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch cfg.Exporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		exporter, err = otlptracegrpc.New(context.Background(),
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s exporter: %w", cfg.Exporter, err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sampler(cfg.SampleRate)),
	), nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// environment names the deployment the notifier reports from.
func environment() string {
	if env := os.Getenv("NOTIFIER_ENVIRONMENT"); env != "" {
		return env
	}
	return "development"
}
