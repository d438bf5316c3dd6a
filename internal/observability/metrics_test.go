package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"notifier/internal/models"
	"notifier/internal/version"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findFamily(families []*dto.MetricFamily, prefix string) *dto.MetricFamily {
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), prefix) {
			return mf
		}
	}
	return nil
}

func metricsProvider(t *testing.T) *Provider {
	t.Helper()
	cfg := models.NewDefaultConfig()
	cfg.Metrics = models.MetricsConfig{Enabled: true, Path: "/metrics", Port: 9090}
	cfg.Observability.ServiceName = "test"
	provider, err := Setup(cfg, version.Info{Version: "1.0.0"})
	require.NoError(t, err)
	t.Cleanup(func() { provider.Shutdown(context.Background()) })
	return provider
}

func TestNewMetricsServer(t *testing.T) {
	provider := metricsProvider(t)

	ms := NewMetricsServer(9090, "/metrics", provider)
	assert.NotNil(t, ms)
	assert.NotNil(t, ms.server)
	assert.Equal(t, ":9090", ms.server.Addr)
}

func TestMetricsServer_ServesArbiterCounters(t *testing.T) {
	provider := metricsProvider(t)

	recorder, err := NewArbiterMetrics(provider.MeterProvider())
	require.NoError(t, err)
	recorder.Presented(context.Background(), models.KindUpdate)

	ms := NewMetricsServer(0, "/metrics", provider)
	rec := httptest.NewRecorder()
	ms.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "notify_presentations")
	assert.Contains(t, rec.Body.String(), `kind="update"`)
}

func TestRegistry_GathersStorageMetrics(t *testing.T) {
	provider := metricsProvider(t)

	store, err := NewInstrumentedStorage(brokenStorage{}, WithMeterProvider(provider.MeterProvider()))
	require.NoError(t, err)
	require.Error(t, store.Ping(context.Background()))

	families, err := provider.Registry().Gather()
	require.NoError(t, err)

	errs := findFamily(families, "storage_operation_errors")
	require.NotNil(t, errs, "error counter is exported")
	assert.Equal(t, dto.MetricType_COUNTER, errs.GetType())
	require.Len(t, errs.GetMetric(), 1)
	assert.Equal(t, float64(1), errs.GetMetric()[0].GetCounter().GetValue())

	duration := findFamily(families, "storage_operation_duration")
	require.NotNil(t, duration)
	assert.Equal(t, dto.MetricType_HISTOGRAM, duration.GetType())
}

func TestMetricsServer_StartAndShutdown(t *testing.T) {
	provider := metricsProvider(t)

	ms := NewMetricsServer(0, "/metrics", provider)

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- ms.Start()
	}()

	// Give the server time to start
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := ms.Shutdown(ctx)
	assert.NoError(t, err)

	serverErr := <-errCh
	assert.Equal(t, http.ErrServerClosed, serverErr)
}

func TestNewMetricsServer_NilProvider(t *testing.T) {
	ms := NewMetricsServer(9090, "/metrics", nil)
	require.NotNil(t, ms)

	rec := httptest.NewRecorder()
	ms.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
