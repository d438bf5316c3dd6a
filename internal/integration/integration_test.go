package integration

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"notifier/internal/api"
	"notifier/internal/client"
	"notifier/internal/models"
	"notifier/internal/notify"
	"notifier/internal/observability"
	"notifier/internal/present"
	"notifier/internal/ratelimit"
	"notifier/internal/storage"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Integration tests that run the notifier against the stub notify API
// end-to-end.

const fixtures = `
newer_version:
  state: remind
  last_id: 42
  version: "1.2.0"
  link: https://apps.example.com/app/id1
  translate:
    title: Update available
    message: Version 1.2.0 is out
    positive_btn: Update
    negative_btn: Later
changelogs:
  - last_id: 77
    version: "1.2.0"
    translate:
      title: What's new in 1.2
      message: Offline mode
messages:
  - id: m-1
    message: Scheduled maintenance
  - id: m-2
    message: New terms of service
rate_reminder:
  id: rr-1
  title: Enjoying the app?
  body: Please leave a rating
  yes_btn: Rate
  later_btn: Later
  no_btn: Never
  link: https://apps.example.com/rate
`

const (
	appID  = "integration-app"
	apiKey = "integration-key"
)

type stack struct {
	server   *httptest.Server
	handlers *api.Handlers
	store    storage.Storage
	reader   *sdkmetric.ManualReader
	metrics  *observability.ArbiterMetrics
}

func newStack(t *testing.T, routeOpts ...api.RouteOption) *stack {
	t.Helper()

	parsed, err := api.ParseFixtures([]byte(fixtures))
	require.NoError(t, err)
	handlers := api.NewHandlers(parsed, "integration")

	opts := append([]api.RouteOption{api.WithAuth(appID, apiKey)}, routeOpts...)
	server := httptest.NewServer(api.SetupRoutes(handlers, opts...))
	t.Cleanup(server.Close)

	raw, err := storage.NewSQLiteStorage(storage.Config{
		Type:             "sqlite",
		ConnectionString: filepath.Join(t.TempDir(), "notifier.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	store, err := observability.NewInstrumentedStorage(raw, observability.WithMeterProvider(mp))
	require.NoError(t, err)

	metrics, err := observability.NewArbiterMetrics(mp)
	require.NoError(t, err)

	return &stack{server: server, handlers: handlers, store: store, reader: reader, metrics: metrics}
}

func (s *stack) client(t *testing.T, creds ...string) *client.Client {
	t.Helper()
	id, key := appID, apiKey
	if len(creds) == 2 {
		id, key = creds[0], creds[1]
	}
	guid, err := notify.DeviceID(context.Background(), s.store)
	require.NoError(t, err)

	c, err := client.New(models.ClientConfig{
		BaseURL:  s.server.URL + "/api/v1/",
		AppID:    id,
		APIKey:   key,
		Platform: "ios",
		Timeout:  5 * time.Second,
	}, guid)
	require.NoError(t, err)
	return c
}

func (s *stack) service(c *client.Client, presenter notify.Presenter, current string) *notify.Service {
	arbiter := notify.NewArbiter(s.store, notify.WithRecorder(s.metrics))
	return notify.NewService(arbiter, presenter,
		notify.WithViewReporter(c),
		notify.WithVersions(models.AppVersions{Current: current}),
		notify.WithSettings(s.store),
	)
}

func (s *stack) counter(t *testing.T, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, s.reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestIntegration_UpgradeFlow(t *testing.T) {
	s := newStack(t)
	c := s.client(t)
	ctx := context.Background()

	// Step 1: first launch on 1.0.0. Everything is offered once and dismissed.
	svc := s.service(c, present.NewHeadless(nil, present.DismissLast), "1.0.0")
	report, err := svc.Sync(ctx, c)
	require.NoError(t, err)

	assert.True(t, report.Update)
	assert.False(t, report.WhatsNew, "first launch has no previous version")
	assert.Equal(t, 2, report.MessagesShown, "the arbiter is free again after each headless answer")
	assert.True(t, report.RateReminder)

	previous, err := s.store.GetSetting(ctx, storage.SettingPreviousVersion)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", previous)

	// Step 2: relaunch on 1.0.0. The dismissed update stays suppressed.
	report, err = svc.Sync(ctx, c)
	require.NoError(t, err)
	assert.False(t, report.Update)
	assert.Zero(t, report.MessagesShown, "the stub no longer serves viewed messages")
	assert.False(t, report.RateReminder)

	// Step 3: the user upgraded to 1.2.0. What's new appears, the update does not.
	upgraded := s.service(c, present.NewHeadless(nil, present.AcceptFirst), "1.2.0")
	report, err = upgraded.Sync(ctx, c)
	require.NoError(t, err)
	assert.True(t, report.VersionAdvanced)
	assert.True(t, report.WhatsNew)
	assert.False(t, report.Update)

	rec, err := s.store.GetSeen(ctx, models.SeenKey{Kind: models.KindWhatsNew, Identity: "77"})
	require.NoError(t, err)
	assert.True(t, rec.Seen)

	// Step 4: the stub received one view per answered item.
	kinds := make(map[models.Kind]int)
	for _, v := range s.handlers.Views() {
		kinds[v.Kind]++
	}
	// Both post to updates/views; the stub files what's new reports separately.
	assert.Equal(t, 1, kinds[models.KindUpdate])
	assert.Equal(t, 1, kinds[models.KindWhatsNew])
	assert.Equal(t, 2, kinds[models.KindMessage])
	assert.Equal(t, 1, kinds[models.KindRateReminder])

	assert.Equal(t, int64(5), s.counter(t, "notify.resolutions"))
	assert.Positive(t, s.counter(t, "notify.rejections"))
}

func TestIntegration_ForcedUpdateIgnoresSeenState(t *testing.T) {
	s := newStack(t)
	c := s.client(t)
	ctx := context.Background()

	svc := s.service(c, present.NewHeadless(nil, present.AcceptFirst), "1.0.0")
	payload := &models.UpdateCheckPayload{NewerVersion: &models.NewerVersion{
		State:     "force",
		LastID:    99,
		Version:   "3.0.0",
		Translate: models.UpdateTranslations{Title: "Required", PositiveBtn: "Update"},
	}}

	for i := 0; i < 3; i++ {
		shown, err := svc.HandleUpdate(ctx, payload)
		require.NoError(t, err)
		assert.True(t, shown, "forced update is offered on every check (attempt %d)", i+1)
	}
}

func TestIntegration_SingleFlightUnderConcurrency(t *testing.T) {
	s := newStack(t)
	c := s.client(t)
	ctx := context.Background()

	var mu sync.Mutex
	var handles []*notify.Handle
	holder := presenterFunc(func(_ context.Context, _ models.Item, h *notify.Handle) error {
		mu.Lock()
		handles = append(handles, h)
		mu.Unlock()
		return nil
	})
	svc := s.service(c, holder, "1.0.0")

	var wg sync.WaitGroup
	results := make(chan bool, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			shown, err := svc.HandleMessage(ctx, &models.Message{ID: string(rune('a' + i)), Message: "hi"})
			assert.NoError(t, err)
			results <- shown
		}(i)
	}
	wg.Wait()
	close(results)

	shown := 0
	for ok := range results {
		if ok {
			shown++
		}
	}
	assert.Equal(t, 1, shown)
	require.Len(t, handles, 1)
	require.NoError(t, handles[0].Resolve(ctx, models.Outcome{}))
}

type presenterFunc func(ctx context.Context, item models.Item, h *notify.Handle) error

func (f presenterFunc) Present(ctx context.Context, item models.Item, h *notify.Handle) error {
	return f(ctx, item, h)
}

func TestIntegration_WrongCredentials(t *testing.T) {
	s := newStack(t)
	c := s.client(t, appID, "wrong-key")

	_, err := c.FetchMessages(context.Background())
	require.Error(t, err)

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, models.ErrorCodeUnauthorized, apiErr.Code)
}

func TestIntegration_DeviceRateLimit(t *testing.T) {
	devices := ratelimit.NewMemoryLimiter(60, 2, time.Minute)
	anonymous := ratelimit.NewMemoryLimiter(60, 2, time.Minute)
	t.Cleanup(devices.Close)
	t.Cleanup(anonymous.Close)

	s := newStack(t, api.WithRateLimiter(ratelimit.Middleware(anonymous, devices)))
	c := s.client(t)
	ctx := context.Background()

	var limited *client.APIError
	for i := 0; i < 5; i++ {
		if _, err := c.FetchMessages(ctx); err != nil {
			require.True(t, errors.As(err, &limited))
			break
		}
	}
	require.NotNil(t, limited, "the device exceeded its burst")
	assert.Equal(t, http.StatusTooManyRequests, limited.StatusCode)
	assert.Equal(t, models.ErrorCodeRateLimited, limited.Code)
}
