package notify

import (
	"context"
	"errors"
	"notifier/internal/models"
	"notifier/internal/storage"
	"sync"

	"github.com/stretchr/testify/mock"
)

// failingStore wraps a SeenStore and fails the configured operations.
type failingStore struct {
	storage.SeenStore
	getErr error
	setErr error
}

func (f *failingStore) GetSeen(ctx context.Context, key models.SeenKey) (*models.SeenRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.SeenStore.GetSeen(ctx, key)
}

func (f *failingStore) SetSeen(ctx context.Context, key models.SeenKey, record models.SeenRecord) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.SeenStore.SetSeen(ctx, key, record)
}

var errStoreDown = errors.New("store down")

// answeringPresenter resolves every item immediately with a fixed outcome.
// With propagate set it returns the Resolve error, as the terminal does.
type answeringPresenter struct {
	mu        sync.Mutex
	outcome   models.Outcome
	err       error
	propagate bool
	shown    []models.Item
	resolved []error
}

func (p *answeringPresenter) Present(ctx context.Context, item models.Item, handle *Handle) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	p.shown = append(p.shown, item)
	p.mu.Unlock()

	err := handle.Resolve(ctx, p.outcome)

	p.mu.Lock()
	p.resolved = append(p.resolved, err)
	p.mu.Unlock()
	if p.propagate {
		return err
	}
	return nil
}

// holdingPresenter keeps handles unresolved until the test resolves them.
type holdingPresenter struct {
	handles []*Handle
}

func (p *holdingPresenter) Present(_ context.Context, _ models.Item, handle *Handle) error {
	p.handles = append(p.handles, handle)
	return nil
}

type MockLinkOpener struct {
	mock.Mock
}

func (m *MockLinkOpener) Open(ctx context.Context, link string) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

type MockViewReporter struct {
	mock.Mock
}

func (m *MockViewReporter) ReportView(ctx context.Context, item models.Item, outcome models.Outcome) error {
	args := m.Called(ctx, item, outcome)
	return args.Error(0)
}

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchUpdateCheck(ctx context.Context, oldVersion, currentVersion string) (*models.UpdateCheckPayload, error) {
	args := m.Called(ctx, oldVersion, currentVersion)
	payload, _ := args.Get(0).(*models.UpdateCheckPayload)
	return payload, args.Error(1)
}

func (m *MockFetcher) FetchMessages(ctx context.Context) ([]models.Message, error) {
	args := m.Called(ctx)
	messages, _ := args.Get(0).([]models.Message)
	return messages, args.Error(1)
}

func (m *MockFetcher) FetchRateReminder(ctx context.Context) (*models.RateReminder, error) {
	args := m.Called(ctx)
	reminder, _ := args.Get(0).(*models.RateReminder)
	return reminder, args.Error(1)
}

// countingRecorder tallies arbitration events.
type countingRecorder struct {
	mu        sync.Mutex
	presented int
	rejected  map[string]int
	resolved  int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{rejected: make(map[string]int)}
}

func (r *countingRecorder) Presented(context.Context, models.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presented++
}

func (r *countingRecorder) Rejected(_ context.Context, _ models.Kind, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected[reason]++
}

func (r *countingRecorder) Resolved(context.Context, models.Kind, models.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved++
}

func newMemoryStore() *storage.MemoryStorage {
	s, _ := storage.NewMemoryStorage(storage.Config{})
	return s
}
