package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"notifier/internal/models"
	"notifier/internal/storage"
	"sync"
	"time"
)

// ResolveFunc is invoked once the user has answered a presented item.
type ResolveFunc func(item models.Item, outcome models.Outcome)

// Arbiter guarantees that at most one notification is presented at a time
// and that answered notifications are not offered again. Forced update
// alerts bypass the seen check.
type Arbiter struct {
	store    storage.SeenStore
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	active *Handle
}

// ArbiterOption configures an Arbiter.
type ArbiterOption func(*Arbiter)

// WithRecorder installs a Recorder for arbitration events.
func WithRecorder(r Recorder) ArbiterOption {
	return func(a *Arbiter) {
		if r != nil {
			a.recorder = r
		}
	}
}

// WithArbiterLogger sets the logger used by the arbiter.
func WithArbiterLogger(l *slog.Logger) ArbiterOption {
	return func(a *Arbiter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithClock overrides the time source used for seen records.
func WithClock(now func() time.Time) ArbiterOption {
	return func(a *Arbiter) {
		if now != nil {
			a.now = now
		}
	}
}

// NewArbiter creates an arbiter backed by store.
func NewArbiter(store storage.SeenStore, opts ...ArbiterOption) *Arbiter {
	a := &Arbiter{
		store:    store,
		recorder: nopRecorder{},
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Busy reports whether a presentation is in progress.
func (a *Arbiter) Busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active != nil
}

// RequestPresent asks permission to present item. On success the caller
// receives a Handle and the arbiter stays busy until the handle is resolved
// or cancelled. ErrBusy and ErrAlreadySeen are rejections; any other error
// comes from the seen store.
func (a *Arbiter) RequestPresent(ctx context.Context, item models.Item, onResolve ResolveFunc) (*Handle, error) {
	item = models.Normalize(item)
	if item == nil {
		return nil, errors.New("item is required")
	}
	kind := item.Kind()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active != nil {
		a.recorder.Rejected(ctx, kind, rejectionReason(ErrBusy))
		return nil, ErrBusy
	}

	key := models.KeyOf(item)
	if !isForced(item) {
		_, err := a.store.GetSeen(ctx, key)
		switch {
		case err == nil:
			a.recorder.Rejected(ctx, kind, rejectionReason(ErrAlreadySeen))
			return nil, ErrAlreadySeen
		case !errors.Is(err, storage.ErrNotFound):
			a.recorder.Rejected(ctx, kind, rejectionReason(err))
			return nil, fmt.Errorf("failed to look up seen record %s: %w", key, err)
		}
	}

	h := &Handle{arbiter: a, item: item, onResolve: onResolve}
	a.active = h
	a.recorder.Presented(ctx, kind)
	a.logger.Debug("Presentation started", "kind", kind, "identity", item.Identity())
	return h, nil
}

// isForced reports whether item must be shown regardless of seen state.
func isForced(item models.Item) bool {
	alert, ok := models.Normalize(item).(models.UpdateAlert)
	return ok && alert.Urgency == models.UrgencyForce
}

// close marks h closed and releases the presentation lock if h holds it.
// It returns false when h was already closed.
func (a *Arbiter) close(h *Handle) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if h.closed {
		return false
	}
	h.closed = true
	if a.active == h {
		a.active = nil
	}
	return true
}

// Handle represents one granted presentation.
type Handle struct {
	arbiter   *Arbiter
	item      models.Item
	onResolve ResolveFunc
	closed    bool // guarded by arbiter.mu
	resolved  bool // guarded by arbiter.mu
}

// Item returns the item being presented.
func (h *Handle) Item() models.Item {
	return h.item
}

// Resolve records the user's answer, releases the presentation lock and
// invokes the callback given to RequestPresent. The lock is released and the
// callback invoked even when recording fails; the store error is returned.
func (h *Handle) Resolve(ctx context.Context, outcome models.Outcome) error {
	a := h.arbiter
	kind := h.item.Kind()
	if kind == models.KindRateReminder && !outcome.Answer.Valid() {
		return fmt.Errorf("invalid rate reminder answer: %q", outcome.Answer)
	}

	// Write before releasing so a follow-up request observes the record.
	a.mu.Lock()
	if h.closed {
		a.mu.Unlock()
		return ErrHandleClosed
	}
	key := models.KeyOf(h.item)
	writeErr := a.record(ctx, h.item, key, outcome)
	h.closed = true
	h.resolved = true
	if a.active == h {
		a.active = nil
	}
	a.mu.Unlock()

	a.recorder.Resolved(ctx, kind, outcome)
	a.logger.Debug("Presentation resolved", "kind", kind, "identity", h.item.Identity(),
		"accepted", outcome.Accepted, "answer", outcome.Answer)

	if h.onResolve != nil {
		h.onResolve(h.item, outcome)
	}

	if writeErr != nil {
		return fmt.Errorf("failed to record outcome for %s: %w", key, writeErr)
	}
	return nil
}

// record persists the outcome for key. A forced alert skips the lookup on
// request, so its first record is kept and later answers are not written.
func (a *Arbiter) record(ctx context.Context, item models.Item, key models.SeenKey, outcome models.Outcome) error {
	if isForced(item) {
		_, err := a.store.GetSeen(ctx, key)
		switch {
		case err == nil:
			return nil
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}
	}
	return a.store.SetSeen(ctx, key, models.NewSeenRecord(item.Kind(), outcome, a.now()))
}

// Resolved reports whether Resolve has recorded an answer for h, even if
// persisting it failed.
func (h *Handle) Resolved() bool {
	h.arbiter.mu.Lock()
	defer h.arbiter.mu.Unlock()
	return h.resolved
}

// Cancel releases the presentation lock without recording anything, for
// when the item could not be shown. Cancelling a closed handle is a no-op.
func (h *Handle) Cancel() {
	if h.arbiter.close(h) {
		h.arbiter.logger.Debug("Presentation cancelled", "kind", h.item.Kind(), "identity", h.item.Identity())
	}
}
