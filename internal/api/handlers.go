package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"notifier/internal/models"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Handlers serves the notify endpoints from fixtures and remembers the
// views each device reports, so answered items are not served again.
type Handlers struct {
	fixtures *Fixtures
	version  string
	now      func() time.Time

	mu    sync.RWMutex
	views []models.ViewReport
}

// NewHandlers creates a new handlers instance
func NewHandlers(fixtures *Fixtures, version string) *Handlers {
	if fixtures == nil {
		fixtures = &Fixtures{}
	}
	return &Handlers{
		fixtures: fixtures,
		version:  version,
		now:      time.Now,
	}
}

// UpdateCheck handles update check requests
// GET /api/v1/notify/updates
func (h *Handlers) UpdateCheck(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	current := q.Get("current_version")
	if current == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "current_version is required")
		return
	}
	old := q.Get("old_version")
	if old == "" {
		old = current
	}

	var payload models.UpdateCheckPayload
	if nv := h.fixtures.NewerVersion; nv != nil && models.IsVersionGreater(nv.Version, current) {
		payload.NewerVersion = nv
	}
	if models.IsVersionGreater(current, old) {
		for i := range h.fixtures.Changelogs {
			cl := &h.fixtures.Changelogs[i]
			if models.CompareVersions(cl.Version, current) == models.Equal {
				payload.NewInVersion = cl
				break
			}
		}
	}

	h.writeJSONResponse(w, http.StatusOK, models.Envelope[models.UpdateCheckPayload]{Data: payload})
}

// Messages lists the messages the device has not viewed yet
// GET /api/v1/notify/messages
func (h *Handlers) Messages(w http.ResponseWriter, r *http.Request) {
	guid := r.URL.Query().Get("guid")

	messages := make([]models.Message, 0, len(h.fixtures.Messages))
	for _, m := range h.fixtures.Messages {
		if !h.viewed(guid, func(v models.ViewReport) bool { return v.Kind == models.KindMessage && v.MessageID == m.ID }) {
			messages = append(messages, m)
		}
	}

	h.writeJSONResponse(w, http.StatusOK, models.Envelope[[]models.Message]{Data: messages})
}

// RateReminder returns the configured reminder unless the device answered it
// GET /api/v1/notify/rate_reminder
func (h *Handlers) RateReminder(w http.ResponseWriter, r *http.Request) {
	guid := r.URL.Query().Get("guid")
	reminder := h.fixtures.RateReminder
	if reminder == nil || h.viewed(guid, func(v models.ViewReport) bool { return v.Kind == models.KindRateReminder }) {
		h.writeErrorResponse(w, http.StatusNotFound, models.ErrorCodeNotFound, "no rate reminder due")
		return
	}
	h.writeJSONResponse(w, http.StatusOK, models.Envelope[*models.RateReminder]{Data: reminder})
}

// UpdateViews records an answered update or what's-new
// POST /api/v1/notify/updates/views
func (h *Handlers) UpdateViews(w http.ResponseWriter, r *http.Request) {
	h.recordView(w, r, models.KindUpdate)
}

// MessageViews records a read message
// POST /api/v1/notify/messages/views
func (h *Handlers) MessageViews(w http.ResponseWriter, r *http.Request) {
	h.recordView(w, r, models.KindMessage)
}

// RateReminderViews records a rate reminder answer
// POST /api/v1/notify/rate_reminder/views
func (h *Handlers) RateReminderViews(w http.ResponseWriter, r *http.Request) {
	h.recordView(w, r, models.KindRateReminder)
}

// ListViews returns every recorded view, optionally filtered by guid
// GET /api/v1/notify/views
func (h *Handlers) ListViews(w http.ResponseWriter, r *http.Request) {
	guid := r.URL.Query().Get("guid")

	h.mu.RLock()
	views := make([]models.ViewReport, 0, len(h.views))
	for _, v := range h.views {
		if guid == "" || v.GUID == guid {
			views = append(views, v)
		}
	}
	h.mu.RUnlock()

	h.writeJSONResponse(w, http.StatusOK, models.Envelope[[]models.ViewReport]{Data: views})
}

// Views returns a copy of the recorded views.
func (h *Handlers) Views() []models.ViewReport {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]models.ViewReport(nil), h.views...)
}

// HealthCheck reports the stub as healthy
// GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSONResponse(w, http.StatusOK, models.HealthCheckResponse{
		Status:    models.StatusHealthy,
		Timestamp: h.now(),
		Version:   h.version,
	})
}

func (h *Handlers) recordView(w http.ResponseWriter, r *http.Request, kind models.Kind) {
	if err := r.ParseForm(); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, "invalid form body")
		return
	}

	now := h.now().UTC()
	report := models.ViewReport{
		GUID:      strings.TrimSpace(r.PostForm.Get("guid")),
		Kind:      kind,
		Platform:  r.PostForm.Get("platform"),
		MessageID: r.PostForm.Get("message_id"),
		Type:      r.PostForm.Get("type"),
		Answer:    r.PostForm.Get("answer"),
		ViewedAt:  &now,
	}
	if report.GUID == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "guid is required")
		return
	}

	switch kind {
	case models.KindUpdate:
		id, err := strconv.ParseInt(r.PostForm.Get("update_id"), 10, 64)
		if err != nil {
			h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "update_id must be an integer")
			return
		}
		report.UpdateID = id
		if report.Type == "new_in_version" {
			report.Kind = models.KindWhatsNew
		}
	case models.KindMessage:
		if report.MessageID == "" {
			h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "message_id is required")
			return
		}
	case models.KindRateReminder:
		if !models.RateAnswer(report.Answer).Valid() {
			h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "answer must be yes, later or no")
			return
		}
	}

	h.mu.Lock()
	h.views = append(h.views, report)
	h.mu.Unlock()

	slog.Debug("View recorded", "kind", report.Kind, "guid", report.GUID)
	h.writeJSONResponse(w, http.StatusCreated, models.Envelope[models.ViewReport]{Data: report})
}

// viewed reports whether guid has a recorded view matching match.
func (h *Handlers) viewed(guid string, match func(models.ViewReport) bool) bool {
	if guid == "" {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, v := range h.views {
		if v.GUID == guid && match(v) {
			return true
		}
	}
	return false
}

// writeJSONResponse writes a JSON response
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written; nothing more can be sent.
		slog.Error("Error encoding JSON response", "error", err)
	}
}

// writeErrorResponse writes an error response
func (h *Handlers) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) {
	h.writeJSONResponse(w, statusCode, models.NewErrorResponse(message, errorCode))
}
