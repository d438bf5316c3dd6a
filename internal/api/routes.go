package api

import (
	"encoding/json"
	"net/http"
	"notifier/internal/models"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

// RouteOption configures optional route behavior.
type RouteOption func(*mux.Router)

// WithOTelMiddleware adds OpenTelemetry HTTP instrumentation middleware.
func WithOTelMiddleware(serviceName string) RouteOption {
	return func(r *mux.Router) {
		r.Use(otelmux.Middleware(serviceName,
			otelmux.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != "/health" &&
					r.URL.Path != "/api/v1/health" &&
					r.URL.Path != "/metrics"
			}),
		))
	}
}

// WithRateLimiter adds rate limiting middleware to the router.
func WithRateLimiter(middleware func(http.Handler) http.Handler) RouteOption {
	return func(r *mux.Router) {
		r.Use(middleware)
	}
}

// WithAuth requires the given application credentials on notify routes.
func WithAuth(appID, apiKey string) RouteOption {
	return func(r *mux.Router) {
		r.Use(authMiddleware(appID, apiKey))
	}
}

// SetupRoutes configures the HTTP routes of the stub notify API.
func SetupRoutes(handlers *Handlers, opts ...RouteOption) *mux.Router {
	router := mux.NewRouter()

	router.Use(recoveryMiddleware)
	router.Use(loggingMiddleware)

	for _, opt := range opts {
		opt(router)
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	notify := api.PathPrefix("/notify").Subrouter()
	notify.HandleFunc("/updates", handlers.UpdateCheck).Methods("GET")
	notify.HandleFunc("/updates/views", handlers.UpdateViews).Methods("POST")
	notify.HandleFunc("/messages", handlers.Messages).Methods("GET")
	notify.HandleFunc("/messages/views", handlers.MessageViews).Methods("POST")
	notify.HandleFunc("/rate_reminder", handlers.RateReminder).Methods("GET")
	notify.HandleFunc("/rate_reminder/views", handlers.RateReminderViews).Methods("POST")
	notify.HandleFunc("/views", handlers.ListViews).Methods("GET")

	router.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	api.HandleFunc("/health", handlers.HealthCheck).Methods("GET")

	// Subrouters answer method mismatches themselves; mux does not bubble
	// them up to the root router.
	for _, r := range []*mux.Router{router, api, notify} {
		r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowedHandler)
	}
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, models.NewErrorResponse("Not found", models.ErrorCodeNotFound))
	})

	return router
}

// methodNotAllowedHandler handles requests with invalid HTTP methods
func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, models.NewErrorResponse("Method not allowed", models.ErrorCodeInvalidRequest))
}

func writeError(w http.ResponseWriter, status int, resp *models.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
