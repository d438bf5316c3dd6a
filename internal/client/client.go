// Package client talks to the remote notify API. It implements the
// notify.Fetcher and notify.ViewReporter collaborators over HTTP.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"notifier/internal/models"
	"notifier/internal/notify"
	"notifier/internal/version"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxErrorBody = 64 << 10

// Client is an HTTP client for the notify endpoints.
type Client struct {
	baseURL    *url.URL
	appID      string
	apiKey     string
	platform   string
	guid       string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for cfg. guid identifies this install and is sent
// with every request.
func New(cfg models.ClientConfig, guid string, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	var transport http.RoundTripper = http.DefaultTransport
	if cfg.Tracing {
		transport = otelhttp.NewTransport(transport)
	}

	c := &Client{
		baseURL:   base,
		appID:     cfg.AppID,
		apiKey:    cfg.APIKey,
		platform:  cfg.Platform,
		guid:      guid,
		userAgent: version.GetInfo().UserAgent(),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchUpdateCheck asks for newer versions and the installed version's changelog.
func (c *Client) FetchUpdateCheck(ctx context.Context, oldVersion, currentVersion string) (*models.UpdateCheckPayload, error) {
	query := c.baseQuery()
	query.Set("current_version", currentVersion)
	query.Set("old_version", oldVersion)

	var env models.Envelope[models.UpdateCheckPayload]
	if err := c.get(ctx, "notify/updates", query, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// FetchMessages returns the messages currently published for this app.
func (c *Client) FetchMessages(ctx context.Context) ([]models.Message, error) {
	var env models.Envelope[[]models.Message]
	if err := c.get(ctx, "notify/messages", c.baseQuery(), &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// FetchRateReminder returns the due rate reminder, or nil when there is none.
func (c *Client) FetchRateReminder(ctx context.Context) (*models.RateReminder, error) {
	var env models.Envelope[*models.RateReminder]
	if err := c.get(ctx, "notify/rate_reminder", c.baseQuery(), &env); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.NotFound() {
			return nil, nil
		}
		return nil, err
	}
	return env.Data, nil
}

// ReportView posts the answer to a resolved notification.
func (c *Client) ReportView(ctx context.Context, item models.Item, outcome models.Outcome) error {
	report, err := c.viewReport(item, outcome)
	if err != nil {
		return err
	}
	return c.postForm(ctx, viewPath(report.Kind), reportForm(report))
}

// viewReport builds the report sent for item.
func (c *Client) viewReport(item models.Item, outcome models.Outcome) (*models.ViewReport, error) {
	now := c.now().UTC()
	report := &models.ViewReport{GUID: c.guid, Kind: item.Kind(), ViewedAt: &now}

	switch it := models.Normalize(item).(type) {
	case models.UpdateAlert:
		report.UpdateID = it.VersionID
		report.Type = "newer_version"
		report.Answer = yesNo(outcome.Accepted)
	case models.WhatsNew:
		report.UpdateID = it.UpdateID
		report.Type = "new_in_version"
		report.Answer = "no"
	case models.MessageItem:
		report.MessageID = it.MessageID
	case models.RateReminderPrompt:
		report.Platform = c.platform
		report.Answer = string(outcome.Answer)
	default:
		return nil, fmt.Errorf("unsupported notification kind: %s", item.Kind())
	}
	return report, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func viewPath(kind models.Kind) string {
	switch kind {
	case models.KindMessage:
		return "notify/messages/views"
	case models.KindRateReminder:
		return "notify/rate_reminder/views"
	default:
		return "notify/updates/views"
	}
}

func reportForm(r *models.ViewReport) url.Values {
	form := url.Values{}
	form.Set("guid", r.GUID)
	if r.Platform != "" {
		form.Set("platform", r.Platform)
	}
	if r.UpdateID != 0 {
		form.Set("update_id", strconv.FormatInt(r.UpdateID, 10))
	}
	if r.MessageID != "" {
		form.Set("message_id", r.MessageID)
	}
	if r.Type != "" {
		form.Set("type", r.Type)
	}
	if r.Answer != "" {
		form.Set("answer", r.Answer)
	}
	return form
}

func (c *Client) baseQuery() url.Values {
	query := url.Values{}
	query.Set("guid", c.guid)
	query.Set("platform", c.platform)
	return query
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, query), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Application-Id", c.appID)
	req.Header.Set("X-Rest-Api-Key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Notify API request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		apiErr.Err = err
		return apiErr
	}

	var errResp models.ErrorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
		apiErr.Code = errResp.Code
		apiErr.Message = errResp.Message
	} else if text := strings.TrimSpace(string(body)); text != "" {
		apiErr.Message = text
	}
	return apiErr
}

// Ensure Client implements the notify collaborators
var (
	_ notify.Fetcher      = (*Client)(nil)
	_ notify.ViewReporter = (*Client)(nil)
)
