// Package client provides an HTTP client for the carewatch server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/carewatch/internal/metrics"
	"github.com/raphaelgruber/carewatch/internal/models"
	"github.com/raphaelgruber/carewatch/internal/monitor"
	"github.com/raphaelgruber/carewatch/internal/service"
)

// ErrUnauthorized is returned when the server rejects the session token.
var ErrUnauthorized = errors.New("not logged in or session expired")

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error: %d %s", e.Status, e.Message)
}

// Client talks to the carewatch HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a new client.
// If baseURL is empty, uses CAREWATCH_SERVER_URL or defaults to localhost:8585.
// Timeout can be configured via CAREWATCH_CLIENT_TIMEOUT (default 1m).
func New(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("CAREWATCH_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8585"
	}

	timeout := time.Minute
	if t := os.Getenv("CAREWATCH_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetToken replaces the session token used for authenticated calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

type errorBody struct {
	Error string `json:"error"`
}

// do sends a request and decodes a JSON response into result (if non-nil).
// An io.Writer result receives the raw body instead.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var eb errorBody
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &eb) == nil && eb.Error != "" {
			msg = eb.Error
		}
		apiErr := &APIError{Status: resp.StatusCode, Message: msg}
		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: %w", ErrUnauthorized, apiErr)
		}
		return apiErr
	}

	if w, ok := result.(io.Writer); ok {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
		return nil
	}
	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	return c.do(ctx, method, path, body, "application/json", out)
}

// =============================================================================
// ACCOUNTS
// =============================================================================

// Signup creates an account.
func (c *Client) Signup(ctx context.Context, in models.SignupInput) (*models.Profile, error) {
	var p models.Profile
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/signup", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Login authenticates and stores the returned token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*service.Session, error) {
	var s service.Session
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", models.LoginInput{Email: email, Password: password}, &s); err != nil {
		return nil, err
	}
	c.token = s.Token
	return &s, nil
}

// Me returns the logged-in user's profile.
func (c *Client) Me(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// =============================================================================
// CARETAKERS
// =============================================================================

// AddCaretaker adds a caretaker.
func (c *Client) AddCaretaker(ctx context.Context, in models.CaretakerInput) (*models.CaretakerView, error) {
	var ct models.CaretakerView
	if err := c.doJSON(ctx, http.MethodPost, "/api/caretakers", in, &ct); err != nil {
		return nil, err
	}
	return &ct, nil
}

// ListCaretakers lists the user's caretakers.
func (c *Client) ListCaretakers(ctx context.Context) ([]models.CaretakerView, error) {
	var list []models.CaretakerView
	if err := c.doJSON(ctx, http.MethodGet, "/api/caretakers", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// DeleteCaretaker removes a caretaker by id.
func (c *Client) DeleteCaretaker(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/caretakers/"+url.PathEscape(id), nil, nil)
}

// =============================================================================
// REMINDERS
// =============================================================================

// ReminderQuery selects reminders. A zero Date with All false means today.
type ReminderQuery struct {
	Date  string // YYYY-MM-DD
	All   bool
	Types []string
	Sent  string // all, yes, no
	Ack   string // all, yes, no
}

func (q ReminderQuery) values() url.Values {
	v := url.Values{}
	if q.Date != "" {
		v.Set("date", q.Date)
	}
	if q.All {
		v.Set("all", "true")
	}
	for _, t := range q.Types {
		v.Add("type", t)
	}
	if q.Sent != "" {
		v.Set("sent", q.Sent)
	}
	if q.Ack != "" {
		v.Set("ack", q.Ack)
	}
	return v
}

// ListReminders lists reminders matching q.
func (c *Client) ListReminders(ctx context.Context, q ReminderQuery) ([]models.ReminderView, error) {
	path := "/api/reminders"
	if enc := q.values().Encode(); enc != "" {
		path += "?" + enc
	}
	var list []models.ReminderView
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// AddReminder schedules a reminder.
func (c *Client) AddReminder(ctx context.Context, in models.ReminderInput) (*models.ReminderView, error) {
	var r models.ReminderView
	if err := c.doJSON(ctx, http.MethodPost, "/api/reminders", in, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// AckReminder marks a reminder acknowledged.
func (c *Client) AckReminder(ctx context.Context, id string) (*models.ReminderView, error) {
	var r models.ReminderView
	if err := c.doJSON(ctx, http.MethodPost, "/api/reminders/"+url.PathEscape(id)+"/ack", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ImportReminders uploads a reminder sheet.
func (c *Client) ImportReminders(ctx context.Context, csv io.Reader) (*service.ImportResult, error) {
	var res service.ImportResult
	if err := c.do(ctx, http.MethodPost, "/api/reminders/import", csv, "text/csv", &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ExportReminders writes the user's reminder sheet to w.
func (c *Client) ExportReminders(ctx context.Context, w io.Writer) error {
	return c.do(ctx, http.MethodGet, "/api/reminders/export", nil, "", w)
}

// =============================================================================
// MONITORS
// =============================================================================

// MonitorInfo describes a loaded monitor.
type MonitorInfo struct {
	Kind     string   `json:"kind"`
	Features []string `json:"features"`
}

// ListMonitors lists the monitors the server has models for.
func (c *Client) ListMonitors(ctx context.Context) ([]MonitorInfo, error) {
	var list []MonitorInfo
	if err := c.doJSON(ctx, http.MethodGet, "/api/monitors", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CheckHealth runs a vital-signs reading through the health monitor.
func (c *Client) CheckHealth(ctx context.Context, r monitor.HealthReading) (*monitor.Outcome, error) {
	return c.check(ctx, models.MonitorHealth, r)
}

// CheckSafety runs a motion reading through the safety monitor.
func (c *Client) CheckSafety(ctx context.Context, r monitor.SafetyReading) (*monitor.Outcome, error) {
	return c.check(ctx, models.MonitorSafety, r)
}

func (c *Client) check(ctx context.Context, kind string, reading any) (*monitor.Outcome, error) {
	var out monitor.Outcome
	if err := c.doJSON(ctx, http.MethodPost, "/api/monitors/"+kind, reading, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// ALERTS, DEVICES, STATS
// =============================================================================

// ListAlerts returns the most recent alerts, newest first.
func (c *Client) ListAlerts(ctx context.Context, limit int) ([]models.AlertEvent, error) {
	path := "/api/alerts"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var list []models.AlertEvent
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ScanDevices asks the server to scan for nearby Bluetooth devices.
func (c *Client) ScanDevices(ctx context.Context, timeout time.Duration) ([]models.Device, error) {
	path := "/api/devices/scan"
	if timeout > 0 {
		path += "?timeout=" + url.QueryEscape(timeout.String())
	}
	var list []models.Device
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Stats returns server runtime statistics.
func (c *Client) Stats(ctx context.Context) (*metrics.Snapshot, error) {
	var s metrics.Snapshot
	if err := c.doJSON(ctx, http.MethodGet, "/api/stats", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// =============================================================================
// LIVE ALERTS
// =============================================================================

// WatchAlerts streams the user's alerts until ctx is cancelled or the
// connection drops. Return an error from onAlert to stop watching.
func (c *Client) WatchAlerts(ctx context.Context, onAlert func(models.AlertEvent) error) error {
	wsURL := c.baseURL
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)

	u, err := url.Parse(wsURL + "/api/alerts/ws")
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}
	// Browsers cannot set headers on websocket requests, so the server also
	// reads the token from the query string.
	u.RawQuery = url.Values{"token": {c.token}}.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return ErrUnauthorized
		}
		return fmt.Errorf("websocket connect: %w", err)
	}

	var mu sync.Mutex
	closed := false
	closeConn := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			conn.Close()
		}
	}
	defer closeConn()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	for {
		var ev models.AlertEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read alert: %w", err)
		}
		if err := onAlert(ev); err != nil {
			return err
		}
	}
}
