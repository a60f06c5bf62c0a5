// Package backend is the REST client of the external attendance backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/okian/absensi/internal/domain/model"
	"github.com/okian/absensi/pkg/logger"
	"github.com/okian/absensi/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultTimeout = 10 * time.Second
	refreshSkew    = 30 * time.Second
	maxErrorBody   = 4 << 10
)

// Client talks to the attendance backend. It is safe for concurrent use.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	timeout  time.Duration
	username string
	password string
	loc      *time.Location
	clock    func() time.Time
	logger   logger.Logger

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// New creates a client for the API rooted at baseURL, e.g.
// http://localhost:8000/api.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, baseURL)
	}

	c := &Client{
		baseURL: u,
		timeout: defaultTimeout,
		loc:     time.Local,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("backend")
	}
	return c, nil
}

// Login exchanges the configured credentials for a bearer token.
func (c *Client) Login(ctx context.Context) error {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/auth/login", nil), strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out loginResponse
	if err := c.send(req, "login", &out); err != nil {
		return err
	}
	if out.AccessToken == "" {
		return fmt.Errorf("%w: login returned no token", ErrDecode)
	}
	c.mu.Lock()
	c.setToken(out.AccessToken)
	expiry := c.expiry
	c.mu.Unlock()

	c.logger.Info(ctx, "logged in to attendance backend", logger.Time("token_expiry", expiry))
	return nil
}

// Classes lists every class name.
func (c *Client) Classes(ctx context.Context) ([]string, error) {
	var out classesResponse
	if err := c.call(ctx, http.MethodGet, "/reports/classes", nil, nil, "classes", &out); err != nil {
		return nil, err
	}
	return out.Classes, nil
}

// ClassSchedule returns a class's late threshold configuration.
func (c *Client) ClassSchedule(ctx context.Context, className string) (model.ClassSchedule, error) {
	var out model.ClassSchedule
	path := "/class-schedules/" + url.PathEscape(className)
	if err := c.call(ctx, http.MethodGet, path, nil, nil, "class_schedule", &out); err != nil {
		return model.ClassSchedule{}, err
	}
	return out, nil
}

// ClassAttendance returns every student of className with their status on
// date.
func (c *Client) ClassAttendance(ctx context.Context, date, className string) ([]model.StudentStatus, error) {
	q := url.Values{}
	q.Set("date", date)
	q.Set("class_name", className)

	var raw []studentStatus
	if err := c.call(ctx, http.MethodGet, "/attendance/class-attendance", q, nil, "class_attendance", &raw); err != nil {
		return nil, err
	}

	out := make([]model.StudentStatus, 0, len(raw))
	for _, r := range raw {
		rec, err := r.model(c.loc)
		if err != nil {
			return nil, fmt.Errorf("student %d: %w", r.StudentID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// BatchUpdate writes changed statuses in one request.
func (c *Client) BatchUpdate(ctx context.Context, req model.BatchUpdate) (model.BatchResult, error) {
	var out model.BatchResult
	if err := c.call(ctx, http.MethodPost, "/attendance/batch-update", nil, req, "batch_update", &out); err != nil {
		return model.BatchResult{}, err
	}
	return out, nil
}

// Scan submits a scanned token.
func (c *Client) Scan(ctx context.Context, token string) (model.ScanResult, error) {
	var out model.ScanResult
	if err := c.call(ctx, http.MethodPost, "/attendance/scan", nil, scanRequest{Token: token}, "scan", &out); err != nil {
		return model.ScanResult{}, err
	}
	return out, nil
}

// call performs an authenticated JSON request. A 401 drops the token; when
// credentials are configured the request is retried once after a fresh
// login.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body any, endpoint string, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode %s request: %w", endpoint, err)
		}
	}

	for attempt := 0; ; attempt++ {
		token, err := c.bearer(ctx)
		if err != nil {
			return err
		}

		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), rd)
		if err != nil {
			return fmt.Errorf("build %s request: %w", endpoint, err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if id := logger.RequestID(ctx); id != "" {
			req.Header.Set("X-Request-ID", id)
		}

		err = c.send(req, endpoint, out)
		if !errors.Is(err, ErrUnauthorized) {
			return err
		}
		c.clearToken(token)
		if attempt > 0 || !c.canLogin() {
			return err
		}
		c.logger.Info(ctx, "backend token rejected, logging in again", logger.String("endpoint", endpoint))
	}
}

// send executes req and decodes a 2xx JSON body into out.
func (c *Client) send(req *http.Request, endpoint string, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordBackendRequest(endpoint, "error", float64(time.Since(start).Milliseconds()))
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, endpoint, err)
	}
	defer resp.Body.Close()
	metrics.RecordBackendRequest(endpoint, strconv.Itoa(resp.StatusCode), float64(time.Since(start).Milliseconds()))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(endpoint, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, endpoint, err)
	}
	return nil
}

func statusError(endpoint string, resp *http.Response) error {
	se := &StatusError{Endpoint: endpoint, Code: resp.StatusCode}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		se.Err = ErrUnauthorized
	case http.StatusNotFound:
		se.Err = ErrNotFound
	default:
		se.Err = ErrBackend
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var er errorResponse
	if json.Unmarshal(body, &er) == nil {
		se.Detail = er.detail()
	}
	return se
}

// endpoint joins an already escaped path onto the base URL.
func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// bearer returns a token that is not about to expire, logging in first
// when credentials allow it.
func (c *Client) bearer(ctx context.Context) (string, error) {
	c.mu.Lock()
	token, expiry := c.token, c.expiry
	c.mu.Unlock()

	fresh := token != "" && (expiry.IsZero() || c.clock().Add(refreshSkew).Before(expiry))
	if fresh || !c.canLogin() {
		return token, nil
	}
	if err := c.Login(ctx); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, nil
}

func (c *Client) canLogin() bool { return c.username != "" }

// setToken stores token and reads its expiry. The signature is not
// checked; the backend does that. Callers hold c.mu or own c exclusively.
func (c *Client) setToken(token string) {
	c.token = token
	c.expiry = time.Time{}
	if token == "" {
		return
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		c.expiry = exp.Time
	}
}

// clearToken drops the token unless another goroutine already replaced it.
func (c *Client) clearToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == token {
		c.token = ""
		c.expiry = time.Time{}
	}
}

// Token returns the current bearer token and its expiry, zero if unknown.
func (c *Client) Token() (string, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, c.expiry
}
