// Package client is the single outbound path to the backend REST API. It
// attaches the session token, decodes responses and classifies failures
// into the apierr taxonomy.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wisekey/langcenter/internal/apierr"
	"github.com/wisekey/langcenter/internal/logger"
	"github.com/wisekey/langcenter/internal/response"
	"github.com/wisekey/langcenter/internal/session"
)

const maxBodyBytes = 8 << 20

// UnauthorizedFunc runs once each time a session is ended by a 401.
type UnauthorizedFunc func(ctx context.Context)

// Client talks JSON to the backend.
type Client struct {
	baseURL string
	http    *http.Client
	store   *session.Store
	log     zerolog.Logger

	mu             sync.RWMutex
	onUnauthorized UnauthorizedFunc
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithUnauthorizedHook sets the hook fired when a 401 ends the session or
// arrives on a request sent without a token.
func WithUnauthorizedHook(fn UnauthorizedFunc) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New creates a Client rooted at baseURL (e.g. http://localhost:8080/api).
func New(baseURL string, timeout time.Duration, store *session.Store, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		store:   store,
		log:     logger.Component(log, "client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnUnauthorized replaces the unauthorized hook. It lets the navigator be
// wired after the client exists.
func (c *Client) OnUnauthorized(fn UnauthorizedFunc) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// ─── Request options ───────────────────────────────────────────────────

type request struct {
	public bool
	query  url.Values
}

// RequestOption tunes a single call.
type RequestOption func(*request)

// Public marks a credential exchange (login, register): no bearer token is
// sent and a 401 means the credentials were rejected, not that the session
// expired.
func Public() RequestOption {
	return func(r *request) { r.public = true }
}

// Query adds a query-string parameter.
func Query(key, value string) RequestOption {
	return func(r *request) {
		if r.query == nil {
			r.query = url.Values{}
		}
		r.query.Add(key, value)
	}
}

// ─── Verbs ─────────────────────────────────────────────────────────────

func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodPut, path, body, out, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out, opts...)
}

// Do performs one request. A non-nil out receives the decoded payload of a
// 2xx response; every failure is an *apierr.Error.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	var r request
	for _, opt := range opts {
		opt(&r)
	}

	target := c.baseURL + path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &apierr.Error{Kind: apierr.ErrServer, Message: "Unable to encode the request.", Err: err}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &apierr.Error{Kind: apierr.ErrServer, Message: "Unable to build the request.", Err: err}
	}

	reqID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(response.HeaderRequestID, reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	var token string
	if !r.public {
		token = c.store.Token()
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("request_id", reqID).Str("method", method).Str("path", path).Msg("Request failed")
		return &apierr.Error{Kind: apierr.ErrNetwork, Message: "Unable to reach the server.", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &apierr.Error{Kind: apierr.ErrNetwork, Status: resp.StatusCode, Message: "Connection lost while reading the response.", Err: err}
	}

	c.log.Debug().
		Str("request_id", reqID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("Request completed")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return decodeSuccess(raw, out)
	}

	apiErr := classify(resp.StatusCode, raw, r.public)
	if apiErr.Kind == apierr.ErrUnauthorized {
		c.handleUnauthorized(ctx, token)
	}
	return apiErr
}

// handleUnauthorized ends the session that produced the 401. Only the
// caller that actually clears it fires the hook, so N concurrent 401s
// redirect once. A 401 on a request sent without a token has no session to
// clear and always fires the hook.
func (c *Client) handleUnauthorized(ctx context.Context, token string) {
	if token == "" {
		c.log.Info().Msg("Login required, redirecting to login")
	} else {
		cleared, err := c.store.ClearIfToken(context.WithoutCancel(ctx), token)
		if err != nil {
			c.log.Error().Err(err).Msg("Failed to clear session after 401")
		}
		if !cleared {
			return
		}
		c.log.Info().Msg("Session expired, redirecting to login")
	}

	c.mu.RLock()
	hook := c.onUnauthorized
	c.mu.RUnlock()
	if hook != nil {
		hook(ctx)
	}
}

// ─── Decoding ──────────────────────────────────────────────────────────

// unwrap returns the envelope when raw is a {data,error,metadata} document.
func unwrap(raw []byte) (*response.Envelope, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, false
	}
	if _, ok := probe["metadata"]; !ok {
		return nil, false
	}
	_, hasData := probe["data"]
	_, hasErr := probe["error"]
	if !hasData && !hasErr {
		return nil, false
	}
	var env response.Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, false
	}
	return &env, true
}

func decodeSuccess(raw []byte, out any) error {
	if out == nil {
		return nil
	}
	payload := raw
	if env, ok := unwrap(raw); ok {
		payload = env.Data
	}
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || string(payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &apierr.Error{Kind: apierr.ErrServer, Code: response.ErrInternal, Message: "Unexpected response from server.", Err: err}
	}
	return nil
}

// rawError is the error body of backends that do not use the envelope.
type rawError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
	Errors  map[string]string `json:"errors"`
}

func classify(status int, raw []byte, public bool) *apierr.Error {
	e := &apierr.Error{Status: status}

	if env, ok := unwrap(raw); ok && env.Error != nil {
		e.Code = env.Error.Code
		e.Message = env.Error.Message
		e.Fields = env.Error.Fields
	} else {
		var body rawError
		if err := json.Unmarshal(raw, &body); err == nil {
			e.Code = response.ErrCode(body.Code)
			e.Message = body.Message
			if e.Message == "" {
				e.Message = body.Error
			}
			e.Fields = body.Fields
			if e.Fields == nil {
				e.Fields = body.Errors
			}
		} else if text := bytes.TrimSpace(raw); len(text) > 0 && len(text) < 512 {
			e.Message = string(text)
		}
	}

	switch {
	case status == http.StatusUnauthorized && public:
		e.Kind = apierr.ErrInvalidCredentials
		e.Code = response.ErrInvalidCredentials
		if e.Message == "" {
			e.Message = response.GetMessage(response.ErrInvalidCredentials)
		}
	case status == http.StatusUnauthorized:
		e.Kind = apierr.ErrUnauthorized
		if e.Code == "" {
			e.Code = response.ErrTokenInvalid
		}
	case status == http.StatusForbidden:
		e.Kind = apierr.ErrForbidden
	case status == http.StatusNotFound:
		e.Kind = apierr.ErrNotFound
	case status >= 500:
		e.Kind = apierr.ErrServer
	default:
		e.Kind = apierr.ErrValidation
	}

	if e.Message == "" {
		if e.Code != "" {
			e.Message = response.GetMessage(e.Code)
		} else {
			e.Message = http.StatusText(status)
		}
	}
	return e
}
