// Package api is the client of the remote finance REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"

	"fintrack/internal/log"
	"fintrack/internal/middleware/trace"
)

// TokenSource supplies the bearer token for outgoing calls. It reports false
// when no session is authenticated.
type TokenSource interface {
	Token() (string, bool)
}

type (
	Option func(*Client)

	// Client wraps a resty client bound to the finance API base URL.
	Client struct {
		rest       *resty.Client
		tokens     TokenSource
		logger     *log.Logger
		newBackOff func() backoff.BackOff
	}
)

// Config holds the connection settings of the finance API.
type Config struct {
	BaseURL         string
	Timeout         time.Duration
	RetryMaxElapsed time.Duration
}

// New creates a Client for cfg.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		rest: resty.New().
			SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
			SetTimeout(cfg.Timeout).
			SetHeader("Accept", "application/json"),
		logger:     log.Discard(),
		newBackOff: exponentialBackOff(cfg.RetryMaxElapsed),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.rest.OnBeforeRequest(c.decorateRequest)
	c.rest.OnAfterResponse(c.logResponse)
	c.rest.OnError(c.logError)

	return c
}

// WithTokenSource attaches the session token to every call.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger.WithComponent(log.ComponentAPI)
		}
	}
}

// WithBackOff overrides the retry policy of idempotent calls.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(c *Client) {
		if newBackOff != nil {
			c.newBackOff = newBackOff
		}
	}
}

func exponentialBackOff(maxElapsed time.Duration) func() backoff.BackOff {
	return func() backoff.BackOff {
		if maxElapsed <= 0 {
			return &backoff.StopBackOff{}
		}
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = 200 * time.Millisecond
		eb.MaxInterval = 2 * time.Second
		eb.MaxElapsedTime = maxElapsed
		return eb
	}
}

func (c *Client) decorateRequest(_ *resty.Client, req *resty.Request) error {
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.SetAuthToken(token)
		}
	}
	if id := trace.GetRequestID(req.Context()); id != "" {
		req.SetHeader(trace.HeaderRequestID, id)
	}
	return nil
}

func (c *Client) logResponse(_ *resty.Client, resp *resty.Response) error {
	args := []any{
		log.FieldMethod, resp.Request.Method,
		log.FieldURL, resp.Request.URL,
		log.FieldStatusCode, resp.StatusCode(),
		log.FieldDuration, resp.Time().Milliseconds(),
	}
	if resp.StatusCode() >= http.StatusInternalServerError {
		c.logger.ErrorContext(resp.Request.Context(), "API call completed with internal error", args...)
	} else {
		c.logger.DebugContext(resp.Request.Context(), "API call completed", args...)
	}
	return nil
}

func (c *Client) logError(req *resty.Request, err error) {
	c.logger.WarnContext(req.Context(), "API call failed",
		log.FieldMethod, req.Method,
		log.FieldURL, req.URL,
		log.FieldError, err)
}

type call struct {
	method     string
	path       string
	pathParams map[string]string
	body       any
	out        any
	// bestEffort ignores a response body that does not decode into out.
	bestEffort bool
}

// do runs one call. GETs are retried on transport errors and 5xx answers;
// 4xx answers are final.
func (c *Client) do(ctx context.Context, cl call) error {
	op := func() error {
		req := c.rest.R().SetContext(ctx)
		if len(cl.pathParams) > 0 {
			req.SetPathParams(cl.pathParams)
		}
		if cl.body != nil {
			req.SetHeader("Content-Type", "application/json").SetBody(cl.body)
		}

		resp, err := req.Execute(cl.method, cl.path)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
		}

		if resp.IsError() {
			se := statusError(resp)
			if !se.Temporary() {
				return backoff.Permanent(se)
			}
			return se
		}

		if cl.out == nil {
			return nil
		}
		body := bytes.TrimSpace(resp.Body())
		if len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, cl.out); err != nil {
			if cl.bestEffort {
				return nil
			}
			return backoff.Permanent(fmt.Errorf("decode %s %s: %w", cl.method, cl.path, err))
		}
		return nil
	}

	if cl.method != http.MethodGet {
		err := op()
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return perm.Err
		}
		return err
	}

	attempt := 0
	return backoff.RetryNotify(op, backoff.WithContext(c.newBackOff(), ctx), func(err error, wait time.Duration) {
		attempt++
		c.logger.WarnContext(ctx, "Retrying API call",
			log.FieldURL, cl.path,
			log.FieldAttempt, attempt,
			"wait", wait.String(),
			log.FieldError, err)
	})
}

func statusError(resp *resty.Response) *StatusError {
	return &StatusError{
		Code:    resp.StatusCode(),
		Message: errorMessage(resp.Body()),
		Err:     sentinelFor(resp.StatusCode()),
	}
}

// errorMessage extracts a message from typical API error bodies:
// {"message": ...}, {"error": ...} or plain text.
func errorMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if body[0] == '{' && json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		return payload.Error
	}
	if body[0] == '<' {
		return ""
	}
	return truncateUTF8(string(body), maxErrorMessage)
}

const maxErrorMessage = 200

// truncateUTF8 cuts s to at most n bytes without splitting a character.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Ping reports whether the API answers at all. Any HTTP answer counts.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.rest.R().SetContext(ctx).Head("/")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
