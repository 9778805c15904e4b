package rpc

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/JonMunkholm/gridform/internal/dataservice"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	APIKey     string
	Certs      string
	KeyInfo    string
	Debug      bool
	Logger     *slog.Logger
}

// Client is an HTTP transport implementing both dataservice.StructuredCaller
// and dataservice.LegacyCaller.
type Client struct {
	http    *resty.Client
	certs   string
	keyInfo string
}

var (
	_ dataservice.StructuredCaller = (*Client)(nil)
	_ dataservice.LegacyCaller     = (*Client)(nil)
)

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// NewClient creates a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetLogger(restyLogger{logger})

	if cfg.APIKey != "" {
		client.SetHeader(HeaderAPIKey, cfg.APIKey)
	}
	client.AddRetryCondition(retryCondition)
	client.SetDebug(cfg.Debug)

	return &Client{
		http:    client,
		certs:   cfg.Certs,
		keyInfo: cfg.KeyInfo,
	}, nil
}

// CallStructured posts a named function call.
func (c *Client) CallStructured(ctx context.Context, call dataservice.Call) (dataservice.Envelope, error) {
	return c.post(ctx, call.Path, Request{
		Certs:    c.certs,
		KeyInfo:  c.keyInfo,
		FuncName: call.FuncName,
		Params:   call.Params,
		SaveData: call.Payload,
	})
}

// CallLegacy posts a call without a function name; the server picks the
// page's default function.
func (c *Client) CallLegacy(ctx context.Context, path string, params, payload []any) (dataservice.Envelope, error) {
	return c.post(ctx, path, Request{
		Certs:    c.certs,
		KeyInfo:  c.keyInfo,
		Params:   params,
		SaveData: payload,
	})
}

func (c *Client) post(ctx context.Context, path string, req Request) (dataservice.Envelope, error) {
	form, err := req.FormData()
	if err != nil {
		return nil, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", path, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("call %s: %w", path, &StatusError{
			StatusCode: resp.StatusCode(),
			Body:       truncate(string(resp.Body()), 200),
		})
	}

	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}
	env, err := dataservice.ParseEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", path, err)
	}
	return env, nil
}

// retryCondition retries network errors, 429 and 5xx responses, except for
// saves, which are not idempotent.
func retryCondition(r *resty.Response, err error) bool {
	if r != nil && r.Request != nil && r.Request.FormData.Has(FieldSaveData) {
		return false
	}
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

type restyLogger struct {
	l *slog.Logger
}

func (r restyLogger) Errorf(format string, v ...any) { r.l.Error(fmt.Sprintf(format, v...)) }
func (r restyLogger) Warnf(format string, v ...any)  { r.l.Warn(fmt.Sprintf(format, v...)) }
func (r restyLogger) Debugf(format string, v ...any) { r.l.Debug(fmt.Sprintf(format, v...)) }
