// Package client performs authenticated requests against the put.io API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fruitsalade/putio/internal/metrics"
	"github.com/fruitsalade/putio/pkg/protocol"
	"github.com/fruitsalade/putio/pkg/retry"
	"github.com/fruitsalade/putio/pkg/router"
	"github.com/fruitsalade/putio/pkg/session"
)

// DefaultUserAgent is sent when Config.UserAgent is empty.
const DefaultUserAgent = "putio-files-go/1.0"

// Config holds client configuration.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	RetryConfig retry.Config
	Session     *session.Session
	UserAgent   string
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// Client sends router endpoints to the API. It is safe for concurrent use.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	retryConfig retry.Config
	session     *session.Session
	userAgent   string
	log         *zap.Logger
}

// Response is a successful API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// JSON holds the body when it is a JSON object, with numbers kept as
	// json.Number.
	JSON map[string]any
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryConfig.MaxAttempts == 0 {
		cfg.RetryConfig = retry.Once()
	}
	if cfg.Session == nil {
		cfg.Session = session.Anonymous()
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}

	return &Client{
		baseURL:     router.New(cfg.BaseURL).Base(),
		httpClient:  httpClient,
		retryConfig: cfg.RetryConfig,
		session:     cfg.Session,
		userAgent:   cfg.UserAgent,
		log:         cfg.Logger,
	}
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns the session used to authenticate requests.
func (c *Client) Session() *session.Session {
	return c.session
}

// Do performs the request described by ep. Non-2xx statuses and transport
// failures are returned as *APIError. Only GET requests are retried, and only
// on transport and server errors.
func (c *Client) Do(ctx context.Context, ep router.Endpoint) (*Response, error) {
	cfg := c.retryConfig
	if ep.Method != http.MethodGet {
		cfg = retry.Once()
	}
	return retry.Do(ctx, cfg, func() (*Response, error) {
		resp, err := c.do(ctx, ep)
		if err != nil && (errors.Is(err, ErrTransport) || errors.Is(err, ErrServer)) && ctx.Err() == nil {
			return nil, retry.Retryable(err)
		}
		return resp, err
	})
}

func (c *Client) do(ctx context.Context, ep router.Endpoint) (*Response, error) {
	req, err := c.newRequest(ctx, ep)
	if err != nil {
		return nil, &APIError{Kind: ErrTransport, Route: ep.Name, Err: err}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		duration := time.Since(start)
		metrics.RecordRequest(ep.Name, 0, duration)
		c.log.Debug("api request failed",
			zap.String("route", ep.Name),
			zap.String("method", ep.Method),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, &APIError{Kind: ErrTransport, Route: ep.Name, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	metrics.RecordRequest(ep.Name, resp.StatusCode, duration)
	c.log.Debug("api request",
		zap.String("route", ep.Name),
		zap.String("method", ep.Method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", duration),
	)
	if err != nil {
		return nil, &APIError{Kind: ErrTransport, Route: ep.Name, StatusCode: resp.StatusCode, Err: err}
	}

	if !IsSuccess(resp.StatusCode) {
		apiErr := &APIError{
			Kind:       KindForStatus(resp.StatusCode),
			Route:      ep.Name,
			StatusCode: resp.StatusCode,
		}
		var errResp protocol.ErrorResponse
		if json.Unmarshal(body, &errResp) == nil {
			apiErr.Type = errResp.ErrorType
			apiErr.Message = errResp.ErrorMessage
		}
		return nil, apiErr
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		JSON:       decodeObject(body),
	}, nil
}

func (c *Client) newRequest(ctx context.Context, ep router.Endpoint) (*http.Request, error) {
	u, err := url.Parse(c.baseURL + "/" + strings.TrimLeft(ep.Path, "/"))
	if err != nil {
		return nil, err
	}
	if len(ep.Query) > 0 {
		q := u.Query()
		for k, v := range ep.Query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if len(ep.Form) > 0 {
		form := url.Values{}
		for k, v := range ep.Form {
			form.Set(k, v)
		}
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, ep.Method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	c.applyAuth(ctx, req)
	return req, nil
}

// applyAuth adds the auth header to a request if the session has a token.
func (c *Client) applyAuth(ctx context.Context, req *http.Request) {
	if token, ok := c.session.AccessToken(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func decodeObject(body []byte) map[string]any {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var obj map[string]any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return nil
	}
	return obj
}
