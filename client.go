package webpubsub

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const apiVersion = "2023-07-01"

const (
	defaultTokenTTL    = time.Hour
	defaultMaxAttempts = 3
	defaultRetryMin    = 100 * time.Millisecond
	defaultRetryMax    = 5 * time.Second
	defaultRetryJitter = 0.5
)

type ClientConfig struct {
	HTTPClient *http.Client

	// Validity of the per-request access token.
	TokenTTL time.Duration

	// Total number of attempts per call, the first one included.
	MaxAttempts int

	// Exponential backoff between attempts.
	RetryMin    time.Duration
	RetryMax    time.Duration
	RetryJitter float32

	Debug DebugFunc
}

// Client talks to the Web PubSub data plane over REST. It implements
// ServiceClient.
type Client struct {
	endpoint   *url.URL
	hub        string
	accessKey  []byte
	httpClient *http.Client

	tokenTTL    time.Duration
	maxAttempts int
	retryMin    time.Duration
	retryMax    time.Duration
	retryJitter float32

	debug DebugFunc
}

var _ ServiceClient = (*Client)(nil)

func NewClient(endpoint, hub, accessKey string, config *ClientConfig) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("webpubsub: invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("webpubsub: invalid endpoint scheme: %q", u.Scheme)
	}
	if hub == "" {
		return nil, fmt.Errorf("webpubsub: hub cannot be empty")
	}
	if accessKey == "" {
		return nil, fmt.Errorf("webpubsub: access key cannot be empty")
	}

	if config == nil {
		config = new(ClientConfig)
	}
	c := &Client{
		endpoint:    u,
		hub:         hub,
		accessKey:   []byte(accessKey),
		httpClient:  config.HTTPClient,
		tokenTTL:    config.TokenTTL,
		maxAttempts: config.MaxAttempts,
		retryMin:    config.RetryMin,
		retryMax:    config.RetryMax,
		retryJitter: config.RetryJitter,
		debug:       config.Debug,
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.tokenTTL <= 0 {
		c.tokenTTL = defaultTokenTTL
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = defaultMaxAttempts
	}
	if c.retryMin <= 0 {
		c.retryMin = defaultRetryMin
	}
	if c.retryMax <= 0 {
		c.retryMax = defaultRetryMax
	}
	if c.retryJitter == 0 {
		c.retryJitter = defaultRetryJitter
	}
	if c.debug == nil {
		c.debug = NoopDebugFunc
	}
	return c, nil
}

func NewClientFromConnectionString(connString, hub string, config *ClientConfig) (*Client, error) {
	endpoint, accessKey, err := parseConnectionString(connString)
	if err != nil {
		return nil, err
	}
	return NewClient(endpoint.String(), hub, accessKey, config)
}

func (c *Client) AddConnectionToGroup(ctx context.Context, group, connectionID string) error {
	u := c.endpoint.JoinPath("api", "hubs", c.hub, "groups", group, "connections", connectionID)
	return c.do(ctx, http.MethodPut, u, nil, nil, "")
}

func (c *Client) RemoveConnectionFromGroup(ctx context.Context, group, connectionID string) error {
	u := c.endpoint.JoinPath("api", "hubs", c.hub, "groups", group, "connections", connectionID)
	return c.do(ctx, http.MethodDelete, u, nil, nil, "")
}

func (c *Client) SendToAll(ctx context.Context, payload []byte, opts SendToAllOptions) error {
	u := c.endpoint.JoinPath("api", "hubs", c.hub, ":send")
	query := url.Values{}
	if opts.Filter != "" {
		query.Set("filter", opts.Filter)
	}
	contentType := opts.ContentType
	if contentType == "" {
		contentType = "text/plain"
	}
	return c.do(ctx, http.MethodPost, u, query, payload, contentType)
}

func (c *Client) do(ctx context.Context, method string, u *url.URL, query url.Values, body []byte, contentType string) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", apiVersion)
	u.RawQuery = query.Encode()

	token, err := c.accessToken(audienceOf(u))
	if err != nil {
		return fmt.Errorf("webpubsub: sign token: %w", err)
	}

	retry := newBackoff(c.retryMin, c.retryMax, c.retryJitter)
	var lastErr error

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retry.duration()):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("webpubsub: build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("ms-client-request-id", uuid.NewString())
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		c.debug("client: request", method, u.String())
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			c.debug("client: request failed", err)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil
		}

		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		serviceErr := &ServiceError{
			StatusCode: resp.StatusCode,
			RequestID:  resp.Header.Get("x-ms-request-id"),
			Body:       strings.TrimSpace(string(respBody)),
		}
		if !retryable(resp.StatusCode) {
			return serviceErr
		}
		lastErr = serviceErr
		c.debug("client: retryable response", resp.StatusCode)
	}

	return fmt.Errorf("webpubsub: request failed after %d attempts: %w", c.maxAttempts, lastErr)
}

func retryable(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// accessToken signs a short-lived JWT with the hub's access key. The
// audience is the request URL without its query string.
func (c *Client) accessToken(audience string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.accessKey)
}

func audienceOf(u *url.URL) string {
	audience := *u
	audience.RawQuery = ""
	return audience.String()
}
