// Package ebay implements gateway.Gateway over the marketplace's REST
// APIs (sell inventory, analytics, marketing, negotiation, browse).
package ebay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"

	"github.com/flipflow/flipflow/internal/config"
	"github.com/flipflow/flipflow/internal/gateway"
	"github.com/flipflow/flipflow/internal/pkg/httpretry"
)

const (
	sandboxBaseURL    = "https://api.sandbox.ebay.com"
	productionBaseURL = "https://api.ebay.com"

	// Throttle responses can ask for long waits, so the retry cap is
	// well above the default 30s.
	maxRetryDelay = 300 * time.Second
)

// Client is the live marketplace gateway. All calls go through the
// daily quota limiter and the retrying HTTP client.
type Client struct {
	http    httpretry.Doer
	token   oauth2.TokenSource
	quota   *QuotaLimiter
	baseURL string

	marketplaceID       string
	fulfillmentPolicyID string
}

// New builds a client for the configured mode. Mode "mock" is rejected;
// callers wire mock.Gateway themselves. redisClient may be nil, which
// drops quota tracking to process-local.
func New(cfg config.EbayConfig, redisClient *redis.Client) (*Client, error) {
	var baseURL string
	switch cfg.Mode {
	case "sandbox":
		baseURL = sandboxBaseURL
	case "production":
		baseURL = productionBaseURL
	default:
		return nil, fmt.Errorf("ebay: unsupported mode %q", cfg.Mode)
	}

	inner := &http.Client{Timeout: cfg.Timeout()}
	return &Client{
		http:                httpretry.New(inner, 3, httpretry.WithMaxDelay(maxRetryDelay)),
		token:               newTokenSource(context.Background(), cfg, baseURL),
		quota:               NewQuotaLimiter(redisClient, cfg.DailyCallLimit),
		baseURL:             baseURL,
		marketplaceID:       cfg.MarketplaceID,
		fulfillmentPolicyID: cfg.FulfillmentPolicyID,
	}, nil
}

// Quota exposes the limiter for the API's usage endpoint.
func (c *Client) Quota() *QuotaLimiter { return c.quota }

// apiError is the marketplace's error envelope.
type apiError struct {
	Errors []struct {
		ErrorID  int    `json:"errorId"`
		Message  string `json:"message"`
		LongMsg  string `json:"longMessage"`
		Category string `json:"category"`
	} `json:"errors"`
}

func (e apiError) message() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		if item.Message != "" {
			msgs = append(msgs, item.Message)
		}
	}
	if len(msgs) == 0 {
		return "unknown error"
	}
	return strings.Join(msgs, "; ")
}

// call executes one API request: quota check, bearer token, JSON round
// trip, status classification. out may be nil for empty responses.
func (c *Client) call(ctx context.Context, op, method, path string, body, out any) error {
	if err := c.quota.Allow(ctx); err != nil {
		return err
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return gateway.WrapError(gateway.KindAPI, op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return gateway.WrapError(gateway.KindAPI, op, err)
	}

	tok, err := c.token.Token()
	if err != nil {
		return gateway.WrapError(gateway.KindAuth, op, err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", c.marketplaceID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return gateway.WrapError(gateway.KindTransport, op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return gateway.WrapError(gateway.KindTransport, op, err)
	}

	if resp.StatusCode >= 400 {
		return classify(op, resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return gateway.WrapError(gateway.KindAPI, op, err)
		}
	}
	return nil
}

// classify maps an HTTP failure status to a typed gateway error.
func classify(op string, status int, body []byte) *gateway.Error {
	var env apiError
	_ = json.Unmarshal(body, &env)
	msg := env.message()

	if strings.Contains(strings.ToLower(msg), "duplicate") {
		return gateway.NewError(gateway.KindDuplicate, op, msg)
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return gateway.NewError(gateway.KindAuth, op, msg)
	case http.StatusNotFound:
		return gateway.NewError(gateway.KindNotFound, op, msg)
	case http.StatusTooManyRequests:
		return gateway.NewError(gateway.KindRateLimit, op, msg)
	case http.StatusConflict:
		return gateway.NewError(gateway.KindDuplicate, op, msg)
	default:
		return gateway.NewError(gateway.KindAPI, op, fmt.Sprintf("status %d: %s", status, msg))
	}
}
