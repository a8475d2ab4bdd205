package quoteapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prxgr4mmer/price-resolver/internal/domain"
	"github.com/prxgr4mmer/price-resolver/internal/ports"
	"github.com/prxgr4mmer/price-resolver/pkg/retry"
)

const defaultServiceKey = "GOOGLE_SCRIPT"

// Client implements the QuoteProvider interface against the bulk quote
// endpoint: POST {"symbols": [...]} returning a flat map from qualified
// symbol to price.
type Client struct {
	httpClient *http.Client
	baseURL    string
	serviceKey string
	retryConf  retry.Config
	logger     *slog.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the endpoint URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithServiceKey sets the upstream identifier recorded as the price source
func WithServiceKey(key string) ClientOption {
	return func(c *Client) {
		if key != "" {
			c.serviceKey = key
		}
	}
}

// WithRetry configures retry and per-attempt timeout behavior
func WithRetry(cfg retry.Config) ClientOption {
	return func(c *Client) {
		c.retryConf = cfg
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger.With("component", "quoteapi_client")
	}
}

// NewClient creates a new quote endpoint client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{},
		serviceKey: defaultServiceKey,
		retryConf:  retry.DefaultConfig(),
		logger:     slog.Default().With("component", "quoteapi_client"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ServiceKey identifies the upstream for rate limiting and source stamping
func (c *Client) ServiceKey() string {
	return c.serviceKey
}

type quotesRequest struct {
	Symbols []string `json:"symbols"`
}

// FetchQuotes fetches current prices for the qualified symbols in one bulk
// request. Retryable failures (network errors, 429, 5xx, attempt timeouts)
// are absorbed up to the configured attempt limit; a malformed response is
// terminal. Symbols missing from the response map are not an error.
func (c *Client) FetchQuotes(ctx context.Context, qualifiedSymbols []string) (map[string]decimal.Decimal, error) {
	if len(qualifiedSymbols) == 0 {
		return nil, nil
	}

	return retry.DoWithResult(ctx, c.retryConf, func(ctx context.Context) (map[string]decimal.Decimal, error) {
		body, err := json.Marshal(quotesRequest{Symbols: qualifiedSymbols})
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Debug("request failed, will retry", "error", err)
			return nil, retry.NewRetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			c.logger.Warn("rate limited by upstream")
			return nil, retry.NewRetryableError(domain.ErrRateLimited)
		}

		if resp.StatusCode >= 500 {
			c.logger.Warn("upstream server error", "status", resp.StatusCode)
			return nil, retry.NewRetryableError(domain.ErrUpstreamUnavailable)
		}

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			c.logger.Error("unexpected response",
				"status", resp.StatusCode,
				"body", string(respBody))
			return nil, domain.ErrInvalidResponse
		}

		return c.decodeQuotes(resp.Body)
	})
}

// decodeQuotes parses the flat symbol->price map. Values that are not
// numeric are skipped, not fatal: a partial response is a normal outcome.
func (c *Client) decodeQuotes(r io.Reader) (map[string]decimal.Decimal, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		c.logger.Error("failed to decode response", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidResponse, err)
	}

	quotes := make(map[string]decimal.Decimal, len(raw))
	for symbol, value := range raw {
		num, ok := value.(json.Number)
		if !ok {
			c.logger.Warn("non-numeric price in response", "symbol", symbol)
			continue
		}

		price, err := decimal.NewFromString(num.String())
		if err != nil {
			c.logger.Warn("invalid price format", "symbol", symbol, "price", num.String())
			continue
		}
		quotes[symbol] = price
	}

	return quotes, nil
}

// Ping checks if the quote endpoint is reachable
func (c *Client) Ping(ctx context.Context) error {
	cfg := c.retryConf
	cfg.AttemptTimeout = 5 * time.Second

	return retry.Do(ctx, cfg, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.NewRetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.NewRetryableError(domain.ErrUpstreamUnavailable)
		}

		return nil
	})
}

// Ensure Client implements QuoteProvider
var _ ports.QuoteProvider = (*Client)(nil)
