package feed

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/MADMAX-9999/reb20app/internal/config"
	"github.com/MADMAX-9999/reb20app/internal/market"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client downloads price and inflation tables over HTTP.
type Client struct {
	client   *resty.Client
	currency string
	logger   *zap.Logger
	limiter  *rate.Limiter
	// backoff is the base wait between retries, doubled on every attempt.
	backoff time.Duration
}

// NewClient creates a new feed client.
func NewClient(cfg *config.Feed, logger *zap.Logger) *Client {
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		client:   resty.New().SetHeader("Accept", "text/csv"),
		currency: cfg.Currency,
		logger:   logger.Named("feed"),
		limiter:  rate.NewLimiter(limit, burst),
		backoff:  time.Second,
	}
}

// FetchPrices downloads and decodes a price table.
func (c *Client) FetchPrices(ctx context.Context, url string) (*market.Series, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}
	series, err := DecodePrices(bytes.NewReader(body), c.currency)
	if err != nil {
		return nil, fmt.Errorf("failed to decode prices from %s: %w", url, err)
	}
	c.logger.Info("Fetched price table", zap.String("url", url), zap.Int("rows", series.Len()))
	return series, nil
}

// FetchInflation downloads and decodes an inflation table.
func (c *Client) FetchInflation(ctx context.Context, url string) (market.Inflation, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch inflation: %w", err)
	}
	inflation, err := DecodeInflation(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to decode inflation from %s: %w", url, err)
	}
	c.logger.Info("Fetched inflation table", zap.String("url", url), zap.Int("years", len(inflation)))
	return inflation, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, url, c.client.R().SetContext(ctx))
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil
		}

		var retryAfter time.Duration
		if err == nil {
			// Only rate limiting and server errors are worth another attempt.
			switch status := resp.StatusCode(); {
			case status == http.StatusTooManyRequests:
				if seconds, err := strconv.Atoi(resp.Header().Get("Retry-After")); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			case status >= 500:
			default:
				return nil, fmt.Errorf("request failed with status %s", resp.Status())
			}
			err = fmt.Errorf("status %s", resp.Status())
		} else if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if retryAfter == 0 {
			retryAfter = time.Duration(math.Pow(2, float64(i))) * c.backoff
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}
