// Package openfoodfacts is a client for the Open Food Facts product API.
package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/TVimala/Packaged-Food-Rating-App/internal/domain"
	"github.com/TVimala/Packaged-Food-Rating-App/internal/logging"
)

// Defaults applied by NewClient for zero Config fields
const (
	DefaultBaseURL           = "https://world.openfoodfacts.org"
	DefaultUserAgent         = "FoodScore/1.0 (https://github.com/TVimala/Packaged-Food-Rating-App)"
	DefaultTimeout           = 15 * time.Second
	DefaultRequestsPerMinute = 60
	DefaultMaxRetries        = 3
	DefaultRetryBackoff      = 500 * time.Millisecond
	DefaultPageSize          = 10
	maxPageSize              = 100
	maxErrorBody             = 512
)

// Config configures the Open Food Facts client
type Config struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerMinute int
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Client handles communication with the Open Food Facts API
type Client struct {
	httpClient   *http.Client
	baseURL      string
	userAgent    string
	rateLimiter  *rate.Limiter
	maxRetries   int
	retryBackoff time.Duration
	logger       *slog.Logger
}

// NewClient creates a new Open Food Facts client
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}

	// Open Food Facts asks API users to stay well below 100 requests per minute
	limiter := rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 5)

	return &Client{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:    cfg.UserAgent,
		rateLimiter:  limiter,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		logger:       logging.New("openfoodfacts"),
	}
}

// GetProduct looks a product up by barcode
func (c *Client) GetProduct(ctx context.Context, barcode string) (*domain.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, domain.ErrInvalidRequest
	}

	reqURL := fmt.Sprintf("%s/api/v0/product/%s.json", c.baseURL, url.PathEscape(barcode))

	var resp productResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, err
	}
	if resp.Status != 1 || resp.Product == nil {
		c.logger.Info("product not found", "barcode", barcode, "status", resp.StatusVerbose)
		return nil, domain.ErrProductNotFound
	}

	return mapProduct(resp.Product, barcode), nil
}

// SearchProducts runs a full-text product search. pageSize <= 0 uses the
// default; results keep the API's order.
func (c *Client) SearchProducts(ctx context.Context, query string, pageSize int) ([]domain.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidRequest
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pageSize = min(pageSize, maxPageSize)

	params := url.Values{}
	params.Set("search_terms", query)
	params.Set("search_simple", "1")
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page_size", strconv.Itoa(pageSize))
	reqURL := fmt.Sprintf("%s/cgi/search.pl?%s", c.baseURL, params.Encode())

	var resp searchResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, err
	}
	if len(resp.Products) == 0 {
		c.logger.Info("no products found", "query", query)
		return nil, domain.ErrProductNotFound
	}

	products := make([]domain.Product, 0, len(resp.Products))
	for i := range resp.Products {
		products = append(products, *mapProduct(&resp.Products[i], ""))
	}
	c.logger.Debug("search completed", "query", query, "count", len(products))
	return products, nil
}

// getJSON GETs reqURL and decodes the body into out. Transport errors and
// 5xx/429 responses are retried with exponential backoff; 404 maps to
// ErrProductNotFound and other 4xx fail immediately.
func (c *Client) getJSON(ctx context.Context, reqURL string, out any) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, exponentialBackoff(c.retryBackoff, attempt-1)); err != nil {
				return err
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		body, status, err := c.doRequest(ctx, reqURL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("request failed", "attempt", attempt, "error", err)
			lastErr = err
			continue
		}

		switch {
		case status == http.StatusOK:
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("%w: decode response: %v", domain.ErrUpstreamFailure, err)
			}
			return nil
		case status == http.StatusNotFound:
			return domain.ErrProductNotFound
		case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
			c.logger.Warn("retryable status", "attempt", attempt, "status", status, "body", truncate(body))
			lastErr = fmt.Errorf("%w: status %d", domain.ErrUpstreamFailure, status)
		default:
			return fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamFailure, status, truncate(body))
		}
	}

	c.logger.Error("all retries failed", "url", reqURL, "error", lastErr)
	return lastErr
}

// doRequest executes an HTTP GET request with proper headers
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read body: %v", domain.ErrUpstreamFailure, err)
	}
	return body, resp.StatusCode, nil
}

// exponentialBackoff returns base * 2^(retry-1)
func exponentialBackoff(base time.Duration, retry int) time.Duration {
	if retry < 1 {
		return base
	}
	return base << (retry - 1)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody])
	}
	return string(body)
}
