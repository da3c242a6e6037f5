package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/estatehub/listingguard/internal/errors"
	"github.com/estatehub/listingguard/internal/logger"
	"github.com/estatehub/listingguard/internal/observability/metrics"
)

const (
	componentName = "catalog"

	// maxErrorBody caps how much of an error response is read and logged
	maxErrorBody = 4 << 10

	// maxResponseBody guards against runaway responses
	maxResponseBody = 8 << 20
)

// Client provides methods for interacting with the catalog API
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *metrics.CatalogMetrics
	log        logger.Logger
	firstCall  sync.Once
}

// NewClient creates a new catalog API client. log and m may be nil.
func NewClient(config Config, log logger.Logger, m *metrics.CatalogMetrics) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.Newf("catalog base URL is required").
			Category(errors.CategoryConfiguration).
			Component(componentName).
			Build()
	}
	if _, err := url.ParseRequestURI(config.BaseURL); err != nil {
		return nil, errors.Newf("invalid catalog base URL: %w", err).
			Category(errors.CategoryConfiguration).
			Component(componentName).
			Context("base_url", config.BaseURL).
			Build()
	}

	defaults := DefaultConfig()
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = defaults.RetryBackoff
	}
	if config.PageSize <= 0 {
		config.PageSize = defaults.PageSize
	}
	if config.MaxPages <= 0 {
		config.MaxPages = defaults.MaxPages
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), max(config.Burst, 1))
	}

	if log == nil {
		log = logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)
	}

	c := &Client{
		config:     config,
		httpClient: &http.Client{},
		limiter:    limiter,
		metrics:    m,
		log:        log,
	}

	c.log.Info("catalog client initialized",
		logger.String("base_url", config.BaseURL),
		logger.Duration("timeout", config.Timeout),
		logger.Float64("rate_limit", config.RateLimit),
		logger.Bool("api_key_configured", config.APIKey != ""))

	return c, nil
}

// Config returns the effective configuration after defaults were applied
func (c *Client) Config() Config {
	return c.config
}

// ListProjects fetches one page of projects. Pages are 1-based.
func (c *Client) ListProjects(ctx context.Context, page, limit int) (*ProjectPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if c.config.SaleStatus != "" {
		q.Set("saleStatus", c.config.SaleStatus)
	}
	reqURL := c.config.BaseURL + "/projects?" + q.Encode()

	var result ProjectPage
	if err := c.doRequestWithRetry(ctx, metrics.OpListProjects, reqURL, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetProject fetches the full record of one project.
func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.Newf("project id is required").
			Category(errors.CategoryValidation).
			Component(componentName).
			Build()
	}
	reqURL := c.config.BaseURL + "/projects/" + url.PathEscape(id)

	var result Project
	if err := c.doRequestWithRetry(ctx, metrics.OpGetProjectDetail, reqURL, &result); err != nil {
		return nil, err
	}
	if result.ID == "" {
		result.ID = id
	}
	return &result, nil
}

// doRequest performs one GET attempt under the per-request timeout
func (c *Client) doRequest(ctx context.Context, operation, reqURL string, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Newf("catalog rate limiter wait aborted: %w", err).
			Category(errors.CategoryLimit).
			Component(componentName).
			Context("operation", operation).
			Build()
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Component(componentName).
			Context("operation", operation).
			Build()
	}
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("X-Api-Key", c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		category := errors.CategoryNetwork
		if ctx.Err() != nil {
			category = errors.CategoryTimeout
		}
		return errors.Newf("catalog request failed: %w", err).
			Category(category).
			Component(componentName).
			Context("operation", operation).
			Context("url", reqURL).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.statusError(resp, operation, reqURL)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "application/json") {
		return errors.Newf("catalog returned non-JSON response (Content-Type: %s)", contentType).
			Category(errors.CategoryNetwork).
			Component(componentName).
			Context("operation", operation).
			Context("status_code", resp.StatusCode).
			Context("content_type", contentType).
			Build()
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(result); err != nil {
		return errors.Newf("failed to parse catalog response: %w", err).
			Category(errors.CategoryFileParsing).
			Component(componentName).
			Context("operation", operation).
			Context("url", reqURL).
			Build()
	}

	c.firstCall.Do(func() {
		c.log.Info("catalog API reachable", logger.String("first_successful_request", operation))
	})
	return nil
}

// statusError converts a >= 400 response into a categorized error
func (c *Client) statusError(resp *http.Response, operation, reqURL string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	detail := strings.TrimSpace(string(body))
	var apiErr APIError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Detail != "" {
		detail = apiErr.Detail
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.log.Error("catalog API authentication failed",
			logger.Int("status_code", resp.StatusCode),
			logger.String("operation", operation),
			logger.Bool("api_key_configured", c.config.APIKey != ""))
	}

	return errors.Newf("catalog API error (status %d): %s", resp.StatusCode, detail).
		Category(getErrorCategory(resp.StatusCode)).
		Component(componentName).
		Context("operation", operation).
		Context("status_code", resp.StatusCode).
		Context("url", reqURL).
		Build()
}

// doRequestWithRetry wraps doRequest with linear backoff for transient failures
func (c *Client) doRequestWithRetry(ctx context.Context, operation, reqURL string, result any) error {
	start := time.Now()
	var lastErr error

	for attempt := range c.config.MaxRetries {
		if attempt > 0 {
			c.metrics.RecordRetry(operation)
		}

		lastErr = c.doRequest(ctx, operation, reqURL, result)
		if lastErr == nil {
			c.metrics.RecordRequest(operation, metrics.StatusSuccess, time.Since(start).Seconds())
			return nil
		}

		if !isRetryable(lastErr) || ctx.Err() != nil {
			break
		}

		if attempt < c.config.MaxRetries-1 {
			delay := time.Duration(attempt+1) * c.config.RetryBackoff
			c.log.Warn("catalog request failed, retrying",
				logger.String("operation", operation),
				logger.Int("attempt", attempt+1),
				logger.Int("max_retries", c.config.MaxRetries),
				logger.Duration("delay", delay),
				logger.Error(lastErr))

			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				c.recordFailure(operation, lastErr, start)
				return lastErr
			}
		}
	}

	c.recordFailure(operation, lastErr, start)
	return lastErr
}

func (c *Client) recordFailure(operation string, err error, start time.Time) {
	c.metrics.RecordRequest(operation, metrics.StatusError, time.Since(start).Seconds())
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		c.metrics.RecordError(operation, string(ee.Category))
	}
}

// isRetryable reports whether a failed attempt may succeed when repeated
func isRetryable(err error) bool {
	var ee *errors.EnhancedError
	if !errors.As(err, &ee) {
		return true
	}

	switch ee.Category {
	case errors.CategoryConfiguration, errors.CategoryNotFound, errors.CategoryValidation, errors.CategoryFileParsing:
		return false
	}

	if statusCode, ok := ee.GetContext()["status_code"].(int); ok {
		if statusCode >= 400 && statusCode < 500 && statusCode != http.StatusTooManyRequests {
			return false
		}
	}
	return true
}

// getErrorCategory determines the error category from an HTTP status code
func getErrorCategory(statusCode int) errors.ErrorCategory {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.CategoryConfiguration
	case http.StatusTooManyRequests:
		return errors.CategoryLimit
	case http.StatusNotFound:
		return errors.CategoryNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return errors.CategoryValidation
	default:
		return errors.CategoryNetwork
	}
}
