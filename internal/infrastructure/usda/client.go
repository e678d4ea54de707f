package usda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nutrilog/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	maxAttempts       = 3
	maxErrorBodyBytes = 4 << 10
	maxBodyBytes      = 8 << 20
	defaultPerHour    = 1000
)

// Client handles communication with the USDA FoodData Central API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
	debug       bool
}

// NewClient creates a new USDA API client limited to 1000 requests per hour
func NewClient(apiKey, baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: newLimiter(defaultPerHour),
		logger:      logger.Named("usda"),
	}
}

func newLimiter(perHour int) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(float64(perHour)/3600), 10)
}

// SetRateLimit replaces the hourly request budget
func (c *Client) SetRateLimit(perHour int) {
	if perHour > 0 {
		c.rateLimiter = newLimiter(perHour)
	}
}

// SetDebug toggles verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if c.debug {
		c.logger.Debug(fmt.Sprintf(format, args...))
	}
}

// exponentialBackoff returns the wait before retrying after the given attempt
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500<<(attempt-1)) * time.Millisecond
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// get executes a rate-limited GET, retrying transport errors, 429 and 5xx.
// It returns the body of a 200 response.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, exponentialBackoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", "NutriLog/1.0")

		c.debugLog("GET %s (attempt %d)", req.URL.Path, attempt)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("request failed", zap.Int("attempt", attempt), zap.Error(err))
			lastErr = fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
			continue
		}

		if resp.StatusCode == http.StatusOK {
			body, err := readLimitedBody(resp.Body, maxBodyBytes)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("%w: reading response: %v", domain.ErrProviderFailure, err)
			}
			return body, nil
		}

		body, _ := readLimitedBody(resp.Body, maxErrorBodyBytes)
		resp.Body.Close()
		c.logger.Warn("unexpected status",
			zap.Int("attempt", attempt),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, domain.ErrProductNotFound
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("%w: %w", domain.ErrProviderFailure, domain.ErrRateLimited)
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("%w: status %d", domain.ErrProviderFailure, resp.StatusCode)
		default:
			return nil, fmt.Errorf("%w: status %d, body: %s", domain.ErrProviderFailure, resp.StatusCode, string(body))
		}
	}

	c.logger.Warn("all retries failed", zap.String("path", reqURL))
	return nil, lastErr
}

// SearchFoods searches for foods in the USDA database
func (c *Client) SearchFoods(ctx context.Context, query string) (*domain.USDASearchResponse, error) {
	params := url.Values{}
	params.Add("query", query)
	params.Add("api_key", c.apiKey)
	params.Add("dataType", "Foundation,SR Legacy,Survey (FNDDS),Branded")
	params.Add("pageSize", "10")
	reqURL := fmt.Sprintf("%s/v1/foods/search?%s", c.baseURL, params.Encode())

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var searchResp domain.USDASearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(searchResp.Foods) == 0 {
		c.debugLog("no foods found for %q", query)
		return nil, domain.ErrProductNotFound
	}

	c.logger.Debug("search complete", zap.String("query", query), zap.Int("foods", len(searchResp.Foods)))
	return &searchResp, nil
}

// GetFoodDetails retrieves detailed nutrition information for a specific food by FDC ID
func (c *Client) GetFoodDetails(ctx context.Context, fdcID int) (*domain.USDAFood, error) {
	params := url.Values{}
	params.Add("api_key", c.apiKey)
	reqURL := fmt.Sprintf("%s/v1/food/%s?%s", c.baseURL, strconv.Itoa(fdcID), params.Encode())

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var food domain.USDAFood
	if err := json.Unmarshal(body, &food); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &food, nil
}
