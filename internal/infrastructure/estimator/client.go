package estimator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nutrilog/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 1 << 20

const systemPrompt = `You estimate nutrition facts for foods. Reply with ONLY a JSON object:
{"calories": number|null, "protein": number|null, "carbs": number|null, "fat": number|null,
 "saturatedFat": number|null, "transFat": number|null, "fiber": number|null, "sugar": number|null,
 "sodium": number|null, "cholesterol": number|null,
 "servingSize": number|null, "servingUnit": string|null, "confidence": "low"|"medium"|"high"}
Grams for macros, milligrams for sodium and cholesterol, kcal for calories.
Use null for anything you cannot estimate. servingSize/servingUnit state the serving the values describe.`

// Message is one chat turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// estimate is the JSON shape the model is asked to produce
type estimate struct {
	domain.NutritionFact
	ServingSize domain.Amount     `json:"servingSize"`
	ServingUnit *string           `json:"servingUnit"`
	Confidence  domain.Confidence `json:"confidence"`
}

// Config configures the estimation client
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// PerMinute caps outgoing requests; zero means 60.
	PerMinute int
}

// Client asks an OpenAI-compatible chat completions endpoint for nutrition estimates
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// NewClient creates an estimator client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	perMinute := cfg.PerMinute
	if perMinute <= 0 {
		perMinute = 60
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60), 5),
		logger:      logger.Named("estimator"),
	}
}

// Estimate returns an estimated nutrition result for the requested food
func (c *Client) Estimate(ctx context.Context, request *domain.LookupRequest) (*domain.ProviderNutritionResult, error) {
	if request == nil || strings.TrimSpace(request.ProductName) == "" {
		return nil, domain.ErrInvalidRequest
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: estimator API key not configured", domain.ErrProviderFailure)
	}

	content, err := c.chat(ctx, []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt(request)},
	})
	if err != nil {
		return nil, err
	}

	est, err := parseEstimate(content)
	if err != nil {
		c.logger.Warn("unparseable estimate", zap.String("food", request.ProductName), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}

	result := &domain.ProviderNutritionResult{
		NutritionFact: est.NutritionFact,
		DataKind:      domain.DataKindEstimated,
		Confidence:    est.Confidence,
		SourceLabel:   fmt.Sprintf("Estimated (%s)", c.model),
	}
	if est.ServingSize.Present() && est.ServingUnit != nil && strings.TrimSpace(*est.ServingUnit) != "" {
		result.ResultServingSize = est.ServingSize
		result.ResultServingUnit = strings.TrimSpace(*est.ServingUnit)
	}

	c.logger.Debug("estimate received",
		zap.String("food", request.ProductName),
		zap.String("confidence", string(result.Confidence)),
		zap.Bool("hasServing", result.HasServing()))
	return result, nil
}

func userPrompt(request *domain.LookupRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Food: %s", request.ProductName)
	if request.Brand != "" {
		fmt.Fprintf(&b, "\nBrand: %s", request.Brand)
	}
	if request.ServingSize > 0 && request.ServingUnit != "" {
		fmt.Fprintf(&b, "\nServing: %s %s",
			strconv.FormatFloat(request.ServingSize, 'f', -1, 64), request.ServingUnit)
	}
	return b.String()
}

func (c *Client) chat(ctx context.Context, messages []Message) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   400,
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", domain.ErrProviderFailure, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: %w", domain.ErrProviderFailure, domain.ErrRateLimited)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrProviderFailure, resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", domain.ErrProviderFailure, err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%w: no response choices returned", domain.ErrProviderFailure)
	}
	return chatResp.Choices[0].Message.Content, nil
}

// parseEstimate extracts the JSON object from a model reply, tolerating
// markdown fences and surrounding prose.
func parseEstimate(content string) (*estimate, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in reply")
	}

	var est estimate
	if err := json.Unmarshal([]byte(content[start:end+1]), &est); err != nil {
		return nil, fmt.Errorf("decode estimate: %w", err)
	}
	switch est.Confidence {
	case domain.ConfidenceLow, domain.ConfidenceMedium, domain.ConfidenceHigh:
	default:
		est.Confidence = domain.ConfidenceLow
	}
	return &est, nil
}
