package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nutrilog/backend/internal/domain"
	"github.com/nutrilog/backend/internal/infrastructure/usda"
	"go.uber.org/zap"
)

var nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)

// LookupServiceConfig holds configuration for the lookup service
type LookupServiceConfig struct {
	CacheTTL               time.Duration
	MinConfidenceThreshold float64
	EnableFuzzyMatching    bool
	EnableDebugLogging     bool
	DefaultSource          string
}

// LookupResult is a provider result together with how it was obtained.
type LookupResult struct {
	Result domain.ProviderNutritionResult `json:"result"`
	Match  *domain.MatchResult            `json:"match,omitempty"`
	Cached bool                           `json:"cached"`
}

// LookupService fetches nutrition from external providers with caching
type LookupService struct {
	cache           domain.CacheRepository
	usdaClient      domain.USDAClient
	estimator       domain.NutritionEstimator
	matchingService *MatchingService
	cacheTTL        time.Duration
	defaultSource   string
	logger          *zap.Logger
}

// NewLookupService creates a lookup service. usdaClient or estimator may be
// nil, in which case requests for that source fail with ErrUnknownSource.
func NewLookupService(
	cache domain.CacheRepository,
	usdaClient domain.USDAClient,
	estimator domain.NutritionEstimator,
	config LookupServiceConfig,
	logger *zap.Logger,
) *LookupService {
	if logger == nil {
		logger = zap.NewNop()
	}

	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 720 * time.Hour
	}

	defaultSource := config.DefaultSource
	if defaultSource == "" {
		defaultSource = domain.SourceUSDA
	}

	return &LookupService{
		cache:      cache,
		usdaClient: usdaClient,
		estimator:  estimator,
		matchingService: NewMatchingService(MatchConfig{
			MinConfidenceThreshold: config.MinConfidenceThreshold,
			EnableFuzzyMatching:    config.EnableFuzzyMatching,
			EnableDebugLogging:     config.EnableDebugLogging,
		}, logger),
		cacheTTL:      cacheTTL,
		defaultSource: defaultSource,
		logger:        logger.Named("lookup"),
	}
}

// Lookup returns provider nutrition for the request.
// Flow: check cache -> query the source -> validate -> cache -> return.
// A low-confidence USDA match is returned together with ErrLowConfidence and
// is not cached.
func (s *LookupService) Lookup(ctx context.Context, request *domain.LookupRequest) (*LookupResult, error) {
	if request == nil || strings.TrimSpace(request.ProductName) == "" {
		return nil, domain.ErrInvalidRequest
	}

	source := s.resolveSource(request.Source)
	cacheKey := generateCacheKey(source, request)

	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		s.logger.Debug("cache hit", zap.String("key", cacheKey))
		cached.Cached = true
		return cached, nil
	}

	var (
		result *LookupResult
		err    error
	)
	switch source {
	case domain.SourceUSDA:
		result, err = s.lookupUSDA(ctx, request)
	case domain.SourceEstimate:
		result, err = s.lookupEstimate(ctx, request)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSource, source)
	}

	lowConfidence := errors.Is(err, domain.ErrLowConfidence)
	if err != nil && !lowConfidence {
		return nil, err
	}

	if verr := result.Result.Validate(); verr != nil {
		s.logger.Warn("provider returned invalid nutrition",
			zap.String("source", source),
			zap.String("product", request.ProductName),
			zap.Error(verr))
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, verr)
	}
	result.Result = result.Result.Normalized()

	if lowConfidence {
		return result, err
	}

	if err := s.setInCache(ctx, cacheKey, result); err != nil {
		s.logger.Warn("failed to cache lookup result", zap.String("key", cacheKey), zap.Error(err))
	}
	return result, nil
}

func (s *LookupService) resolveSource(source string) string {
	source = strings.ToLower(strings.TrimSpace(source))
	if source == "" {
		return s.defaultSource
	}
	return source
}

func (s *LookupService) lookupUSDA(ctx context.Context, request *domain.LookupRequest) (*LookupResult, error) {
	if s.usdaClient == nil {
		return nil, fmt.Errorf("%w: usda is not configured", domain.ErrUnknownSource)
	}

	query := buildSearchQuery(request)
	searchResult, err := s.usdaClient.SearchFoods(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) || errors.Is(err, domain.ErrProviderFailure) ||
			errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	if searchResult == nil || len(searchResult.Foods) == 0 {
		return nil, domain.ErrProductNotFound
	}

	match, err := s.matchingService.FindBestMatch(ctx, request, searchResult.Foods)
	if err != nil && !(errors.Is(err, domain.ErrLowConfidence) && match != nil) {
		return nil, err
	}
	if err != nil {
		s.logger.Info("low confidence match",
			zap.String("query", query),
			zap.String("description", match.Description),
			zap.Float64("score", match.MatchScore))
	}

	food := findFood(searchResult.Foods, match.FdcID)
	if food == nil {
		return nil, domain.ErrProductNotFound
	}

	return &LookupResult{
		Result: usda.MapToProviderResult(food),
		Match:  match,
	}, err
}

func (s *LookupService) lookupEstimate(ctx context.Context, request *domain.LookupRequest) (*LookupResult, error) {
	if s.estimator == nil {
		return nil, fmt.Errorf("%w: estimator is not configured", domain.ErrUnknownSource)
	}

	estimate, err := s.estimator.Estimate(ctx, request)
	if err != nil {
		return nil, err
	}
	if estimate.DataKind == "" {
		estimate.DataKind = domain.DataKindEstimated
	}
	return &LookupResult{Result: *estimate}, nil
}

func findFood(foods []domain.USDAFood, fdcID int) *domain.USDAFood {
	for i := range foods {
		if foods[i].FdcID == fdcID {
			return &foods[i]
		}
	}
	return nil
}

// generateCacheKey builds "nutrition:{source}:{name}:{brand}" from normalized parts.
// Estimates are made for the requested serving and may come back without a
// serving pair, so their key also carries "{size}:{unit}".
func generateCacheKey(source string, request *domain.LookupRequest) string {
	key := fmt.Sprintf("nutrition:%s:%s:%s",
		source,
		normalizeForCacheKey(request.ProductName),
		normalizeForCacheKey(request.Brand))
	if source == domain.SourceEstimate {
		key += fmt.Sprintf(":%s:%s",
			strconv.FormatFloat(request.ServingSize, 'f', -1, 64),
			domain.NormalizeUnit(request.ServingUnit))
	}
	return key
}

func normalizeForCacheKey(s string) string {
	result := nonAlphanumericRegex.ReplaceAllString(strings.ToLower(s), "")
	result = multipleSpacesRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

func (s *LookupService) getFromCache(ctx context.Context, key string) (*LookupResult, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}
	payload, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var result LookupResult
	if err := json.Unmarshal(payload, &result); err != nil {
		s.logger.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		_ = s.cache.Delete(ctx, key)
		return nil, domain.ErrCacheMiss
	}
	return &result, nil
}

func (s *LookupService) setInCache(ctx context.Context, key string, result *LookupResult) error {
	if s.cache == nil {
		return nil
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, payload, s.cacheTTL)
}
