package usecase

import (
	"context"
	"regexp"
	"strings"

	"github.com/nutrilog/backend/internal/domain"
	"go.uber.org/zap"
)

var (
	punctuationRegex    = regexp.MustCompile(`[^\w\s]`)
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
	// sizePatternRegex matches quantities like "128 fl oz", "16.9oz" or "2 lb".
	sizePatternRegex = regexp.MustCompile(
		`(?i)\b\d+\.?\d*\s*(?:fl\s*oz|oz|ml|liters?|l|gallons?|gal|lbs?|pounds?|kg|grams?|g|ct|count|pk|pack|qt|pt)\b`,
	)
)

// Scoring weights and bonuses, on a 0-100 scale.
const (
	nameCoverageWeight  = 0.60
	descCoverageWeight  = 0.20
	jaccardWeight       = 0.20
	fuzzyMatchCredit    = 0.8
	brandMatchBonus     = 15.0
	substringMatchBonus = 10.0
	dataTypeBonus       = 5.0
)

// stopWords are dropped from both sides before comparing.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "of": true,
	"in": true, "with": true, "for": true, "to": true, "by": true, "from": true,
	"oz": true, "fl": true, "lb": true, "lbs": true, "ml": true, "kg": true,
	"gram": true, "grams": true, "cup": true, "cups": true, "tbsp": true, "tsp": true,
	"pack": true, "count": true, "ct": true, "pk": true, "bag": true, "box": true,
	"bottle": true, "can": true, "jar": true, "size": true, "value": true,
	"serving": true, "servings": true, "each": true, "per": true, "new": true,
}

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	MinConfidenceThreshold float64
	EnableFuzzyMatching    bool
	FuzzyEditDistance      int
	EnableDebugLogging     bool
}

// MatchingService picks the provider food that best describes a catalog food
type MatchingService struct {
	minConfidenceThreshold float64
	enableFuzzyMatching    bool
	fuzzyEditDistance      int
	enableDebugLogging     bool
	logger                 *zap.Logger
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig, logger *zap.Logger) *MatchingService {
	threshold := config.MinConfidenceThreshold
	if threshold <= 0 {
		threshold = 40.0
	}

	fuzzyDist := config.FuzzyEditDistance
	if fuzzyDist <= 0 {
		fuzzyDist = 1
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &MatchingService{
		minConfidenceThreshold: threshold,
		enableFuzzyMatching:    config.EnableFuzzyMatching,
		fuzzyEditDistance:      fuzzyDist,
		enableDebugLogging:     config.EnableDebugLogging,
		logger:                 logger,
	}
}

// FindBestMatch scores every candidate and returns the highest. A best match
// under the threshold is returned together with ErrLowConfidence.
func (s *MatchingService) FindBestMatch(
	ctx context.Context,
	request *domain.LookupRequest,
	foods []domain.USDAFood,
) (*domain.MatchResult, error) {
	if request == nil || strings.TrimSpace(request.ProductName) == "" {
		return nil, domain.ErrInvalidRequest
	}
	if len(foods) == 0 {
		return nil, domain.ErrProductNotFound
	}

	var best *domain.MatchResult
	for _, food := range foods {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		score, matched := s.score(request, food)
		if s.enableDebugLogging {
			s.logger.Debug("match candidate",
				zap.String("query", request.ProductName),
				zap.String("description", food.Description),
				zap.String("dataType", food.DataType),
				zap.Float64("score", score),
				zap.Strings("matched", matched))
		}

		if best == nil || score > best.MatchScore {
			best = &domain.MatchResult{
				FdcID:         food.FdcID,
				Description:   food.Description,
				MatchScore:    score,
				MatchedTokens: matched,
			}
		}
	}

	if best.MatchScore < s.minConfidenceThreshold {
		return best, domain.ErrLowConfidence
	}
	return best, nil
}

func (s *MatchingService) score(request *domain.LookupRequest, food domain.USDAFood) (float64, []string) {
	name := cleanFoodName(request.ProductName)
	nameTokens := tokenize(name)
	descTokens := tokenize(food.Description)
	if len(nameTokens) == 0 || len(descTokens) == 0 {
		return 0, nil
	}

	credit, matched := s.coverage(nameTokens, descTokens)
	nameCoverage := credit / float64(len(nameTokens))

	descCredit, _ := s.coverage(descTokens, nameTokens)
	descCoverage := descCredit / float64(len(descTokens))

	jaccard := float64(len(matched)) / float64(unionSize(nameTokens, descTokens))

	score := (nameCoverage*nameCoverageWeight + descCoverage*descCoverageWeight + jaccard*jaccardWeight) * 100

	nameLower := strings.ToLower(name)
	descLower := strings.ToLower(food.Description)
	if request.Brand != "" {
		brand := strings.ToLower(strings.TrimSpace(request.Brand))
		if strings.Contains(descLower, brand) || strings.Contains(strings.ToLower(food.BrandOwner), brand) {
			score += brandMatchBonus
		}
		if food.DataType == "Branded" {
			score += dataTypeBonus
		}
	} else if food.DataType == "Foundation" || food.DataType == "Survey (FNDDS)" || food.DataType == "SR Legacy" {
		score += dataTypeBonus
	}
	if len(nameLower) > 3 && strings.Contains(descLower, nameLower) {
		score += substringMatchBonus
	}

	if score > 100 {
		score = 100
	}
	return score, matched
}

// coverage credits each token of from found in to: 1 for an exact match,
// fuzzyMatchCredit for a near miss when fuzzy matching is on.
func (s *MatchingService) coverage(from, to []string) (float64, []string) {
	exact := make(map[string]bool, len(to))
	for _, t := range to {
		exact[t] = true
	}

	var credit float64
	var matched []string
	for _, t := range from {
		if exact[t] {
			credit++
			matched = append(matched, t)
			continue
		}
		if !s.enableFuzzyMatching {
			continue
		}
		for _, candidate := range to {
			if fuzzyTokenMatch(t, candidate, s.fuzzyEditDistance) {
				credit += fuzzyMatchCredit
				matched = append(matched, t)
				break
			}
		}
	}
	return credit, matched
}

// cleanFoodName strips packaging and size noise from a catalog name.
func cleanFoodName(name string) string {
	if idx := strings.Index(name, ","); idx > 0 {
		name = name[:idx]
	}
	name = strings.ReplaceAll(name, "&", " and ")
	name = sizePatternRegex.ReplaceAllString(name, " ")
	name = multipleSpacesRegex.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// buildSearchQuery builds a provider query, prefixing the brand unless the
// name already carries it.
func buildSearchQuery(request *domain.LookupRequest) string {
	name := cleanFoodName(request.ProductName)
	brand := strings.TrimSpace(request.Brand)
	if brand != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(brand)) {
		name = brand + " " + name
	}
	return name
}

// tokenize lowercases s and drops punctuation, stop words, single letters and numbers.
func tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")

	var tokens []string
	seen := make(map[string]bool)
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 1 || stopWords[word] || isNumeric(word) || seen[word] {
			continue
		}
		seen[word] = true
		tokens = append(tokens, word)
	}
	return tokens
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

func unionSize(a, b []string) int {
	set := make(map[string]bool, len(a)+len(b))
	for _, t := range a {
		set[t] = true
	}
	for _, t := range b {
		set[t] = true
	}
	return len(set)
}

// fuzzyTokenMatch allows small typos on tokens long enough for it to be safe
func fuzzyTokenMatch(a, b string, threshold int) bool {
	if a == b {
		return true
	}
	if len(a) < 5 || len(b) < 5 {
		return false
	}
	diff := len(a) - len(b)
	if diff < 0 {
		diff = -diff
	}
	if diff > threshold {
		return false
	}
	return levenshteinDistance(a, b) <= threshold
}

func levenshteinDistance(s1, s2 string) int {
	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) == 0 {
		return len(r2)
	}
	if len(r2) == 0 {
		return len(r1)
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}
