package domain

import "errors"

var (
	// ErrValidation is returned when a computation receives malformed input
	ErrValidation = errors.New("invalid nutrition data")

	// ErrProviderFailure is returned when an external nutrition provider request fails
	ErrProviderFailure = errors.New("nutrition provider request failed")

	// ErrProductNotFound is returned when a provider has no match for the food
	ErrProductNotFound = errors.New("product not found")

	// ErrLowConfidence is returned when the match confidence is below the threshold
	ErrLowConfidence = errors.New("match confidence below threshold")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnknownSource is returned when a lookup names a provider that is not configured
	ErrUnknownSource = errors.New("unknown nutrition source")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrServingNotFound is returned when a serving does not exist
	ErrServingNotFound = errors.New("serving not found")

	// ErrFoodNotFound is returned when a food does not exist
	ErrFoodNotFound = errors.New("food not found")

	// ErrMealNotFound is returned when a meal does not exist
	ErrMealNotFound = errors.New("meal not found")

	// ErrImportCancelled is returned when an import is abandoned before anything was written
	ErrImportCancelled = errors.New("import cancelled")
)
