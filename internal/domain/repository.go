package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching encoded payloads
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// USDAClient defines the interface for interacting with USDA FoodData Central API
type USDAClient interface {
	SearchFoods(ctx context.Context, query string) (*USDASearchResponse, error)
	GetFoodDetails(ctx context.Context, fdcID int) (*USDAFood, error)
}

// NutritionEstimator produces estimated nutrition for a free-text food description
type NutritionEstimator interface {
	Estimate(ctx context.Context, request *LookupRequest) (*ProviderNutritionResult, error)
}

// ServingRepository reads servings and applies import patches.
// ApplyServingPatch must write every field of the patch or none of them.
type ServingRepository interface {
	GetServing(ctx context.Context, id uint) (*Serving, error)
	GetFood(ctx context.Context, id uint) (*Food, error)
	ApplyServingPatch(ctx context.Context, id uint, patch ServingPatch) (*Serving, error)
}

// MealRepository reads logged meals with their items and servings loaded
type MealRepository interface {
	GetMeal(ctx context.Context, id uint) (*Meal, error)
	ListMealsByDate(ctx context.Context, userID uint, date time.Time) ([]Meal, error)
}

// GoalRepository resolves the goal in force for a user on a date.
// It returns (nil, nil) when no goal is active.
type GoalRepository interface {
	ActiveGoal(ctx context.Context, userID uint, date time.Time) (*Goal, error)
}
