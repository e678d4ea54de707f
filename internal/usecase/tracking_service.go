package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/nutrilog/backend/internal/domain"
	"go.uber.org/zap"
)

// ItemSummary is one meal item with its derived nutrition
type ItemSummary struct {
	ItemID      uint                 `json:"itemId"`
	ServingID   uint                 `json:"servingId"`
	Quantity    float64              `json:"quantity"`
	IsEstimated bool                 `json:"isEstimated"`
	Nutrition   domain.NutritionFact `json:"nutrition"`
}

// MealSummary is a meal with per-item nutrition and totals
type MealSummary struct {
	MealID uint                   `json:"mealId"`
	Type   domain.MealType        `json:"mealType"`
	Date   string                 `json:"date"`
	Items  []ItemSummary          `json:"items"`
	Totals domain.NutritionTotals `json:"totals"`
}

// DaySummary is every meal of a user's day with the day totals. Progress is
// only filled by DayProgress.
type DaySummary struct {
	UserID   uint                   `json:"userId"`
	Date     string                 `json:"date"`
	Meals    []MealSummary          `json:"meals"`
	Totals   domain.NutritionTotals `json:"totals"`
	Goal     *domain.Goal           `json:"goal,omitempty"`
	Progress *domain.GoalProgress   `json:"progress,omitempty"`
}

// TrackingService derives meal and day totals from logged meals. Nothing it
// computes is stored, so results always reflect the current servings.
type TrackingService struct {
	meals  domain.MealRepository
	goals  domain.GoalRepository
	logger *zap.Logger
}

// NewTrackingService creates a tracking service
func NewTrackingService(meals domain.MealRepository, goals domain.GoalRepository, logger *zap.Logger) *TrackingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackingService{
		meals:  meals,
		goals:  goals,
		logger: logger.Named("tracking"),
	}
}

// MealTotals loads a meal and sums its items
func (s *TrackingService) MealTotals(ctx context.Context, mealID uint) (*MealSummary, error) {
	meal, err := s.meals.GetMeal(ctx, mealID)
	if err != nil {
		return nil, err
	}
	summary, err := summarizeMeal(*meal)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// DayTotals sums every meal the user logged on date
func (s *TrackingService) DayTotals(ctx context.Context, userID uint, date time.Time) (*DaySummary, error) {
	day := domain.CalendarDay(date)
	meals, err := s.meals.ListMealsByDate(ctx, userID, day)
	if err != nil {
		return nil, err
	}

	summary := &DaySummary{
		UserID: userID,
		Date:   day.Format(time.DateOnly),
		Meals:  make([]MealSummary, 0, len(meals)),
	}
	mealTotals := make([]domain.NutritionTotals, 0, len(meals))
	for _, meal := range meals {
		ms, err := summarizeMeal(meal)
		if err != nil {
			return nil, err
		}
		summary.Meals = append(summary.Meals, ms)
		mealTotals = append(mealTotals, ms.Totals)
	}

	summary.Totals, err = DayTotals(mealTotals...)
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// DayProgress is DayTotals plus progress against the goal active on date.
// Without an active goal every target and percentage is null.
func (s *TrackingService) DayProgress(ctx context.Context, userID uint, date time.Time) (*DaySummary, error) {
	summary, err := s.DayTotals(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	goal, err := s.goals.ActiveGoal(ctx, userID, domain.CalendarDay(date))
	if err != nil {
		return nil, err
	}
	if goal == nil {
		s.logger.Debug("no active goal", zap.Uint("userID", userID), zap.String("date", summary.Date))
	}

	progress, err := Progress(summary.Totals, goal)
	if err != nil {
		return nil, err
	}
	summary.Goal = goal
	summary.Progress = &progress
	return summary, nil
}

func summarizeMeal(meal domain.Meal) (MealSummary, error) {
	summary := MealSummary{
		MealID: meal.ID,
		Type:   meal.Type,
		Date:   domain.CalendarDay(meal.Date).Format(time.DateOnly),
		Items:  make([]ItemSummary, 0, len(meal.Items)),
	}

	facts := make([]domain.NutritionFact, 0, len(meal.Items))
	for _, item := range meal.Items {
		fact, err := ItemNutrition(item)
		if err != nil {
			return MealSummary{}, fmt.Errorf("meal %d item %d: %w", meal.ID, item.ID, err)
		}
		facts = append(facts, fact)
		summary.Items = append(summary.Items, ItemSummary{
			ItemID:      item.ID,
			ServingID:   item.ServingID,
			Quantity:    item.EffectiveQuantity(),
			IsEstimated: item.IsEstimated,
			Nutrition:   fact,
		})
	}

	totals, err := Aggregate(facts...)
	if err != nil {
		return MealSummary{}, fmt.Errorf("meal %d: %w", meal.ID, err)
	}
	summary.Totals = totals
	return summary, nil
}
