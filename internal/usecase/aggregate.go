package usecase

import (
	"fmt"
	"math"

	"github.com/nutrilog/backend/internal/domain"
)

// hundredths accumulates tracked nutrients as integer hundredths, which keeps
// sums exact and independent of ordering or grouping.
type hundredths [7]int64

func toHundredths(v float64) int64 {
	return int64(math.Round(Round2(v) * 100))
}

func (h *hundredths) add(n int, v float64) {
	h[n] += toHundredths(v)
}

func (h hundredths) totals() domain.NutritionTotals {
	var t domain.NutritionTotals
	for i, n := range domain.TrackedNutrients {
		t = t.Set(n, float64(h[i])/100)
	}
	return t
}

// Aggregate sums facts into totals. An absent nutrient contributes zero to
// the sum, so every total is present even when inputs are partly unknown.
func Aggregate(facts ...domain.NutritionFact) (domain.NutritionTotals, error) {
	var sum hundredths
	for i, fact := range facts {
		if err := fact.Validate(); err != nil {
			return domain.NutritionTotals{}, fmt.Errorf("item %d: %w", i, err)
		}
		for j, n := range domain.TrackedNutrients {
			if v, ok := fact.Get(n).Get(); ok {
				sum.add(j, v)
			}
		}
	}
	return sum.totals(), nil
}

// ItemNutrition derives an item's nutrition from its serving and quantity.
func ItemNutrition(item domain.MealItem) (domain.NutritionFact, error) {
	quantity := item.EffectiveQuantity()
	if err := domain.ValidateQuantity(quantity); err != nil {
		return domain.NutritionFact{}, err
	}
	return Scale(item.Serving.Fact, quantity)
}

// MealTotals scales each item by its quantity and sums the results.
func MealTotals(items []domain.MealItem) (domain.NutritionTotals, error) {
	facts := make([]domain.NutritionFact, 0, len(items))
	for _, item := range items {
		fact, err := ItemNutrition(item)
		if err != nil {
			return domain.NutritionTotals{}, fmt.Errorf("meal item %d: %w", item.ID, err)
		}
		facts = append(facts, fact)
	}
	return Aggregate(facts...)
}

// DayTotals sums the totals of every meal logged on a day.
func DayTotals(meals ...domain.NutritionTotals) (domain.NutritionTotals, error) {
	var sum hundredths
	for i, meal := range meals {
		for j, n := range domain.TrackedNutrients {
			v := meal.Get(n)
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return domain.NutritionTotals{}, fmt.Errorf("%w: meal %d %s total must be a non-negative number", domain.ErrValidation, i, n)
			}
			sum.add(j, v)
		}
	}
	return sum.totals(), nil
}
