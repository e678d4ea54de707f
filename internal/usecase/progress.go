package usecase

import (
	"fmt"
	"math"

	"github.com/nutrilog/backend/internal/domain"
)

// Progress compares day totals with the goal's targets. Without a goal, or
// for a nutrient whose target is absent or zero, the percentage is absent.
func Progress(totals domain.NutritionTotals, goal *domain.Goal) (domain.GoalProgress, error) {
	if goal != nil {
		if err := goal.ValidateTargets(); err != nil {
			return domain.GoalProgress{}, err
		}
	}

	var progress domain.GoalProgress
	for _, n := range domain.TrackedNutrients {
		actual := totals.Get(n)
		if math.IsNaN(actual) || math.IsInf(actual, 0) || actual < 0 {
			return domain.GoalProgress{}, fmt.Errorf("%w: %s total must be a non-negative number", domain.ErrValidation, n)
		}

		entry := domain.NutrientProgress{Actual: actual}
		if goal != nil {
			entry.Target = goal.Target(n)
			if target, ok := entry.Target.Get(); ok && target != 0 {
				entry.Percentage = domain.Some(Round2(actual / target * 100))
			}
		}
		progress.Set(n, entry)
	}
	return progress, nil
}
