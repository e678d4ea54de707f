package usecase

import (
	"fmt"
	"math"

	"github.com/nutrilog/backend/internal/domain"
)

// halfEpsilon absorbs binary representation error around .5 boundaries,
// e.g. 1.005*100 == 100.49999999999999.
const halfEpsilon = 1e-9

// Round2 rounds v to two decimal places, half up. Inputs are non-negative
// after validation; a negative v rounds its magnitude the same way.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	x := v * 100
	whole := math.Trunc(x)
	if math.Abs(math.Abs(x-whole)-0.5) < halfEpsilon {
		x = whole + math.Copysign(0.5, x)
	}
	return math.Round(x) / 100
}

// Scale multiplies every present nutrient of fact by factor, rounding each
// result to two decimals. Absent nutrients stay absent.
func Scale(fact domain.NutritionFact, factor float64) (domain.NutritionFact, error) {
	if math.IsNaN(factor) || math.IsInf(factor, 0) {
		return domain.NutritionFact{}, fmt.Errorf("%w: scaling factor must be a finite number", domain.ErrValidation)
	}
	if factor < 0 {
		return domain.NutritionFact{}, fmt.Errorf("%w: scaling factor must be >= 0, got %v", domain.ErrValidation, factor)
	}
	if err := fact.Validate(); err != nil {
		return domain.NutritionFact{}, err
	}

	var scaled domain.NutritionFact
	fact.Each(func(n domain.Nutrient, v float64) {
		scaled = scaled.With(n, domain.Some(Round2(v*factor)))
	})
	return scaled, nil
}
