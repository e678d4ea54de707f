package usda

import (
	"fmt"
	"strings"

	"github.com/nutrilog/backend/internal/domain"
)

// USDA nutrient ids
const (
	NutrientIDEnergy        = 1008 // kcal
	NutrientIDEnergyAtwater = 2047 // kcal, general Atwater factors (Foundation foods)
	NutrientIDProtein       = 1003
	NutrientIDCarbohydrate  = 1005
	NutrientIDTotalFat      = 1004
	NutrientIDSaturatedFat  = 1258
	NutrientIDTransFat      = 1257
	NutrientIDFiber         = 1079
	NutrientIDSugars        = 2000
	NutrientIDSodium        = 1093 // mg
	NutrientIDCholesterol   = 1253 // mg
)

// ReferenceServingSize is the amount FoodData Central normalizes nutrients to.
const ReferenceServingSize = 100.0

var nutrientByID = map[int]domain.Nutrient{
	NutrientIDEnergy:       domain.NutrientCalories,
	NutrientIDProtein:      domain.NutrientProtein,
	NutrientIDCarbohydrate: domain.NutrientCarbs,
	NutrientIDTotalFat:     domain.NutrientFat,
	NutrientIDSaturatedFat: domain.NutrientSaturatedFat,
	NutrientIDTransFat:     domain.NutrientTransFat,
	NutrientIDFiber:        domain.NutrientFiber,
	NutrientIDSugars:       domain.NutrientSugar,
	NutrientIDSodium:       domain.NutrientSodium,
	NutrientIDCholesterol:  domain.NutrientCholesterol,
}

// MapToProviderResult converts a USDA food into a measured provider result
// describing 100 g (or 100 ml for liquids). Nutrients the food does not
// report stay absent.
func MapToProviderResult(food *domain.USDAFood) domain.ProviderNutritionResult {
	return domain.ProviderNutritionResult{
		NutritionFact:     extractNutrients(food.Nutrients),
		DataKind:          domain.DataKindMeasured,
		SourceLabel:       sourceLabel(food),
		ResultServingSize: domain.Some(ReferenceServingSize),
		ResultServingUnit: referenceUnit(food.ServingSizeUnit),
	}
}

func extractNutrients(nutrients []domain.USDANutrient) domain.NutritionFact {
	var fact domain.NutritionFact
	var atwater domain.Amount

	for _, nutrient := range nutrients {
		if nutrient.NutrientID == NutrientIDEnergyAtwater {
			atwater = domain.Some(nutrient.Value)
			continue
		}
		if n, ok := nutrientByID[nutrient.NutrientID]; ok {
			fact = fact.With(n, domain.Some(nutrient.Value))
		}
	}

	if !fact.Calories.Present() {
		fact.Calories = atwater
	}
	return fact
}

// referenceUnit maps a branded food's serving unit to the unit its per-100 values use.
func referenceUnit(servingSizeUnit string) string {
	switch strings.ToLower(strings.TrimSpace(servingSizeUnit)) {
	case "ml", "mlt":
		return "ml"
	default:
		return "g"
	}
}

func sourceLabel(food *domain.USDAFood) string {
	if food.DataType == "" {
		return fmt.Sprintf("USDA FoodData Central #%d", food.FdcID)
	}
	return fmt.Sprintf("USDA FoodData Central #%d (%s)", food.FdcID, food.DataType)
}
