package domain

import (
	"fmt"
	"math"
)

// Nutrient names one field of a NutritionFact.
type Nutrient string

const (
	NutrientCalories     Nutrient = "calories" // kcal
	NutrientProtein      Nutrient = "protein"  // g
	NutrientCarbs        Nutrient = "carbs"    // g
	NutrientFat          Nutrient = "fat"      // g
	NutrientSaturatedFat Nutrient = "saturatedFat"
	NutrientTransFat     Nutrient = "transFat"
	NutrientFiber        Nutrient = "fiber"
	NutrientSugar        Nutrient = "sugar"
	NutrientSodium       Nutrient = "sodium"      // mg
	NutrientCholesterol  Nutrient = "cholesterol" // mg
)

// AllNutrients lists every NutritionFact field in display order.
var AllNutrients = []Nutrient{
	NutrientCalories,
	NutrientProtein,
	NutrientCarbs,
	NutrientFat,
	NutrientSaturatedFat,
	NutrientTransFat,
	NutrientFiber,
	NutrientSugar,
	NutrientSodium,
	NutrientCholesterol,
}

// TrackedNutrients are the nutrients carried by NutritionTotals and goals.
var TrackedNutrients = []Nutrient{
	NutrientCalories,
	NutrientProtein,
	NutrientCarbs,
	NutrientFat,
	NutrientFiber,
	NutrientSugar,
	NutrientSodium,
}

// NutritionFact is a sparse snapshot of nutrient values for one serving.
// Absent fields are unknown, never zero.
type NutritionFact struct {
	Calories     Amount `json:"calories,omitzero"`
	Protein      Amount `json:"protein,omitzero"`
	Carbs        Amount `json:"carbs,omitzero"`
	Fat          Amount `json:"fat,omitzero"`
	SaturatedFat Amount `json:"saturatedFat,omitzero"`
	TransFat     Amount `json:"transFat,omitzero"`
	Fiber        Amount `json:"fiber,omitzero"`
	Sugar        Amount `json:"sugar,omitzero"`
	Sodium       Amount `json:"sodium,omitzero"`
	Cholesterol  Amount `json:"cholesterol,omitzero"`
}

func (f *NutritionFact) field(n Nutrient) *Amount {
	switch n {
	case NutrientCalories:
		return &f.Calories
	case NutrientProtein:
		return &f.Protein
	case NutrientCarbs:
		return &f.Carbs
	case NutrientFat:
		return &f.Fat
	case NutrientSaturatedFat:
		return &f.SaturatedFat
	case NutrientTransFat:
		return &f.TransFat
	case NutrientFiber:
		return &f.Fiber
	case NutrientSugar:
		return &f.Sugar
	case NutrientSodium:
		return &f.Sodium
	case NutrientCholesterol:
		return &f.Cholesterol
	}
	return nil
}

// Get returns the Amount for n; unknown nutrients are absent.
func (f NutritionFact) Get(n Nutrient) Amount {
	if p := f.field(n); p != nil {
		return *p
	}
	return Amount{}
}

// With returns a copy of f with n set to a.
func (f NutritionFact) With(n Nutrient, a Amount) NutritionFact {
	if p := f.field(n); p != nil {
		*p = a
	}
	return f
}

// Each calls fn for every present nutrient in AllNutrients order.
func (f NutritionFact) Each(fn func(n Nutrient, v float64)) {
	for _, n := range AllNutrients {
		if v, ok := f.Get(n).Get(); ok {
			fn(n, v)
		}
	}
}

// IsEmpty reports whether no nutrient is present.
func (f NutritionFact) IsEmpty() bool {
	empty := true
	f.Each(func(Nutrient, float64) { empty = false })
	return empty
}

// Validate checks that every present value is finite and non-negative.
func (f NutritionFact) Validate() error {
	for _, n := range AllNutrients {
		v, ok := f.Get(n).Get()
		if !ok {
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be a finite number", ErrValidation, n)
		}
		if v < 0 {
			return fmt.Errorf("%w: %s must be >= 0, got %v", ErrValidation, n, v)
		}
	}
	return nil
}

// NutritionTotals is an aggregate where every tracked nutrient is present.
type NutritionTotals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
	Sugar    float64 `json:"sugar"`
	Sodium   float64 `json:"sodium"`
}

// Get returns the total for n. Nutrients outside TrackedNutrients are 0.
func (t NutritionTotals) Get(n Nutrient) float64 {
	switch n {
	case NutrientCalories:
		return t.Calories
	case NutrientProtein:
		return t.Protein
	case NutrientCarbs:
		return t.Carbs
	case NutrientFat:
		return t.Fat
	case NutrientFiber:
		return t.Fiber
	case NutrientSugar:
		return t.Sugar
	case NutrientSodium:
		return t.Sodium
	}
	return 0
}

// Set returns a copy of t with n set to v.
func (t NutritionTotals) Set(n Nutrient, v float64) NutritionTotals {
	switch n {
	case NutrientCalories:
		t.Calories = v
	case NutrientProtein:
		t.Protein = v
	case NutrientCarbs:
		t.Carbs = v
	case NutrientFat:
		t.Fat = v
	case NutrientFiber:
		t.Fiber = v
	case NutrientSugar:
		t.Sugar = v
	case NutrientSodium:
		t.Sodium = v
	}
	return t
}
