package domain

import (
	"fmt"
	"math"
	"time"
)

// Goal holds a user's daily targets over [StartDate, EndDate). A nil
// EndDate means the goal is open-ended.
type Goal struct {
	ID             uint       `json:"id"`
	UserID         uint       `json:"userId"`
	CaloriesTarget Amount     `json:"caloriesTarget"`
	ProteinTarget  Amount     `json:"proteinTarget"`
	CarbsTarget    Amount     `json:"carbsTarget"`
	FatTarget      Amount     `json:"fatTarget"`
	FiberTarget    Amount     `json:"fiberTarget"`
	SugarTarget    Amount     `json:"sugarTarget"`
	SodiumTarget   Amount     `json:"sodiumTarget"`
	StartDate      time.Time  `json:"startDate"`
	EndDate        *time.Time `json:"endDate,omitempty"`
}

// Target returns the goal's target for n; untracked nutrients are absent.
func (g Goal) Target(n Nutrient) Amount {
	switch n {
	case NutrientCalories:
		return g.CaloriesTarget
	case NutrientProtein:
		return g.ProteinTarget
	case NutrientCarbs:
		return g.CarbsTarget
	case NutrientFat:
		return g.FatTarget
	case NutrientFiber:
		return g.FiberTarget
	case NutrientSugar:
		return g.SugarTarget
	case NutrientSodium:
		return g.SodiumTarget
	}
	return Amount{}
}

// ActiveOn reports whether the calendar day of date falls inside the goal window.
func (g Goal) ActiveOn(date time.Time) bool {
	day := CalendarDay(date)
	if day.Before(CalendarDay(g.StartDate)) {
		return false
	}
	return g.EndDate == nil || day.Before(CalendarDay(*g.EndDate))
}

// ValidateTargets checks that every present target is a non-negative number.
func (g Goal) ValidateTargets() error {
	for _, n := range TrackedNutrients {
		v, ok := g.Target(n).Get()
		if !ok {
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: %s target must be a non-negative number", ErrValidation, n)
		}
	}
	return nil
}

// Validate checks targets and the date window.
func (g Goal) Validate() error {
	if err := g.ValidateTargets(); err != nil {
		return err
	}
	if g.StartDate.IsZero() {
		return fmt.Errorf("%w: goal start date is required", ErrValidation)
	}
	if g.EndDate != nil && !CalendarDay(*g.EndDate).After(CalendarDay(g.StartDate)) {
		return fmt.Errorf("%w: goal end date must be after its start date", ErrValidation)
	}
	return nil
}

// NutrientProgress compares one nutrient's daily total with its target.
// Target and Percentage encode as null when there is nothing to compare.
type NutrientProgress struct {
	Target     Amount  `json:"target"`
	Actual     float64 `json:"actual"`
	Percentage Amount  `json:"percentage"`
}

// GoalProgress is derived per request and never persisted.
type GoalProgress struct {
	Calories NutrientProgress `json:"calories"`
	Protein  NutrientProgress `json:"protein"`
	Carbs    NutrientProgress `json:"carbs"`
	Fat      NutrientProgress `json:"fat"`
	Fiber    NutrientProgress `json:"fiber"`
	Sugar    NutrientProgress `json:"sugar"`
	Sodium   NutrientProgress `json:"sodium"`
}

func (p *GoalProgress) field(n Nutrient) *NutrientProgress {
	switch n {
	case NutrientCalories:
		return &p.Calories
	case NutrientProtein:
		return &p.Protein
	case NutrientCarbs:
		return &p.Carbs
	case NutrientFat:
		return &p.Fat
	case NutrientFiber:
		return &p.Fiber
	case NutrientSugar:
		return &p.Sugar
	case NutrientSodium:
		return &p.Sodium
	}
	return nil
}

// Get returns the progress entry for n.
func (p GoalProgress) Get(n Nutrient) NutrientProgress {
	if f := p.field(n); f != nil {
		return *f
	}
	return NutrientProgress{}
}

// Set stores the progress entry for n; untracked nutrients are ignored.
func (p *GoalProgress) Set(n Nutrient, np NutrientProgress) {
	if f := p.field(n); f != nil {
		*f = np
	}
}
