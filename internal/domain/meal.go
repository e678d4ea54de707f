package domain

import (
	"fmt"
	"math"
	"time"
)

// MealType is the slot of the day a meal belongs to.
type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
	MealTypeSnack     MealType = "snack"
)

// Valid reports whether t is a known meal type.
func (t MealType) Valid() bool {
	switch t {
	case MealTypeBreakfast, MealTypeLunch, MealTypeDinner, MealTypeSnack:
		return true
	}
	return false
}

// MealItem is a logged quantity of one serving. Its nutrition is derived,
// never stored. An absent Quantity means DefaultQuantity; zero is a real
// quantity.
type MealItem struct {
	ID          uint    `json:"id"`
	MealID      uint    `json:"mealId"`
	FoodID      uint    `json:"foodId"`
	ServingID   uint    `json:"servingId"`
	Serving     Serving `json:"serving"`
	Quantity    Amount  `json:"quantity"`
	Notes       string  `json:"notes,omitempty"`
	IsEstimated bool    `json:"isEstimated"`
}

// EffectiveQuantity returns the multiplier applied to the serving.
func (i MealItem) EffectiveQuantity() float64 {
	return i.Quantity.Or(DefaultQuantity)
}

// DefaultQuantity is used when an item is logged without a quantity.
const DefaultQuantity = 1.0

// ValidateQuantity rejects negative or non-finite multipliers.
func ValidateQuantity(q float64) error {
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return fmt.Errorf("%w: quantity must be a finite number", ErrValidation)
	}
	if q < 0 {
		return fmt.Errorf("%w: quantity must be >= 0, got %v", ErrValidation, q)
	}
	return nil
}

// Meal groups items eaten by a user on one calendar day.
type Meal struct {
	ID     uint       `json:"id"`
	UserID uint       `json:"userId"`
	Date   time.Time  `json:"date"`
	Type   MealType   `json:"mealType"`
	Items  []MealItem `json:"items"`
}

// CalendarDay strips the time of day, keeping the date as seen in t's location.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	return t, nil
}
