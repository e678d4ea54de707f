package domain

import (
	"fmt"
	"math"
	"strings"
)

// ServingStatus tracks how trustworthy a serving's nutrition data is.
type ServingStatus string

const (
	ServingStatusVerified    ServingStatus = "verified"
	ServingStatusNeedsReview ServingStatus = "needs_review"
	ServingStatusUserCreated ServingStatus = "user_created"
)

// Valid reports whether s is a known status.
func (s ServingStatus) Valid() bool {
	switch s {
	case ServingStatusVerified, ServingStatusNeedsReview, ServingStatusUserCreated:
		return true
	}
	return false
}

// Food is a catalog entry owning one or more servings.
type Food struct {
	ID       uint      `json:"id"`
	Name     string    `json:"name"`
	Brand    string    `json:"brand,omitempty"`
	Servings []Serving `json:"servings,omitempty"`
}

// DefaultServing returns the serving marked default, if any.
func (f Food) DefaultServing() (Serving, bool) {
	for _, s := range f.Servings {
		if s.IsDefault {
			return s, true
		}
	}
	return Serving{}, false
}

// Serving is a declared quantity of a food with the nutrition for that quantity.
type Serving struct {
	ID         uint          `json:"id"`
	FoodID     uint          `json:"foodId"`
	Size       float64       `json:"size"`
	Unit       string        `json:"unit"`
	IsDefault  bool          `json:"isDefault"`
	Fact       NutritionFact `json:"nutrition"`
	Status     ServingStatus `json:"status"`
	DataSource string        `json:"dataSource,omitempty"`
}

// Validate checks the declared size and the nutrition snapshot.
func (s Serving) Validate() error {
	if err := ValidateServingSize("serving size", s.Size); err != nil {
		return err
	}
	if strings.TrimSpace(s.Unit) == "" {
		return fmt.Errorf("%w: serving unit is required", ErrValidation)
	}
	if s.Status != "" && !s.Status.Valid() {
		return fmt.Errorf("%w: unknown serving status %q", ErrValidation, s.Status)
	}
	return s.Fact.Validate()
}

// ServingPatch is a sparse update for a stored serving. Absent nutrients
// leave the stored value untouched.
type ServingPatch struct {
	NutritionFact
	Unit       string        `json:"unit"`
	Status     ServingStatus `json:"status"`
	DataSource string        `json:"dataSource,omitempty"`
}

// ApplyTo returns s with the patch applied using partial-update semantics.
func (p ServingPatch) ApplyTo(s Serving) Serving {
	p.NutritionFact.Each(func(n Nutrient, v float64) {
		s.Fact = s.Fact.With(n, Some(v))
	})
	if p.Unit != "" {
		s.Unit = p.Unit
	}
	if p.Status != "" {
		s.Status = p.Status
	}
	if p.DataSource != "" {
		s.DataSource = p.DataSource
	}
	return s
}

// NormalizeUnit folds case and whitespace so units compare reliably.
func NormalizeUnit(unit string) string {
	return strings.ToLower(strings.Join(strings.Fields(unit), " "))
}

// SameUnit reports whether two units are equal ignoring case and whitespace.
func SameUnit(a, b string) bool {
	return NormalizeUnit(a) == NormalizeUnit(b)
}

// ValidateServingSize rejects sizes that cannot be used as a divisor.
func ValidateServingSize(name string, size float64) error {
	if math.IsNaN(size) || math.IsInf(size, 0) {
		return fmt.Errorf("%w: %s must be a finite number", ErrValidation, name)
	}
	if size <= 0 {
		return fmt.Errorf("%w: %s must be > 0, got %v", ErrValidation, name, size)
	}
	return nil
}
