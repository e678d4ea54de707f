package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nutrilog/backend/internal/domain"
)

// Outcome identifies which reconciliation rule applied to a provider result.
type Outcome int

const (
	// OutcomePassThrough: the provider gave no serving, values already fit the target.
	OutcomePassThrough Outcome = iota + 1
	// OutcomeUnitOverride: units disagree, values are kept and the unit is replaced.
	OutcomeUnitOverride
	// OutcomeScaled: units agree, values are scaled by targetSize/resultServingSize.
	OutcomeScaled
)

func (o Outcome) String() string {
	switch o {
	case OutcomePassThrough:
		return "pass_through"
	case OutcomeUnitOverride:
		return "unit_override"
	case OutcomeScaled:
		return "scaled"
	}
	return "unknown"
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Reconciliation is the decision made for one provider result against one serving.
type Reconciliation struct {
	Outcome Outcome              `json:"outcome"`
	Fact    domain.NutritionFact `json:"nutrition"`
	Unit    string               `json:"unit"`
	Factor  float64              `json:"factor"`
	// Warning is set only for OutcomeUnitOverride. It is advisory and never
	// blocks applying the result.
	Warning string `json:"warning,omitempty"`
}

// HasWarning reports whether the caller should surface a unit advisory.
func (r Reconciliation) HasWarning() bool {
	return r.Warning != ""
}

func classify(result domain.ProviderNutritionResult, targetUnit string) Outcome {
	if !result.HasServing() {
		return OutcomePassThrough
	}
	if !domain.SameUnit(result.ResultServingUnit, targetUnit) {
		return OutcomeUnitOverride
	}
	return OutcomeScaled
}

// Reconcile fits a provider result to a serving of targetSize targetUnit.
// Incompatible units are never converted: the values are passed through
// unscaled and the unit is overridden with a warning.
func Reconcile(result domain.ProviderNutritionResult, targetSize float64, targetUnit string) (Reconciliation, error) {
	if err := domain.ValidateServingSize("target serving size", targetSize); err != nil {
		return Reconciliation{}, err
	}
	targetUnit = strings.TrimSpace(targetUnit)
	if targetUnit == "" {
		return Reconciliation{}, fmt.Errorf("%w: target serving unit is required", domain.ErrValidation)
	}
	if err := result.Validate(); err != nil {
		return Reconciliation{}, err
	}
	result = result.Normalized()

	return resolve(classify(result, targetUnit), result, targetSize, targetUnit)
}

// resolve produces the reconciliation for an outcome chosen by classify.
func resolve(outcome Outcome, result domain.ProviderNutritionResult, targetSize float64, targetUnit string) (Reconciliation, error) {
	switch outcome {
	case OutcomePassThrough:
		return Reconciliation{
			Outcome: outcome,
			Fact:    result.Fact(),
			Unit:    targetUnit,
			Factor:  1,
		}, nil

	case OutcomeUnitOverride:
		size, _ := result.ResultServingSize.Get()
		return Reconciliation{
			Outcome: outcome,
			Fact:    result.Fact(),
			Unit:    result.ResultServingUnit,
			Factor:  1,
			Warning: unitMismatchWarning(targetUnit, result.ResultServingUnit, size),
		}, nil

	case OutcomeScaled:
		size, _ := result.ResultServingSize.Get()
		factor := targetSize / size
		fact, err := Scale(result.Fact(), factor)
		if err != nil {
			return Reconciliation{}, err
		}
		return Reconciliation{
			Outcome: outcome,
			Fact:    fact,
			Unit:    targetUnit,
			Factor:  factor,
		}, nil

	default:
		return Reconciliation{}, fmt.Errorf("%w: unhandled reconciliation outcome %v", domain.ErrValidation, outcome)
	}
}

func unitMismatchWarning(from, to string, size float64) string {
	return fmt.Sprintf("Serving unit changed %q → %q; values applied as returned, per %s %s",
		from, to, strconv.FormatFloat(size, 'f', -1, 64), to)
}
