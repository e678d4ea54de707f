package domain

import (
	"fmt"
	"strings"
)

// DataKind tells whether provider values were measured or estimated.
type DataKind string

const (
	DataKindEstimated DataKind = "estimated"
	DataKindMeasured  DataKind = "measured"
)

// Confidence is the estimator's self-reported certainty.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Provider sources accepted by lookups.
const (
	SourceUSDA     = "usda"
	SourceEstimate = "estimate"
)

// ProviderNutritionResult is what an external nutrition provider returned.
// When ResultServingSize/ResultServingUnit are both absent the values
// already describe the requested serving.
type ProviderNutritionResult struct {
	NutritionFact
	DataKind          DataKind   `json:"dataKind"`
	Confidence        Confidence `json:"confidence,omitempty"`
	SourceLabel       string     `json:"sourceLabel,omitempty"`
	ResultServingSize Amount     `json:"resultServingSize,omitzero"`
	ResultServingUnit string     `json:"resultServingUnit,omitempty"`
}

// Fact returns the nutrition values carried by the result.
func (r ProviderNutritionResult) Fact() NutritionFact {
	return r.NutritionFact
}

// HasServing reports whether the provider stated the serving its values describe.
func (r ProviderNutritionResult) HasServing() bool {
	return r.ResultServingSize.Present() || strings.TrimSpace(r.ResultServingUnit) != ""
}

// Validate checks the kind, confidence, serving pair and nutrient values.
func (r ProviderNutritionResult) Validate() error {
	switch r.DataKind {
	case DataKindEstimated, DataKindMeasured:
	default:
		return fmt.Errorf("%w: unknown data kind %q", ErrValidation, r.DataKind)
	}

	switch r.Confidence {
	case "", ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
	default:
		return fmt.Errorf("%w: unknown confidence %q", ErrValidation, r.Confidence)
	}

	hasSize := r.ResultServingSize.Present()
	hasUnit := strings.TrimSpace(r.ResultServingUnit) != ""
	if hasSize != hasUnit {
		return fmt.Errorf("%w: result serving size and unit must be provided together", ErrValidation)
	}
	if hasSize {
		size, _ := r.ResultServingSize.Get()
		if err := ValidateServingSize("result serving size", size); err != nil {
			return err
		}
	}

	return r.NutritionFact.Validate()
}

// Normalized drops confidence on measured results, where it carries no meaning.
func (r ProviderNutritionResult) Normalized() ProviderNutritionResult {
	if r.DataKind != DataKindEstimated {
		r.Confidence = ""
	}
	r.ResultServingUnit = strings.TrimSpace(r.ResultServingUnit)
	return r
}
