package usecase

import (
	"fmt"
	"strings"

	"github.com/nutrilog/backend/internal/domain"
)

// BuildPatch turns reconciled nutrition into a sparse serving update stamped
// as verified. Only nutrients present in fact appear in the patch.
func BuildPatch(fact domain.NutritionFact, unit, sourceLabel string) (domain.ServingPatch, error) {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return domain.ServingPatch{}, fmt.Errorf("%w: patch unit is required", domain.ErrValidation)
	}
	if err := fact.Validate(); err != nil {
		return domain.ServingPatch{}, err
	}

	return domain.ServingPatch{
		NutritionFact: fact,
		Unit:          unit,
		Status:        domain.ServingStatusVerified,
		DataSource:    strings.TrimSpace(sourceLabel),
	}, nil
}

// PatchFor reconciles result against serving and builds the resulting patch.
func PatchFor(result domain.ProviderNutritionResult, serving domain.Serving) (domain.ServingPatch, Reconciliation, error) {
	rec, err := Reconcile(result, serving.Size, serving.Unit)
	if err != nil {
		return domain.ServingPatch{}, Reconciliation{}, err
	}
	patch, err := BuildPatch(rec.Fact, rec.Unit, result.SourceLabel)
	if err != nil {
		return domain.ServingPatch{}, Reconciliation{}, err
	}
	return patch, rec, nil
}
