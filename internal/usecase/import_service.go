package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nutrilog/backend/internal/domain"
	"go.uber.org/zap"
)

const defaultImportTimeout = 20 * time.Second

// Lookuper resolves provider nutrition for a lookup request
type Lookuper interface {
	Lookup(ctx context.Context, request *domain.LookupRequest) (*LookupResult, error)
}

// ImportServiceConfig holds configuration for the import service
type ImportServiceConfig struct {
	Timeout time.Duration
}

// ImportPreview is what applying a provider result to a serving would do.
// Nothing has been written when a preview is returned.
type ImportPreview struct {
	Serving        domain.Serving                 `json:"serving"`
	Result         domain.ProviderNutritionResult `json:"result"`
	Match          *domain.MatchResult            `json:"match,omitempty"`
	Reconciliation Reconciliation                 `json:"reconciliation"`
	Patch          domain.ServingPatch            `json:"patch"`
	LowConfidence  bool                           `json:"lowConfidence"`
}

// ImportResult is the outcome of a committed import.
type ImportResult struct {
	Serving        domain.Serving      `json:"serving"`
	Patch          domain.ServingPatch `json:"patch"`
	Reconciliation Reconciliation      `json:"reconciliation"`
}

// ImportService refreshes stored servings from provider nutrition
type ImportService struct {
	servings domain.ServingRepository
	lookup   Lookuper
	timeout  time.Duration
	logger   *zap.Logger
}

// NewImportService creates an import service
func NewImportService(
	servings domain.ServingRepository,
	lookup Lookuper,
	config ImportServiceConfig,
	logger *zap.Logger,
) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultImportTimeout
	}
	return &ImportService{
		servings: servings,
		lookup:   lookup,
		timeout:  timeout,
		logger:   logger.Named("import"),
	}
}

// Preview fetches provider nutrition for the serving's food and reconciles it
// against the serving. A low-confidence match is reported, not rejected.
func (s *ImportService) Preview(ctx context.Context, servingID uint, source string) (*ImportPreview, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	preview, err := s.preview(fetchCtx, servingID, source)
	if err != nil {
		return nil, s.fetchError(ctx, fetchCtx, err)
	}
	return preview, nil
}

func (s *ImportService) preview(ctx context.Context, servingID uint, source string) (*ImportPreview, error) {
	serving, err := s.servings.GetServing(ctx, servingID)
	if err != nil {
		return nil, err
	}
	food, err := s.servings.GetFood(ctx, serving.FoodID)
	if err != nil {
		return nil, err
	}

	found, err := s.lookup.Lookup(ctx, &domain.LookupRequest{
		ProductName: food.Name,
		Brand:       food.Brand,
		Source:      source,
		ServingSize: serving.Size,
		ServingUnit: serving.Unit,
	})
	lowConfidence := errors.Is(err, domain.ErrLowConfidence)
	if err != nil && !lowConfidence {
		return nil, err
	}

	patch, rec, err := PatchFor(found.Result, *serving)
	if err != nil {
		return nil, err
	}

	return &ImportPreview{
		Serving:        *serving,
		Result:         found.Result,
		Match:          found.Match,
		Reconciliation: rec,
		Patch:          patch,
		LowConfidence:  lowConfidence,
	}, nil
}

// Apply reconciles an accepted provider result against the serving and writes
// the patch. The write is all-or-nothing. If ctx is done before the write,
// nothing is stored and the error wraps ErrImportCancelled.
func (s *ImportService) Apply(ctx context.Context, servingID uint, result domain.ProviderNutritionResult) (*ImportResult, error) {
	serving, err := s.servings.GetServing(ctx, servingID)
	if err != nil {
		return nil, cancelledOr(ctx, err)
	}

	patch, rec, err := PatchFor(result, *serving)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrImportCancelled, err)
	}

	updated, err := s.servings.ApplyServingPatch(ctx, servingID, patch)
	if err != nil {
		return nil, cancelledOr(ctx, err)
	}

	fields := []zap.Field{
		zap.Uint("servingID", servingID),
		zap.Stringer("outcome", rec.Outcome),
		zap.String("source", patch.DataSource),
	}
	if rec.HasWarning() {
		s.logger.Warn("serving unit overridden by import", append(fields, zap.String("warning", rec.Warning))...)
	} else {
		s.logger.Info("serving imported", fields...)
	}

	return &ImportResult{
		Serving:        *updated,
		Patch:          patch,
		Reconciliation: rec,
	}, nil
}

// Import fetches from source and applies the result in one step. Unlike
// Preview, a low-confidence match is refused so it can be reviewed first.
func (s *ImportService) Import(ctx context.Context, servingID uint, source string) (*ImportResult, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	preview, err := s.preview(fetchCtx, servingID, source)
	if err != nil {
		return nil, s.fetchError(ctx, fetchCtx, err)
	}
	if preview.LowConfidence {
		return nil, domain.ErrLowConfidence
	}

	res, err := s.Apply(fetchCtx, servingID, preview.Result)
	if err != nil && ctx.Err() == nil && errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: import timed out after %s", domain.ErrProviderFailure, s.timeout)
	}
	return res, err
}

// fetchError separates a caller cancellation from the import's own timeout.
func (s *ImportService) fetchError(parent, fetchCtx context.Context, err error) error {
	if perr := parent.Err(); perr != nil {
		return fmt.Errorf("%w: %w", domain.ErrImportCancelled, perr)
	}
	if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
		s.logger.Warn("provider fetch timed out", zap.Duration("timeout", s.timeout))
		return fmt.Errorf("%w: provider did not answer within %s", domain.ErrProviderFailure, s.timeout)
	}
	return err
}

func cancelledOr(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return fmt.Errorf("%w: %w", domain.ErrImportCancelled, cerr)
	}
	return err
}
