package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nutrilog/backend/internal/domain"
	"github.com/nutrilog/backend/internal/usecase"
	"go.uber.org/zap"
)

// NutritionLookup resolves provider nutrition for a food
type NutritionLookup interface {
	Lookup(ctx context.Context, request *domain.LookupRequest) (*usecase.LookupResult, error)
}

// ServingImporter previews and applies provider nutrition to servings
type ServingImporter interface {
	Preview(ctx context.Context, servingID uint, source string) (*usecase.ImportPreview, error)
	Apply(ctx context.Context, servingID uint, result domain.ProviderNutritionResult) (*usecase.ImportResult, error)
	Import(ctx context.Context, servingID uint, source string) (*usecase.ImportResult, error)
}

// NutritionTracker derives meal and day totals
type NutritionTracker interface {
	MealTotals(ctx context.Context, mealID uint) (*usecase.MealSummary, error)
	DayProgress(ctx context.Context, userID uint, date time.Time) (*usecase.DaySummary, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	lookup   NutritionLookup
	importer ServingImporter
	tracker  NutritionTracker
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler. Nil services answer 501.
func NewHandler(lookup NutritionLookup, importer ServingImporter, tracker NutritionTracker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		lookup:   lookup,
		importer: importer,
		tracker:  tracker,
		logger:   logger.Named("http"),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "nutrilog-backend",
		"version": "1.0.0",
	})
}

func notImplemented(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, errorResponse{Error: "service not configured"})
}

type searchResponse struct {
	usecase.LookupResult
	LowConfidence bool `json:"lowConfidence"`
}

// SearchNutrition handles nutrition search requests
func (h *Handler) SearchNutrition(c *gin.Context) {
	if h.lookup == nil {
		notImplemented(c)
		return
	}

	var req domain.LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "productName is required")
		return
	}

	found, err := h.lookup.Lookup(c.Request.Context(), &req)
	if err != nil && !(errors.Is(err, domain.ErrLowConfidence) && found != nil) {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, searchResponse{
		LookupResult:  *found,
		LowConfidence: err != nil,
	})
}

type previewRequest struct {
	Source string `json:"source"`
}

type previewResponse struct {
	Outcome       usecase.Outcome                `json:"outcome"`
	Factor        float64                        `json:"factor"`
	Warning       *string                        `json:"warning"`
	Patch         domain.ServingPatch            `json:"patch"`
	Result        domain.ProviderNutritionResult `json:"result"`
	Match         *domain.MatchResult            `json:"match,omitempty"`
	LowConfidence bool                           `json:"lowConfidence"`
	Serving       domain.Serving                 `json:"serving"`
}

// PreviewImport fetches provider nutrition for a serving without saving it
func (h *Handler) PreviewImport(c *gin.Context) {
	if h.importer == nil {
		notImplemented(c)
		return
	}

	id, ok := h.uintParam(c, "id")
	if !ok {
		return
	}

	var req previewRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, "invalid request body")
			return
		}
	}

	preview, err := h.importer.Preview(c.Request.Context(), id, req.Source)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, previewResponse{
		Outcome:       preview.Reconciliation.Outcome,
		Factor:        preview.Reconciliation.Factor,
		Warning:       warningOrNil(preview.Reconciliation),
		Patch:         preview.Patch,
		Result:        preview.Result,
		Match:         preview.Match,
		LowConfidence: preview.LowConfidence,
		Serving:       preview.Serving,
	})
}

// applyRequest carries either an accepted result from a preview, or a
// source to fetch from and apply in one step.
type applyRequest struct {
	Result *domain.ProviderNutritionResult `json:"result"`
	Source string                          `json:"source"`
}

type applyResponse struct {
	Outcome usecase.Outcome     `json:"outcome"`
	Warning *string             `json:"warning"`
	Patch   domain.ServingPatch `json:"patch"`
	Serving domain.Serving      `json:"serving"`
}

// ApplyImport writes provider nutrition to a serving. With a result it applies
// that result; otherwise it fetches from source and applies, refusing
// low-confidence matches.
func (h *Handler) ApplyImport(c *gin.Context) {
	if h.importer == nil {
		notImplemented(c)
		return
	}

	id, ok := h.uintParam(c, "id")
	if !ok {
		return
	}

	var req applyRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.badRequest(c, "invalid request body")
			return
		}
	}

	var (
		applied *usecase.ImportResult
		err     error
	)
	if req.Result != nil {
		applied, err = h.importer.Apply(c.Request.Context(), id, *req.Result)
	} else {
		applied, err = h.importer.Import(c.Request.Context(), id, req.Source)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, applyResponse{
		Outcome: applied.Reconciliation.Outcome,
		Warning: warningOrNil(applied.Reconciliation),
		Patch:   applied.Patch,
		Serving: applied.Serving,
	})
}

// MealTotals returns per-item nutrition and totals for a meal
func (h *Handler) MealTotals(c *gin.Context) {
	if h.tracker == nil {
		notImplemented(c)
		return
	}

	id, ok := h.uintParam(c, "id")
	if !ok {
		return
	}

	summary, err := h.tracker.MealTotals(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// DaySummary returns a user's day totals and goal progress
func (h *Handler) DaySummary(c *gin.Context) {
	if h.tracker == nil {
		notImplemented(c)
		return
	}

	userID, ok := h.uintParam(c, "userId")
	if !ok {
		return
	}
	date, err := domain.ParseDay(c.Param("date"))
	if err != nil {
		h.badRequest(c, "date must be YYYY-MM-DD")
		return
	}

	summary, err := h.tracker.DayProgress(c.Request.Context(), userID, date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		h.badRequest(c, name+" must be a positive integer")
		return 0, false
	}
	return uint(v), true
}

func warningOrNil(rec usecase.Reconciliation) *string {
	if !rec.HasWarning() {
		return nil
	}
	w := rec.Warning
	return &w
}
