package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nutrilog/backend/internal/domain"
	"go.uber.org/zap"
)

// genericValidationMessage hides validation details from clients; the
// details are logged with the request id instead.
const genericValidationMessage = "failed to process nutrition data"

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrImportCancelled):
		return http.StatusRequestTimeout
	case errors.Is(err, domain.ErrLowConfidence):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrUnknownSource):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrServingNotFound),
		errors.Is(err, domain.ErrFoodNotFound),
		errors.Is(err, domain.ErrMealNotFound),
		errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrProviderFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	switch status {
	case http.StatusUnprocessableEntity:
		message = genericValidationMessage
	case http.StatusInternalServerError:
		message = "internal server error"
	}

	fields := []zap.Field{
		zap.String("requestID", RequestID(c)),
		zap.String("path", c.FullPath()),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Info("request rejected", fields...)
	}

	c.AbortWithStatusJSON(status, errorResponse{Error: message, RequestID: RequestID(c)})
}

func (h *Handler) badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: message, RequestID: RequestID(c)})
}
