package transport

import (
	"errors"
	"net/http"
	"strconv"

	"ryven-shop/internal/domain"
	"ryven-shop/internal/middleware"
	"ryven-shop/internal/repository"
	"ryven-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// respondError maps a view-model or repository error onto an HTTP response.
// Anything not recognised is a failed store call and becomes a 502 carrying
// the given message.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error, message string) {
	if ve, ok := service.IsValidationError(err); ok {
		details := make([]middleware.ValidationError, 0, len(ve.Fields))
		for _, f := range ve.Fields {
			details = append(details, middleware.ValidationError{Field: f.Field, Message: f.Message})
		}
		logger.Debug("Form rejected", zap.Error(err))
		middleware.RespondWithValidationErrors(w, details)
		return
	}
	if details := middleware.FormatValidationErrors(err); len(details) > 0 {
		logger.Debug("Request validation failed", zap.Error(err))
		middleware.RespondWithValidationErrors(w, details)
		return
	}

	switch {
	case errors.Is(err, middleware.ErrMalformedBody):
		logger.Debug("Malformed request body", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
	case errors.Is(err, service.ErrImageTooLarge),
		errors.Is(err, service.ErrImageNotImage),
		errors.Is(err, service.ErrMissingContact),
		errors.Is(err, service.ErrUnknownStatus),
		errors.Is(err, service.ErrUnknownFilter):
		logger.Debug("Request rejected", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrProductNotFound):
		logger.Debug("Product not found", zap.Error(err))
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case service.IsInFlight(err):
		middleware.RespondWithError(w, http.StatusConflict, "operation already in progress")
	case errors.Is(err, service.ErrConfirmationRequired):
		middleware.RespondWithError(w, http.StatusConflict, "confirmation required")
	case errors.Is(err, service.ErrDemoUnavailable):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	default:
		logger.Error(message, zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadGateway, message)
	}
}

// sessionFor returns the calling operator's session. A new session loads both
// screens once so its first render is not empty.
func sessionFor(w http.ResponseWriter, r *http.Request, registry *service.Registry) (*service.Session, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok || userID == "" {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}

	sess, created := registry.Get(userID)
	if created {
		_ = sess.Orders.Refresh(r.Context())
		_ = sess.Catalog.Refresh(r.Context())
	}
	return sess, true
}

func productIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return 0, false
	}
	return id, true
}

// parseStatus accepts canonical and legacy status names
func parseStatus(raw string) (domain.OrderStatus, error) {
	status, ok := domain.ParseOrderStatus(raw)
	if !ok {
		return "", service.ErrUnknownStatus
	}
	return status, nil
}
