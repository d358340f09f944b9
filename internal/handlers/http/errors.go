package http

import (
	"errors"
	"net/http"

	"streamie/internal/core/domain"
	apperrors "streamie/pkg/errors"
)

// toAppError maps domain errors onto HTTP-facing ones.
func toAppError(err error) *apperrors.AppError {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		return appErr
	}

	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return apperrors.NewNotFoundError("session").WithCause(err)
	case errors.Is(err, domain.ErrUserNotFound):
		return apperrors.NewNotFoundError("user").WithCause(err)
	case errors.Is(err, domain.ErrInvalidID):
		// an id that cannot exist is reported like a missing one
		return apperrors.NewNotFoundError("resource").WithCause(err)
	case errors.Is(err, domain.ErrInvalidTimeRange), errors.Is(err, domain.ErrEmptyPatch):
		return apperrors.NewInvalidInputError(err.Error()).WithCause(err)
	case errors.Is(err, domain.ErrDuplicateUsername):
		return apperrors.NewConflictError(err.Error()).WithCause(err)
	default:
		return apperrors.WrapError(err, apperrors.ErrCodeInternal, "Internal server error", http.StatusInternalServerError)
	}
}
