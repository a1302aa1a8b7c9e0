package application

import (
	"errors"
	"net/http"

	"github.com/decoflow/production-service/internal/domain"
	apperrors "github.com/decoflow/production-service/pkg/errors"
)

// toAppError maps domain errors onto AppError. The domain error stays the
// wrapped cause so errors.Is keeps working on the result.
func toAppError(err error) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	var ve *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		return apperrors.ErrInvalidTransition(err.Error()).Wrap(err)
	case errors.As(err, &ve):
		appErr := apperrors.ErrValidation(ve.Error()).Wrap(err)
		if ve.Field != "" {
			appErr.WithDetail(ve.Field, ve.Message)
		}
		return appErr
	case errors.Is(err, domain.ErrValidation):
		return apperrors.ErrValidation(err.Error()).Wrap(err)
	case errors.Is(err, domain.ErrAuth):
		return apperrors.ErrUnauthorized(err.Error()).Wrap(err)
	case errors.Is(err, domain.ErrNotFound):
		return apperrors.NewAppError(apperrors.CodeNotFound, err.Error(), http.StatusNotFound).Wrap(err)
	case errors.Is(err, domain.ErrAlreadyExists):
		return apperrors.ErrConflict(err.Error()).Wrap(err)
	case errors.Is(err, domain.ErrNoBoxes):
		return apperrors.ErrUnprocessable(apperrors.CodeNoBoxes, err.Error()).Wrap(err)
	case errors.Is(err, domain.ErrLabelsMissing):
		return apperrors.ErrUnprocessable(apperrors.CodeLabelsMissing, err.Error()).Wrap(err)
	case errors.Is(err, domain.ErrPackingMismatch):
		return apperrors.ErrUnprocessable(apperrors.CodePackingMismatch, err.Error()).Wrap(err)
	case errors.Is(err, domain.ErrSignatureRequired):
		return apperrors.ErrUnprocessable(apperrors.CodeSignatureRequired, err.Error()).Wrap(err)
	default:
		return apperrors.ErrInfrastructure("job store").Wrap(err)
	}
}

// isRejection reports whether err is a business rejection rather than an
// infrastructure failure
func isRejection(appErr *apperrors.AppError) bool {
	return appErr.Code != apperrors.CodeInfrastructureError && appErr.Code != apperrors.CodeInternalError
}
