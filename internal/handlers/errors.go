package handlers

import (
	"errors"
	"net/http"

	"palsanalytix/internal/apperrors"
	helpers "palsanalytix/internal/utils/helpres"
)

// httpStatus переводит доменную ошибку в HTTP-код.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrDuplicateUser),
		errors.Is(err, apperrors.ErrDuplicatePayment):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrSignatureMismatch),
		errors.Is(err, apperrors.ErrCodeMismatch),
		errors.Is(err, apperrors.ErrCodeExpired),
		errors.Is(err, apperrors.ErrNoPendingSignup):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrPaymentNotConfirmed):
		return http.StatusPaymentRequired
	case errors.Is(err, apperrors.ErrDelivery),
		errors.Is(err, apperrors.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError отдаёт ошибку в едином формате вместе с подсказкой клиенту.
func writeError(w http.ResponseWriter, err error) {
	helpers.ErrorWithAction(w, httpStatus(err), err.Error(), apperrors.Action(err))
}
