package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/ivankudzin/automarket/backend/internal/domain/errs"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Status maps a domain error to its HTTP status and response body.
func Status(err error) (int, APIError) {
	code := errs.Code(err)
	switch {
	case stderrors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest, APIError{Code: fallback(code, "VALIDATION_ERROR"), Message: err.Error()}
	case stderrors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden, APIError{Code: fallback(code, "FORBIDDEN"), Message: err.Error()}
	case stderrors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, APIError{Code: fallback(code, "NOT_FOUND"), Message: err.Error()}
	case stderrors.Is(err, errs.ErrIllegalTransition):
		return http.StatusConflict, APIError{Code: fallback(code, "ILLEGAL_TRANSITION"), Message: err.Error()}
	case stderrors.Is(err, errs.ErrConflict):
		return http.StatusConflict, APIError{Code: "CONFLICT", Message: "record was modified concurrently, retry"}
	}
	return http.StatusInternalServerError, APIError{Code: "INTERNAL_ERROR", Message: "internal server error"}
}

func WriteDomain(w http.ResponseWriter, err error) {
	status, body := Status(err)
	Write(w, status, body)
}

func fallback(code, def string) string {
	if code == "" {
		return def
	}
	return code
}
