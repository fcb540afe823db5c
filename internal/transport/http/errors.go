package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/domain"
)

const (
	codeMethodNotAllowed     = "method_not_allowed"
	codeNotFound             = "not_found"
	codeInvalidRequestBody   = "invalid_request_body"
	codeLicensePlateRequired = "license_plate_required"
	codeInvalidLimit         = "invalid_limit"
	codeInternalError        = "internal_error"
)

// errorResponse carries the same status field as result bodies so clients
// can branch on status alone.
type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
	Code   string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{
		Status: string(domain.ResultError),
		Error:  msg,
		Code:   code,
	})
}

// writeDomainError maps validation sentinels to 400s. Anything else is a 500
// whose detail stays in the server log.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrLicensePlateRequired):
		writeError(w, http.StatusBadRequest, codeLicensePlateRequired, domain.ErrLicensePlateRequired.Error())
	case errors.Is(err, domain.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, codeInvalidLimit, domain.ErrInvalidLimit.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
