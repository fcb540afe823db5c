package http

import (
	"context"
	"net/http"

	"github.com/Huan-Yee/Smart-Parking-and-Resources-System/internal/domain"
)

// CountResetter is the minimal interface needed by the reset endpoint.
type CountResetter interface {
	ResetCount(ctx context.Context) domain.Result
}

// HandleReset returns an HTTP handler that zeroes the live count. The result
// status in the body tells callers whether the write happened.
func HandleReset(svc CountResetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := svc.ResetCount(r.Context())
		writeJSON(w, http.StatusCreated, newResultResponse(res))
	}
}
