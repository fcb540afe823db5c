package http

import (
	stdhttp "net/http"
)

// HandleHealth reports liveness. The service is live even without a store;
// X-Store-Status tells health checks whether writes will persist.
func HandleHealth(storeConnected bool) stdhttp.HandlerFunc {
	status := "connected"
	if !storeConnected {
		status = "disconnected"
	}
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Store-Status", status)
		w.WriteHeader(stdhttp.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
