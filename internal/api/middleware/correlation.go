package middleware

import (
	"net/http"

	"github.com/rs/xid"

	"github.com/darmiel/verdict/internal/logging"
)

// CorrelationIDHeader carries the request correlation ID in and out.
const CorrelationIDHeader = "X-Correlation-ID"

// Correlation tags every request with an ID, either the caller's own
// X-Correlation-ID or a fresh xid, and echoes it on the response so the
// same ID shows up in server logs, audit entries and client errors.
func Correlation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationIDHeader)
		if id == "" {
			id = xid.New().String()
		}
		w.Header().Set(CorrelationIDHeader, id)

		next.ServeHTTP(w, r.WithContext(logging.WithCorrelationID(r.Context(), id)))
	})
}
