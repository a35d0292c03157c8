package auditlog

import (
	"net/http"
	"regexp"
)

// CorrelationHeader carries the correlation id on requests and responses.
const CorrelationHeader = "X-Correlation-ID"

var validCorrelation = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// Correlate stores a correlation id in the request context so audit events
// written while serving the request can be grouped. A well-formed incoming
// X-Correlation-ID is reused; otherwise a UUID is generated. The id is echoed
// on the response.
func Correlate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationHeader)
		if !validCorrelation.MatchString(id) {
			id = ""
		}
		ctx := WithCorrelationID(r.Context(), id)
		w.Header().Set(CorrelationHeader, CorrelationID(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
