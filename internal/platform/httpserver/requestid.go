package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const defaultRequestIDHeader = "X-Request-Id"

type ctxKeyRequestID struct{}

// RequestIDFromContext returns the request id injected by
// RequestIDMiddleware, or "" outside a request.
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return v
}

// RequestIDMiddleware propagates an incoming request id header or mints
// a fresh one, echoing it on the response so callers can correlate logs.
func RequestIDMiddleware(headerName string) func(next http.Handler) http.Handler {
	headerName = strings.TrimSpace(headerName)
	if headerName == "" {
		headerName = defaultRequestIDHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get(headerName))
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set(headerName, rid)
			next.ServeHTTP(w, r.WithContext(
				context.WithValue(r.Context(), ctxKeyRequestID{}, rid)))
		})
	}
}
