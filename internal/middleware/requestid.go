// Package middleware provides HTTP middleware for the blackboard API.
package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Strob0t/blackboard/internal/logger"
)

const (
	headerRequestID    = "X-Request-ID"
	maxRequestIDLength = 128
)

// RequestID is HTTP middleware that extracts X-Request-ID from the request
// header or generates a new one. The ID is stored in the context and set
// on the response header. Oversized or multi-line IDs are replaced.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if !validRequestID(id) {
			id = generateID()
		}

		ctx := logger.WithRequestID(r.Context(), id)
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func validRequestID(id string) bool {
	return id != "" && len(id) <= maxRequestIDLength && !strings.ContainsAny(id, "\r\n")
}

// generateID returns a random UUID without dashes (32 hex chars).
func generateID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
