package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Strob0t/blackboard/internal/port/cache"
)

const (
	headerIdempotencyKey   = "Idempotency-Key"
	headerIdempotentReplay = "Idempotent-Replayed"
	maxIdempotencyBody     = 1 << 20 // 1 MB
	idempotencyCachePrefix = "idem:"
)

// idempotencyEntry stores a cached HTTP response.
type idempotencyEntry struct {
	StatusCode int                 `json:"status_code"`
	Headers    map[string][]string `json:"headers"`
	Body       []byte              `json:"body"`
}

// Idempotency returns middleware that deduplicates POST/PUT/DELETE requests
// carrying an Idempotency-Key header. The first response for a key is kept
// in c for ttl and replayed for every retry. Server errors are not cached so
// a retry can still succeed.
func Idempotency(c cache.Cache, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(headerIdempotencyKey)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			cacheKey := idempotencyCacheKey(r, key)

			data, found, err := c.Get(r.Context(), cacheKey)
			if err != nil {
				slog.WarnContext(r.Context(), "idempotency: cache lookup failed", "key", key, "error", err)
			}
			if found {
				var cached idempotencyEntry
				if err := json.Unmarshal(data, &cached); err == nil {
					replay(w, &cached)
					return
				}
				slog.WarnContext(r.Context(), "idempotency: corrupt cache entry", "key", key)
			}

			rec := &responseRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				body:           &bytes.Buffer{},
			}
			next.ServeHTTP(rec, r)

			if rec.statusCode >= http.StatusInternalServerError || rec.body.Len() > maxIdempotencyBody {
				return
			}
			entry, err := json.Marshal(idempotencyEntry{
				StatusCode: rec.statusCode,
				Headers:    w.Header().Clone(),
				Body:       rec.body.Bytes(),
			})
			if err != nil {
				return
			}
			if err := c.Set(r.Context(), cacheKey, entry, ttl); err != nil {
				slog.WarnContext(r.Context(), "idempotency: failed to store response", "key", key, "error", err)
			}
		})
	}
}

// idempotencyCacheKey scopes a client key to method and path so the same key
// reused on another endpoint does not replay an unrelated response.
func idempotencyCacheKey(r *http.Request, key string) string {
	sum := sha256.Sum256([]byte(r.Method + " " + r.URL.Path + " " + key))
	return idempotencyCachePrefix + hex.EncodeToString(sum[:])
}

func replay(w http.ResponseWriter, e *idempotencyEntry) {
	for k, vals := range e.Headers {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set(headerIdempotentReplay, "true")
	w.WriteHeader(e.StatusCode)
	_, _ = w.Write(e.Body)
}

// responseRecorder wraps http.ResponseWriter to capture the response.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
