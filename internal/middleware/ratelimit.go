package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/huddle-chat/huddle/internal/common/errors"
	"github.com/huddle-chat/huddle/internal/common/logging"
	"github.com/huddle-chat/huddle/internal/identity"
	"github.com/huddle-chat/huddle/internal/ratelimit"
)

// RateLimit throttles requests per viewer. Reads and writes get separate
// budgets, and AI endpoints get a much tighter one.
func RateLimit(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limitKey(r)

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logging.FromContext(r.Context()).Warn("rate limit check failed",
					zap.String("key", key),
					zap.Error(err),
				)
				// Fail open rather than blocking traffic on limiter errors.
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				errors.WriteHTTP(w, errors.RateLimited("rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func limitKey(r *http.Request) string {
	subject := clientIP(r)
	if viewer := identity.ViewerFromContext(r.Context()); viewer != nil {
		subject = viewer.ID
	}

	scope := "write"
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/ai/"):
		scope = "ai"
	case r.Method == http.MethodGet || r.Method == http.MethodHead:
		scope = "read"
	}

	return scope + ":" + subject
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if i := strings.IndexByte(forwarded, ','); i >= 0 {
			return strings.TrimSpace(forwarded[:i])
		}
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
