package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/huddle-chat/huddle/internal/observability"
)

func Metrics(m *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			// Use the route template so path parameters do not explode
			// label cardinality.
			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tpl, err := current.GetPathTemplate(); err == nil {
					route = tpl
				}
			}

			m.RecordRequest(r.Method, route, rw.status, time.Since(start))
		})
	}
}
