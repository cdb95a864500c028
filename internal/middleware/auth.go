package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/huddle-chat/huddle/internal/common/errors"
	"github.com/huddle-chat/huddle/internal/common/logging"
	"github.com/huddle-chat/huddle/internal/identity"
	"github.com/huddle-chat/huddle/internal/workspaces"
)

// Auth verifies the bearer token and attaches the viewer to the request
// context. Membership is checked through the cached IsMember lookup;
// unknown viewers are provisioned from their token claims on first
// request. Membership failures do not block the request.
func Auth(tokens *identity.TokenManager, members *workspaces.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				errors.WriteHTTP(w, errors.Unauthorized("missing authorization header"))
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				errors.WriteHTTP(w, errors.Unauthorized("invalid authorization header"))
				return
			}

			viewer, err := tokens.Verify(token)
			if err != nil {
				errors.WriteHTTP(w, errors.Unauthorized("invalid token"))
				return
			}

			known, err := members.IsMember(r.Context(), viewer.WorkspaceID, viewer.ID)
			if err != nil {
				logging.FromContext(r.Context()).Warn("membership lookup failed",
					zap.String("user_id", viewer.ID),
					zap.Error(err),
				)
			}
			if !known {
				if err := members.EnsureMember(r.Context(), viewer); err != nil {
					logging.FromContext(r.Context()).Warn("membership sync failed",
						zap.String("user_id", viewer.ID),
						zap.Error(err),
					)
				}
			}

			next.ServeHTTP(w, r.WithContext(identity.WithViewer(r.Context(), viewer)))
		})
	}
}
