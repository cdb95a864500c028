package identity

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/huddle-chat/huddle/internal/common/errors"
)

const (
	stateCookie   = "huddle_oauth_state"
	sessionLength = 12 * time.Hour
)

// Handler exposes the browser sign-in flow. The callback exchanges the
// provider code for a profile and issues a local session token.
type Handler struct {
	oauth  *OAuthManager
	tokens *TokenManager
}

func NewHandler(oauth *OAuthManager, tokens *TokenManager) *Handler {
	return &Handler{
		oauth:  oauth,
		tokens: tokens,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	url, state := h.oauth.AuthURL()
	if state == "" {
		errors.WriteHTTP(w, errors.Internal("could not start sign-in", nil))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || !ValidateState(r.URL.Query().Get("state"), cookie.Value) {
		errors.WriteHTTP(w, errors.BadRequest("invalid oauth state"))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		errors.WriteHTTP(w, errors.BadRequest("missing authorization code"))
		return
	}

	token, err := h.oauth.Exchange(r.Context(), code)
	if err != nil {
		errors.WriteHTTP(w, errors.Unauthorized("sign-in failed"))
		return
	}

	viewer, err := h.oauth.FetchUserInfo(r.Context(), token.AccessToken)
	if err != nil {
		errors.WriteHTTP(w, errors.Unauthorized("could not resolve profile"))
		return
	}

	session, err := h.tokens.Issue(viewer, sessionLength)
	if err != nil {
		errors.WriteHTTP(w, errors.Internal("could not issue session", err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   stateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"accessToken": session,
		"viewer":      viewer,
	})
}
