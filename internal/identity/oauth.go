package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/huddle-chat/huddle/internal/common/config"
	"golang.org/x/oauth2"
)

// OAuthManager drives the authorization-code flow against the hosted
// identity provider. The exchanged access token is what API calls carry as
// the bearer credential.
type OAuthManager struct {
	config      *oauth2.Config
	userInfoURL string
}

func NewOAuthManager(cfg config.OAuthProvider) *OAuthManager {
	return &OAuthManager{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
			Scopes: []string{"openid", "profile", "email"},
		},
		userInfoURL: cfg.UserInfoURL,
	}
}

func (m *OAuthManager) AuthURL() (string, string) {
	state := generateState()
	return m.config.AuthCodeURL(state), state
}

func (m *OAuthManager) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := m.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}
	return token, nil
}

// FetchUserInfo resolves the provider's profile for an access token.
// Used by dev tooling to confirm who a token belongs to.
func (m *OAuthManager) FetchUserInfo(ctx context.Context, accessToken string) (*Viewer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info request failed: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Sub     string `json:"sub"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
		OrgCode string `json:"org_code"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	return &Viewer{
		ID:          raw.Sub,
		Name:        raw.Name,
		Email:       raw.Email,
		AvatarURL:   AvatarURL(raw.Picture, raw.Email),
		WorkspaceID: raw.OrgCode,
	}, nil
}

func ValidateState(state, expected string) bool {
	return state != "" && state == expected
}

func generateState() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(b)
}
