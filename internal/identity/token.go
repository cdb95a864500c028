package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims mirror what the hosted identity provider puts into its access
// tokens: the viewer profile plus the organization (workspace) code.
type Claims struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture,omitempty"`
	OrgCode string `json:"org_code"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret   []byte
	issuer   string
	audience string
}

func NewTokenManager(secret, issuer, audience string) *TokenManager {
	return &TokenManager{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
	}
}

// Verify parses and validates a bearer token, returning the viewer it
// identifies. The avatar falls back to a deterministic hash URL when the
// provider supplied no picture.
func (m *TokenManager) Verify(tokenString string) (*Viewer, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	if claims.OrgCode == "" {
		return nil, ErrInvalidToken
	}

	return &Viewer{
		ID:          claims.Subject,
		Name:        claims.Name,
		Email:       claims.Email,
		AvatarURL:   AvatarURL(claims.Picture, claims.Email),
		WorkspaceID: claims.OrgCode,
	}, nil
}

// Issue signs a token for the given viewer. Used by local dev tooling and
// tests; in production tokens come from the identity provider.
func (m *TokenManager) Issue(v *Viewer, duration time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name:    v.Name,
		Email:   v.Email,
		Picture: v.AvatarURL,
		OrgCode: v.WorkspaceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   v.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			Issuer:    m.issuer,
			Audience:  []string{m.audience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}
