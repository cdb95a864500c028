package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *TokenManager {
	return NewTokenManager("test-secret", "huddle-id", "huddle-api")
}

func testToken(t *testing.T, m *TokenManager, v *Viewer, ttl time.Duration) string {
	t.Helper()
	token, err := m.Issue(v, ttl)
	require.NoError(t, err)
	return token
}

func TestVerifyRoundTrip(t *testing.T) {
	m := newTestManager()
	token := testToken(t, m, &Viewer{
		ID:          "user-1",
		Name:        "Alice",
		Email:       "alice@example.com",
		AvatarURL:   "https://example.com/alice.png",
		WorkspaceID: "org-1",
	}, time.Hour)

	viewer, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", viewer.ID)
	assert.Equal(t, "Alice", viewer.Name)
	assert.Equal(t, "org-1", viewer.WorkspaceID)
	assert.Equal(t, "https://example.com/alice.png", viewer.AvatarURL)
}

func TestVerifyExpired(t *testing.T) {
	m := newTestManager()
	token := testToken(t, m, &Viewer{ID: "user-1", WorkspaceID: "org-1"}, -time.Minute)

	_, err := m.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyWrongSecret(t *testing.T) {
	token := testToken(t, newTestManager(), &Viewer{ID: "user-1", WorkspaceID: "org-1"}, time.Hour)

	other := NewTokenManager("other-secret", "huddle-id", "huddle-api")
	_, err := other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongAudience(t *testing.T) {
	token := testToken(t, newTestManager(), &Viewer{ID: "user-1", WorkspaceID: "org-1"}, time.Hour)

	other := NewTokenManager("test-secret", "huddle-id", "someone-else")
	_, err := other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRequiresOrgCode(t *testing.T) {
	m := newTestManager()
	token := testToken(t, m, &Viewer{ID: "user-1"}, time.Hour)

	_, err := m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	_, err := newTestManager().Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAvatarFallback(t *testing.T) {
	m := newTestManager()
	token := testToken(t, m, &Viewer{ID: "user-1", Email: "bob@example.com", WorkspaceID: "org-1"}, time.Hour)

	viewer, err := m.Verify(token)
	require.NoError(t, err)
	assert.Contains(t, viewer.AvatarURL, "gravatar.com/avatar/")

	// Same email, same fallback URL.
	assert.Equal(t, AvatarURL("", "bob@example.com"), viewer.AvatarURL)
	assert.Equal(t, AvatarURL("", "Bob@Example.com "), viewer.AvatarURL)
}

func TestAvatarPrefersProviderPicture(t *testing.T) {
	assert.Equal(t, "https://p.example/x.png", AvatarURL("https://p.example/x.png", "bob@example.com"))
}

func TestValidateState(t *testing.T) {
	assert.True(t, ValidateState("abc", "abc"))
	assert.False(t, ValidateState("abc", "xyz"))
	assert.False(t, ValidateState("", ""))
}
