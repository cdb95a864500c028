package ratelimit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowDisabled(t *testing.T) {
	l := NewLimiter(nil, 1, 1, false)
	defer l.Close()

	for i := 0; i < 100; i++ {
		ok, err := l.Allow(context.Background(), "write:user-1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestAllowLocalBurst(t *testing.T) {
	l := NewLimiter(nil, 60, 3, true)
	defer l.Close()

	key := "default-scope-key"
	for i := 0; i < 3; i++ {
		ok, err := l.Allow(context.Background(), key)
		require.NoError(t, err)
		assert.True(t, ok, "request %d inside burst", i)
	}

	ok, err := l.Allow(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, ok, "burst exhausted")
}

func TestScopesAreIndependent(t *testing.T) {
	l := NewLimiter(nil, 60, 1, true)
	defer l.Close()

	ok, err := l.Allow(context.Background(), "ai:user-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Allow(context.Background(), "ai:user-1")
	require.NoError(t, err)
	require.True(t, ok)

	// The ai bucket's burst is 2, so the third call is rejected.
	ok, err = l.Allow(context.Background(), "ai:user-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// A different scope for the same viewer is untouched.
	ok, err = l.Allow(context.Background(), "read:user-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnknownScopeUsesDefault(t *testing.T) {
	l := NewLimiter(nil, 60, 1, true)
	defer l.Close()

	ok, err := l.Allow(context.Background(), "mystery:user-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Allow(context.Background(), "mystery:user-1")
	require.NoError(t, err)
	assert.False(t, ok, "default burst of 1 exhausted")
}

func TestReset(t *testing.T) {
	l := NewLimiter(nil, 60, 1, true)
	defer l.Close()

	key := "user-2"
	ok, err := l.Allow(context.Background(), key)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Allow(context.Background(), key)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, l.Reset(context.Background(), key))

	ok, err = l.Allow(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, ok, "reset restores the full burst")
}
