package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedDefaults(t *testing.T) {
	t.Setenv("FEED_PAGE_SIZE", "")
	t.Setenv("FEED_ANCHOR_THRESHOLD", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Feed.PageSize)
	assert.Equal(t, 3, cfg.Feed.AnchorThreshold)
}

func TestFeedEnvOverrides(t *testing.T) {
	t.Setenv("FEED_PAGE_SIZE", "50")
	t.Setenv("FEED_ANCHOR_THRESHOLD", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Feed.PageSize)
	assert.Equal(t, 5, cfg.Feed.AnchorThreshold)
}
