package anchor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeViewport struct {
	top     int
	viewH   int
	content int
}

func (v *fakeViewport) Top() int           { return v.top }
func (v *fakeViewport) SetTop(top int)     { v.top = top }
func (v *fakeViewport) ViewHeight() int    { return v.viewH }
func (v *fakeViewport) ContentHeight() int { return v.content }

func TestInitialRenderAnchorsOnce(t *testing.T) {
	vp := &fakeViewport{viewH: 400, content: 1000}
	c := NewController(vp, 80)

	require.Equal(t, Uninitialized, c.State())
	c.HandleInitialRender()
	assert.Equal(t, Anchored, c.State())
	assert.Equal(t, 600, vp.top)

	// A second initial render must not re-fire.
	vp.top = 100
	c.HandleInitialRender()
	assert.Equal(t, 100, vp.top)
}

func TestAppendWhileAnchoredStaysAtBottom(t *testing.T) {
	vp := &fakeViewport{viewH: 400, content: 1000}
	c := NewController(vp, 80)
	c.HandleInitialRender()

	vp.content = 1200
	c.HandleAppend()
	assert.Equal(t, 800, vp.top)
	assert.Equal(t, Anchored, c.State())
	assert.False(t, c.NewMessages())
}

func TestAppendWhileFreeLeavesOffsetAlone(t *testing.T) {
	vp := &fakeViewport{viewH: 400, content: 1000}
	c := NewController(vp, 80)
	c.HandleInitialRender()

	// User scrolls up past the threshold.
	vp.top = 100
	c.HandleScroll()
	require.Equal(t, Free, c.State())

	vp.content = 1500
	c.HandleAppend()
	assert.Equal(t, 100, vp.top, "absolute offset must not change")
	assert.True(t, c.NewMessages(), "affordance appears instead of scrolling")
}

func TestAppendNearBottomWithinThresholdReanchors(t *testing.T) {
	vp := &fakeViewport{viewH: 400, content: 1000}
	c := NewController(vp, 80)
	c.HandleInitialRender()

	// 50 units above the bottom edge: still inside the threshold.
	vp.top = 550
	c.HandleScroll()
	require.Equal(t, Anchored, c.State())

	vp.content = 1100
	c.HandleAppend()
	assert.Equal(t, 700, vp.top)
}

func TestPrependAntiJump(t *testing.T) {
	vp := &fakeViewport{viewH: 400, content: 1000, top: 40}
	c := NewController(vp, 80)
	c.HandleInitialRender()
	vp.top = 40
	c.HandleScroll()

	// An older page adds 300 units above the fold.
	vp.content = 1300
	c.HandlePrepend(300)
	assert.Equal(t, 340, vp.top, "viewed item must stay visually stationary")
	assert.Equal(t, Free, c.State())
}

func TestPrependNeverScrollsToBottom(t *testing.T) {
	vp := &fakeViewport{viewH: 400, content: 1000}
	c := NewController(vp, 80)
	c.HandleInitialRender()
	require.Equal(t, 600, vp.top)

	vp.content = 1250
	c.HandlePrepend(250)
	assert.Equal(t, 850, vp.top)
	assert.NotEqual(t, 0, vp.top)
}

func TestContentGrowthKeepsAnchor(t *testing.T) {
	vp := &fakeViewport{viewH: 400, content: 1000}
	c := NewController(vp, 80)
	c.HandleInitialRender()

	// An image finished loading and silently grew the content.
	vp.content = 1080
	c.HandleContentGrowth()
	assert.Equal(t, 680, vp.top)

	// Not anchored: growth must not move the viewport.
	vp.top = 50
	c.HandleScroll()
	vp.content = 1200
	c.HandleContentGrowth()
	assert.Equal(t, 50, vp.top)
}

func TestScrollToBottomForcesAnchor(t *testing.T) {
	vp := &fakeViewport{viewH: 400, content: 1000}
	c := NewController(vp, 80)
	c.HandleInitialRender()

	vp.top = 0
	c.HandleScroll()
	vp.content = 1100
	c.HandleAppend()
	require.True(t, c.NewMessages())

	c.ScrollToBottom()
	assert.Equal(t, Anchored, c.State())
	assert.Equal(t, 700, vp.top)
	assert.False(t, c.NewMessages())
}

func TestNearTop(t *testing.T) {
	vp := &fakeViewport{viewH: 400, content: 1000}
	c := NewController(vp, 80)
	c.HandleInitialRender()

	assert.False(t, c.NearTop())
	vp.top = 60
	assert.True(t, c.NearTop())
	vp.top = 81
	assert.False(t, c.NearTop())
}

func TestShortContentCountsAsBottom(t *testing.T) {
	vp := &fakeViewport{viewH: 400, content: 200}
	c := NewController(vp, 80)
	c.HandleInitialRender()
	assert.Equal(t, 0, vp.top)
	assert.Equal(t, Anchored, c.State())

	vp.content = 300
	c.HandleAppend()
	assert.Equal(t, 0, vp.top)
}

func TestNilViewportIsNoOp(t *testing.T) {
	c := NewController(nil, 0)

	assert.NotPanics(t, func() {
		c.HandleInitialRender()
		c.HandleAppend()
		c.HandlePrepend(100)
		c.HandleContentGrowth()
		c.HandleScroll()
		c.ScrollToBottom()
	})
	assert.Equal(t, Uninitialized, c.State())
	assert.False(t, c.NearTop())

	// Attaching late brings the machine to life.
	vp := &fakeViewport{viewH: 400, content: 900}
	c.Attach(vp)
	c.HandleInitialRender()
	assert.Equal(t, Anchored, c.State())
	assert.Equal(t, 500, vp.top)
}
