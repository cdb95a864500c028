// Package anchor decides where the viewport goes when feed content
// changes: stay pinned to the bottom, hold position while older pages
// are prepended, or surface a "new messages" affordance when the user
// has scrolled away.
package anchor

import "sync"

type State int

const (
	Uninitialized State = iota
	Anchored
	Free
)

func (s State) String() string {
	switch s {
	case Anchored:
		return "anchored"
	case Free:
		return "free"
	default:
		return "uninitialized"
	}
}

// DefaultThreshold is the distance from the bottom edge within which the
// viewport still counts as anchored.
const DefaultThreshold = 80

// Viewport abstracts the scroll region. Units are whatever the toolkit
// measures in; the controller only does arithmetic on them.
type Viewport interface {
	Top() int
	SetTop(top int)
	ViewHeight() int
	ContentHeight() int
}

// Controller is the scroll state machine. All methods are no-ops while
// no viewport is attached, and offset corrections are serialized so a
// prepend and an append in the same tick cannot double-apply.
type Controller struct {
	mu          sync.Mutex
	vp          Viewport
	state       State
	threshold   int
	newMessages bool
}

func NewController(vp Viewport, threshold int) *Controller {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Controller{vp: vp, threshold: threshold}
}

// Attach sets the viewport once the scroll region is mounted.
func (c *Controller) Attach(vp Viewport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vp = vp
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// NewMessages reports whether appended items arrived while the user was
// scrolled away from the bottom.
func (c *Controller) NewMessages() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.newMessages
}

func (c *Controller) bottomTop() int {
	top := c.vp.ContentHeight() - c.vp.ViewHeight()
	if top < 0 {
		top = 0
	}
	return top
}

func (c *Controller) atBottom() bool {
	return c.bottomTop()-c.vp.Top() <= c.threshold
}

// HandleInitialRender anchors to the bottom edge after the first page of
// content renders. It fires once; later calls do nothing.
func (c *Controller) HandleInitialRender() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vp == nil || c.state != Uninitialized {
		return
	}
	c.vp.SetTop(c.bottomTop())
	c.state = Anchored
}

// HandleAppend reacts to new items at the bottom edge: re-anchor when
// anchored, otherwise leave the offset alone and raise the new-messages
// affordance.
func (c *Controller) HandleAppend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vp == nil || c.state == Uninitialized {
		return
	}
	if c.state == Anchored {
		c.vp.SetTop(c.bottomTop())
		return
	}
	c.newMessages = true
}

// HandlePrepend shifts the offset by exactly the height the prepended
// content introduced, so the item the user was reading stays put. It
// never moves the viewport to the bottom.
func (c *Controller) HandlePrepend(heightDelta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vp == nil || c.state == Uninitialized || heightDelta <= 0 {
		return
	}
	c.vp.SetTop(c.vp.Top() + heightDelta)
	// The bottom edge moved away by the same delta; with content above
	// the fold the viewport is no longer tracking it.
	if !c.atBottom() {
		c.state = Free
	}
}

// HandleContentGrowth re-runs the stay-anchored check after content grew
// in place, such as an image finishing its load inside the region.
func (c *Controller) HandleContentGrowth() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vp == nil || c.state != Anchored {
		return
	}
	c.vp.SetTop(c.bottomTop())
}

// HandleScroll updates the state after a user-driven scroll.
func (c *Controller) HandleScroll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vp == nil || c.state == Uninitialized {
		return
	}
	if c.atBottom() {
		c.state = Anchored
		c.newMessages = false
	} else {
		c.state = Free
	}
}

// ScrollToBottom is the explicit user action: force-anchor and clear the
// new-messages affordance.
func (c *Controller) ScrollToBottom() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vp == nil {
		return
	}
	c.vp.SetTop(c.bottomTop())
	c.state = Anchored
	c.newMessages = false
}

// NearTop reports whether the viewport is close enough to the top edge
// to trigger loading an older page.
func (c *Controller) NearTop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vp == nil || c.state == Uninitialized {
		return false
	}
	return c.vp.Top() <= c.threshold
}
