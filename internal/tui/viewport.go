package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
)

// viewportAdapter exposes a bubbles viewport to the anchor controller.
// Units are terminal rows.
type viewportAdapter struct {
	vp *viewport.Model
}

func (a *viewportAdapter) Top() int {
	return a.vp.YOffset
}

func (a *viewportAdapter) SetTop(top int) {
	a.vp.SetYOffset(top)
}

func (a *viewportAdapter) ViewHeight() int {
	return a.vp.Height
}

func (a *viewportAdapter) ContentHeight() int {
	return a.vp.TotalLineCount()
}
