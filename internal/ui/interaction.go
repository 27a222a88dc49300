package ui

import (
	"time"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/geom"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/render"
)

// Double click window and slop, in canvas units.
const (
	doubleClickTime = 400 * time.Millisecond
	doubleClickSlop = 4.0
)

// Canvas turns pointer input in canvas coordinates into editor gestures.
// It knows nothing about windows, so the gio layer only converts screen
// positions and forwards them.
type Canvas struct {
	editor *circuit.Editor

	lastPress   time.Time
	lastPressAt geom.Point
}

// NewCanvas binds a canvas to an editor.
func NewCanvas(e *circuit.Editor) *Canvas {
	return &Canvas{editor: e}
}

// Press handles a primary button press at p. It returns a short status
// message for the status bar, empty when there is nothing to say.
func (c *Canvas) Press(p geom.Point, now time.Time) (string, error) {
	double := now.Sub(c.lastPress) <= doubleClickTime && p.Distance(c.lastPressAt) <= doubleClickSlop
	c.lastPress, c.lastPressAt = now, p
	if double {
		// A third click starts a new pair.
		c.lastPress = time.Time{}
	}

	view := c.editor.View()
	hit := render.HitTest(&view.Snapshot, p)
	switch hit.Kind {
	case render.HitPort:
		if err := c.editor.PointerDownPort(hit.ComponentID, hit.PortID, p); err != nil {
			return "", err
		}
		return "Drag to another port to connect", nil
	case render.HitComponent:
		if double {
			return "", c.editor.DoubleClick(hit.ComponentID)
		}
		return "", c.editor.PointerDownComponent(hit.ComponentID, p)
	case render.HitWire:
		if err := c.editor.ClickWire(hit.WireID); err != nil {
			return "", err
		}
		return "Removed " + hit.WireID, nil
	}
	return "", nil
}

// Move tracks the pointer: it drags the selected component, follows the
// pending wire and updates the hovered port.
func (c *Canvas) Move(p geom.Point) error {
	view := c.editor.View()
	hit := render.HitTest(&view.Snapshot, p)
	if hit.Kind == render.HitPort {
		ref := hit.Port()
		c.editor.HoverPort(&ref)
	} else {
		c.editor.HoverPort(nil)
	}
	return c.editor.PointerMove(p)
}

// Release handles a primary button release at p. It reports the wire
// created by a completed connection gesture.
func (c *Canvas) Release(p geom.Point) (circuit.Wire, bool, error) {
	view := c.editor.View()
	hit := render.HitTest(&view.Snapshot, p)
	switch hit.Kind {
	case render.HitPort:
		return c.editor.PointerUpPort(hit.ComponentID, hit.PortID)
	case render.HitComponent:
		c.editor.PointerUpComponent()
		c.editor.Connector().Cancel()
		return circuit.Wire{}, false, nil
	}
	c.editor.PointerUpCanvas()
	return circuit.Wire{}, false, nil
}
