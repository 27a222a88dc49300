package circuit

import (
	"errors"
	"fmt"
	"io"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/geom"
)

// Mode is the user-selected interaction mode.
type Mode uint8

const (
	ModeComponent Mode = iota
	ModeWire
)

var modeNames = map[Mode]string{
	ModeComponent: "component",
	ModeWire:      "wire",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", m)
}

// ParseMode maps "component" or "wire" to a Mode.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("circuit: unknown mode %q", s)
}

// PortRef names a port on a component.
type PortRef struct {
	ComponentID string
	PortID      string
}

// View is everything a renderer needs to draw the editor.
type View struct {
	Snapshot
	Selected    string    // selected component id, empty if none
	Pending     *Endpoint // start of the wire being drawn
	Pointer     geom.Point
	Hover       *PortRef
	Mode        Mode
	DisplayMode Mode
}

// Editor is one editing session. It owns its document and translates
// pointer gestures into document operations. It is not safe for
// concurrent use.
type Editor struct {
	doc  *Document
	conn *Connector

	mode     Mode
	hover    *PortRef
	selected string

	dragging bool
	last     geom.Point // last pointer position seen while dragging
	pointer  geom.Point // live pointer, used to draw the pending wire

	editing string // component whose properties are open
}

// NewEditor returns a session over an empty document.
func NewEditor() *Editor {
	return NewEditorFor(NewDocument())
}

// NewEditorFor returns a session over an existing document.
func NewEditorFor(doc *Document) *Editor {
	return &Editor{doc: doc, conn: NewConnector(doc)}
}

// Document returns the session document.
func (e *Editor) Document() *Document { return e.doc }

// Connector returns the session wiring state machine.
func (e *Editor) Connector() *Connector { return e.conn }

// Mode returns the interaction mode.
func (e *Editor) Mode() Mode { return e.mode }

// SetMode switches the interaction mode, dropping the selection, any drag
// and any pending wire.
func (e *Editor) SetMode(m Mode) {
	e.mode = m
	e.Deselect()
	e.conn.Cancel()
}

// DisplayMode is the affordance to show: wire while a port is hovered or a
// wire is being drawn, otherwise the interaction mode.
func (e *Editor) DisplayMode() Mode {
	if e.hover != nil || e.conn.State() == ConnPending {
		return ModeWire
	}
	return e.mode
}

// HoverPort records the port under the pointer. A nil ref clears it.
func (e *Editor) HoverPort(ref *PortRef) {
	if ref == nil {
		e.hover = nil
		return
	}
	r := *ref
	e.hover = &r
}

// Selected returns the selected component id.
func (e *Editor) Selected() (string, bool) {
	return e.selected, e.selected != ""
}

// Select makes id the selected component.
func (e *Editor) Select(id string) error {
	if _, ok := e.doc.byID[id]; !ok {
		return componentNotFound(id)
	}
	e.selected = id
	return nil
}

// Deselect clears the selection and any drag.
func (e *Editor) Deselect() {
	e.selected = ""
	e.dragging = false
}

// Place adds a component from the registry.
func (e *Editor) Place(kind Kind) (Component, error) {
	return e.doc.Place(kind)
}

// PointerDownComponent handles a press on a component body. In component
// mode it selects the component and starts a drag from p.
func (e *Editor) PointerDownComponent(id string, p geom.Point) error {
	if e.mode != ModeComponent {
		return nil
	}
	if err := e.Select(id); err != nil {
		return err
	}
	e.dragging = true
	e.last = p
	e.pointer = p
	return nil
}

// PointerDownPort starts a wire from a port, whatever the interaction mode.
func (e *Editor) PointerDownPort(componentID, portID string, p geom.Point) error {
	e.pointer = p
	return e.conn.Begin(componentID, portID)
}

// PointerMove applies the delta since the last pointer position to the
// selected component while dragging, and tracks the pointer for the
// pending wire.
func (e *Editor) PointerMove(p geom.Point) error {
	e.pointer = p
	if e.mode != ModeComponent || !e.dragging || e.selected == "" {
		return nil
	}
	delta := p.Sub(e.last)
	e.last = p
	return e.doc.Move(e.selected, delta.X, delta.Y)
}

// PointerUpPort ends a wire gesture on a port. It reports whether a wire
// was created. A self connection cancels the gesture without error.
func (e *Editor) PointerUpPort(componentID, portID string) (Wire, bool, error) {
	e.dragging = false
	if e.conn.State() != ConnPending {
		return Wire{}, false, nil
	}
	w, err := e.conn.Complete(componentID, portID)
	if errors.Is(err, ErrInvalidConnection) {
		return Wire{}, false, nil
	}
	if err != nil {
		return Wire{}, false, err
	}
	return w, true, nil
}

// PointerUpComponent ends a drag and keeps the selection.
func (e *Editor) PointerUpComponent() {
	e.dragging = false
}

// PointerUpCanvas handles a release over empty canvas: the pending wire is
// cancelled and the selection and drag are cleared.
func (e *Editor) PointerUpCanvas() {
	e.conn.Cancel()
	e.Deselect()
}

// ClickWire deletes the clicked wire.
func (e *Editor) ClickWire(id string) error {
	return e.conn.DeleteWire(id)
}

// DoubleClick opens the property editor for a component.
func (e *Editor) DoubleClick(id string) error {
	if _, ok := e.doc.byID[id]; !ok {
		return componentNotFound(id)
	}
	e.editing = id
	return nil
}

// Editing returns the component whose properties are open.
func (e *Editor) Editing() (Component, bool) {
	if e.editing == "" {
		return Component{}, false
	}
	return e.doc.Component(e.editing)
}

// CloseProperties closes the property editor.
func (e *Editor) CloseProperties() { e.editing = "" }

// SetValue updates a component value.
func (e *Editor) SetValue(id, value string) error {
	return e.doc.SetValue(id, value)
}

// Move translates a component.
func (e *Editor) Move(id string, dx, dy float64) error {
	return e.doc.Move(id, dx, dy)
}

// Rotate turns a component by a quarter.
func (e *Editor) Rotate(id string) error {
	return e.doc.Rotate(id)
}

// ToggleState flips a lightbulb or switch.
func (e *Editor) ToggleState(id string) (string, error) {
	return e.doc.ToggleState(id)
}

// Delete removes a component and its wires and drops any session state
// that referred to it.
func (e *Editor) Delete(id string) error {
	if err := e.doc.Delete(id); err != nil {
		return err
	}
	e.forget(id)
	return nil
}

// Connect creates a wire between two ports directly.
func (e *Editor) Connect(from, to PortRef) (Wire, error) {
	return e.conn.Connect(from.ComponentID, from.PortID, to.ComponentID, to.PortID)
}

// DeleteWire removes a wire.
func (e *Editor) DeleteWire(id string) error {
	return e.conn.DeleteWire(id)
}

// RotateSelected rotates the selected component, if any.
func (e *Editor) RotateSelected() error {
	if e.selected == "" {
		return nil
	}
	return e.Rotate(e.selected)
}

// DeleteSelected deletes the selected component, if any.
func (e *Editor) DeleteSelected() error {
	if e.selected == "" {
		return nil
	}
	return e.Delete(e.selected)
}

// Clear empties the document and resets the session state. Ids keep
// counting from where they were.
func (e *Editor) Clear() {
	e.doc.Clear()
	e.reset()
}

// Load replaces the document from r. On error nothing changes.
func (e *Editor) Load(r io.Reader) error {
	if err := e.doc.Load(r); err != nil {
		return err
	}
	e.reset()
	return nil
}

// Save writes the document to w.
func (e *Editor) Save(w io.Writer) error {
	return e.doc.Save(w)
}

// View returns a consistent copy of everything there is to draw.
func (e *Editor) View() View {
	v := View{
		Snapshot:    e.doc.Snapshot(),
		Selected:    e.selected,
		Pointer:     e.pointer,
		Mode:        e.mode,
		DisplayMode: e.DisplayMode(),
	}
	if start, ok := e.conn.Start(); ok {
		v.Pending = &start
	}
	if e.hover != nil {
		h := *e.hover
		v.Hover = &h
	}
	return v
}

func (e *Editor) forget(id string) {
	if e.selected == id {
		e.Deselect()
	}
	if e.editing == id {
		e.editing = ""
	}
	if start, ok := e.conn.Start(); ok && start.ComponentID == id {
		e.conn.Cancel()
	}
	if e.hover != nil && e.hover.ComponentID == id {
		e.hover = nil
	}
}

func (e *Editor) reset() {
	e.Deselect()
	e.conn.Cancel()
	e.hover = nil
	e.editing = ""
}
