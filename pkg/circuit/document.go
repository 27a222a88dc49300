package circuit

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/geom"
)

// Document is the authoritative circuit: components, wires and the id
// counter. It is not safe for concurrent use.
type Document struct {
	components []*Component
	byID       map[string]*Component

	wires    []*Wire
	wireByID map[string]*Wire

	// touching maps a component id to the ids of the wires with an end on
	// one of its ports, in creation order.
	touching map[string][]string

	nextID int
}

// NewDocument returns an empty document whose first id is 1.
func NewDocument() *Document {
	return &Document{
		byID:     make(map[string]*Component),
		wireByID: make(map[string]*Wire),
		touching: make(map[string][]string),
		nextID:   1,
	}
}

// NextID returns the number the next allocated id will carry.
func (d *Document) NextID() int { return d.nextID }

// Len returns the number of components and wires.
func (d *Document) Len() (components, wires int) {
	return len(d.components), len(d.wires)
}

// Component returns a copy of the component with the given id.
func (d *Document) Component(id string) (Component, bool) {
	c, ok := d.byID[id]
	if !ok {
		return Component{}, false
	}
	return c.clone(), true
}

// Wire returns a copy of the wire with the given id.
func (d *Document) Wire(id string) (Wire, bool) {
	w, ok := d.wireByID[id]
	if !ok {
		return Wire{}, false
	}
	return *w, true
}

// WiresOf returns copies of the wires touching a component.
func (d *Document) WiresOf(componentID string) []Wire {
	ids := d.touching[componentID]
	out := make([]Wire, 0, len(ids))
	for _, id := range ids {
		out = append(out, *d.wireByID[id])
	}
	return out
}

// Snapshot returns a deep copy of the document.
func (d *Document) Snapshot() Snapshot {
	s := Snapshot{
		Components: make([]Component, len(d.components)),
		Wires:      make([]Wire, len(d.wires)),
		NextID:     d.nextID,
	}
	for i, c := range d.components {
		s.Components[i] = c.clone()
	}
	for i, w := range d.wires {
		s.Wires[i] = *w
	}
	return s
}

func (d *Document) allocID() int {
	n := d.nextID
	d.nextID++
	return n
}

// Place adds a component of the given kind at the next layout position.
func (d *Document) Place(kind Kind) (Component, error) {
	t, ok := registry[kind]
	if !ok {
		return Component{}, fmt.Errorf("circuit: place %v: %w", kind, ErrUnknownType)
	}

	var last *Component
	if n := len(d.components); n > 0 {
		last = d.components[n-1]
	}

	n := d.allocID()
	c := &Component{
		ID:       fmt.Sprintf("comp-%d", n),
		Kind:     kind,
		Name:     t.Name,
		Value:    t.Value,
		Symbol:   t.Symbol,
		Position: nextPosition(last),
		Size:     t.Size,
		Rotation: geom.Rot0,
		Ports:    make([]Port, len(t.Ports)),
	}
	for i, off := range t.Ports {
		c.Ports[i] = Port{ID: fmt.Sprintf("port-%d-%d", n, i+1), Offset: off}
	}
	if len(t.States) > 0 {
		c.State = t.States[0]
	}

	d.insertComponent(c)
	return c.clone(), nil
}

func (d *Document) insertComponent(c *Component) {
	d.components = append(d.components, c)
	d.byID[c.ID] = c
}

// Move translates a component and re-derives the ends of its wires.
func (d *Document) Move(id string, dx, dy float64) error {
	c, ok := d.byID[id]
	if !ok {
		return componentNotFound(id)
	}
	c.Position = c.Position.Add(geom.Pt(dx, dy))
	d.syncEndpoints(c)
	return nil
}

// MoveTo places a component at an absolute position.
func (d *Document) MoveTo(id string, pos geom.Point) error {
	c, ok := d.byID[id]
	if !ok {
		return componentNotFound(id)
	}
	return d.Move(id, pos.X-c.Position.X, pos.Y-c.Position.Y)
}

// Rotate turns a component by 90 degrees. Port offsets rotate in place
// with (x, y) -> (-y, x), so four calls restore them exactly.
func (d *Document) Rotate(id string) error {
	c, ok := d.byID[id]
	if !ok {
		return componentNotFound(id)
	}
	c.Rotation = c.Rotation.Next()
	for i := range c.Ports {
		c.Ports[i].Offset = geom.RotateQuarter(c.Ports[i].Offset, 1)
	}
	d.syncEndpoints(c)
	return nil
}

// syncEndpoints recomputes the cached ends of every wire touching c.
func (d *Document) syncEndpoints(c *Component) {
	for _, wid := range d.touching[c.ID] {
		w := d.wireByID[wid]
		if w.From.ComponentID == c.ID {
			w.From.Pos, _ = c.PortPosition(w.From.PortID)
		}
		if w.To.ComponentID == c.ID {
			w.To.Pos, _ = c.PortPosition(w.To.PortID)
		}
	}
}

// Delete removes a component and every wire touching it.
func (d *Document) Delete(id string) error {
	c, ok := d.byID[id]
	if !ok {
		return componentNotFound(id)
	}

	for _, wid := range append([]string(nil), d.touching[id]...) {
		d.removeWire(wid)
	}
	delete(d.touching, id)
	delete(d.byID, id)
	for i, cc := range d.components {
		if cc == c {
			d.components = append(d.components[:i], d.components[i+1:]...)
			break
		}
	}
	return nil
}

// SetValue replaces the free-text value of a component.
func (d *Document) SetValue(id, value string) error {
	c, ok := d.byID[id]
	if !ok {
		return componentNotFound(id)
	}
	c.Value = value
	return nil
}

// ToggleState advances a lightbulb or switch to its other state and
// returns the new state.
func (d *Document) ToggleState(id string) (string, error) {
	c, ok := d.byID[id]
	if !ok {
		return "", componentNotFound(id)
	}
	states := registry[c.Kind].States
	if len(states) == 0 {
		return "", fmt.Errorf("circuit: toggle %s (%v): %w", id, c.Kind, ErrNoState)
	}
	next := states[0]
	for i, s := range states {
		if s == c.State {
			next = states[(i+1)%len(states)]
			break
		}
	}
	c.State = next
	return next, nil
}

// Clear removes every component and wire. The id counter is kept.
func (d *Document) Clear() {
	d.components = nil
	d.wires = nil
	d.byID = make(map[string]*Component)
	d.wireByID = make(map[string]*Wire)
	d.touching = make(map[string][]string)
}

// Endpoint resolves a port reference to an endpoint at the port's current
// absolute position.
func (d *Document) Endpoint(componentID, portID string) (Endpoint, error) {
	c, ok := d.byID[componentID]
	if !ok {
		return Endpoint{}, componentNotFound(componentID)
	}
	pos, ok := c.PortPosition(portID)
	if !ok {
		return Endpoint{}, portNotFound(componentID, portID)
	}
	return Endpoint{ComponentID: componentID, PortID: portID, Pos: pos}, nil
}

// addWire creates a wire between two ports with freshly computed ends.
func (d *Document) addWire(from, to Endpoint) (Wire, error) {
	a, err := d.Endpoint(from.ComponentID, from.PortID)
	if err != nil {
		return Wire{}, err
	}
	b, err := d.Endpoint(to.ComponentID, to.PortID)
	if err != nil {
		return Wire{}, err
	}
	if a.ComponentID == b.ComponentID {
		return Wire{}, fmt.Errorf("circuit: %s to %s: %w", a, b, ErrInvalidConnection)
	}

	w := &Wire{ID: fmt.Sprintf("wire-%d", d.allocID()), From: a, To: b}
	d.insertWire(w)
	return *w, nil
}

func (d *Document) insertWire(w *Wire) {
	d.wires = append(d.wires, w)
	d.wireByID[w.ID] = w
	d.touching[w.From.ComponentID] = append(d.touching[w.From.ComponentID], w.ID)
	d.touching[w.To.ComponentID] = append(d.touching[w.To.ComponentID], w.ID)
	d.setConnected(w.From, true)
	d.setConnected(w.To, true)
}

// DeleteWire removes a wire. Nothing depends on wires, so there is no cascade.
func (d *Document) DeleteWire(id string) error {
	if _, ok := d.wireByID[id]; !ok {
		return wireNotFound(id)
	}
	d.removeWire(id)
	return nil
}

func (d *Document) removeWire(id string) {
	w := d.wireByID[id]
	delete(d.wireByID, id)
	for i, ww := range d.wires {
		if ww == w {
			d.wires = append(d.wires[:i], d.wires[i+1:]...)
			break
		}
	}
	for _, cid := range []string{w.From.ComponentID, w.To.ComponentID} {
		d.touching[cid] = without(d.touching[cid], id)
	}
	d.setConnected(w.From, d.portInUse(w.From))
	d.setConnected(w.To, d.portInUse(w.To))
}

func (d *Document) portInUse(e Endpoint) bool {
	for _, wid := range d.touching[e.ComponentID] {
		w := d.wireByID[wid]
		if (w.From.ComponentID == e.ComponentID && w.From.PortID == e.PortID) ||
			(w.To.ComponentID == e.ComponentID && w.To.PortID == e.PortID) {
			return true
		}
	}
	return false
}

func (d *Document) setConnected(e Endpoint, v bool) {
	c, ok := d.byID[e.ComponentID]
	if !ok {
		return
	}
	for i := range c.Ports {
		if c.Ports[i].ID == e.PortID {
			c.Ports[i].Connected = v
			return
		}
	}
}

func without(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
