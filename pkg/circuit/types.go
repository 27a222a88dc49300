package circuit

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/geom"
)

// Port is a connection point on a component. Offset is relative to the
// component origin and already reflects the component rotation.
type Port struct {
	ID        string
	Offset    geom.Point
	Connected bool // informational: some wire references this port
}

// Component is a placed circuit element.
type Component struct {
	ID       string
	Kind     Kind
	Name     string
	Value    string
	Symbol   string
	Position geom.Point
	Size     geom.Size
	Rotation geom.Rotation
	Ports    []Port
	State    string // empty unless the kind has switchable states
}

// Port returns the port with the given id.
func (c *Component) Port(id string) (Port, bool) {
	for _, p := range c.Ports {
		if p.ID == id {
			return p, true
		}
	}
	return Port{}, false
}

// PortPosition returns the absolute position of a port.
func (c *Component) PortPosition(id string) (geom.Point, bool) {
	p, ok := c.Port(id)
	if !ok {
		return geom.Point{}, false
	}
	return c.Position.Add(p.Offset), true
}

// Bounds returns the rotated body rectangle in canvas coordinates.
func (c *Component) Bounds() geom.BoundingBox {
	size := c.Size
	if c.Rotation.Turns()%2 == 1 {
		size = geom.Size{W: size.H, H: size.W}
	}
	return geom.RectAround(c.Position, size)
}

func (c *Component) clone() Component {
	out := *c
	out.Ports = append([]Port(nil), c.Ports...)
	return out
}

// Endpoint is one end of a wire: a port reference plus the cached absolute
// position of that port.
type Endpoint struct {
	ComponentID string
	PortID      string
	Pos         geom.Point
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s.%s", e.ComponentID, e.PortID)
}

// Wire connects two ports on different components.
type Wire struct {
	ID   string
	From Endpoint
	To   Endpoint
}

// Touches reports whether either end of the wire is on the component.
func (w *Wire) Touches(componentID string) bool {
	return w.From.ComponentID == componentID || w.To.ComponentID == componentID
}

// Snapshot is a deep copy of a document, safe to hand to renderers,
// exporters and the simulation summarizer.
type Snapshot struct {
	Components []Component
	Wires      []Wire
	NextID     int
}

// Component returns the snapshot component with the given id.
func (s *Snapshot) Component(id string) (Component, bool) {
	for _, c := range s.Components {
		if c.ID == id {
			return c, true
		}
	}
	return Component{}, false
}

// Bounds returns the box enclosing every component body and wire end.
func (s *Snapshot) Bounds() geom.BoundingBox {
	bb := geom.NewBoundingBox()
	for i := range s.Components {
		bb.ExpandBox(s.Components[i].Bounds())
	}
	for _, w := range s.Wires {
		bb.Expand(w.From.Pos)
		bb.Expand(w.To.Pos)
	}
	return bb
}
