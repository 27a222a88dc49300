package render

import (
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/geom"
)

// Hit radii in canvas units.
const (
	PortRadius    = 8.0
	WireTolerance = 5.0
)

// HitKind says what a canvas point landed on.
type HitKind int

const (
	HitNone HitKind = iota
	HitPort
	HitComponent
	HitWire
)

var hitKindNames = map[HitKind]string{
	HitNone:      "none",
	HitPort:      "port",
	HitComponent: "component",
	HitWire:      "wire",
}

func (k HitKind) String() string {
	if name, ok := hitKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Hit is the result of HitTest.
type Hit struct {
	Kind        HitKind
	ComponentID string
	PortID      string
	WireID      string
}

// Port returns the hit port as a PortRef.
func (h Hit) Port() circuit.PortRef {
	return circuit.PortRef{ComponentID: h.ComponentID, PortID: h.PortID}
}

// HitTest finds what lies under p. Ports win over bodies and bodies win
// over wires. Later components are drawn on top, so they are tested first.
func HitTest(snap *circuit.Snapshot, p geom.Point) Hit {
	for i := len(snap.Components) - 1; i >= 0; i-- {
		c := &snap.Components[i]
		for _, port := range c.Ports {
			if c.Position.Add(port.Offset).Distance(p) <= PortRadius {
				return Hit{Kind: HitPort, ComponentID: c.ID, PortID: port.ID}
			}
		}
	}
	for i := len(snap.Components) - 1; i >= 0; i-- {
		c := &snap.Components[i]
		if c.Bounds().Contains(p) {
			return Hit{Kind: HitComponent, ComponentID: c.ID}
		}
	}
	for i := len(snap.Wires) - 1; i >= 0; i-- {
		w := &snap.Wires[i]
		if geom.WireDistance(w.From.Pos, w.To.Pos, p) <= WireTolerance {
			return Hit{Kind: HitWire, WireID: w.ID}
		}
	}
	return Hit{}
}
