package circuit

import (
	"fmt"
	"strconv"
	"strings"
)

// Check verifies the structural invariants of the document: unique ids
// below the id counter, the port count of every kind, valid rotations, no
// dangling or self-looping wires and wire ends equal to the current
// absolute port positions.
func (d *Document) Check() error {
	seen := make(map[string]bool)
	claim := func(id string) error {
		if seen[id] {
			return fmt.Errorf("circuit: duplicate id %q", id)
		}
		seen[id] = true
		if n, ok := idNumber(id); ok && n >= d.nextID {
			return fmt.Errorf("circuit: id %q not below counter %d", id, d.nextID)
		}
		return nil
	}

	for _, c := range d.components {
		if err := claim(c.ID); err != nil {
			return err
		}
		t, ok := registry[c.Kind]
		if !ok {
			return fmt.Errorf("circuit: %s: %w", c.ID, ErrUnknownType)
		}
		if len(c.Ports) != len(t.Ports) {
			return fmt.Errorf("circuit: %s has %d ports, %v needs %d", c.ID, len(c.Ports), c.Kind, len(t.Ports))
		}
		if !c.Rotation.Valid() {
			return fmt.Errorf("circuit: %s has rotation %d", c.ID, c.Rotation)
		}
		ports := make(map[string]bool)
		for _, p := range c.Ports {
			if ports[p.ID] {
				return fmt.Errorf("circuit: %s has duplicate port %q", c.ID, p.ID)
			}
			ports[p.ID] = true
		}
	}

	for _, w := range d.wires {
		if err := claim(w.ID); err != nil {
			return err
		}
		if w.From.ComponentID == w.To.ComponentID {
			return fmt.Errorf("circuit: %s loops on %s: %w", w.ID, w.From.ComponentID, ErrInvalidConnection)
		}
		for _, e := range []Endpoint{w.From, w.To} {
			want, err := d.Endpoint(e.ComponentID, e.PortID)
			if err != nil {
				return fmt.Errorf("circuit: %s: %w", w.ID, err)
			}
			if want.Pos != e.Pos {
				return fmt.Errorf("circuit: %s end %s at %v, port is at %v", w.ID, e, e.Pos, want.Pos)
			}
		}
	}
	return nil
}

// idNumber extracts N from "comp-N" and "wire-N".
func idNumber(id string) (int, bool) {
	i := strings.LastIndexByte(id, '-')
	if i < 0 {
		return 0, false
	}
	switch id[:i] {
	case "comp", "wire":
	default:
		return 0, false
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}
