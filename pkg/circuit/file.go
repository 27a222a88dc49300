package circuit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/geom"
)

// On-disk shapes. Field names follow the editor's original save format so
// files written by earlier versions load unchanged.
type (
	fileDocument struct {
		Components []fileComponent `json:"components"`
		Wires      []fileWire      `json:"wires"`
		NextID     *int            `json:"nextId,omitempty"`
	}

	fileComponent struct {
		ID       string     `json:"id"`
		Type     string     `json:"type"`
		Name     string     `json:"name"`
		Value    string     `json:"value"`
		Symbol   string     `json:"symbol"`
		X        float64    `json:"x"`
		Y        float64    `json:"y"`
		Width    float64    `json:"width"`
		Height   float64    `json:"height"`
		Rotation int        `json:"rotation"`
		Ports    []filePort `json:"ports"`
		State    string     `json:"state,omitempty"`
	}

	filePort struct {
		ID        string  `json:"id"`
		X         float64 `json:"x"`
		Y         float64 `json:"y"`
		Connected bool    `json:"connected"`
	}

	fileEndpoint struct {
		ComponentID string  `json:"componentId"`
		PortID      string  `json:"portId"`
		X           float64 `json:"x"`
		Y           float64 `json:"y"`
	}

	fileWire struct {
		ID   string       `json:"id"`
		From fileEndpoint `json:"from"`
		To   fileEndpoint `json:"to"`
	}
)

// MarshalJSON encodes the document in the circuit file format.
func (d *Document) MarshalJSON() ([]byte, error) {
	next := d.nextID
	f := fileDocument{
		Components: make([]fileComponent, 0, len(d.components)),
		Wires:      make([]fileWire, 0, len(d.wires)),
		NextID:     &next,
	}
	for _, c := range d.components {
		fc := fileComponent{
			ID:       c.ID,
			Type:     c.Kind.String(),
			Name:     c.Name,
			Value:    c.Value,
			Symbol:   c.Symbol,
			X:        c.Position.X,
			Y:        c.Position.Y,
			Width:    c.Size.W,
			Height:   c.Size.H,
			Rotation: int(c.Rotation),
			Ports:    make([]filePort, len(c.Ports)),
			State:    c.State,
		}
		for i, p := range c.Ports {
			fc.Ports[i] = filePort{ID: p.ID, X: p.Offset.X, Y: p.Offset.Y, Connected: p.Connected}
		}
		f.Components = append(f.Components, fc)
	}
	for _, w := range d.wires {
		f.Wires = append(f.Wires, fileWire{
			ID:   w.ID,
			From: fileEndpoint{ComponentID: w.From.ComponentID, PortID: w.From.PortID, X: w.From.Pos.X, Y: w.From.Pos.Y},
			To:   fileEndpoint{ComponentID: w.To.ComponentID, PortID: w.To.PortID, X: w.To.Pos.X, Y: w.To.Pos.Y},
		})
	}
	return json.Marshal(f)
}

// Save writes the document as indented JSON.
func (d *Document) Save(w io.Writer) error {
	data, err := d.MarshalJSON()
	if err != nil {
		return fmt.Errorf("circuit: encode: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("circuit: encode: %w", err)
	}
	buf.WriteByte('\n')
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("circuit: write: %w", err)
	}
	return nil
}

// Load replaces the document with the circuit read from r. On any error
// the document is left exactly as it was.
func (d *Document) Load(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("circuit: read: %w", err)
	}
	return d.UnmarshalJSON(data)
}

// UnmarshalJSON decodes a circuit file into the document. Missing
// component or wire arrays load as empty; a missing nextId keeps the
// current counter. The counter never moves backwards and always ends up
// above every numbered id in the file.
func (d *Document) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return malformed("expected an object, got null", nil)
	}
	var f fileDocument
	if err := json.Unmarshal(data, &f); err != nil {
		return malformed("invalid JSON", err)
	}

	current := d.nextID
	if current < 1 {
		current = 1
	}
	nd, err := decodeDocument(&f, current)
	if err != nil {
		return err
	}
	*d = *nd
	return nil
}

func decodeDocument(f *fileDocument, current int) (*Document, error) {
	nd := NewDocument()
	next := current
	if f.NextID != nil && *f.NextID > next {
		next = *f.NextID
	}
	bump := func(id string) {
		if n, ok := idNumber(id); ok && n >= next {
			next = n + 1
		}
	}

	for i, fc := range f.Components {
		kind, err := ParseKind(fc.Type)
		if err != nil {
			return nil, malformed(fmt.Sprintf("component %d", i), err)
		}
		if fc.ID == "" {
			return nil, malformed(fmt.Sprintf("component %d has no id", i), nil)
		}
		if _, dup := nd.byID[fc.ID]; dup {
			return nil, malformed(fmt.Sprintf("duplicate component id %q", fc.ID), nil)
		}
		t := registry[kind]
		if len(fc.Ports) != len(t.Ports) {
			return nil, malformed(fmt.Sprintf("%s has %d ports, %v needs %d", fc.ID, len(fc.Ports), kind, len(t.Ports)), nil)
		}
		rot := geom.Rotation(fc.Rotation)
		if !rot.Valid() {
			return nil, malformed(fmt.Sprintf("%s has rotation %d", fc.ID, fc.Rotation), nil)
		}

		c := &Component{
			ID:       fc.ID,
			Kind:     kind,
			Name:     orDefault(fc.Name, t.Name),
			Value:    fc.Value,
			Symbol:   orDefault(fc.Symbol, t.Symbol),
			Position: geom.Pt(fc.X, fc.Y),
			Size:     geom.Size{W: fc.Width, H: fc.Height},
			Rotation: rot,
			Ports:    make([]Port, len(fc.Ports)),
			State:    fc.State,
		}
		if c.Size.W <= 0 || c.Size.H <= 0 {
			c.Size = t.Size
		}
		if len(t.States) > 0 && !contains(t.States, c.State) {
			c.State = t.States[0]
		} else if len(t.States) == 0 {
			c.State = ""
		}
		for j, fp := range fc.Ports {
			if fp.ID == "" {
				return nil, malformed(fmt.Sprintf("%s port %d has no id", fc.ID, j), nil)
			}
			if _, dup := c.Port(fp.ID); dup {
				return nil, malformed(fmt.Sprintf("%s has duplicate port %q", fc.ID, fp.ID), nil)
			}
			c.Ports[j] = Port{ID: fp.ID, Offset: geom.Pt(fp.X, fp.Y)}
		}
		bump(c.ID)
		nd.insertComponent(c)
	}

	for i, fw := range f.Wires {
		if fw.ID == "" {
			return nil, malformed(fmt.Sprintf("wire %d has no id", i), nil)
		}
		if _, dup := nd.wireByID[fw.ID]; dup {
			return nil, malformed(fmt.Sprintf("duplicate wire id %q", fw.ID), nil)
		}
		if _, dup := nd.byID[fw.ID]; dup {
			return nil, malformed(fmt.Sprintf("wire id %q is used by a component", fw.ID), nil)
		}
		from, err := nd.Endpoint(fw.From.ComponentID, fw.From.PortID)
		if err != nil {
			return nil, malformed(fmt.Sprintf("wire %s", fw.ID), err)
		}
		to, err := nd.Endpoint(fw.To.ComponentID, fw.To.PortID)
		if err != nil {
			return nil, malformed(fmt.Sprintf("wire %s", fw.ID), err)
		}
		if from.ComponentID == to.ComponentID {
			return nil, malformed(fmt.Sprintf("wire %s", fw.ID), ErrInvalidConnection)
		}
		// Cached positions in the file are ignored; ends are re-derived
		// from the component geometry.
		bump(fw.ID)
		nd.insertWire(&Wire{ID: fw.ID, From: from, To: to})
	}

	nd.nextID = next
	return nd, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
