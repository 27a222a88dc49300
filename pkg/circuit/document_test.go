package circuit

import (
	"errors"
	"testing"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/geom"
)

func mustPlace(t *testing.T, d *Document, k Kind) Component {
	t.Helper()
	c, err := d.Place(k)
	if err != nil {
		t.Fatalf("Place(%v): %v", k, err)
	}
	return c
}

func mustConnect(t *testing.T, d *Document, a Component, ap int, b Component, bp int) Wire {
	t.Helper()
	w, err := NewConnector(d).Connect(a.ID, a.Ports[ap].ID, b.ID, b.Ports[bp].ID)
	if err != nil {
		t.Fatalf("Connect(%s, %s): %v", a.ID, b.ID, err)
	}
	return w
}

func mustCheck(t *testing.T, d *Document) {
	t.Helper()
	if err := d.Check(); err != nil {
		t.Fatalf("Check() = %v", err)
	}
}

func TestPlaceAllocatesIDsAndPorts(t *testing.T) {
	d := NewDocument()

	r := mustPlace(t, d, KindResistor)
	if r.ID != "comp-1" {
		t.Errorf("ID = %q, want comp-1", r.ID)
	}
	if r.Value != "1kΩ" || r.Name != "Resistor" || r.Symbol != "⏛" {
		t.Errorf("template not applied: %+v", r)
	}
	if len(r.Ports) != 2 || r.Ports[0].ID != "port-1-1" || r.Ports[1].ID != "port-1-2" {
		t.Fatalf("ports = %+v", r.Ports)
	}
	if r.Ports[0].Offset != geom.Pt(-30, 0) || r.Ports[1].Offset != geom.Pt(30, 0) {
		t.Errorf("offsets = %v, %v", r.Ports[0].Offset, r.Ports[1].Offset)
	}

	q := mustPlace(t, d, KindTransistor)
	if len(q.Ports) != 3 {
		t.Fatalf("transistor has %d ports, want 3", len(q.Ports))
	}
	if q.Ports[2].ID != "port-2-3" || q.Ports[2].Offset != geom.Pt(0, 20) {
		t.Errorf("third port = %+v", q.Ports[2])
	}

	for _, tmpl := range Library() {
		c := mustPlace(t, d, tmpl.Kind)
		want := 2
		if tmpl.Kind == KindTransistor {
			want = 3
		}
		if len(c.Ports) != want {
			t.Errorf("%v has %d ports, want %d", tmpl.Kind, len(c.Ports), want)
		}
	}

	if d.NextID() != 13 {
		t.Errorf("NextID() = %d, want 13", d.NextID())
	}
	mustCheck(t, d)
}

func TestPlaceUnknownType(t *testing.T) {
	d := NewDocument()
	if _, err := d.Place(Kind(99)); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("Place(99) error = %v, want ErrUnknownType", err)
	}
	if d.NextID() != 1 {
		t.Errorf("failed placement consumed an id")
	}
	if _, err := ParseKind("flux_capacitor"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("ParseKind error = %v", err)
	}
}

func TestPlaceLayout(t *testing.T) {
	d := NewDocument()
	want := []geom.Point{
		{X: 150, Y: 150}, {X: 300, Y: 150}, {X: 450, Y: 150}, {X: 600, Y: 150},
		{X: 150, Y: 250}, {X: 300, Y: 250}, {X: 450, Y: 250}, {X: 600, Y: 250},
		{X: 150, Y: 350}, {X: 300, Y: 350}, {X: 450, Y: 350}, {X: 600, Y: 350},
		{X: 150, Y: 450}, {X: 300, Y: 450}, {X: 450, Y: 450}, {X: 600, Y: 450},
		{X: 150, Y: 150},
	}
	for i, w := range want {
		c := mustPlace(t, d, KindCapacitor)
		if c.Position != w {
			t.Fatalf("placement %d at %v, want %v", i+1, c.Position, w)
		}
	}
}

func TestPlaceFollowsMostRecentComponent(t *testing.T) {
	d := NewDocument()
	a := mustPlace(t, d, KindResistor)
	if err := d.Move(a.ID, 100, 50); err != nil {
		t.Fatal(err)
	}
	b := mustPlace(t, d, KindResistor)
	if b.Position != geom.Pt(400, 200) {
		t.Errorf("second placement at %v, want (400, 200)", b.Position)
	}
}

func TestMoveUpdatesEndpoints(t *testing.T) {
	d := NewDocument()
	a := mustPlace(t, d, KindResistor)
	b := mustPlace(t, d, KindVoltageSource)
	c := mustPlace(t, d, KindGround)
	w1 := mustConnect(t, d, a, 1, b, 0)
	w2 := mustConnect(t, d, b, 1, c, 0)

	if err := d.Move(b.ID, 10, -20); err != nil {
		t.Fatal(err)
	}

	got1, _ := d.Wire(w1.ID)
	if got1.From.Pos != geom.Pt(180, 150) {
		t.Errorf("unmoved end changed: %v", got1.From.Pos)
	}
	if got1.To.Pos != geom.Pt(280, 130) {
		t.Errorf("moved end = %v, want (280, 130)", got1.To.Pos)
	}
	got2, _ := d.Wire(w2.ID)
	if got2.From.Pos != geom.Pt(340, 130) {
		t.Errorf("moved end = %v, want (340, 130)", got2.From.Pos)
	}
	mustCheck(t, d)

	if err := d.Move("comp-404", 1, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Move(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestMoveToUpdatesEndpoints(t *testing.T) {
	d := NewDocument()
	a := mustPlace(t, d, KindResistor)
	b := mustPlace(t, d, KindResistor)
	w := mustConnect(t, d, a, 1, b, 0)

	if err := d.MoveTo(b.ID, geom.Pt(500, 420)); err != nil {
		t.Fatal(err)
	}
	got, _ := d.Component(b.ID)
	if got.Position != geom.Pt(500, 420) {
		t.Errorf("position = %v, want (500, 420)", got.Position)
	}
	gw, _ := d.Wire(w.ID)
	if gw.To.Pos != geom.Pt(470, 420) {
		t.Errorf("wire end = %v, want (470, 420)", gw.To.Pos)
	}
	mustCheck(t, d)

	if err := d.MoveTo("comp-404", geom.Pt(0, 0)); !errors.Is(err, ErrNotFound) {
		t.Errorf("MoveTo(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestRotateUpdatesOffsetsAndEndpoints(t *testing.T) {
	d := NewDocument()
	a := mustPlace(t, d, KindTransistor)
	b := mustPlace(t, d, KindResistor)
	w := mustConnect(t, d, a, 2, b, 0)

	if err := d.Rotate(a.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := d.Component(a.ID)
	if got.Rotation != geom.Rot90 {
		t.Errorf("Rotation = %v, want 90", got.Rotation)
	}
	wantOffsets := []geom.Point{{X: 0, Y: -30}, {X: 0, Y: 30}, {X: -20, Y: 0}}
	for i, p := range got.Ports {
		if p.Offset != wantOffsets[i] {
			t.Errorf("port %d offset = %v, want %v", i, p.Offset, wantOffsets[i])
		}
		if p.ID != a.Ports[i].ID {
			t.Errorf("port %d id changed to %q", i, p.ID)
		}
	}
	gw, _ := d.Wire(w.ID)
	if gw.From.Pos != geom.Pt(130, 150) {
		t.Errorf("wire end = %v, want (130, 150)", gw.From.Pos)
	}
	mustCheck(t, d)
}

func TestRotateFourTimesIsIdentity(t *testing.T) {
	d := NewDocument()
	for _, tmpl := range Library() {
		c := mustPlace(t, d, tmpl.Kind)
		for i := 0; i < 4; i++ {
			if err := d.Rotate(c.ID); err != nil {
				t.Fatal(err)
			}
		}
		got, _ := d.Component(c.ID)
		if got.Rotation != geom.Rot0 {
			t.Errorf("%v rotation = %v after four turns", tmpl.Kind, got.Rotation)
		}
		for i := range got.Ports {
			if got.Ports[i].Offset != c.Ports[i].Offset {
				t.Errorf("%v port %d = %v, want %v", tmpl.Kind, i, got.Ports[i].Offset, c.Ports[i].Offset)
			}
		}
	}
}

func TestEndpointInvariantAfterMixedEdits(t *testing.T) {
	d := NewDocument()
	var comps []Component
	for _, k := range []Kind{KindResistor, KindTransistor, KindVoltageSource, KindDiode} {
		comps = append(comps, mustPlace(t, d, k))
	}
	mustConnect(t, d, comps[0], 0, comps[1], 2)
	mustConnect(t, d, comps[1], 0, comps[2], 1)
	mustConnect(t, d, comps[2], 0, comps[3], 1)
	mustConnect(t, d, comps[3], 0, comps[0], 1)
	mustConnect(t, d, comps[1], 1, comps[3], 0)

	steps := []func() error{
		func() error { return d.Rotate(comps[1].ID) },
		func() error { return d.Move(comps[1].ID, 17.5, -3) },
		func() error { return d.Rotate(comps[3].ID) },
		func() error { return d.Rotate(comps[3].ID) },
		func() error { return d.Move(comps[0].ID, -40, 90) },
		func() error { return d.Rotate(comps[0].ID) },
		func() error { return d.Move(comps[3].ID, 0.25, 0.5) },
		func() error { return d.Rotate(comps[1].ID) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		mustCheck(t, d)
	}
}

func TestDeleteCascadesToWires(t *testing.T) {
	d := NewDocument()
	a := mustPlace(t, d, KindResistor)
	b := mustPlace(t, d, KindCapacitor)
	c := mustPlace(t, d, KindInductor)
	mustConnect(t, d, a, 1, b, 0)
	keep := mustConnect(t, d, b, 1, c, 0)
	mustConnect(t, d, c, 1, a, 0)

	if err := d.Delete(a.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := d.Component(a.ID); ok {
		t.Fatalf("component still present")
	}
	snap := d.Snapshot()
	if len(snap.Wires) != 1 || snap.Wires[0].ID != keep.ID {
		t.Fatalf("wires after delete = %+v, want only %s", snap.Wires, keep.ID)
	}
	for _, cc := range snap.Components {
		for _, p := range cc.Ports {
			want := (cc.ID == b.ID && p.ID == b.Ports[1].ID) || (cc.ID == c.ID && p.ID == c.Ports[0].ID)
			if p.Connected != want {
				t.Errorf("%s.%s connected = %v, want %v", cc.ID, p.ID, p.Connected, want)
			}
		}
	}
	mustCheck(t, d)

	if err := d.Delete(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
}

func TestDeleteOnlyWiredComponentLeavesNoWires(t *testing.T) {
	d := NewDocument()
	a := mustPlace(t, d, KindVoltageSource)
	b := mustPlace(t, d, KindLightbulb)
	mustConnect(t, d, a, 0, b, 0)
	mustConnect(t, d, a, 1, b, 1)

	if err := d.Delete(b.ID); err != nil {
		t.Fatal(err)
	}
	if _, wires := d.Len(); wires != 0 {
		t.Fatalf("got %d wires, want 0", wires)
	}
	if got := d.WiresOf(a.ID); len(got) != 0 {
		t.Errorf("index still lists %d wires", len(got))
	}
}

func TestIDsStayUniqueAndMonotonic(t *testing.T) {
	d := NewDocument()
	seen := make(map[string]bool)
	record := func(id string) {
		if seen[id] {
			t.Fatalf("id %q reused", id)
		}
		seen[id] = true
	}

	prev := d.NextID()
	for round := 0; round < 5; round++ {
		a := mustPlace(t, d, KindResistor)
		b := mustPlace(t, d, KindSwitch)
		record(a.ID)
		record(b.ID)
		w := mustConnect(t, d, a, 0, b, 1)
		record(w.ID)
		if err := d.Delete(a.ID); err != nil {
			t.Fatal(err)
		}
		if round%2 == 0 {
			d.Clear()
		}
		if d.NextID() < prev {
			t.Fatalf("NextID went from %d to %d", prev, d.NextID())
		}
		prev = d.NextID()
	}
	if prev != 16 {
		t.Errorf("NextID() = %d, want 16", prev)
	}
}

func TestSetValueAndToggleState(t *testing.T) {
	d := NewDocument()
	bulb := mustPlace(t, d, KindLightbulb)
	sw := mustPlace(t, d, KindSwitch)
	r := mustPlace(t, d, KindResistor)

	if bulb.State != "off" || sw.State != "open" || r.State != "" {
		t.Fatalf("initial states %q %q %q", bulb.State, sw.State, r.State)
	}
	if s, err := d.ToggleState(bulb.ID); err != nil || s != "on" {
		t.Errorf("ToggleState(bulb) = %q, %v", s, err)
	}
	if s, _ := d.ToggleState(bulb.ID); s != "off" {
		t.Errorf("second toggle = %q, want off", s)
	}
	if s, _ := d.ToggleState(sw.ID); s != "closed" {
		t.Errorf("ToggleState(switch) = %q, want closed", s)
	}
	if _, err := d.ToggleState(r.ID); !errors.Is(err, ErrNoState) {
		t.Errorf("ToggleState(resistor) error = %v", err)
	}

	if err := d.SetValue(r.ID, "anything goes"); err != nil {
		t.Fatal(err)
	}
	if got, _ := d.Component(r.ID); got.Value != "anything goes" {
		t.Errorf("Value = %q", got.Value)
	}
	if err := d.SetValue("nope", "1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetValue(unknown) error = %v", err)
	}
}

func TestClearKeepsCounter(t *testing.T) {
	d := NewDocument()
	a := mustPlace(t, d, KindResistor)
	b := mustPlace(t, d, KindResistor)
	mustConnect(t, d, a, 0, b, 1)
	d.Clear()

	if c, w := d.Len(); c != 0 || w != 0 {
		t.Fatalf("Len() = %d, %d after Clear", c, w)
	}
	next := mustPlace(t, d, KindGround)
	if next.ID != "comp-4" {
		t.Errorf("ID after clear = %q, want comp-4", next.ID)
	}
	if next.Position != geom.Pt(150, 150) {
		t.Errorf("position after clear = %v, want origin", next.Position)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	d := NewDocument()
	a := mustPlace(t, d, KindResistor)
	snap := d.Snapshot()
	snap.Components[0].Ports[0].Offset = geom.Pt(999, 999)
	snap.Components[0].Value = "changed"

	got, _ := d.Component(a.ID)
	if got.Ports[0].Offset != geom.Pt(-30, 0) || got.Value != "1kΩ" {
		t.Fatalf("snapshot aliased the document: %+v", got)
	}
}
