package export

import (
	"bytes"
	"errors"
	"image/png"
	"testing"
	"time"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/simulate"
)

func sample(t *testing.T, n int) circuit.Snapshot {
	t.Helper()
	e := circuit.NewEditor()
	var prev circuit.Component
	for i := 0; i < n; i++ {
		kind := circuit.KindResistor
		if i == 0 {
			kind = circuit.KindVoltageSource
		}
		c, err := e.Place(kind)
		if err != nil {
			t.Fatal(err)
		}
		if i > 0 {
			if _, err := e.Connect(
				circuit.PortRef{ComponentID: prev.ID, PortID: prev.Ports[1].ID},
				circuit.PortRef{ComponentID: c.ID, PortID: c.Ports[0].ID},
			); err != nil {
				t.Fatal(err)
			}
		}
		prev = c
	}
	if n > 1 {
		_ = e.Rotate(prev.ID)
	}
	return e.Document().Snapshot()
}

func fixedClock() time.Time {
	return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
}

func TestDiagramRenderPNG(t *testing.T) {
	snap := sample(t, 3)
	data, err := NewDiagram().RenderPNG(snap)
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		t.Errorf("empty image %v", b)
	}
}

func TestDiagramEmptyCircuit(t *testing.T) {
	d := NewDiagram()
	d.DPI = 72
	data, err := d.RenderPNG(circuit.Snapshot{})
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 600 {
		t.Errorf("empty canvas is %dx%d, want 800x600", b.Dx(), b.Dy())
	}
}

func TestPDFWithDiagram(t *testing.T) {
	snap := sample(t, 2)
	rep := simulate.New(simulate.WithSeed(1)).Summarize(snap)

	r := NewPDFReport()
	r.Now = fixedClock
	var buf bytes.Buffer
	res, err := r.Write(&buf, snap, rep)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !res.WithDiagram || res.DiagramErr != nil {
		t.Errorf("result = %+v, want diagram included", res)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output does not look like a PDF")
	}
	if res.Bytes != int64(buf.Len()) || res.Pages < 1 {
		t.Errorf("result = %+v for %d bytes", res, buf.Len())
	}
}

func TestPDFFallsBackWithoutDiagram(t *testing.T) {
	snap := sample(t, 3)
	rep := simulate.New(simulate.WithSeed(1)).Summarize(snap)
	boom := errors.New("canvas unavailable")

	cases := []struct {
		name     string
		renderer DiagramRenderer
	}{
		{"render error", DiagramRendererFunc(func(circuit.Snapshot) ([]byte, error) { return nil, boom })},
		{"bad image", DiagramRendererFunc(func(circuit.Snapshot) ([]byte, error) { return []byte("not a png"), nil })},
		{"no renderer", nil},
	}
	for _, tc := range cases {
		r := &PDFReport{Title: "Electronic Circuit Design", Diagram: tc.renderer, Now: fixedClock}
		var buf bytes.Buffer
		res, err := r.Write(&buf, snap, rep)
		if err != nil {
			t.Fatalf("%s: Write: %v", tc.name, err)
		}
		if res.WithDiagram || res.DiagramErr == nil {
			t.Errorf("%s: result = %+v, want text-only", tc.name, res)
		}
		if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
			t.Errorf("%s: fallback output is not a PDF", tc.name)
		}
	}
}

func TestPDFPaginatesLongTables(t *testing.T) {
	snap := sample(t, 60)
	rep := simulate.New(simulate.WithSeed(7)).Summarize(snap)
	r := &PDFReport{Title: "Electronic Circuit Design", Now: fixedClock}

	var buf bytes.Buffer
	res, err := r.Write(&buf, snap, rep)
	if err != nil {
		t.Fatal(err)
	}
	if res.Pages < 2 {
		t.Errorf("Pages = %d, want a page break for 60 rows", res.Pages)
	}
}

func TestExportErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := error(&ExportError{Stage: "fallback", Err: cause})
	if !errors.Is(err, ErrExportFailure) || !errors.Is(err, cause) {
		t.Errorf("ExportError does not unwrap to both sentinel and cause")
	}
}
