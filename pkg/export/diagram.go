package export

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"
	"sync"

	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/font/liberation"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/geom"
)

// DiagramRenderer draws a snapshot as a PNG image.
type DiagramRenderer interface {
	RenderPNG(snap circuit.Snapshot) ([]byte, error)
}

// DiagramRendererFunc adapts a function to DiagramRenderer.
type DiagramRendererFunc func(snap circuit.Snapshot) ([]byte, error)

func (f DiagramRendererFunc) RenderPNG(snap circuit.Snapshot) ([]byte, error) { return f(snap) }

// Palette holds the diagram colors.
type Palette struct {
	Background color.Color
	Grid       color.Color
	Body       color.Color
	Outline    color.Color
	Text       color.Color
	Port       color.Color
	Connected  color.Color
	Wire       color.Color
}

// LightPalette matches the editor's light theme.
var LightPalette = Palette{
	Background: color.White,
	Grid:       color.NRGBA{R: 128, G: 128, B: 128, A: 90},
	Body:       color.NRGBA{R: 243, G: 244, B: 246, A: 255},
	Outline:    color.NRGBA{R: 51, G: 51, B: 51, A: 255},
	Text:       color.Black,
	Port:       color.NRGBA{R: 68, G: 68, B: 68, A: 255},
	Connected:  color.NRGBA{R: 59, G: 130, B: 246, A: 255},
	Wire:       color.NRGBA{R: 37, G: 99, B: 235, A: 255},
}

// Diagram renders snapshots with the vgimg raster backend. One canvas unit
// is one point; DPI sets the output resolution.
type Diagram struct {
	Margin  float64 // canvas units around the circuit
	Grid    float64 // grid pitch, 0 disables the grid
	DPI     int
	Palette Palette
	Font    font.Font
}

// NewDiagram returns a renderer with the editor's look: 20-unit grid,
// 144 DPI, Liberation Sans labels.
func NewDiagram() *Diagram {
	return &Diagram{
		Margin:  60,
		Grid:    20,
		DPI:     144,
		Palette: LightPalette,
		Font:    font.Font{Typeface: "Liberation", Variant: "Sans"},
	}
}

var registerFonts sync.Once

// frame returns the canvas area covering the snapshot.
func (d *Diagram) frame(snap circuit.Snapshot) geom.BoundingBox {
	bb := snap.Bounds()
	if bb.IsEmpty() {
		return geom.BoundingBox{Max: geom.Pt(800, 600)}
	}
	return bb.Inset(-d.Margin)
}

// RenderPNG draws the snapshot and encodes it as PNG. Panics from the
// drawing backend are reported as errors.
func (d *Diagram) RenderPNG(snap circuit.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := d.WritePNG(&buf, snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePNG draws the snapshot to w.
func (d *Diagram) WritePNG(w io.Writer, snap circuit.Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ExportError{Stage: "diagram", Err: fmt.Errorf("renderer panic: %v", r)}
		}
	}()

	registerFonts.Do(func() { font.DefaultCache.Add(liberation.Collection()) })

	fr := d.frame(snap)
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(fr.Width()), vg.Length(fr.Height())),
		vgimg.UseDPI(d.DPI),
		vgimg.UseBackgroundColor(d.Palette.Background),
	)

	label := font.DefaultCache.Lookup(d.Font, vg.Points(9))
	symbol := font.DefaultCache.Lookup(d.Font, vg.Points(14))
	if label.Face == nil || symbol.Face == nil {
		return &ExportError{Stage: "diagram", Err: fmt.Errorf("font %s %s not available", d.Font.Typeface, d.Font.Variant)}
	}

	// vg puts the origin bottom-left; the editor canvas grows downward.
	pt := func(p geom.Point) vg.Point {
		return vg.Point{X: vg.Length(p.X - fr.Min.X), Y: vg.Length(fr.Max.Y - p.Y)}
	}

	if d.Grid > 0 {
		c.SetColor(d.Palette.Grid)
		c.SetLineWidth(vg.Points(0.5))
		for x := math.Ceil(fr.Min.X/d.Grid) * d.Grid; x <= fr.Max.X; x += d.Grid {
			var p vg.Path
			p.Move(pt(geom.Pt(x, fr.Min.Y)))
			p.Line(pt(geom.Pt(x, fr.Max.Y)))
			c.Stroke(p)
		}
		for y := math.Ceil(fr.Min.Y/d.Grid) * d.Grid; y <= fr.Max.Y; y += d.Grid {
			var p vg.Path
			p.Move(pt(geom.Pt(fr.Min.X, y)))
			p.Line(pt(geom.Pt(fr.Max.X, y)))
			c.Stroke(p)
		}
	}

	c.SetColor(d.Palette.Wire)
	c.SetLineWidth(vg.Points(2))
	for _, w := range snap.Wires {
		c1, c2 := geom.WireControls(w.From.Pos, w.To.Pos)
		var p vg.Path
		p.Move(pt(w.From.Pos))
		p.CubeTo(pt(c1), pt(c2), pt(w.To.Pos))
		c.Stroke(p)
	}

	for i := range snap.Components {
		comp := &snap.Components[i]
		bb := comp.Bounds()

		var body vg.Path
		body.Move(pt(bb.Min))
		body.Line(pt(geom.Pt(bb.Max.X, bb.Min.Y)))
		body.Line(pt(bb.Max))
		body.Line(pt(geom.Pt(bb.Min.X, bb.Max.Y)))
		body.Close()
		c.SetColor(d.Palette.Body)
		c.Fill(body)
		c.SetColor(d.Palette.Outline)
		c.SetLineWidth(vg.Points(1.5))
		c.Stroke(body)

		c.SetColor(d.Palette.Text)
		centered(c, symbol, pt(comp.Position).Add(vg.Point{Y: -4}), comp.Symbol)
		centered(c, label, pt(geom.Pt(comp.Position.X, bb.Max.Y+12)), comp.Value)

		for _, port := range comp.Ports {
			col := d.Palette.Port
			if port.Connected {
				col = d.Palette.Connected
			}
			c.SetColor(col)
			center := pt(comp.Position.Add(port.Offset))
			var dot vg.Path
			dot.Move(vg.Point{X: center.X + 5, Y: center.Y})
			dot.Arc(center, 5, 0, 2*math.Pi)
			dot.Close()
			c.Fill(dot)
		}
	}

	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return &ExportError{Stage: "diagram", Err: err}
	}
	return nil
}

func centered(c vg.Canvas, face font.Face, at vg.Point, s string) {
	if s == "" {
		return
	}
	c.FillString(face, vg.Point{X: at.X - face.Width(s)/2, Y: at.Y}, s)
}
