package render

import (
	"image"
	"image/color"
	"math"

	"gioui.org/f32"
	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/geom"
)

// GridSpacing is the canvas grid pitch.
const GridSpacing = 20.0

// Global theme for text rendering
var defaultTheme = material.NewTheme()

func init() {
	defaultTheme.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()))
}

// RenderView draws the editor view back to front: grid, wires, the
// pending wire, component bodies, then ports.
func RenderView(gtx layout.Context, cam *Camera, view *circuit.View, colors *Colors) {
	paint.FillShape(gtx.Ops, colors.Background, clip.Rect{Max: gtx.Constraints.Max}.Op())
	renderGrid(gtx, cam, colors)

	for i := range view.Wires {
		w := &view.Wires[i]
		renderWire(gtx, cam, w.From.Pos, w.To.Pos, colors.Wire, 2)
	}
	if view.Pending != nil {
		renderLine(gtx, cam, view.Pending.Pos, view.Pointer, colors.PendingWire, 2)
	}

	for i := range view.Components {
		c := &view.Components[i]
		renderComponent(gtx, cam, c, c.ID == view.Selected, colors)
	}

	wireMode := view.DisplayMode == circuit.ModeWire
	for i := range view.Components {
		c := &view.Components[i]
		for _, port := range c.Ports {
			hover := view.Hover != nil && view.Hover.ComponentID == c.ID && view.Hover.PortID == port.ID
			renderPort(gtx, cam, c.Position.Add(port.Offset), port.Connected, hover, wireMode, colors)
		}
	}
}

func renderGrid(gtx layout.Context, cam *Camera, colors *Colors) {
	step := GridSpacing * cam.Zoom
	if step < 6 {
		return
	}
	vis := cam.VisibleBounds()

	var path clip.Path
	path.Begin(gtx.Ops)
	for x := math.Floor(vis.Min.X/GridSpacing) * GridSpacing; x <= vis.Max.X; x += GridSpacing {
		sx, _ := cam.WorldToScreen(geom.Pt(x, 0))
		path.MoveTo(f32.Pt(float32(sx), 0))
		path.LineTo(f32.Pt(float32(sx), float32(cam.ScreenHeight)))
	}
	for y := math.Floor(vis.Min.Y/GridSpacing) * GridSpacing; y <= vis.Max.Y; y += GridSpacing {
		_, sy := cam.WorldToScreen(geom.Pt(0, y))
		path.MoveTo(f32.Pt(0, float32(sy)))
		path.LineTo(f32.Pt(float32(cam.ScreenWidth), float32(sy)))
	}
	paint.FillShape(gtx.Ops, colors.Grid, clip.Stroke{Path: path.End(), Width: 1}.Op())
}

// renderWire strokes the bezier between two port positions.
func renderWire(gtx layout.Context, cam *Camera, from, to geom.Point, col color.NRGBA, width float32) {
	c1, c2 := geom.WireControls(from, to)

	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(screenPt(cam, from))
	path.CubeTo(screenPt(cam, c1), screenPt(cam, c2), screenPt(cam, to))
	paint.FillShape(gtx.Ops, col, clip.Stroke{Path: path.End(), Width: width}.Op())
}

func renderLine(gtx layout.Context, cam *Camera, from, to geom.Point, col color.NRGBA, width float32) {
	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(screenPt(cam, from))
	path.LineTo(screenPt(cam, to))
	paint.FillShape(gtx.Ops, col, clip.Stroke{Path: path.End(), Width: width}.Op())
}

func renderComponent(gtx layout.Context, cam *Camera, c *circuit.Component, selected bool, colors *Colors) {
	bb := c.Bounds()
	rect := screenRect(cam, bb)
	radius := int(4 * cam.Zoom)

	fill := colors.BodyFill
	if c.Kind == circuit.KindLightbulb && c.State == "on" {
		fill = colors.LampOn
	}
	paint.FillShape(gtx.Ops, fill, clip.UniformRRect(rect, radius).Op(gtx.Ops))

	border, width := colors.Body, float32(1.5)
	switch {
	case selected:
		border, width = colors.Selection, 3
	case c.Kind.IsPower():
		border = colors.Power
	}
	paint.FillShape(gtx.Ops, border, clip.Stroke{
		Path:  clip.UniformRRect(rect, radius).Path(gtx.Ops),
		Width: width,
	}.Op())

	center := bb.Center()
	renderText(gtx, cam, center.Add(geom.Pt(0, -6)), c.Symbol, 16, colors.Symbol)
	renderText(gtx, cam, geom.Pt(center.X, bb.Max.Y+2), c.Name+" "+c.Value, 10, colors.Text)
}

func renderPort(gtx layout.Context, cam *Camera, at geom.Point, connected, hover, wireMode bool, colors *Colors) {
	col := colors.Port
	if connected {
		col = colors.PortLinked
	}
	r := 4.0
	if wireMode {
		r = 6
	}
	if hover {
		col, r = colors.PortHover, PortRadius
	}
	x, y := cam.WorldToScreen(at)
	r *= cam.Zoom
	paint.FillShape(gtx.Ops, col, clip.Ellipse{
		Min: image.Pt(int(x-r), int(y-r)),
		Max: image.Pt(int(x+r), int(y+r)),
	}.Op(gtx.Ops))
}

// renderText draws s horizontally centered on at, with its top edge at at.Y.
func renderText(gtx layout.Context, cam *Camera, at geom.Point, s string, size float64, col color.NRGBA) {
	if s == "" {
		return
	}
	x, y := cam.WorldToScreen(at)
	width := int(200 * cam.Zoom)

	defer op.Offset(image.Pt(int(x)-width/2, int(y))).Push(gtx.Ops).Pop()
	gtx.Constraints = layout.Exact(image.Pt(width, int(size*2*cam.Zoom)+4))

	lbl := material.Label(defaultTheme, unit.Sp(float32(size*cam.Zoom)), s)
	lbl.Color = col
	lbl.Alignment = text.Middle
	lbl.MaxLines = 1
	lbl.Layout(gtx)
}

func screenPt(cam *Camera, p geom.Point) f32.Point {
	x, y := cam.WorldToScreen(p)
	return f32.Pt(float32(x), float32(y))
}

func screenRect(cam *Camera, bb geom.BoundingBox) image.Rectangle {
	x0, y0 := cam.WorldToScreen(bb.Min)
	x1, y1 := cam.WorldToScreen(bb.Max)
	return image.Rect(int(x0), int(y0), int(x1), int(y1))
}
