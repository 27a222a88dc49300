package render

import (
	"math"

	"github.com/OpenTraceLab/OpenTraceCircuit/pkg/geom"
)

// Zoom limits in screen pixels per canvas unit.
const (
	MinZoom = 0.1
	MaxZoom = 20.0
)

// Camera maps canvas coordinates onto the screen. The canvas uses the
// same orientation as the screen (y grows downward), so there is no flip.
type Camera struct {
	// Center position in canvas coordinates
	CenterX float64
	CenterY float64

	// Zoom level (pixels per canvas unit)
	Zoom float64

	// Screen dimensions (pixels)
	ScreenWidth  int
	ScreenHeight int
}

// NewCamera creates a camera at zoom 1 whose top-left corner shows the
// canvas origin, matching an unzoomed editor.
func NewCamera(screenWidth, screenHeight int) *Camera {
	return &Camera{
		CenterX:      float64(screenWidth) / 2,
		CenterY:      float64(screenHeight) / 2,
		Zoom:         1,
		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,
	}
}

// WorldToScreen converts canvas coordinates to screen pixels.
func (c *Camera) WorldToScreen(p geom.Point) (float64, float64) {
	x := (p.X-c.CenterX)*c.Zoom + float64(c.ScreenWidth)/2
	y := (p.Y-c.CenterY)*c.Zoom + float64(c.ScreenHeight)/2
	return x, y
}

// ScreenToWorld converts screen pixels to canvas coordinates.
func (c *Camera) ScreenToWorld(screenX, screenY float64) geom.Point {
	x := (screenX-float64(c.ScreenWidth)/2)/c.Zoom + c.CenterX
	y := (screenY-float64(c.ScreenHeight)/2)/c.Zoom + c.CenterY
	return geom.Pt(x, y)
}

// Pan moves the camera by screen pixel offsets.
func (c *Camera) Pan(deltaX, deltaY float64) {
	c.CenterX -= deltaX / c.Zoom
	c.CenterY -= deltaY / c.Zoom
}

// ZoomAt zooms at a screen position, keeping the canvas point under it
// fixed. factor > 1 zooms in.
func (c *Camera) ZoomAt(screenX, screenY, factor float64) {
	before := c.ScreenToWorld(screenX, screenY)

	c.Zoom = math.Max(MinZoom, math.Min(MaxZoom, c.Zoom*factor))

	after := c.ScreenToWorld(screenX, screenY)
	c.CenterX += before.X - after.X
	c.CenterY += before.Y - after.Y
}

// Fit centers the box and zooms so it fills 90% of the screen.
func (c *Camera) Fit(bb geom.BoundingBox) {
	width, height := bb.Width(), bb.Height()
	if bb.IsEmpty() || width <= 0 || height <= 0 {
		return
	}

	center := bb.Center()
	c.CenterX, c.CenterY = center.X, center.Y

	zoomX := float64(c.ScreenWidth) * 0.9 / width
	zoomY := float64(c.ScreenHeight) * 0.9 / height
	c.Zoom = math.Max(MinZoom, math.Min(MaxZoom, math.Min(zoomX, zoomY)))
}

// UpdateScreenSize updates the camera when the window is resized.
func (c *Camera) UpdateScreenSize(width, height int) {
	c.ScreenWidth = width
	c.ScreenHeight = height
}

// VisibleBounds returns the visible area in canvas coordinates.
func (c *Camera) VisibleBounds() geom.BoundingBox {
	return geom.BoundingBox{
		Min: c.ScreenToWorld(0, 0),
		Max: c.ScreenToWorld(float64(c.ScreenWidth), float64(c.ScreenHeight)),
	}
}
