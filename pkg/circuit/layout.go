package circuit

import "github.com/OpenTraceLab/OpenTraceCircuit/pkg/geom"

// Placement grid for new components.
const (
	originX = 150
	originY = 150
	stepX   = 150
	stepY   = 100
	rightX  = 700
	bottomY = 500
)

// nextPosition places a new component one step to the right of the most
// recently added one, wrapping to a new row past the right bound and back to
// the origin past the bottom bound.
func nextPosition(last *Component) geom.Point {
	if last == nil {
		return geom.Pt(originX, originY)
	}

	x := last.Position.X + stepX
	y := last.Position.Y
	if x > rightX {
		x = originX
		y += stepY
	}
	if y > bottomY {
		x, y = originX, originY
	}
	return geom.Pt(x, y)
}
