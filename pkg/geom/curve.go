package geom

// WireControls returns the bezier control points of a wire: half way
// along the horizontal run, level with each end.
func WireControls(from, to Point) (Point, Point) {
	dx := to.X - from.X
	return Pt(from.X+dx*0.5, from.Y), Pt(to.X-dx*0.5, to.Y)
}

// CubicAt evaluates a cubic bezier at t in [0,1].
func CubicAt(p0, c1, c2, p1 Point, t float64) Point {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return Point{
		X: a*p0.X + b*c1.X + c*c2.X + d*p1.X,
		Y: a*p0.Y + b*c1.Y + c*c2.Y + d*p1.Y,
	}
}

// WireDistance approximates the distance from p to the wire curve
// between from and to by sampling it.
func WireDistance(from, to, p Point) float64 {
	const samples = 32
	c1, c2 := WireControls(from, to)
	best := p.Distance(from)
	prev := from
	for i := 1; i <= samples; i++ {
		next := CubicAt(from, c1, c2, to, float64(i)/samples)
		if d := segmentDistance(prev, next, p); d < best {
			best = d
		}
		prev = next
	}
	return best
}

func segmentDistance(a, b, p Point) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return p.Distance(a)
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / l2
	t = max(0, min(1, t))
	return p.Distance(a.Add(ab.Scale(t)))
}
