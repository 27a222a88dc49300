package geom

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Rotation is a component orientation in degrees. Only multiples of 90 are
// meaningful; Normalize folds any value into [0, 360).
type Rotation int

const (
	Rot0   Rotation = 0
	Rot90  Rotation = 90
	Rot180 Rotation = 180
	Rot270 Rotation = 270
)

// Normalize folds r into [0, 360).
func (r Rotation) Normalize() Rotation {
	r %= 360
	if r < 0 {
		r += 360
	}
	return r
}

// Next returns r advanced by a quarter turn, wrapping 360 to 0.
func (r Rotation) Next() Rotation {
	return (r + 90).Normalize()
}

// Turns returns the number of quarter turns r represents.
func (r Rotation) Turns() int {
	return int(r.Normalize()) / 90
}

// Valid reports whether r is one of 0, 90, 180 or 270.
func (r Rotation) Valid() bool {
	return r >= 0 && r < 360 && r%90 == 0
}

func (r Rotation) String() string {
	return fmt.Sprintf("%d°", int(r))
}

// quarter is the +90° rotation in a Y-down frame: (x, y) -> (-y, x).
var quarter = mat.NewDense(2, 2, []float64{
	0, -1,
	1, 0,
})

// quarterPowers caches quarter^k for k in 0..3. Every entry is 0 or ±1 so
// the products stay exact in floating point.
var quarterPowers = func() [4]*mat.Dense {
	var out [4]*mat.Dense
	for k := range out {
		m := mat.NewDense(2, 2, nil)
		m.Pow(quarter, k)
		out[k] = m
	}
	return out
}()

// RotateQuarter rotates p about the origin by the given number of
// quarter turns. The result is exact: no trigonometry is involved.
func RotateQuarter(p Point, turns int) Point {
	turns %= 4
	if turns < 0 {
		turns += 4
	}
	if turns == 0 {
		return p
	}
	var v mat.VecDense
	v.MulVec(quarterPowers[turns], mat.NewVecDense(2, []float64{p.X, p.Y}))
	// Adding zero folds -0 into 0 so encoded offsets stay stable.
	return Point{X: v.AtVec(0) + 0, Y: v.AtVec(1) + 0}
}
