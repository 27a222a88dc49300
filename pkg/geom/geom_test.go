package geom

import (
	"math"
	"testing"
)

func TestRotateQuarter(t *testing.T) {
	cases := []struct {
		in    Point
		turns int
		want  Point
	}{
		{Pt(30, 0), 1, Pt(0, 30)},
		{Pt(30, 0), 2, Pt(-30, 0)},
		{Pt(30, 0), 3, Pt(0, -30)},
		{Pt(0, 20), 1, Pt(-20, 0)},
		{Pt(-30, 0), 1, Pt(0, -30)},
		{Pt(3, 4), 0, Pt(3, 4)},
		{Pt(3, 4), 4, Pt(3, 4)},
		{Pt(3, 4), -1, Pt(4, -3)},
	}

	for _, tc := range cases {
		got := RotateQuarter(tc.in, tc.turns)
		if got != tc.want {
			t.Errorf("RotateQuarter(%v, %d) = %v, want %v", tc.in, tc.turns, got, tc.want)
		}
	}
}

func TestRotateQuarterClosure(t *testing.T) {
	offsets := []Point{Pt(-30, 0), Pt(30, 0), Pt(0, 20), Pt(12.5, -7.25)}
	for _, p := range offsets {
		q := p
		for i := 0; i < 4; i++ {
			q = RotateQuarter(q, 1)
		}
		if q != p {
			t.Fatalf("four quarter turns of %v gave %v", p, q)
		}
	}
}

func TestRotateQuarterNoNegativeZero(t *testing.T) {
	got := RotateQuarter(Pt(0, 0), 1)
	if math.Signbit(got.X) || math.Signbit(got.Y) {
		t.Fatalf("RotateQuarter(0,0) produced negative zero: %v", got)
	}
}

func TestRotationNext(t *testing.T) {
	r := Rot0
	want := []Rotation{Rot90, Rot180, Rot270, Rot0}
	for i, w := range want {
		r = r.Next()
		if r != w {
			t.Fatalf("step %d: got %d, want %d", i, r, w)
		}
	}
	if got := Rotation(-90).Normalize(); got != Rot270 {
		t.Errorf("Normalize(-90) = %d, want 270", got)
	}
	if Rotation(45).Valid() {
		t.Errorf("45 should not be a valid rotation")
	}
}

func TestBoundingBox(t *testing.T) {
	bb := NewBoundingBox()
	if !bb.IsEmpty() {
		t.Fatalf("new box should be empty")
	}
	bb.Expand(Pt(10, 20))
	bb.Expand(Pt(-5, 40))
	if bb.Width() != 15 || bb.Height() != 20 {
		t.Fatalf("got %vx%v, want 15x20", bb.Width(), bb.Height())
	}
	if c := bb.Center(); c != Pt(2.5, 30) {
		t.Errorf("Center() = %v, want (2.5, 30)", c)
	}
	if !bb.Contains(Pt(0, 25)) || bb.Contains(Pt(11, 25)) {
		t.Errorf("Contains mismatch for %+v", bb)
	}

	r := RectAround(Pt(150, 150), Size{W: 60, H: 40})
	if r.Min != Pt(120, 130) || r.Max != Pt(180, 170) {
		t.Errorf("RectAround = %+v", r)
	}
	if !r.Intersects(RectAround(Pt(200, 150), Size{W: 60, H: 40})) {
		t.Errorf("adjacent boxes should intersect")
	}
}

func TestWireControls(t *testing.T) {
	c1, c2 := WireControls(Pt(180, 150), Pt(270, 250))
	if c1 != Pt(225, 150) || c2 != Pt(225, 250) {
		t.Errorf("controls = %v, %v", c1, c2)
	}
}

func TestWireDistance(t *testing.T) {
	from, to := Pt(0, 0), Pt(100, 100)
	tests := []struct {
		name string
		p    Point
		near bool
	}{
		{"start", Pt(0, 0), true},
		{"end", Pt(100, 100), true},
		{"midpoint", CubicAt(from, Pt(50, 0), Pt(50, 100), to, 0.5), true},
		{"far corner", Pt(100, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := WireDistance(from, to, tt.p)
			if got := d < 1; got != tt.near {
				t.Errorf("distance %.2f, near = %v, want %v", d, got, tt.near)
			}
		})
	}
}
