package curve

import (
	"fmt"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		spline  *Spline
		wantLen int
		length  float64
	}{
		{
			name:    "open poly",
			spline:  NewPoly(false, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{1, 1, 0}),
			wantLen: 3,
			length:  2,
		},
		{
			name:    "cyclic poly",
			spline:  NewPoly(true, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{1, 1, 0}, mgl64.Vec3{0, 1, 0}),
			wantLen: 4,
			length:  4,
		},
		{
			name:    "bezier circle",
			spline:  BezierCircle(1, 16).Splines[0],
			wantLen: 64,
			length:  2 * math.Pi,
		},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("test #%v: %v", i, tt.name), func(t *testing.T) {
			pts := tt.spline.Evaluate()
			if len(pts) != tt.wantLen {
				t.Errorf("Evaluate returned %v points, want %v", len(pts), tt.wantLen)
			}
			if got := tt.spline.Length(); math.Abs(got-tt.length) > 1e-2 {
				t.Errorf("Length = %v, want %v", got, tt.length)
			}
		})
	}
}

func TestCircle(t *testing.T) {
	c := Circle(2, 8)
	pts := c.Splines[0].Evaluate()
	if len(pts) != 8 {
		t.Fatalf("got %v points, want 8", len(pts))
	}
	for i, p := range pts {
		if r := p.Len(); math.Abs(r-2) > 1e-12 {
			t.Errorf("point %v radius = %v, want 2", i, r)
		}
	}
	// Counter-clockwise seen from +Z.
	if cross := pts[0].Cross(pts[1]); cross[2] <= 0 {
		t.Errorf("circle is not counter-clockwise: %v", cross)
	}
}

func TestCopyDoesNotAlias(t *testing.T) {
	c := Circle(1, 4)
	cp := c.Copy()
	cp.Transform(mgl64.Translate3D(0, 0, 5))
	if got := c.Splines[0].Points[0].Position[2]; got != 0 {
		t.Errorf("original curve was modified: z=%v", got)
	}
	if got := cp.Splines[0].Points[0].Position[2]; got != 5 {
		t.Errorf("copy z = %v, want 5", got)
	}

	c.Append(cp)
	if got := len(c.Splines); got != 2 {
		t.Errorf("Append: got %v splines, want 2", got)
	}
}
