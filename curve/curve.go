// Package curve describes profile curves made of poly and Bezier splines.
package curve

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SplineType selects how the control points of a spline are interpreted.
type SplineType int

const (
	// Poly splines connect their points with straight segments.
	Poly SplineType = iota
	// Bezier splines use each point's left and right handles.
	Bezier
)

func (t SplineType) String() string {
	switch t {
	case Poly:
		return "POLY"
	case Bezier:
		return "BEZIER"
	default:
		return fmt.Sprintf("SplineType(%d)", int(t))
	}
}

// DefaultResolution is the number of evaluated points per Bezier segment.
const DefaultResolution = 12

// Point is a spline control point. Handles are only used by Bezier splines.
type Point struct {
	Position    mgl64.Vec3
	HandleLeft  mgl64.Vec3
	HandleRight mgl64.Vec3
}

// Spline is a single poly or Bezier spline.
type Spline struct {
	Type       SplineType
	Points     []Point
	Cyclic     bool
	Resolution int
}

// Curve is a collection of splines.
type Curve struct {
	Splines []*Spline
}

// New returns a curve holding the given splines.
func New(splines ...*Spline) *Curve {
	return &Curve{Splines: splines}
}

// NewPoly returns a poly spline through the given positions.
func NewPoly(cyclic bool, positions ...mgl64.Vec3) *Spline {
	s := &Spline{Type: Poly, Cyclic: cyclic, Resolution: DefaultResolution}
	for _, p := range positions {
		s.Points = append(s.Points, Point{Position: p, HandleLeft: p, HandleRight: p})
	}
	return s
}

// Circle returns a cyclic poly spline approximating a circle of the given
// radius in the XY plane, counter-clockwise when seen from +Z.
func Circle(radius float64, resolution int) *Curve {
	if resolution < 3 {
		resolution = 3
	}
	pts := make([]mgl64.Vec3, resolution)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(resolution)
		pts[i] = mgl64.Vec3{radius * math.Cos(a), radius * math.Sin(a), 0}
	}
	return New(NewPoly(true, pts...))
}

// BezierCircle returns the four point Bezier circle in the XY plane.
func BezierCircle(radius float64, resolution int) *Curve {
	const k = 0.5522847498307936 // 4/3*(sqrt(2)-1)
	h := k * radius
	s := &Spline{Type: Bezier, Cyclic: true, Resolution: resolution}
	for i := 0; i < 4; i++ {
		a := math.Pi / 2 * float64(i)
		c, sn := math.Cos(a), math.Sin(a)
		p := mgl64.Vec3{radius * c, radius * sn, 0}
		tangent := mgl64.Vec3{-sn, c, 0}.Mul(h)
		s.Points = append(s.Points, Point{
			Position:    p,
			HandleLeft:  p.Sub(tangent),
			HandleRight: p.Add(tangent),
		})
	}
	return New(s)
}

// Copy returns a deep copy of the curve.
func (c *Curve) Copy() *Curve {
	if c == nil {
		return nil
	}
	out := &Curve{Splines: make([]*Spline, len(c.Splines))}
	for i, s := range c.Splines {
		cp := *s
		cp.Points = append([]Point(nil), s.Points...)
		out.Splines[i] = &cp
	}
	return out
}

// Append adds copies of the splines of o to c.
func (c *Curve) Append(o *Curve) {
	if o == nil {
		return
	}
	c.Splines = append(c.Splines, o.Copy().Splines...)
}

// Transform applies mat to every point and handle.
func (c *Curve) Transform(mat mgl64.Mat4) {
	xf := func(v mgl64.Vec3) mgl64.Vec3 { return mat.Mul4x1(v.Vec4(1)).Vec3() }
	for _, s := range c.Splines {
		for i, p := range s.Points {
			s.Points[i] = Point{
				Position:    xf(p.Position),
				HandleLeft:  xf(p.HandleLeft),
				HandleRight: xf(p.HandleRight),
			}
		}
	}
}

// Evaluate returns the evaluated positions of the spline. Cyclic splines do
// not repeat their first point at the end.
func (s *Spline) Evaluate() []mgl64.Vec3 {
	if s.Type == Poly || len(s.Points) < 2 {
		out := make([]mgl64.Vec3, len(s.Points))
		for i, p := range s.Points {
			out[i] = p.Position
		}
		return out
	}

	res := s.Resolution
	if res < 1 {
		res = 1
	}
	segments := len(s.Points) - 1
	if s.Cyclic {
		segments++
	}
	var out []mgl64.Vec3
	for i := 0; i < segments; i++ {
		a := s.Points[i]
		b := s.Points[(i+1)%len(s.Points)]
		for j := 0; j < res; j++ {
			t := float64(j) / float64(res)
			out = append(out, mgl64.CubicBezierCurve3D(t, a.Position, a.HandleRight, b.HandleLeft, b.Position))
		}
	}
	if !s.Cyclic {
		out = append(out, s.Points[len(s.Points)-1].Position)
	}
	return out
}

// Length returns the length of the evaluated polyline.
func (s *Spline) Length() float64 {
	pts := s.Evaluate()
	var l float64
	for i := 1; i < len(pts); i++ {
		l += pts[i].Sub(pts[i-1]).Len()
	}
	if s.Cyclic && len(pts) > 1 {
		l += pts[0].Sub(pts[len(pts)-1]).Len()
	}
	return l
}
