package nodes

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gmlewis/extrude-curve/curve"
	"github.com/gmlewis/extrude-curve/mesh"
)

// Geometry is a set of geometry components flowing between nodes.
// Nodes treat geometry values as immutable and copy before modifying.
type Geometry struct {
	Mesh      *mesh.Mesh
	Curve     *curve.Curve
	Instances []Instance
}

// Instance places a shared geometry with a transform.
type Instance struct {
	Geometry  *Geometry
	Transform mgl64.Mat4
}

// Kind implements Value.
func (g *Geometry) Kind() Kind { return KindGeometry }

// MeshGeometry wraps a mesh.
func MeshGeometry(m *mesh.Mesh) *Geometry { return &Geometry{Mesh: m} }

// CurveGeometry wraps a curve.
func CurveGeometry(c *curve.Curve) *Geometry { return &Geometry{Curve: c} }

// IsEmpty reports whether g has no components.
func (g *Geometry) IsEmpty() bool {
	return g == nil || (g.Mesh.Empty() && (g.Curve == nil || len(g.Curve.Splines) == 0) && len(g.Instances) == 0)
}

// Copy returns a copy of g. Meshes and curves are deep copied; instanced
// geometry is shared.
func (g *Geometry) Copy() *Geometry {
	if g == nil {
		return &Geometry{}
	}
	out := &Geometry{Instances: append([]Instance(nil), g.Instances...)}
	if g.Mesh != nil {
		out.Mesh = g.Mesh.Copy()
	}
	if g.Curve != nil {
		out.Curve = g.Curve.Copy()
	}
	return out
}

// Join adds copies of the components of o to g.
func (g *Geometry) Join(o *Geometry) {
	if o == nil {
		return
	}
	if o.Mesh != nil {
		if g.Mesh == nil {
			g.Mesh = mesh.New()
		}
		g.Mesh.Append(o.Mesh)
	}
	if o.Curve != nil {
		if g.Curve == nil {
			g.Curve = curve.New()
		}
		g.Curve.Append(o.Curve)
	}
	g.Instances = append(g.Instances, o.Instances...)
}

// Realize returns a copy of g with all (nested) instances converted into
// real meshes and curves.
func (g *Geometry) Realize() *Geometry {
	out := &Geometry{}
	if g == nil {
		return out
	}
	if g.Mesh != nil {
		out.Mesh = g.Mesh.Copy()
	}
	if g.Curve != nil {
		out.Curve = g.Curve.Copy()
	}
	for _, inst := range g.Instances {
		r := inst.Geometry.Realize()
		if r.Mesh != nil {
			r.Mesh.Transform(inst.Transform)
		}
		if r.Curve != nil {
			r.Curve.Transform(inst.Transform)
		}
		out.Join(r)
	}
	return out
}
