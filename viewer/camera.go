package viewer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gmlewis/extrude-curve/mesh"
)

const fovY = 45 // degrees

// camera orbits a target point. Z is up.
type camera struct {
	target   mgl32.Vec3
	distance float32
	yaw      float32 // radians around Z
	pitch    float32 // radians above the XY plane
	aspect   float32
}

// newCamera returns a camera that frames the box [lo, hi].
func newCamera(lo, hi mgl64.Vec3, aspect float32) *camera {
	center := lo.Add(hi).Mul(0.5)
	radius := hi.Sub(lo).Len() / 2
	if radius == 0 {
		radius = 1
	}
	dist := radius / math.Sin(mgl64.DegToRad(fovY)/2)
	return &camera{
		target:   mgl32.Vec3{float32(center[0]), float32(center[1]), float32(center[2])},
		distance: float32(dist) * 1.1,
		yaw:      -math.Pi / 4,
		pitch:    math.Pi / 6,
		aspect:   aspect,
	}
}

func (c *camera) eye() mgl32.Vec3 {
	cp := float32(math.Cos(float64(c.pitch)))
	dir := mgl32.Vec3{
		cp * float32(math.Cos(float64(c.yaw))),
		cp * float32(math.Sin(float64(c.yaw))),
		float32(math.Sin(float64(c.pitch))),
	}
	return c.target.Add(dir.Mul(c.distance))
}

func (c *camera) view() mgl32.Mat4 {
	return mgl32.LookAtV(c.eye(), c.target, mgl32.Vec3{0, 0, 1})
}

func (c *camera) projection() mgl32.Mat4 {
	near := c.distance / 100
	far := c.distance * 10
	return mgl32.Perspective(mgl32.DegToRad(fovY), c.aspect, near, far)
}

// orbit rotates the camera by dx, dy radians. Pitch stays short of the poles.
func (c *camera) orbit(dx, dy float32) {
	const limit = math.Pi/2 - 0.01
	c.yaw += dx
	c.pitch = mgl32.Clamp(c.pitch+dy, -limit, limit)
}

// zoom scales the distance to the target.
func (c *camera) zoom(factor float32) {
	if factor > 0 {
		c.distance *= factor
	}
}

// vertices returns the triangles of m as interleaved position and normal
// triples for flat shading.
func vertices(m *mesh.Mesh) []float32 {
	tris := m.Triangulate()
	out := make([]float32, 0, len(tris)*3*6)
	for _, t := range tris {
		a, b, c := m.Verts[t[0]], m.Verts[t[1]], m.Verts[t[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		if l := n.Len(); l > 0 {
			n = n.Mul(1 / l)
		}
		for _, p := range []mgl64.Vec3{a, b, c} {
			out = append(out,
				float32(p[0]), float32(p[1]), float32(p[2]),
				float32(n[0]), float32(n[1]), float32(n[2]))
		}
	}
	return out
}
