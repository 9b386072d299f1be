package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	libtess2 "github.com/hajimehoshi/go-libtess2"
)

// Triangulate splits every face into triangles. Triangles keep the winding
// of their face.
func (m *Mesh) Triangulate() [][3]int {
	var out [][3]int
	for i := range m.Faces {
		out = append(out, m.TriangulateFace(i)...)
	}
	return out
}

// TriangulateFace splits face i into triangles in the plane of the face.
// Concave faces are supported. A face that cannot be tessellated yields no
// triangles.
func (m *Mesh) TriangulateFace(i int) [][3]int {
	f := m.Faces[i]
	switch len(f) {
	case 0, 1, 2:
		return nil
	case 3:
		return [][3]int{{f[0], f[1], f[2]}}
	}
	tris, err := m.tessellate([][]int{f}, m.newell(f))
	if err != nil {
		return nil
	}
	return tris
}

// tessellate fills the vertex loops with the even-odd rule and returns
// triangles wound counter-clockwise around ref. Triangle corners refer to
// the loop vertices; triangles needing new vertices (self-intersecting
// loops) are dropped.
func (m *Mesh) tessellate(loops [][]int, ref mgl64.Vec3) (tris [][3]int, err error) {
	defer func() {
		// libtess2 panics on some degenerate input.
		if r := recover(); r != nil {
			tris, err = nil, fmt.Errorf("tessellate: %v", r)
		}
	}()

	index := map[libtess2.Vertex]int{}
	contours := make([]libtess2.Contour, len(loops))
	for i, loop := range loops {
		c := make(libtess2.Contour, len(loop))
		for j, vi := range loop {
			p := m.Verts[vi]
			c[j] = libtess2.Vertex{X: float32(p[0]), Y: float32(p[1]), Z: float32(p[2])}
			if _, ok := index[c[j]]; !ok {
				index[c[j]] = vi
			}
		}
		contours[i] = c
	}

	elems, verts, err := libtess2.Tesselate(contours, libtess2.WindingRuleOdd)
	if err != nil {
		return nil, err
	}

	for i := 0; i+2 < len(elems); i += 3 {
		var t [3]int
		ok := true
		for k := range t {
			e := elems[i+k]
			if e < 0 || e >= len(verts) {
				ok = false
				break
			}
			if t[k], ok = index[verts[e]]; !ok {
				break
			}
		}
		if !ok {
			continue
		}
		a, b, c := m.Verts[t[0]], m.Verts[t[1]], m.Verts[t[2]]
		if b.Sub(a).Cross(c.Sub(a)).Dot(ref) < 0 {
			t[1], t[2] = t[2], t[1]
		}
		tris = append(tris, t)
	}
	return tris, nil
}
