package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Fill builds flat faces from closed loops using the even-odd rule: a loop
// lying inside an odd number of other loops is a hole in the loop around
// it. Loops without holes become one n-gon each unless triangles is set.
// Loops with holes are always triangulated.
//
// Faces point toward +Z unless they are vertical. Loops with fewer than
// three points are ignored.
func Fill(loops [][]mgl64.Vec3, triangles bool) (*Mesh, error) {
	m := New()
	var rings [][]int
	var axis mgl64.Vec3
	for _, l := range loops {
		if len(l) < 3 {
			continue
		}
		ring := make([]int, len(l))
		for i, p := range l {
			ring[i] = m.AddVert(p)
		}
		rings = append(rings, ring)
		n := m.newell(ring)
		axis = axis.Add(mgl64.Vec3{math.Abs(n[0]), math.Abs(n[1]), math.Abs(n[2])})
	}
	if len(rings) == 0 {
		return m, nil
	}

	u, v := planeAxes(axis)
	flat := make([][]mgl64.Vec2, len(rings))
	for i, ring := range rings {
		flat[i] = make([]mgl64.Vec2, len(ring))
		for j, vi := range ring {
			flat[i][j] = mgl64.Vec2{m.Verts[vi][u], m.Verts[vi][v]}
		}
	}

	depth := make([]int, len(rings))
	for i := range rings {
		for j := range rings {
			if i != j && inside(flat[i][0], flat[j]) {
				depth[i]++
			}
		}
	}
	holes := map[int][]int{}
	outer := make([]bool, len(rings))
	for i := range rings {
		if depth[i]%2 == 0 {
			outer[i] = true
			continue
		}
		parent := -1
		for j := range rings {
			if i != j && depth[j] == depth[i]-1 && inside(flat[i][0], flat[j]) {
				parent = j
				break
			}
		}
		if parent < 0 {
			outer[i] = true
			continue
		}
		holes[parent] = append(holes[parent], i)
	}

	for i, ring := range rings {
		if !outer[i] {
			continue
		}
		ref := m.newell(ring)
		if ref[2] < 0 {
			ref = ref.Mul(-1)
		}
		if len(holes[i]) == 0 && !triangles {
			f := m.AddFace(ring...)
			if m.newell(ring).Dot(ref) < 0 {
				m.FlipFaces(func(j int) bool { return j == f })
			}
			continue
		}
		island := [][]int{ring}
		for _, h := range holes[i] {
			island = append(island, rings[h])
		}
		tris, err := m.tessellate(island, ref)
		if err != nil {
			return nil, err
		}
		for _, t := range tris {
			m.AddFace(t[0], t[1], t[2])
		}
	}
	return m, nil
}

// planeAxes returns the two coordinate axes spanning the plane most
// perpendicular to n.
func planeAxes(n mgl64.Vec3) (u, v int) {
	switch {
	case n[2] >= n[0] && n[2] >= n[1]:
		return 0, 1
	case n[0] >= n[1]:
		return 1, 2
	default:
		return 2, 0
	}
}

// inside reports whether p lies inside the polygon by crossing count.
func inside(p mgl64.Vec2, poly []mgl64.Vec2) bool {
	in := false
	for i, a := range poly {
		b := poly[(i+1)%len(poly)]
		if (a[1] > p[1]) != (b[1] > p[1]) {
			x := a[0] + (p[1]-a[1])*(b[0]-a[0])/(b[1]-a[1])
			if p[0] < x {
				in = !in
			}
		}
	}
	return in
}
