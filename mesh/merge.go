package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MergeByDistance welds selected vertices closer than dist to an earlier
// selected vertex (sel nil selects all). Vertices are visited in index
// order and always merge into the lowest-indexed match, so the result only
// depends on the input.
//
// Repeated corners are removed from each face and faces left with fewer
// than three corners are deleted. Loose edges that collapse are deleted.
func (m *Mesh) MergeByDistance(dist float64, sel func(i int) bool) {
	if len(m.Verts) == 0 {
		return
	}
	cell := dist
	if cell <= 0 {
		cell = 1e-12
	}
	d2 := dist * dist

	type key [3]int64
	keyOf := func(v mgl64.Vec3) key {
		return key{
			int64(math.Floor(v[0] / cell)),
			int64(math.Floor(v[1] / cell)),
			int64(math.Floor(v[2] / cell)),
		}
	}

	grid := map[key][]int{}
	target := make([]int, len(m.Verts))
	for i, v := range m.Verts {
		target[i] = i
		if sel != nil && !sel(i) {
			continue
		}
		k := keyOf(v)
		found := -1
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					for _, r := range grid[key{k[0] + dx, k[1] + dy, k[2] + dz}] {
						if found >= 0 && r > found {
							continue
						}
						if m.Verts[r].Sub(v).LenSqr() <= d2 {
							found = r
						}
					}
				}
			}
		}
		if found >= 0 {
			target[i] = found
			continue
		}
		grid[k] = append(grid[k], i)
	}

	keepFace := make([]bool, len(m.Faces))
	for i, f := range m.Faces {
		loop := make([]int, 0, len(f))
		for _, v := range f {
			t := target[v]
			if n := len(loop); n > 0 && loop[n-1] == t {
				continue
			}
			loop = append(loop, t)
		}
		for len(loop) > 1 && loop[0] == loop[len(loop)-1] {
			loop = loop[:len(loop)-1]
		}
		m.Faces[i] = loop
		keepFace[i] = len(loop) >= 3
	}
	m.filterFaces(keepFace)

	edges := m.LooseEdges[:0]
	for _, e := range m.LooseEdges {
		a, b := target[e[0]], target[e[1]]
		if a != b {
			edges = append(edges, [2]int{a, b})
		}
	}
	m.LooseEdges = edges

	keepVert := make([]bool, len(m.Verts))
	for i, t := range target {
		keepVert[i] = t == i
	}
	m.compact(keepVert)
}
