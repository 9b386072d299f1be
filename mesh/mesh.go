// Package mesh represents polygon meshes as produced and consumed by the
// geometry node evaluator and the exporters.
package mesh

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Mesh is a polygon mesh made of n-gon faces.
//
// Faces are vertex index loops. Their winding defines the face normal
// (counter-clockwise when seen from the front). LooseEdges holds only the
// edges that are not part of any face (e.g. a mesh line).
type Mesh struct {
	Verts      []mgl64.Vec3
	Faces      [][]int
	LooseEdges [][2]int

	// Boolean face attributes. Each slice has len(Faces) entries.
	attrs map[string][]bool
}

// New returns an empty mesh.
func New() *Mesh {
	return &Mesh{}
}

// NumVerts returns the number of vertices.
func (m *Mesh) NumVerts() int { return len(m.Verts) }

// NumFaces returns the number of faces.
func (m *Mesh) NumFaces() int { return len(m.Faces) }

// Empty reports whether the mesh has no vertices.
func (m *Mesh) Empty() bool { return m == nil || len(m.Verts) == 0 }

// AddVert appends a vertex and returns its index.
func (m *Mesh) AddVert(v mgl64.Vec3) int {
	m.Verts = append(m.Verts, v)
	return len(m.Verts) - 1
}

// AddFace appends a face and returns its index. Existing face attributes
// are extended with false.
func (m *Mesh) AddFace(loop ...int) int {
	m.Faces = append(m.Faces, append([]int(nil), loop...))
	for name, vals := range m.attrs {
		m.attrs[name] = append(vals, false)
	}
	return len(m.Faces) - 1
}

// SetFaceAttr stores a boolean face attribute. vals must have one entry per face.
func (m *Mesh) SetFaceAttr(name string, vals []bool) {
	if m.attrs == nil {
		m.attrs = map[string][]bool{}
	}
	m.attrs[name] = vals
}

// FaceAttr returns the named face attribute or nil if it does not exist.
func (m *Mesh) FaceAttr(name string) []bool {
	return m.attrs[name]
}

// RemoveFaceAttr deletes the named face attribute.
func (m *Mesh) RemoveFaceAttr(name string) {
	delete(m.attrs, name)
}

// RemoveUnusedVerts drops vertices referenced by no face and no loose edge.
func (m *Mesh) RemoveUnusedVerts() {
	keep := make([]bool, len(m.Verts))
	for _, f := range m.Faces {
		for _, v := range f {
			keep[v] = true
		}
	}
	for _, e := range m.LooseEdges {
		keep[e[0]] = true
		keep[e[1]] = true
	}
	m.compact(keep)
}

// FaceAttrNames returns the attribute names in sorted order.
func (m *Mesh) FaceAttrNames() []string {
	names := make([]string, 0, len(m.attrs))
	for name := range m.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Copy returns a deep copy of the mesh.
func (m *Mesh) Copy() *Mesh {
	if m == nil {
		return New()
	}
	out := &Mesh{
		Verts:      append([]mgl64.Vec3(nil), m.Verts...),
		LooseEdges: append([][2]int(nil), m.LooseEdges...),
		Faces:      make([][]int, len(m.Faces)),
	}
	for i, f := range m.Faces {
		out.Faces[i] = append([]int(nil), f...)
	}
	for name, vals := range m.attrs {
		out.SetFaceAttr(name, append([]bool(nil), vals...))
	}
	return out
}

// Append joins o into m. Vertex indices of o are offset; attributes that
// only exist on one side are padded with false.
func (m *Mesh) Append(o *Mesh) {
	if o == nil {
		return
	}
	base := len(m.Verts)
	nf := len(m.Faces)

	names := map[string]bool{}
	for name := range m.attrs {
		names[name] = true
	}
	for name := range o.attrs {
		names[name] = true
	}
	for name := range names {
		a, ok := m.attrs[name]
		if !ok {
			a = make([]bool, nf)
		}
		b, ok := o.attrs[name]
		if !ok {
			b = make([]bool, len(o.Faces))
		}
		m.SetFaceAttr(name, append(a, b...))
	}

	m.Verts = append(m.Verts, o.Verts...)
	for _, f := range o.Faces {
		loop := make([]int, len(f))
		for i, v := range f {
			loop[i] = v + base
		}
		m.Faces = append(m.Faces, loop)
	}
	for _, e := range o.LooseEdges {
		m.LooseEdges = append(m.LooseEdges, [2]int{e[0] + base, e[1] + base})
	}
}

// Transform applies mat to every vertex position.
func (m *Mesh) Transform(mat mgl64.Mat4) {
	for i, v := range m.Verts {
		m.Verts[i] = mat.Mul4x1(v.Vec4(1)).Vec3()
	}
}

// FlipFaces reverses the winding of the selected faces (all when sel is nil).
// The first corner of each face is kept in place.
func (m *Mesh) FlipFaces(sel func(i int) bool) {
	for i, f := range m.Faces {
		if sel != nil && !sel(i) {
			continue
		}
		for a, b := 1, len(f)-1; a < b; a, b = a+1, b-1 {
			f[a], f[b] = f[b], f[a]
		}
	}
}

// DeleteFaces removes the selected faces. Unless onlyFaces is set, vertices
// of the removed faces that are no longer used by any face or loose edge are
// removed too.
func (m *Mesh) DeleteFaces(sel func(i int) bool, onlyFaces bool) {
	keepFace := make([]bool, len(m.Faces))
	candidates := make([]bool, len(m.Verts))
	for i, f := range m.Faces {
		if sel(i) {
			for _, v := range f {
				candidates[v] = true
			}
			continue
		}
		keepFace[i] = true
	}
	m.filterFaces(keepFace)

	keepVert := make([]bool, len(m.Verts))
	for i := range keepVert {
		keepVert[i] = onlyFaces || !candidates[i]
	}
	for _, f := range m.Faces {
		for _, v := range f {
			keepVert[v] = true
		}
	}
	for _, e := range m.LooseEdges {
		keepVert[e[0]] = true
		keepVert[e[1]] = true
	}
	m.compact(keepVert)
}

// DeleteVerts removes the selected vertices along with every face and loose
// edge using one of them.
func (m *Mesh) DeleteVerts(sel func(i int) bool) {
	keepVert := make([]bool, len(m.Verts))
	for i := range keepVert {
		keepVert[i] = !sel(i)
	}
	keepFace := make([]bool, len(m.Faces))
	for i, f := range m.Faces {
		keepFace[i] = true
		for _, v := range f {
			if !keepVert[v] {
				keepFace[i] = false
				break
			}
		}
	}
	m.filterFaces(keepFace)
	edges := m.LooseEdges[:0]
	for _, e := range m.LooseEdges {
		if keepVert[e[0]] && keepVert[e[1]] {
			edges = append(edges, e)
		}
	}
	m.LooseEdges = edges
	m.compact(keepVert)
}

func (m *Mesh) filterFaces(keep []bool) {
	faces := make([][]int, 0, len(m.Faces))
	for i, f := range m.Faces {
		if keep[i] {
			faces = append(faces, f)
		}
	}
	m.Faces = faces
	for name, vals := range m.attrs {
		out := make([]bool, 0, len(faces))
		for i, v := range vals {
			if keep[i] {
				out = append(out, v)
			}
		}
		m.attrs[name] = out
	}
}

// compact drops vertices not marked in keep and remaps all indices.
// Every face and edge must only reference kept vertices.
func (m *Mesh) compact(keep []bool) {
	remap := make([]int, len(m.Verts))
	verts := make([]mgl64.Vec3, 0, len(m.Verts))
	for i, v := range m.Verts {
		if !keep[i] {
			remap[i] = -1
			continue
		}
		remap[i] = len(verts)
		verts = append(verts, v)
	}
	m.Verts = verts
	for _, f := range m.Faces {
		for i, v := range f {
			f[i] = remap[v]
		}
	}
	for i, e := range m.LooseEdges {
		m.LooseEdges[i] = [2]int{remap[e[0]], remap[e[1]]}
	}
}

// FaceNormal returns the unit normal of face i using Newell's method.
// Degenerate faces return the zero vector.
func (m *Mesh) FaceNormal(i int) mgl64.Vec3 {
	n := m.newell(m.Faces[i])
	if l := n.Len(); l > 0 {
		return n.Mul(1 / l)
	}
	return mgl64.Vec3{}
}

// FaceArea returns the area of face i.
func (m *Mesh) FaceArea(i int) float64 {
	return 0.5 * m.newell(m.Faces[i]).Len()
}

// FaceCenter returns the average of the corners of face i.
func (m *Mesh) FaceCenter(i int) mgl64.Vec3 {
	var c mgl64.Vec3
	f := m.Faces[i]
	for _, v := range f {
		c = c.Add(m.Verts[v])
	}
	if len(f) == 0 {
		return c
	}
	return c.Mul(1 / float64(len(f)))
}

func (m *Mesh) newell(f []int) mgl64.Vec3 {
	var n mgl64.Vec3
	for i, vi := range f {
		a := m.Verts[vi]
		b := m.Verts[f[(i+1)%len(f)]]
		n[0] += (a[1] - b[1]) * (a[2] + b[2])
		n[1] += (a[2] - b[2]) * (a[0] + b[0])
		n[2] += (a[0] - b[0]) * (a[1] + b[1])
	}
	return n
}

// Bounds returns the axis-aligned bounding box of the vertices.
func (m *Mesh) Bounds() (min, max mgl64.Vec3) {
	if len(m.Verts) == 0 {
		return min, max
	}
	min, max = m.Verts[0], m.Verts[0]
	for _, v := range m.Verts[1:] {
		for j := 0; j < 3; j++ {
			min[j] = math.Min(min[j], v[j])
			max[j] = math.Max(max[j], v[j])
		}
	}
	return min, max
}

// Volume returns the signed enclosed volume. It is positive for a closed
// shell whose normals point outward.
func (m *Mesh) Volume() float64 {
	var vol float64
	for _, f := range m.Faces {
		a := m.Verts[f[0]]
		for i := 1; i+1 < len(f); i++ {
			b, c := m.Verts[f[i]], m.Verts[f[i+1]]
			vol += a.Dot(b.Cross(c))
		}
	}
	return vol / 6
}
