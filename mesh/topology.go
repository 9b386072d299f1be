package mesh

// Edge is an undirected edge with A < B.
type Edge struct {
	A, B int
}

func newEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

// faceEdges calls fn for each directed edge of every face.
func (m *Mesh) faceEdges(fn func(face, from, to int)) {
	for i, f := range m.Faces {
		for j, v := range f {
			fn(i, v, f[(j+1)%len(f)])
		}
	}
}

// Edges returns the unique edges of the faces in order of first appearance,
// followed by the loose edges.
func (m *Mesh) Edges() []Edge {
	seen := map[Edge]bool{}
	var out []Edge
	add := func(e Edge) {
		if seen[e] {
			return
		}
		seen[e] = true
		out = append(out, e)
	}
	m.faceEdges(func(_, from, to int) { add(newEdge(from, to)) })
	for _, e := range m.LooseEdges {
		add(newEdge(e[0], e[1]))
	}
	return out
}

// BoundaryEdges returns the face edges used by exactly one face, in order of
// first appearance.
func (m *Mesh) BoundaryEdges() []Edge {
	counts := map[Edge]int{}
	var order []Edge
	m.faceEdges(func(_, from, to int) {
		e := newEdge(from, to)
		if counts[e] == 0 {
			order = append(order, e)
		}
		counts[e]++
	})
	var out []Edge
	for _, e := range order {
		if counts[e] == 1 {
			out = append(out, e)
		}
	}
	return out
}

// BoundaryLoops groups the boundary edges into connected components and
// returns the number of components.
func (m *Mesh) BoundaryLoops() int {
	edges := m.BoundaryEdges()
	parent := map[int]int{}
	var find func(int) int
	find = func(v int) int {
		p, ok := parent[v]
		if !ok || p == v {
			parent[v] = v
			return v
		}
		r := find(p)
		parent[v] = r
		return r
	}
	for _, e := range edges {
		a, b := find(e.A), find(e.B)
		if a != b {
			parent[a] = b
		}
	}
	roots := map[int]bool{}
	for _, e := range edges {
		roots[find(e.A)] = true
	}
	return len(roots)
}

// IsManifold reports whether every face edge is shared by exactly two faces
// that traverse it in opposite directions, i.e. the faces form a closed,
// consistently wound shell.
func (m *Mesh) IsManifold() bool {
	if len(m.Faces) == 0 {
		return false
	}
	directed := map[[2]int]int{}
	m.faceEdges(func(_, from, to int) {
		directed[[2]int{from, to}]++
	})
	for e, n := range directed {
		if n != 1 {
			return false
		}
		if directed[[2]int{e[1], e[0]}] != 1 {
			return false
		}
	}
	return true
}
