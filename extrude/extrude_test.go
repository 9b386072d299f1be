package extrude

import (
	"context"
	"fmt"
	"math"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gmlewis/extrude-curve/curve"
	"github.com/gmlewis/extrude-curve/mesh"
	"github.com/gmlewis/extrude-curve/nodes"
)

const circleRes = 32

func run(t *testing.T, p Params) *mesh.Mesh {
	t.Helper()
	m, err := Evaluate(context.Background(), nodes.NewLibrary(), curve.Circle(1, circleRes), p)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// zLevels returns the distinct heights of the vertices, rounded to 1e-6.
func zLevels(m *mesh.Mesh) []float64 {
	seen := map[float64]bool{}
	var out []float64
	for _, v := range m.Verts {
		z := math.Round(v[2]*1e6) / 1e6
		if !seen[z] {
			seen[z] = true
			out = append(out, z)
		}
	}
	sort.Float64s(out)
	return out
}

func TestWallRingsMatchSegments(t *testing.T) {
	tests := []struct {
		segments int
		height   float64
	}{
		{segments: 1, height: 2},
		{segments: 3, height: 2},
		{segments: 7, height: 1.5},
		{segments: 3, height: -2},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("test #%v: S=%v H=%v", i, tt.segments, tt.height), func(t *testing.T) {
			m := run(t, Params{Height: tt.height, Segments: tt.segments})
			if got, want := m.NumFaces(), tt.segments*circleRes; got != want {
				t.Errorf("faces = %v, want %v", got, want)
			}
			if got, want := len(zLevels(m)), tt.segments+1; got != want {
				t.Errorf("vertex rings = %v, want %v", got, want)
			}
			if got, want := m.NumVerts(), (tt.segments+1)*circleRes; got != want {
				t.Errorf("verts = %v, want %v", got, want)
			}
		})
	}
}

func TestSpanEqualsHeight(t *testing.T) {
	tests := []struct {
		height   float64
		segments int
	}{
		{height: 2, segments: 3},
		{height: -1.5, segments: 4},
		{height: 0.3, segments: 10},
		{height: 100, segments: 1},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("test #%v: H=%v", i, tt.height), func(t *testing.T) {
			p := DefaultParams()
			p.Height, p.Segments = tt.height, tt.segments
			min, max := run(t, p).Bounds()
			if math.Abs(min[2]-math.Min(0, tt.height)) > 1e-9 || math.Abs(max[2]-math.Max(0, tt.height)) > 1e-9 {
				t.Errorf("z span = [%v, %v], want [0, %v]", min[2], max[2], tt.height)
			}
		})
	}
}

func TestZeroHeightLeavesCaps(t *testing.T) {
	tests := []struct {
		name       string
		top, bot   bool
		wantFaces  int
		wantLevels int
	}{
		{name: "both caps", top: true, bot: true, wantFaces: 2, wantLevels: 1},
		{name: "bottom only", bot: true, wantFaces: 1, wantLevels: 1},
		{name: "no caps", wantFaces: 0, wantLevels: 1},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("test #%v: %v", i, tt.name), func(t *testing.T) {
			m := run(t, Params{Height: 0, Segments: 3, TopCap: tt.top, BottomCap: tt.bot})
			if m.NumFaces() != tt.wantFaces {
				t.Errorf("faces = %v, want %v", m.NumFaces(), tt.wantFaces)
			}
			if got := len(zLevels(m)); got != tt.wantLevels {
				t.Errorf("z levels = %v, want %v", got, tt.wantLevels)
			}
			for f := range m.Faces {
				if len(m.Faces[f]) != circleRes {
					t.Errorf("face %v has %v corners, want %v", f, len(m.Faces[f]), circleRes)
				}
			}
		})
	}
}

func TestNegativeHeightKeepsNormalsOutward(t *testing.T) {
	up := run(t, Params{Height: 2, Segments: 2, TopCap: true, BottomCap: true})
	down := run(t, Params{Height: -2, Segments: 2, TopCap: true, BottomCap: true})

	if !up.IsManifold() || !down.IsManifold() {
		t.Fatalf("IsManifold: up=%v down=%v, want true", up.IsManifold(), down.IsManifold())
	}
	vu, vd := up.Volume(), down.Volume()
	if vu <= 0 || vd <= 0 {
		t.Errorf("Volume: up=%v down=%v, want both positive", vu, vd)
	}
	if math.Abs(vu-vd) > 1e-9 {
		t.Errorf("Volume: up=%v down=%v, want equal", vu, vd)
	}

	// Every face normal points away from the axis or away from the middle.
	for _, m := range []*mesh.Mesh{up, down} {
		lo, hi := m.Bounds()
		mid := lo.Add(hi).Mul(0.5)
		for f := range m.Faces {
			c := m.FaceCenter(f)
			d := c.Sub(mid)
			if m.FaceNormal(f)[2] == 0 {
				d[2] = 0
			}
			if m.FaceNormal(f).Dot(d) <= 0 {
				t.Errorf("face %v at %v points inward", f, c)
			}
		}
	}
}

func TestCapToggles(t *testing.T) {
	walls := run(t, Params{Height: 1, Segments: 2}).NumFaces()

	tests := []struct {
		name          string
		top, bottom   bool
		wantCaps      int
		wantLoops     int
		wantOpenAtTop bool
	}{
		{name: "none", wantCaps: 0, wantLoops: 2},
		{name: "top", top: true, wantCaps: 1, wantLoops: 1},
		{name: "bottom", bottom: true, wantCaps: 1, wantLoops: 1, wantOpenAtTop: true},
		{name: "both", top: true, bottom: true, wantCaps: 2, wantLoops: 0},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("test #%v: %v", i, tt.name), func(t *testing.T) {
			m := run(t, Params{Height: 1, Segments: 2, TopCap: tt.top, BottomCap: tt.bottom})
			if got := m.NumFaces() - walls; got != tt.wantCaps {
				t.Errorf("cap faces = %v, want %v", got, tt.wantCaps)
			}
			if got := m.BoundaryLoops(); got != tt.wantLoops {
				t.Errorf("BoundaryLoops = %v, want %v", got, tt.wantLoops)
			}
			if tt.wantOpenAtTop {
				for _, e := range m.BoundaryEdges() {
					if m.Verts[e.A][2] != 1 || m.Verts[e.B][2] != 1 {
						t.Errorf("boundary edge %v not at the top", e)
					}
				}
			}
		})
	}
}

func TestClosedCylinder(t *testing.T) {
	m := run(t, Params{Height: 2, Segments: 3, TopCap: true, BottomCap: true})

	if got, want := m.NumFaces(), 3*circleRes+2; got != want {
		t.Errorf("faces = %v, want %v", got, want)
	}
	if got, want := m.NumVerts(), 4*circleRes; got != want {
		t.Errorf("verts = %v, want %v", got, want)
	}
	if got := len(m.BoundaryEdges()); got != 0 {
		t.Errorf("boundary edges = %v, want 0", got)
	}
	if !m.IsManifold() {
		t.Error("IsManifold = false, want true")
	}
	if diff := cmp.Diff([]float64{0, 0.666667, 1.333333, 2}, zLevels(m)); diff != "" {
		t.Errorf("ring heights mismatch (-want +got):\n%v", diff)
	}
}

func TestOpenTopCylinder(t *testing.T) {
	m := run(t, Params{Height: 1, Segments: 1, TopCap: false, BottomCap: true})

	if got := m.BoundaryLoops(); got != 1 {
		t.Errorf("BoundaryLoops = %v, want 1", got)
	}
	edges := m.BoundaryEdges()
	if len(edges) != circleRes {
		t.Errorf("boundary edges = %v, want %v", len(edges), circleRes)
	}
	for _, e := range edges {
		if m.Verts[e.A][2] != 1 || m.Verts[e.B][2] != 1 {
			t.Errorf("boundary edge %v not at z=1", e)
		}
	}
}

func TestIdempotent(t *testing.T) {
	lib := nodes.NewLibrary()
	c := curve.Circle(1, circleRes)
	before := c.Copy()
	p := Params{Height: 2, Segments: 3, TopCap: true, BottomCap: true}

	a, err := Evaluate(context.Background(), lib, c, p)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Evaluate(context.Background(), lib, c, p)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a.Verts, b.Verts); diff != "" {
		t.Errorf("verts differ between runs (-first +second):\n%v", diff)
	}
	if diff := cmp.Diff(a.Faces, b.Faces); diff != "" {
		t.Errorf("faces differ between runs (-first +second):\n%v", diff)
	}
	if diff := cmp.Diff(before.Splines, c.Splines); diff != "" {
		t.Errorf("input curve modified (-want +got):\n%v", diff)
	}
	if diff := cmp.Diff([]string{GroupName}, lib.Names()); diff != "" {
		t.Errorf("library names mismatch (-want +got):\n%v", diff)
	}
}

func TestNodeGroupIsShared(t *testing.T) {
	lib := nodes.NewLibrary()
	g := NodeGroup(lib)
	if NodeGroup(lib) != g {
		t.Error("NodeGroup built a second group")
	}
	if err := g.Validate(); err != nil {
		t.Fatal(err)
	}
	if !g.IsModifier {
		t.Error("IsModifier = false, want true")
	}

	var names []string
	for _, s := range g.Interface {
		names = append(names, fmt.Sprintf("%v %v %v", s.InOut, s.Kind, s.Name))
	}
	want := []string{
		"OUTPUT GEOMETRY Geometry",
		"INPUT GEOMETRY Geometry",
		"INPUT FLOAT Height",
		"INPUT INT Segments",
		"INPUT BOOLEAN Top Cap",
		"INPUT BOOLEAN Bottom Cap",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("interface mismatch (-want +got):\n%v", diff)
	}

	for _, name := range []string{"Fill Curve", "Fill Curve.002", "Extrude Mesh.001", "Switch.002", "Compare.001", "Merge by Distance"} {
		if g.Node(name) == nil {
			t.Errorf("missing node %q", name)
		}
	}
	if got := len(g.Nodes); got != 26 {
		t.Errorf("nodes = %v, want 26", got)
	}
	if got := g.Node("Geometry to Instance").Width; got != 160 {
		t.Errorf("Geometry to Instance width = %v, want 160", got)
	}
}

func TestSegmentsClamped(t *testing.T) {
	tests := []struct {
		segments int
		want     int
	}{
		{segments: 0, want: 1},
		{segments: -5, want: 1},
		{segments: 2, want: 2},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("test #%v: %v", i, tt.segments), func(t *testing.T) {
			m := run(t, Params{Height: 1, Segments: tt.segments})
			if got := m.NumFaces() / circleRes; got != tt.want {
				t.Errorf("rings = %v, want %v", got, tt.want)
			}
		})
	}
}

// polygonArea is the area of a regular n-gon with circumradius r.
func polygonArea(r float64, n int) float64 {
	return 0.5 * float64(n) * r * r * math.Sin(2*math.Pi/float64(n))
}

func TestNestedProfileMakesTube(t *testing.T) {
	tests := []struct {
		name     string
		height   float64
		segments int
	}{
		{name: "one segment", height: 1, segments: 1},
		{name: "three segments", height: 2.5, segments: 3},
		{name: "negative height", height: -1.5, segments: 2},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("test #%v: %v", i, tt.name), func(t *testing.T) {
			c := curve.Circle(2, circleRes)
			c.Append(curve.Circle(1, circleRes))
			p := Params{Height: tt.height, Segments: tt.segments, TopCap: true, BottomCap: true}
			m, err := Evaluate(context.Background(), nodes.NewLibrary(), c, p)
			if err != nil {
				t.Fatal(err)
			}

			want := (polygonArea(2, circleRes) - polygonArea(1, circleRes)) * math.Abs(tt.height)
			if got := m.Volume(); math.Abs(got-want) > 1e-9 {
				t.Errorf("Volume = %v, want %v", got, want)
			}
			if !m.IsManifold() {
				t.Error("IsManifold = false, want true")
			}
			if got := len(m.BoundaryEdges()); got != 0 {
				t.Errorf("boundary edges = %v, want 0", got)
			}

			// No vertex lies inside the hole.
			for _, v := range m.Verts {
				if r := math.Hypot(v[0], v[1]); r < 1-1e-9 {
					t.Fatalf("vertex %v inside the hole", v)
				}
			}
		})
	}
}
