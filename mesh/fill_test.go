package mesh

import (
	"fmt"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// square returns the corners of an axis aligned square in the XY plane,
// counter-clockwise unless cw is set.
func square(x, y, size float64, cw bool) []mgl64.Vec3 {
	pts := []mgl64.Vec3{{x, y, 0}, {x + size, y, 0}, {x + size, y + size, 0}, {x, y + size, 0}}
	if cw {
		pts[1], pts[3] = pts[3], pts[1]
	}
	return pts
}

func TestFill(t *testing.T) {
	tests := []struct {
		name      string
		loops     [][]mgl64.Vec3
		triangles bool
		faces     int
		area      float64
	}{
		{
			name:  "single square",
			loops: [][]mgl64.Vec3{square(0, 0, 1, false)},
			faces: 1,
			area:  1,
		},
		{
			name:      "single square as triangles",
			loops:     [][]mgl64.Vec3{square(0, 0, 1, true)},
			triangles: true,
			faces:     2,
			area:      1,
		},
		{
			name:  "side by side",
			loops: [][]mgl64.Vec3{square(0, 0, 1, false), square(2, 0, 1, true)},
			faces: 2,
			area:  2,
		},
		{
			name:  "square with hole",
			loops: [][]mgl64.Vec3{square(0, 0, 4, false), square(1, 1, 2, false)},
			faces: 8,
			area:  12,
		},
		{
			name:  "hole listed first",
			loops: [][]mgl64.Vec3{square(1, 1, 2, true), square(0, 0, 4, false)},
			faces: 8,
			area:  12,
		},
		{
			name: "island inside hole",
			loops: [][]mgl64.Vec3{
				square(0, 0, 6, false), square(1, 1, 4, false), square(2, 2, 2, false),
			},
			faces: 9,
			area:  36 - 16 + 4,
		},
		{
			name:  "too few points",
			loops: [][]mgl64.Vec3{{{0, 0, 0}, {1, 0, 0}}},
			faces: 0,
		},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("test #%v: %v", i, tt.name), func(t *testing.T) {
			m, err := Fill(tt.loops, tt.triangles)
			if err != nil {
				t.Fatal(err)
			}
			if got := m.NumFaces(); got != tt.faces {
				t.Errorf("faces = %v, want %v", got, tt.faces)
			}
			var area float64
			for f := range m.Faces {
				if n := m.FaceNormal(f); n[2] < 0.99 {
					t.Errorf("face %v normal = %v, want +Z", f, n)
				}
				area += m.FaceArea(f)
			}
			if math.Abs(area-tt.area) > 1e-9 {
				t.Errorf("area = %v, want %v", area, tt.area)
			}
		})
	}
}

func TestFillHoleKeepsItsVertices(t *testing.T) {
	m, err := Fill([][]mgl64.Vec3{square(0, 0, 4, false), square(1, 1, 2, false)}, false)
	if err != nil {
		t.Fatal(err)
	}
	if got := m.NumVerts(); got != 8 {
		t.Fatalf("verts = %v, want 8", got)
	}
	// Every boundary edge lies on one of the two squares.
	edges := m.BoundaryEdges()
	if len(edges) != 8 {
		t.Errorf("boundary edges = %v, want 8", len(edges))
	}
	if got := m.BoundaryLoops(); got != 2 {
		t.Errorf("BoundaryLoops = %v, want 2", got)
	}
}
