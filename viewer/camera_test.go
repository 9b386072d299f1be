package viewer

import (
	"fmt"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"

	"github.com/gmlewis/extrude-curve/mesh"
)

func TestCameraFramesBounds(t *testing.T) {
	tests := []struct {
		name   string
		lo, hi mgl64.Vec3
		aspect float32
	}{
		{name: "unit cube", lo: mgl64.Vec3{0, 0, 0}, hi: mgl64.Vec3{1, 1, 1}, aspect: 4.0 / 3},
		{name: "tall cylinder", lo: mgl64.Vec3{-1, -1, 0}, hi: mgl64.Vec3{1, 1, 20}, aspect: 4.0 / 3},
		{name: "flat disk", lo: mgl64.Vec3{-5, -5, 0}, hi: mgl64.Vec3{5, 5, 0}, aspect: 1},
		{name: "point", lo: mgl64.Vec3{2, 2, 2}, hi: mgl64.Vec3{2, 2, 2}, aspect: 1},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("test #%v: %v", i, tt.name), func(t *testing.T) {
			cam := newCamera(tt.lo, tt.hi, tt.aspect)
			mvp := cam.projection().Mul4(cam.view())
			for c := 0; c < 8; c++ {
				p := mgl32.Vec3{
					float32(pick(c&1, tt.lo[0], tt.hi[0])),
					float32(pick(c&2, tt.lo[1], tt.hi[1])),
					float32(pick(c&4, tt.lo[2], tt.hi[2])),
				}
				clip := mvp.Mul4x1(p.Vec4(1))
				ndc := clip.Vec3().Mul(1 / clip[3])
				for axis := 0; axis < 3; axis++ {
					if ndc[axis] < -1 || ndc[axis] > 1 {
						t.Errorf("corner %v projects to %v, outside the view", p, ndc)
						break
					}
				}
			}
		})
	}
}

func pick(bit int, lo, hi float64) float64 {
	if bit != 0 {
		return hi
	}
	return lo
}

func TestOrbitClampsPitch(t *testing.T) {
	cam := newCamera(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}, 1)
	cam.orbit(0.5, 10)
	if cam.pitch >= math.Pi/2 {
		t.Errorf("pitch = %v, want below the pole", cam.pitch)
	}
	cam.orbit(0, -20)
	if cam.pitch <= -math.Pi/2 {
		t.Errorf("pitch = %v, want above the pole", cam.pitch)
	}

	d := cam.distance
	cam.zoom(0.5)
	cam.zoom(-1)
	if cam.distance != d*0.5 {
		t.Errorf("distance = %v, want %v", cam.distance, d*0.5)
	}
}

func TestVertices(t *testing.T) {
	m := mesh.New()
	for _, v := range []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}} {
		m.AddVert(v)
	}
	m.AddFace(0, 1, 2, 3)

	data := vertices(m)
	if len(data) != 2*3*6 {
		t.Fatalf("len = %v, want %v", len(data), 2*3*6)
	}
	for i := 0; i < len(data); i += 6 {
		if diff := cmp.Diff([]float32{0, 0, 1}, data[i+3:i+6]); diff != "" {
			t.Errorf("normal %v mismatch (-want +got):\n%v", i/6, diff)
		}
	}
}
