// Package slicer cuts a triangle mesh into Z slices of voxels. Each slice is
// rasterized into a grayscale image where white pixels are inside the mesh.
package slicer

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/vector"

	"github.com/gmlewis/extrude-curve/mesh"
)

// Order represents the order of slice processing.
type Order byte

const (
	MinToMax Order = iota
	MaxToMin
)

// ZSliceProcessor processes a Z slice.
type ZSliceProcessor interface {
	ProcessZSlice(sliceNum int, z, voxelRadius float32, img image.Image) error
}

// Slicer slices a closed mesh. Mesh units are millimeters.
type Slicer struct {
	xRes, yRes, zRes float32 // in microns

	min, max [3]float32
	tris     []tri
	prepared bool
}

type tri struct {
	p          [3]mgl64.Vec3
	n          mgl64.Vec3
	zmin, zmax float64
}

// New returns a Slicer for m with the given resolution in microns.
func New(m *mesh.Mesh, xRes, yRes, zRes float32) (*Slicer, error) {
	if xRes <= 0 || yRes <= 0 || zRes <= 0 {
		return nil, fmt.Errorf("invalid resolution (%v,%v,%v)", xRes, yRes, zRes)
	}
	if m == nil || m.NumFaces() == 0 {
		return nil, errors.New("mesh has no faces")
	}

	s := &Slicer{xRes: xRes, yRes: yRes, zRes: zRes}
	for _, t := range m.Triangulate() {
		a, b, c := m.Verts[t[0]], m.Verts[t[1]], m.Verts[t[2]]
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Len() == 0 {
			continue
		}
		s.tris = append(s.tris, tri{
			p:    [3]mgl64.Vec3{a, b, c},
			n:    n,
			zmin: math.Min(a[2], math.Min(b[2], c[2])),
			zmax: math.Max(a[2], math.Max(b[2], c[2])),
		})
	}

	lo, hi := m.Bounds()
	for i := 0; i < 3; i++ {
		s.min[i], s.max[i] = float32(lo[i]), float32(hi[i])
	}
	return s, nil
}

// MBB returns the minimum bounding box in millimeters.
func (s *Slicer) MBB() (min, max [3]float32) {
	return s.min, s.max
}

// Res returns the voxel size in microns along each axis.
func (s *Slicer) Res() (x, y, z float32) {
	return s.xRes, s.yRes, s.zRes
}

func numSlices(min, max, microns float32) int {
	n := int(math.Ceil(float64((max - min) * 1000 / microns)))
	if n < 1 {
		return 1
	}
	return n
}

// NumXSlices returns the number of voxels along X.
func (s *Slicer) NumXSlices() int { return numSlices(s.min[0], s.max[0], s.xRes) }

// NumYSlices returns the number of voxels along Y.
func (s *Slicer) NumYSlices() int { return numSlices(s.min[1], s.max[1], s.yRes) }

// NumZSlices returns the number of voxels along Z.
func (s *Slicer) NumZSlices() int { return numSlices(s.min[2], s.max[2], s.zRes) }

// PrepareRenderZ sorts the triangles by their lowest Z value.
func (s *Slicer) PrepareRenderZ() error {
	sort.SliceStable(s.tris, func(a, b int) bool { return s.tris[a].zmin < s.tris[b].zmin })
	s.prepared = true
	return nil
}

// RenderZSlices renders every Z slice and passes it to sp.
func (s *Slicer) RenderZSlices(sp ZSliceProcessor, order Order) error {
	if !s.prepared {
		return errors.New("PrepareRenderZ must be called first")
	}
	nz := s.NumZSlices()
	zRes := s.zRes / 1000
	voxelRadius := 0.5 * zRes

	for i := 0; i < nz; i++ {
		n := i
		if order == MaxToMin {
			n = nz - i - 1
		}
		z := s.min[2] + voxelRadius + float32(n)*zRes
		img := s.SliceZ(float64(z))
		if err := sp.ProcessZSlice(n, z, voxelRadius, img); err != nil {
			return fmt.Errorf("ProcessZSlice(%v): %v", n, err)
		}
	}
	return nil
}

// SliceZ rasterizes the cross section of the mesh at height z. Pixel (u,v)
// covers the voxel whose lower corner is at MBB min + (u*xRes, v*yRes).
func (s *Slicer) SliceZ(z float64) *image.Gray {
	nx, ny := s.NumXSlices(), s.NumYSlices()
	xRes, yRes := float64(s.xRes)/1000, float64(s.yRes)/1000
	toPixel := func(p mgl64.Vec3) (float32, float32) {
		return float32((p[0] - float64(s.min[0])) / xRes), float32((p[1] - float64(s.min[1])) / yRes)
	}

	r := vector.NewRasterizer(nx, ny)
	end := len(s.tris)
	if s.prepared {
		end = sort.Search(len(s.tris), func(i int) bool { return s.tris[i].zmin > z })
	}
	for _, t := range s.tris[:end] {
		if t.zmax < z || t.zmin > z {
			continue
		}
		a, b, ok := t.cut(z)
		if !ok {
			continue
		}
		ax, ay := toPixel(a)
		bx, by := toPixel(b)
		r.MoveTo(ax, ay)
		r.LineTo(bx, by)
	}

	mask := image.NewAlpha(image.Rect(0, 0, nx, ny))
	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	// Pixels more than half covered are inside.
	img := image.NewGray(mask.Bounds())
	for i, a := range mask.Pix {
		if a >= 0x80 {
			img.Pix[i] = 0xff
		}
	}
	return img
}

// cut returns the segment where the plane at height z crosses t, oriented
// so that the solid lies to its left when viewed from +Z.
func (t tri) cut(z float64) (mgl64.Vec3, mgl64.Vec3, bool) {
	var pts []mgl64.Vec3
	for i := 0; i < 3; i++ {
		p, q := t.p[i], t.p[(i+1)%3]
		dp, dq := p[2]-z, q[2]-z
		// Vertices on the plane count as above it.
		if (dp < 0) == (dq < 0) {
			continue
		}
		f := dp / (dp - dq)
		pts = append(pts, p.Add(q.Sub(p).Mul(f)))
	}
	if len(pts) != 2 {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	a, b := pts[0], pts[1]
	// The outward normal must point to the right of the segment.
	dir := b.Sub(a)
	if t.n[0]*dir[1]-t.n[1]*dir[0] < 0 {
		a, b = b, a
	}
	return a, b, true
}
