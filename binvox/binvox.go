// Package binvox slices a model and writes the voxels on its surface to a
// binvox file.
package binvox

import (
	"fmt"
	"image"
	"log"

	"github.com/gmlewis/stldice/v4/binvox"

	"github.com/gmlewis/extrude-curve/slicer"
)

// Slicer represents a slicer that provides slices of voxels.
type Slicer interface {
	MBB() (min, max [3]float32) // in millimeters

	PrepareRenderZ() error
	RenderZSlices(sp slicer.ZSliceProcessor, order slicer.Order) error
	NumXSlices() int
	NumYSlices() int
	NumZSlices() int
}

// Slice slices a model into baseFilename.binvox.
func Slice(baseFilename string, s Slicer) error {
	filename := fmt.Sprintf("%v.binvox", baseFilename)

	min, max := s.MBB()
	scale := float64(max[0] - min[0])
	for i := 1; i < 3; i++ {
		if d := float64(max[i] - min[i]); d > scale {
			scale = d
		}
	}
	b := binvox.New(
		s.NumXSlices(),
		s.NumYSlices(),
		s.NumZSlices(),
		float64(min[0]),
		float64(min[1]),
		float64(min[2]),
		scale,
		false,
	)

	if err := slice(b, s); err != nil {
		return err
	}

	log.Printf("Writing: %v", filename)
	if err := b.Write(filename, 0, 0, 0, b.NX, b.NY, b.NZ); err != nil {
		return fmt.Errorf("Write: %v", err)
	}
	return nil
}

// adder receives surface voxels.
type adder interface {
	Add(x, y, z int)
}

func slice(b adder, s Slicer) error {
	c := new(b)

	if err := s.PrepareRenderZ(); err != nil {
		return fmt.Errorf("PrepareRenderZ: %v", err)
	}

	log.Printf("Processing +Z, +X, -X, +Y, -Y...")
	c.newNormal(0, 0, 1)
	if err := s.RenderZSlices(c, slicer.MaxToMin); err != nil {
		return fmt.Errorf("RenderZSlices: %v", err)
	}

	log.Printf("Processing -Z...")
	c.newNormal(0, 0, -1)
	if err := s.RenderZSlices(c, slicer.MinToMax); err != nil {
		return fmt.Errorf("RenderZSlices: %v", err)
	}
	return nil
}

// client represents a slices-to-binvox converter.
type client struct {
	b adder

	// Current normal vector
	n [3]float32

	// Last slice
	lastSlice *uvSlice

	// Current slice
	curSlice *uvSlice
}

// client implements the ZSliceProcessor interface.
var _ slicer.ZSliceProcessor = &client{}

// uvSlice represents a slice of voxels indexed by uv (integer) coordinates.
type uvSlice struct {
	uSize, vSize int
	p            []bool
}

func (s *uvSlice) at(u, v int) bool {
	if s == nil || u < 0 || v < 0 || u >= s.uSize || v >= s.vSize {
		return false
	}
	return s.p[v*s.uSize+u]
}

// new returns a new slices-to-binvox client.
func new(b adder) *client {
	return &client{b: b}
}

// newNormal starts a new normal unit vector along Z (+Z or -Z).
func (c *client) newNormal(x, y, z float32) {
	c.n = [3]float32{x, y, z}
	c.lastSlice = nil
	c.curSlice = nil
}

func (c *client) ProcessZSlice(sliceNum int, z, voxelRadius float32, img image.Image) error {
	c.newSlice(img)
	cur, last := c.curSlice, c.lastSlice
	sides := c.n[2] > 0 // Also process +X, -X, +Y, and -Y.

	for v := 0; v < cur.vSize; v++ {
		for u := 0; u < cur.uSize; u++ {
			if !cur.at(u, v) {
				continue
			}
			exposed := !last.at(u, v)
			if sides && !exposed {
				exposed = !cur.at(u-1, v) || !cur.at(u+1, v) || !cur.at(u, v-1) || !cur.at(u, v+1)
			}
			if exposed {
				c.b.Add(u, v, sliceNum)
			}
		}
	}
	return nil
}

// newSlice thresholds img into the current slice.
func (c *client) newSlice(img image.Image) {
	b := img.Bounds()
	c.lastSlice = c.curSlice
	c.curSlice = &uvSlice{
		uSize: b.Dx(),
		vSize: b.Dy(),
		p:     make([]bool, b.Dx()*b.Dy()),
	}
	for v := b.Min.Y; v < b.Max.Y; v++ {
		for u := b.Min.X; u < b.Max.X; u++ {
			if r, _, _, _ := img.At(u, v).RGBA(); r != 0 {
				c.curSlice.p[(v-b.Min.Y)*c.curSlice.uSize+u-b.Min.X] = true
			}
		}
	}
}
