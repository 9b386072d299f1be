// Package voxels measures a sliced model: its volume, its surface area and
// the islands (connected solid regions) of every slice.
package voxels

import (
	"fmt"
	"image"
	"log"

	"github.com/gmlewis/extrude-curve/slicer"
)

// Slicer represents a slicer that provides slices of voxels.
type Slicer interface {
	MBB() (min, max [3]float32) // in millimeters
	Res() (x, y, z float32)     // in microns

	PrepareRenderZ() error
	RenderZSlices(sp slicer.ZSliceProcessor, order slicer.Order) error
	NumXSlices() int
	NumYSlices() int
	NumZSlices() int
}

// SliceStats summarizes one Z slice.
type SliceStats struct {
	Z       float32
	Voxels  int
	Islands int
}

// Report summarizes all slices of a model.
type Report struct {
	NX, NY, NZ int
	VoxelSize  [3]float64 // in millimeters

	Voxels     int
	Volume     float64 // cubic millimeters
	Area       float64 // square millimeters
	MaxIslands int
	Slices     []SliceStats
}

// Analyze slices the model from bottom to top and measures it.
func Analyze(s Slicer) (*Report, error) {
	xRes, yRes, zRes := s.Res()
	r := &Report{
		NX:        s.NumXSlices(),
		NY:        s.NumYSlices(),
		NZ:        s.NumZSlices(),
		VoxelSize: [3]float64{float64(xRes) / 1000, float64(yRes) / 1000, float64(zRes) / 1000},
	}
	c := new(r)

	if err := s.PrepareRenderZ(); err != nil {
		return nil, fmt.Errorf("PrepareRenderZ: %v", err)
	}
	if err := s.RenderZSlices(c, slicer.MinToMax); err != nil {
		return nil, fmt.Errorf("RenderZSlices: %v", err)
	}
	c.finish()

	log.Printf("Analyzed %v slices: %v voxels, volume=%0.3f, area=%0.3f, max islands=%v",
		len(r.Slices), r.Voxels, r.Volume, r.Area, r.MaxIslands)
	return r, nil
}

// client represents a slice measuring processor.
type client struct {
	r *Report

	// Last slice
	lastSlice map[image.Point]bool

	// Exposed top and bottom faces
	caps int
	// Exposed side faces by direction
	horizontal, vertical int
}

// client implements the ZSliceProcessor interface.
var _ slicer.ZSliceProcessor = &client{}

// new returns a new slice measuring client.
func new(r *Report) *client {
	return &client{r: r}
}

func (c *client) ProcessZSlice(sliceNum int, z, voxelRadius float32, img image.Image) error {
	labels := connectedComponentLabeling(img)
	stats := SliceStats{Z: z, Islands: len(labels)}

	cur := map[image.Point]bool{}
	for _, label := range labels {
		stats.Voxels += label.Len()
		for _, p := range label.pixels {
			cur[p] = true
			if !c.lastSlice[p] {
				c.caps++
			}
		}
		h, v := findEdges(label).Perimeter()
		c.horizontal += h
		c.vertical += v
	}
	for p := range c.lastSlice {
		if !cur[p] {
			c.caps++
		}
	}
	c.lastSlice = cur

	c.r.Slices = append(c.r.Slices, stats)
	c.r.Voxels += stats.Voxels
	if stats.Islands > c.r.MaxIslands {
		c.r.MaxIslands = stats.Islands
	}
	return nil
}

// finish closes the top of the last slice and computes the totals.
func (c *client) finish() {
	c.caps += len(c.lastSlice)
	c.lastSlice = nil

	dx, dy, dz := c.r.VoxelSize[0], c.r.VoxelSize[1], c.r.VoxelSize[2]
	c.r.Volume = float64(c.r.Voxels) * dx * dy * dz
	c.r.Area = float64(c.caps)*dx*dy + float64(c.horizontal)*dx*dz + float64(c.vertical)*dy*dz
}
