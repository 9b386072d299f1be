// Package photon is a ZSliceProcessor that writes its results to a
// ChiTuBox .cbddlp file (which is identical to an AnyCubic .photon file).
//
// The layers are streamed to the output file as they are sliced and the
// layer table is patched once all sizes are known.
package photon

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"
	"io"
	"log"
	"os"

	"github.com/gmlewis/extrude-curve/slicer"
)

// Slicer represents a slicer that provides slices of voxels.
type Slicer interface {
	MBB() (min, max [3]float32) // in millimeters

	PrepareRenderZ() error
	RenderZSlices(sp slicer.ZSliceProcessor, order slicer.Order) error
	NumZSlices() int
}

// Settings are the printer settings stored in the file header.
type Settings struct {
	NormalExposure float32 // seconds
	BottomExposure float32 // seconds
	OffTime        float32 // seconds
	BottomLayers   int
}

// DefaultSettings returns the ChiTuBox defaults.
func DefaultSettings() Settings {
	return Settings{NormalExposure: 6, BottomExposure: 50, BottomLayers: 8}
}

// Slice slices a model into baseFilename.cbddlp using layers zRes microns
// thick.
func Slice(baseFilename string, zRes float32, settings Settings, s Slicer) error {
	dlpName := fmt.Sprintf("%v.cbddlp", baseFilename)

	w, err := os.Create(dlpName)
	if err != nil {
		return fmt.Errorf("Create: %v", err)
	}

	min, max := s.MBB()
	log.Printf("MBB=(%v,%v,%v)-(%v,%v,%v)", min[0], min[1], min[2], max[0], max[1], max[2])

	if err := s.PrepareRenderZ(); err != nil {
		w.Close()
		return fmt.Errorf("PrepareRenderZ: %v", err)
	}

	d := &dlp{w: w, numSlices: s.NumZSlices(), zRes: zRes, settings: settings}
	if err := s.RenderZSlices(d, slicer.MinToMax); err != nil {
		w.Close()
		return err
	}
	if err := d.finish(); err != nil {
		w.Close()
		return err
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("Unable to close file: %v", err)
	}
	log.Printf("Writing: %v", dlpName)
	return nil
}

// dlp represents a ZSliceProcessor that writes its results
// to a ChiTuBox .cbddlp (aka AnyCubic .photon) file.
type dlp struct {
	w io.WriteSeeker

	numSlices int
	zRes      float32
	settings  Settings

	layerHeadersOffset int64
	layerHeaders       []layerHeader
}

// dlp implements the ZSliceProcessor interface.
var _ slicer.ZSliceProcessor = &dlp{}

func (d *dlp) ProcessZSlice(n int, z, voxelRadius float32, img image.Image) error {
	g := toGray(img)
	if n == 0 {
		return d.writeHeader(g)
	}
	return d.writeSlice(n, g)
}

// finish rewrites the layer table with the final offsets and sizes.
func (d *dlp) finish() error {
	if _, err := d.w.Seek(d.layerHeadersOffset, io.SeekStart); err != nil {
		return fmt.Errorf("seek: %v", err)
	}
	if err := binary.Write(d.w, binary.LittleEndian, d.layerHeaders); err != nil {
		return fmt.Errorf("layer headers: %v", err)
	}
	return nil
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	g := image.NewGray(img.Bounds())
	draw.Draw(g, g.Bounds(), img, img.Bounds().Min, draw.Src)
	return g
}
