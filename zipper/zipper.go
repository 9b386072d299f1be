// Package zipper is a ZSliceProcessor that writes its results to ZIP files.
package zipper

import (
	"archive/zip"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"time"

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

// Slice writes the slices of a model into a ZIP file of PNG images
// named baseFilename.zip.
func Slice(baseFilename string, s Slicer) error {
	zp := &zipper{fmtStr: "out%04d.png", suffix: "zip"}
	return zp.write(baseFilename, s)
}

// zipper represents a ZSliceProcessor that writes its results to a ZIP file.
type zipper struct {
	w *zip.Writer

	fmtStr   string
	suffix   string
	manifest *Metadata
	now      func() time.Time
}

// zipper implements the ZSliceProcessor interface.
var _ slicer.ZSliceProcessor = &zipper{}

func (zp *zipper) write(baseFilename string, s Slicer) error {
	if zp.now == nil {
		zp.now = time.Now
	}
	filename := fmt.Sprintf("%v.%v", baseFilename, zp.suffix)

	zf, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("Create: %v", err)
	}
	zp.w = zip.NewWriter(zf)

	min, max := s.MBB()
	log.Printf("MBB=(%v,%v,%v)-(%v,%v,%v)", min[0], min[1], min[2], max[0], max[1], max[2])

	if zp.manifest != nil {
		if err := zp.writeManifest(s); err != nil {
			zf.Close()
			return err
		}
	}

	if err := s.PrepareRenderZ(); err != nil {
		zf.Close()
		return fmt.Errorf("PrepareRenderZ: %v", err)
	}

	if err := s.RenderZSlices(zp, slicer.MinToMax); err != nil {
		zf.Close()
		return err
	}

	if err := zp.w.Close(); err != nil {
		zf.Close()
		return fmt.Errorf("Unable to close ZIP writer: %v", err)
	}

	if err := zf.Close(); err != nil {
		return fmt.Errorf("Unable to close ZIP file: %v", err)
	}
	log.Printf("Writing: %v", filename)
	return nil
}

func (zp *zipper) ProcessZSlice(n int, z, voxelRadius float32, img image.Image) error {
	filename := fmt.Sprintf(zp.fmtStr, n)
	fh := &zip.FileHeader{
		Name:     filename,
		Comment:  fmt.Sprintf("z=%0.2f", z),
		Method:   zip.Deflate,
		Modified: zp.now(),
	}
	f, err := zp.w.CreateHeader(fh)
	if err != nil {
		return fmt.Errorf("Unable to create ZIP file %q: %v", filename, err)
	}
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("PNG encode: %v", err)
	}

	return nil
}
