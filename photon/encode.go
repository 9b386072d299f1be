package photon

import (
	"encoding/binary"
	"fmt"
	"image"
	"log"
	"math"
)

const (
	previewWidth    = 0x190
	previewHeight   = 0x12c
	thumbnailWidth  = 0xc8
	thumbnailHeight = 0x7d

	screenWidth  = 0xa00
	screenHeight = 0x5a0

	plateX = 68.04
	plateY = 120.96
	plateZ = 150.0

	setPixels   = 0x80
	maxLayerRun = 0x7d

	previewFill   = 0x20
	previewRepeat = 0x3000
	maxPreviewRun = 0xfff
)

// writeHeader writes everything up to and including the first layer.
func (d *dlp) writeHeader(img *image.Gray) error {
	preview := encodePreview(previewWidth, previewHeight, img)
	thumbnail := encodePreview(thumbnailWidth, thumbnailHeight, img)
	layer0 := encodeLayer(img)

	pos := binary.Size(fileHeader{})
	previewOffset := pos
	pos += binary.Size(previewHeader{}) + len(preview)
	thumbnailOffset := pos
	pos += binary.Size(previewHeader{}) + len(thumbnail)
	d.layerHeadersOffset = int64(pos)
	pos += d.numSlices * binary.Size(layerHeader{})

	header := fileHeader{
		Magic:              magic,
		Version:            version,
		PlateX:             plateX,
		PlateY:             plateY,
		PlateZ:             plateZ,
		LayerThickness:     d.zRes / 1000,
		NormalExposureTime: d.settings.NormalExposure,
		BottomExposureTime: d.settings.BottomExposure,
		OffTime:            d.settings.OffTime,
		BottomLayers:       uint32(d.settings.BottomLayers),
		ScreenHeight:       screenHeight,
		ScreenWidth:        screenWidth,
		PreviewOffset:      uint32(previewOffset),
		LayerHeadersOffset: uint32(d.layerHeadersOffset),
		TotalLayers:        uint32(d.numSlices),
		ThumbnailOffset:    uint32(thumbnailOffset),
		ProjectionType:     1,
	}

	d.layerHeaders = make([]layerHeader, d.numSlices)
	for i := range d.layerHeaders {
		exposure := d.settings.NormalExposure
		if i < d.settings.BottomLayers {
			exposure = d.settings.BottomExposure
		}
		d.layerHeaders[i] = layerHeader{
			AbsoluteHeight: float32(i) * d.zRes / 1000,
			ExposureTime:   exposure,
			OffTime:        d.settings.OffTime,
		}
	}
	d.layerHeaders[0].DataOffset = uint32(pos)
	d.layerHeaders[0].DataSize = uint32(len(layer0))
	log.Printf("layer 0 is %v bytes", len(layer0))

	for _, v := range []interface{}{
		header,
		previewHeader{
			Width:      previewWidth,
			Height:     previewHeight,
			DataOffset: uint32(previewOffset + binary.Size(previewHeader{})),
			DataSize:   uint32(len(preview)),
		},
		preview,
		previewHeader{
			Width:      thumbnailWidth,
			Height:     thumbnailHeight,
			DataOffset: uint32(thumbnailOffset + binary.Size(previewHeader{})),
			DataSize:   uint32(len(thumbnail)),
		},
		thumbnail,
		d.layerHeaders, // rewritten by finish
		layer0,
	} {
		if err := binary.Write(d.w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("header: %v", err)
		}
	}
	return nil
}

func (d *dlp) writeSlice(n int, img *image.Gray) error {
	if n >= len(d.layerHeaders) {
		return fmt.Errorf("slice %v out of range", n)
	}
	layer := encodeLayer(img)
	prev := d.layerHeaders[n-1]
	d.layerHeaders[n].DataOffset = prev.DataOffset + prev.DataSize
	d.layerHeaders[n].DataSize = uint32(len(layer))

	if _, err := d.w.Write(layer); err != nil {
		return fmt.Errorf("layer %v: %v", n, err)
	}
	return nil
}

// encodeLayer run-length encodes img centered on the printer screen.
// Pixels are visited column by column. Each byte holds a run length with
// the top bit set for runs of lit pixels.
func encodeLayer(img *image.Gray) []byte {
	b := img.Bounds()
	xOffset, yOffset := 0, 0
	if b.Dx() < screenWidth {
		xOffset = (screenWidth - b.Dx()) / 2
	}
	if b.Dy() < screenHeight {
		yOffset = (screenHeight - b.Dy()) / 2
	}

	var out []byte
	var run byte
	var lit bool
	flush := func() {
		if run == 0 {
			return
		}
		if lit {
			run |= setPixels
		}
		out = append(out, run)
		run = 0
	}

	for x := 0; x < screenWidth; x++ {
		for y := 0; y < screenHeight; y++ {
			on := img.GrayAt(b.Min.X+x-xOffset, b.Min.Y+y-yOffset).Y != 0
			if on != lit {
				flush()
				lit = on
			}
			run++
			if run == maxLayerRun {
				flush()
			}
		}
	}
	flush()
	return out
}

// encodePreview scales img to w by h and encodes it as little endian
// RGB15 words. Runs of three or more equal pixels become a fill word
// followed by a repeat count.
func encodePreview(w, h int, img *image.Gray) []byte {
	b := img.Bounds()
	xScale := float64(b.Dx()) / float64(w)
	yScale := float64(b.Dy()) / float64(h)
	pixel := func(i int) uint8 {
		x, y := i%w, i/w
		return img.GrayAt(b.Min.X+int(float64(x)*xScale), b.Min.Y+int(float64(y)*yScale)).Y
	}

	var out []byte
	put := func(v uint16) { out = append(out, byte(v), byte(v>>8)) }

	total := w * h
	for i := 0; i < total; {
		p := pixel(i)
		run := 1
		for run < maxPreviewRun && i+run < total && pixel(i+run) == p {
			run++
		}
		if run < 3 {
			put(rgb15(p, false))
			i++
			continue
		}
		put(rgb15(p, true))
		put(uint16(run-1) | previewRepeat)
		i += run
	}
	return out
}

// rgb15 packs a gray level into 5 bits per channel with the fill flag in
// bit 5.
func rgb15(gray uint8, fill bool) uint16 {
	c := uint16(math.Round(float64(gray) * 31 / 255))
	v := c | c<<6 | c<<11
	if fill {
		v |= previewFill
	}
	return v
}
