package zipper

import (
	"archive/zip"
	"fmt"
)

// Metadata is stored in the SVX manifest.
type Metadata struct {
	Author string
	Date   string
}

// SVXSlice writes the slices of a model into an SVX voxel file named
// baseFilename.svx.
func SVXSlice(baseFilename string, s Slicer, md Metadata) error {
	zp := &zipper{fmtStr: "density/slice%04d.png", suffix: "svx", manifest: &md}
	return zp.write(baseFilename, s)
}

func (zp *zipper) writeManifest(s Slicer) error {
	fh := &zip.FileHeader{
		Name:     "manifest.xml",
		Method:   zip.Deflate,
		Modified: zp.now(),
	}
	f, err := zp.w.CreateHeader(fh)
	if err != nil {
		return fmt.Errorf("Unable to create ZIP file %q: %v", fh.Name, err)
	}

	min, max := s.MBB()
	voxelSize := (max[2] - min[2]) / float32(s.NumZSlices())

	_, err = fmt.Fprintf(f, manifestFmt,
		s.NumXSlices(),
		s.NumYSlices(),
		s.NumZSlices(),
		voxelSize/1000.0, // voxelSize in meters
		zp.manifest.Author,
		zp.manifest.Date)
	return err
}

var manifestFmt = `<?xml version="1.0"?>

<grid version="1.0" gridSizeX="%v" gridSizeY="%v" gridSizeZ="%v"
   voxelSize="%v" subvoxelBits="8" slicesOrientation="Z" >

    <channels>
        <channel type="DENSITY" bits="8" slices="density/slice%%04d.png" />
    </channels>

    <materials>
        <material id="1" urn="urn:shapeways:materials/1" />
    </materials>

    <metadata>
        <entry key="author" value=%q />
        <entry key="creationDate" value=%q />
    </metadata>
</grid>`
