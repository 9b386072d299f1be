package photon

// On-disk layout of ChiTuBox .cbddlp files, after github.com/Andoryuuta/photon
// (Apache-2.0). Blank fields are written as zeros.

const (
	magic   = 0x12fd0019
	version = 1
)

type fileHeader struct {
	Magic              uint32
	Version            uint32
	PlateX             float32
	PlateY             float32
	PlateZ             float32
	_                  [3]uint32
	LayerThickness     float32
	NormalExposureTime float32
	BottomExposureTime float32
	OffTime            float32
	BottomLayers       uint32
	ScreenHeight       uint32
	ScreenWidth        uint32
	PreviewOffset      uint32
	LayerHeadersOffset uint32
	TotalLayers        uint32
	ThumbnailOffset    uint32
	_                  uint32
	ProjectionType     uint32
	_                  [6]uint32
}

type previewHeader struct {
	Width      uint32
	Height     uint32
	DataOffset uint32
	DataSize   uint32
	_          [2]uint64
}

type layerHeader struct {
	AbsoluteHeight float32
	ExposureTime   float32
	OffTime        float32

	// The top bit selects the seek type. Only absolute offsets are written.
	DataOffset uint32
	DataSize   uint32
	_          [2]uint64
}
