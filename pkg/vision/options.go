package vision

import "github.com/teslashibe/go-markerpose/pkg/camera"

// DefaultMarkerLength is the printed marker side in meters.
// Translations come out in the same unit.
const DefaultMarkerLength = 0.132

// Options configures a marker session.
type Options struct {
	// Dictionary is the marker family, e.g. "DICT_4X4_50".
	Dictionary string

	// MarkerLength is the printed marker side. Translations use its unit.
	MarkerLength float64

	// Camera holds capture settings. Its Device is replaced by the index
	// given to Initialize.
	Camera camera.Config

	// FrameSink receives every annotated frame as JPEG.
	FrameSink func(jpeg []byte)
}

// DefaultOptions returns the settings the printed cube marker uses.
func DefaultOptions() Options {
	return Options{
		Dictionary:   DefaultDictionary,
		MarkerLength: DefaultMarkerLength,
		Camera:       camera.DefaultConfig(),
	}
}
