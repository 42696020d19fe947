package opencv

import (
	"fmt"
	"path/filepath"

	"github.com/teslashibe/go-markerpose/pkg/vision"
	"gocv.io/x/gocv"
)

// Marker image defaults.
const (
	DefaultMarkerCount  = 50
	DefaultMarkerPixels = 500
)

// MarkerFileName returns the file name used for marker id.
func MarkerFileName(id int) string {
	return fmt.Sprintf("4x4Marker_%d.jpg", id)
}

// GenerateMarkers writes count marker images of the named dictionary into
// dir, sidePixels wide with a one-bit border. It returns the written paths.
func GenerateMarkers(dir, dictionary string, count, sidePixels int) ([]string, error) {
	code, err := ParseDictionary(dictionary)
	if err != nil {
		return nil, err
	}
	if size := vision.DictionarySize(dictionary); count > size {
		return nil, fmt.Errorf("opencv: %s holds %d markers, %d requested", dictionary, size, count)
	}
	if sidePixels <= 0 {
		sidePixels = DefaultMarkerPixels
	}

	img := gocv.NewMat()
	defer img.Close()

	paths := make([]string, 0, count)
	for id := 0; id < count; id++ {
		gocv.ArucoGenerateImageMarker(code, id, sidePixels, img, 1)

		path := filepath.Join(dir, MarkerFileName(id))
		if !gocv.IMWrite(path, img) {
			return paths, fmt.Errorf("%w: %s", ErrWriteImage, path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
