// markers writes printable ArUco marker images.
package main

import (
	"flag"
	"os"

	"github.com/teslashibe/go-markerpose/internal/log"
	"github.com/teslashibe/go-markerpose/pkg/vision"
	"github.com/teslashibe/go-markerpose/pkg/vision/opencv"
)

func main() {
	dir := flag.String("dir", ".", "Output directory")
	dictionary := flag.String("dictionary", vision.DefaultDictionary, "ArUco dictionary")
	count := flag.Int("count", opencv.DefaultMarkerCount, "Number of markers, starting at id 0")
	size := flag.Int("size", opencv.DefaultMarkerPixels, "Marker side in pixels")
	flag.Parse()

	log.Init("info")

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Error("create output directory", "dir", *dir, "error", err)
		os.Exit(1)
	}

	files, err := opencv.GenerateMarkers(*dir, *dictionary, *count, *size)
	if err != nil {
		log.Error("generate markers", "error", err)
		os.Exit(1)
	}
	log.Info("markers written", "count", len(files), "dir", *dir, "dictionary", *dictionary)
}
