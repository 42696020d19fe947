// calibrate computes camera intrinsics from live chessboard views.
//
// Hold the printed board in front of the camera. Space stores the current
// view when the whole board is found, Enter calibrates once enough views are
// stored and writes the calibration file, Esc quits.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"runtime"

	"github.com/teslashibe/go-markerpose/internal/log"
	"github.com/teslashibe/go-markerpose/pkg/calibration"
	"github.com/teslashibe/go-markerpose/pkg/vision/opencv"
	"gocv.io/x/gocv"
)

// HighGUI windows must stay on the main thread.
func init() { runtime.LockOSThread() }

const (
	keySpace = 32
	keyEnter = 13
	keyLF    = 10
	keyEsc   = 27
)

var hudColor = color.RGBA{R: 0, G: 255, B: 255, A: 255}

func main() {
	device := flag.Int("camera", 0, "Camera device index")
	output := flag.String("output", calibration.DefaultFileName, "Calibration file to write")
	cols := flag.Int("cols", opencv.DefaultBoardSize.X, "Inner corners per board row")
	rows := flag.Int("rows", opencv.DefaultBoardSize.Y, "Inner corners per board column")
	square := flag.Float64("square", opencv.DefaultSquareSize, "Board square side in meters")
	fps := flag.Int("fps", 20, "Preview refresh rate")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		log.Init("debug")
	} else {
		log.Init("info")
	}

	if err := run(*device, *output, image.Pt(*cols, *rows), *square, *fps); err != nil {
		log.Error("calibration failed", "error", err)
		os.Exit(1)
	}
}

func run(device int, output string, board image.Point, square float64, fps int) error {
	capture, err := gocv.VideoCaptureDevice(device)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", device, err)
	}
	defer capture.Close()

	window := gocv.NewWindow(opencv.PreviewWindow)
	defer window.Close()

	frame := gocv.NewMat()
	defer frame.Close()
	view := gocv.NewMat()
	defer view.Close()

	cal := opencv.NewCalibrator(board, square)
	delay := 1000 / max(fps, 1)

	log.Info("calibration started", "camera", device, "board", board, "square", square,
		"need_views", opencv.MinCalibrationFrames)

	for {
		if !capture.Read(&frame) || frame.Empty() {
			log.Warn("no frame from camera", "camera", device)
			if window.WaitKey(delay) == keyEsc {
				return nil
			}
			continue
		}

		corners, found := cal.Find(frame)
		frame.CopyTo(&view)
		cal.Draw(&view, corners, found)
		gocv.PutText(&view, fmt.Sprintf("views: %d/%d", cal.Count(), opencv.MinCalibrationFrames),
			image.Pt(10, 24), gocv.FontHersheySimplex, 0.7, hudColor, 2)
		window.IMShow(view)

		switch window.WaitKey(delay) {
		case keySpace:
			if !found {
				log.Info("board not found, view not stored")
				continue
			}
			cal.AddCorners(image.Pt(frame.Cols(), frame.Rows()), corners)
			log.Info("view stored", "views", cal.Count())

		case keyEnter, keyLF:
			if cal.Count() < opencv.MinCalibrationFrames {
				log.Info("not enough views", "views", cal.Count(), "need", opencv.MinCalibrationFrames)
				continue
			}
			result, rms, err := cal.Calibrate()
			if err != nil {
				return err
			}
			if err := result.Save(output); err != nil {
				return err
			}
			fx, fy := result.Focal()
			log.Info("calibration saved", "file", output, "rms", rms, "fx", fx, "fy", fy)

		case keyEsc:
			return nil
		}
	}
}
