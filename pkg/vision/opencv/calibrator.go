package opencv

import (
	"fmt"
	"image"

	"github.com/teslashibe/go-markerpose/pkg/calibration"
	"gocv.io/x/gocv"
)

// Chessboard defaults for the printed calibration board.
var DefaultBoardSize = image.Pt(9, 6) // inner corners (columns, rows)

const (
	// DefaultSquareSize is the board square side in meters.
	DefaultSquareSize = 0.0245

	// MinCalibrationFrames is the smallest number of board views Calibrate
	// accepts.
	MinCalibrationFrames = 16
)

// Calibrator collects chessboard views and computes camera intrinsics.
type Calibrator struct {
	board  image.Point
	square float64

	imageSize image.Point
	views     [][]gocv.Point2f
}

// NewCalibrator creates a calibrator for a board with the given inner-corner
// count and square size.
func NewCalibrator(board image.Point, square float64) *Calibrator {
	return &Calibrator{board: board, square: square}
}

// Find locates the inner board corners in frame. The returned corners are
// nil when the full board is not visible.
func (c *Calibrator) Find(frame gocv.Mat) ([]gocv.Point2f, bool) {
	corners := gocv.NewMat()
	defer corners.Close()

	found := gocv.FindChessboardCorners(frame, c.board, &corners,
		gocv.CalibCBAdaptiveThresh|gocv.CalibCBNormalizeImage)
	if !found || corners.Empty() {
		return nil, false
	}

	v := gocv.NewPoint2fVectorFromMat(corners)
	defer v.Close()
	return v.ToPoints(), true
}

// Draw renders found corners onto dst.
func (c *Calibrator) Draw(dst *gocv.Mat, corners []gocv.Point2f, found bool) {
	if len(corners) == 0 {
		return
	}
	v := gocv.NewPoint2fVectorFromPoints(corners)
	defer v.Close()
	m := gocv.NewMatFromPoint2fVector(v, true)
	defer m.Close()
	gocv.DrawChessboardCorners(dst, c.board, m, found)
}

// Add keeps the board view in frame. It returns ErrBoardNotFound when the
// full board is not visible.
func (c *Calibrator) Add(frame gocv.Mat) error {
	corners, ok := c.Find(frame)
	if !ok {
		return ErrBoardNotFound
	}
	c.AddCorners(image.Pt(frame.Cols(), frame.Rows()), corners)
	return nil
}

// AddCorners keeps an already detected board view.
func (c *Calibrator) AddCorners(imageSize image.Point, corners []gocv.Point2f) {
	c.imageSize = imageSize
	c.views = append(c.views, corners)
}

// Count returns how many views have been kept.
func (c *Calibrator) Count() int {
	return len(c.views)
}

// Reset drops all kept views.
func (c *Calibrator) Reset() {
	c.views = nil
}

// Calibrate computes the camera matrix and distortion coefficients from the
// kept views. It also returns the RMS reprojection error in pixels.
func (c *Calibrator) Calibrate() (calibration.Calibration, float64, error) {
	if len(c.views) < MinCalibrationFrames {
		return calibration.Calibration{}, 0, fmt.Errorf("%w: have %d, need %d",
			ErrNotEnoughFrames, len(c.views), MinCalibrationFrames)
	}

	board := BoardPositions(c.board, c.square)

	objectPoints := gocv.NewPoints3fVector()
	defer objectPoints.Close()
	imagePoints := gocv.NewPoints2fVector()
	defer imagePoints.Close()

	for _, view := range c.views {
		ov := gocv.NewPoint3fVectorFromPoints(board)
		objectPoints.Append(ov)
		ov.Close()

		iv := gocv.NewPoint2fVectorFromPoints(view)
		imagePoints.Append(iv)
		iv.Close()
	}

	cameraMatrix := gocv.NewMat()
	defer cameraMatrix.Close()
	distortion := gocv.NewMatWithSize(8, 1, gocv.MatTypeCV64F)
	defer distortion.Close()
	rvecs := gocv.NewMat()
	defer rvecs.Close()
	tvecs := gocv.NewMat()
	defer tvecs.Close()

	rms := gocv.CalibrateCamera(objectPoints, imagePoints, c.imageSize,
		&cameraMatrix, &distortion, &rvecs, &tvecs, 0)

	cal := calibration.Calibration{
		CameraMatrix: fromMat(cameraMatrix),
		Distortion:   fromMat(distortion),
	}
	if cal.CameraMatrix.Empty() || cal.Distortion.Empty() {
		return calibration.Calibration{}, rms, fmt.Errorf("opencv: calibration produced no result")
	}
	return cal, rms, nil
}
