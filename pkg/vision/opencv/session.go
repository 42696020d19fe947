// Package opencv implements vision.Backend with gocv. It also holds the
// chessboard calibrator and the marker image generator.
package opencv

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/teslashibe/go-markerpose/internal/log"
	"github.com/teslashibe/go-markerpose/pkg/calibration"
	"github.com/teslashibe/go-markerpose/pkg/camera"
	"github.com/teslashibe/go-markerpose/pkg/vision"
	"gocv.io/x/gocv"
)

// PreviewWindow is the title of the local preview window.
const PreviewWindow = "Webcam"

var (
	markerBorder = gocv.NewScalar(0, 255, 0, 0)
	labelColor   = color.RGBA{R: 255, G: 64, B: 64, A: 255}
)

// Session is a gocv-backed vision.Backend.
//
// The frame loop drives it from a single goroutine; the mutex lets status
// readers (Markers, Calibration) and settings updates run concurrently with
// it. The preview window is only created and closed by EstimatePose, so
// every HighGUI call happens on the frame loop's thread.
type Session struct {
	opts vision.Options
	log  *slog.Logger

	mu          sync.Mutex
	initialized bool
	matsReady   bool

	capture  *gocv.VideoCapture
	detector *gocv.ArucoDetector
	window   *gocv.Window

	cameraMatrix gocv.Mat
	distortion   gocv.Mat
	frame        gocv.Mat

	calibration     calibration.Calibration
	calibrationName string
	calibrated      bool

	markers []vision.Marker
}

var _ vision.Backend = (*Session)(nil)

// NewSession creates an uninitialized session.
func NewSession(opts vision.Options) *Session {
	if opts.Dictionary == "" {
		opts.Dictionary = vision.DefaultDictionary
	}
	if opts.MarkerLength <= 0 {
		opts.MarkerLength = vision.DefaultMarkerLength
	}
	if opts.Camera.Quality == 0 {
		opts.Camera.Quality = camera.DefaultConfig().Quality
	}
	return &Session{
		opts:        opts,
		log:         log.Component("vision"),
		calibration: calibration.Default(),
	}
}

// Initialize opens the capture device and creates the marker detector.
// The camera matrix starts as identity until a calibration is loaded.
// A device that cannot be opened is not an error here: every EstimatePose
// call then reports StatusFailure.
func (s *Session) Initialize(cameraIndex int) error {
	if cameraIndex < 0 {
		return fmt.Errorf("%w: %d", vision.ErrInvalidCamera, cameraIndex)
	}
	code, err := ParseDictionary(s.opts.Dictionary)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		s.releaseLocked()
	}
	s.ensureMatsLocked()

	s.opts.Camera.Device = cameraIndex
	capture, err := gocv.VideoCaptureDevice(cameraIndex)
	if err != nil {
		s.log.Warn("camera unavailable", "device", cameraIndex, "error", err)
	} else {
		s.capture = capture
		s.applyCameraLocked(s.opts.Camera)
	}

	detector := gocv.NewArucoDetectorWithParams(
		gocv.GetPredefinedDictionary(code),
		gocv.NewArucoDetectorParameters(),
	)
	s.detector = &detector

	s.initialized = true
	s.log.Info("session initialized",
		"device", cameraIndex,
		"dictionary", s.opts.Dictionary,
		"marker_length", s.opts.MarkerLength,
		"camera_open", s.capture != nil && s.capture.IsOpened())
	return nil
}

// LoadCalibration reads the calibration file and replaces the camera
// matrix and distortion coefficients. On failure the previous values stay.
func (s *Session) LoadCalibration(name string) bool {
	cal, err := calibration.Load(name)
	if err != nil {
		s.log.Warn("calibration not loaded", "file", name, "error", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureMatsLocked()
	s.cameraMatrix.Close()
	s.distortion.Close()
	s.cameraMatrix = toMat(cal.CameraMatrix)
	s.distortion = toMat(cal.Distortion)

	s.calibration = cal
	s.calibrationName = name
	s.calibrated = true

	fx, fy := cal.Focal()
	cx, cy := cal.Principal()
	s.log.Debug("calibration loaded",
		"file", name,
		"fx", fx, "fy", fy, "cx", cx, "cy", cy,
		"distortion", cal.Distortion.Data)
	return true
}

// EstimatePose reads one frame, detects markers and solves their poses.
// Detected markers are drawn on the frame, which is then sent to the frame
// sink and the preview window.
func (s *Session) EstimatePose() vision.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized || s.capture == nil || !s.capture.IsOpened() {
		return vision.StatusFailure
	}
	s.syncWindowLocked()
	if !s.capture.Read(&s.frame) || s.frame.Empty() {
		return vision.StatusFailure
	}

	corners, ids, _ := s.detector.DetectMarkers(s.frame)
	s.markers = estimateMarkers(corners, ids, s.solver())

	if len(ids) > 0 {
		gocv.ArucoDrawDetectedMarkers(s.frame, corners, ids, markerBorder)
		s.drawLabelsLocked(corners)
	}

	s.publishLocked()
	return vision.StatusSuccess
}

// XCoordinate returns x of the first marker translation.
func (s *Session) XCoordinate() float64 {
	return s.first().X
}

// YCoordinate returns y of the first marker translation.
func (s *Session) YCoordinate() float64 {
	return s.first().Y
}

// ZCoordinate returns z of the first marker translation.
func (s *Session) ZCoordinate() float64 {
	return s.first().Z
}

func (s *Session) first() vision.Marker {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.markers) == 0 {
		return vision.Marker{}
	}
	return s.markers[0]
}

// Markers returns a copy of the markers found by the last estimation.
func (s *Session) Markers() []vision.Marker {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]vision.Marker, len(s.markers))
	copy(out, s.markers)
	return out
}

// Calibration returns the active calibration, the file it came from and
// whether a file was loaded at all.
func (s *Session) Calibration() (calibration.Calibration, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calibration, s.calibrationName, s.calibrated
}

// SetFrameSink replaces the annotated-frame receiver.
func (s *Session) SetFrameSink(fn func(jpeg []byte)) {
	s.mu.Lock()
	s.opts.FrameSink = fn
	s.mu.Unlock()
}

// ApplyCamera changes capture settings on the open device.
// It is meant to be used as camera.Manager.OnConfigChange and may run on
// any goroutine. A preview change only takes effect on the next
// EstimatePose.
func (s *Session) ApplyCamera(cfg camera.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg.Device != s.opts.Camera.Device {
		return fmt.Errorf("%w (running %d, requested %d)",
			ErrDeviceChange, s.opts.Camera.Device, cfg.Device)
	}
	if s.capture != nil {
		s.applyCameraLocked(cfg)
	}
	s.opts.Camera = cfg
	return nil
}

// PreviewOpen reports whether the preview window currently exists.
func (s *Session) PreviewOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window != nil
}

// Close releases the capture device, detector, window and matrices.
// Calling Close more than once is safe.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized && !s.matsReady {
		return nil
	}
	s.releaseLocked()
	if s.matsReady {
		s.cameraMatrix.Close()
		s.distortion.Close()
		s.frame.Close()
		s.matsReady = false
	}
	s.markers = nil
	s.log.Info("session closed")
	return nil
}

func (s *Session) releaseLocked() {
	if s.capture != nil {
		s.capture.Close()
		s.capture = nil
	}
	if s.detector != nil {
		s.detector.Close()
		s.detector = nil
	}
	if s.window != nil {
		s.window.Close()
		s.window = nil
	}
	s.initialized = false
}

func (s *Session) ensureMatsLocked() {
	if s.matsReady {
		return
	}
	s.cameraMatrix = toMat(calibration.Identity(3))
	s.distortion = gocv.NewMat()
	s.frame = gocv.NewMat()
	s.matsReady = true
}

// syncWindowLocked opens or closes the preview window to match the
// settings. Only EstimatePose calls it.
func (s *Session) syncWindowLocked() {
	switch {
	case s.opts.Camera.Preview && s.window == nil:
		s.window = gocv.NewWindow(PreviewWindow)
	case !s.opts.Camera.Preview && s.window != nil:
		s.window.Close()
		s.window = nil
	}
}

// solver solves one marker against the current calibration.
func (s *Session) solver() func([]gocv.Point2f) (rvec, tvec r3.Vector, ok bool) {
	obj := MarkerObjectPoints(s.opts.MarkerLength)
	return func(corners []gocv.Point2f) (r3.Vector, r3.Vector, bool) {
		return solveMarker(obj, corners, s.cameraMatrix, s.distortion)
	}
}

func (s *Session) applyCameraLocked(cfg camera.Config) {
	if cfg.Width > 0 && cfg.Height > 0 {
		s.capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		s.capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	if cfg.FPS > 0 {
		s.capture.Set(gocv.VideoCaptureFPS, cfg.FPS)
	}
}

func (s *Session) drawLabelsLocked(corners [][]gocv.Point2f) {
	for i, m := range s.markers {
		if i >= len(corners) || len(corners[i]) == 0 {
			break
		}
		if !m.Solved {
			continue
		}
		org := image.Pt(int(corners[i][0].X), int(corners[i][0].Y)-8)
		text := fmt.Sprintf("%d: %.3f %.3f %.3f", m.ID, m.Translation.X, m.Translation.Y, m.Translation.Z)
		gocv.PutText(&s.frame, text, org, gocv.FontHersheySimplex, 0.5, labelColor, 1)
	}
}

func (s *Session) publishLocked() {
	if s.window != nil {
		s.window.IMShow(s.frame)
		s.window.WaitKey(1)
	}
	if s.opts.FrameSink == nil {
		return
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, s.frame,
		[]int{int(gocv.IMWriteJpegQuality), s.opts.Camera.Quality})
	if err != nil {
		s.log.Debug("frame encode failed", "error", err)
		return
	}
	jpeg := append([]byte(nil), buf.GetBytes()...)
	buf.Close()
	s.opts.FrameSink(jpeg)
}

func toMat(m calibration.Matrix) gocv.Mat {
	out := gocv.NewMatWithSize(m.Rows, m.Cols, gocv.MatTypeCV64F)
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			out.SetDoubleAt(r, c, m.At(r, c))
		}
	}
	return out
}

func fromMat(m gocv.Mat) calibration.Matrix {
	out := calibration.NewMatrix(m.Rows(), m.Cols())
	for r := 0; r < m.Rows(); r++ {
		for c := 0; c < m.Cols(); c++ {
			out.Set(r, c, m.GetDoubleAt(r, c))
		}
	}
	return out
}
