package opencv

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/teslashibe/go-markerpose/pkg/vision"
	"gocv.io/x/gocv"
)

func TestParseDictionary(t *testing.T) {
	tests := []struct {
		name    string
		want    gocv.ArucoDictionaryCode
		wantErr bool
	}{
		{"DICT_4X4_50", gocv.ArucoDict4x4_50, false},
		{"dict_4x4_50", gocv.ArucoDict4x4_50, false},
		{" DICT_6X6_250 ", gocv.ArucoDict6x6_250, false},
		{"DICT_ARUCO_ORIGINAL", gocv.ArucoDictArucoOriginal, false},
		{"DICT_3X3_50", 0, true},
		{"", 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDictionary(tc.name)
			if tc.wantErr {
				if !errors.Is(err, vision.ErrUnknownDictionary) {
					t.Errorf("error = %v, want ErrUnknownDictionary", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("code = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMarkerObjectPoints(t *testing.T) {
	pts := MarkerObjectPoints(0.132)
	if len(pts) != 4 {
		t.Fatalf("got %d points, want 4", len(pts))
	}

	want := []gocv.Point3f{
		{X: -0.066, Y: 0.066},
		{X: 0.066, Y: 0.066},
		{X: 0.066, Y: -0.066},
		{X: -0.066, Y: -0.066},
	}
	for i, p := range pts {
		if math.Abs(float64(p.X-want[i].X)) > 1e-6 ||
			math.Abs(float64(p.Y-want[i].Y)) > 1e-6 || p.Z != 0 {
			t.Errorf("corner %d = %+v, want %+v", i, p, want[i])
		}
	}
}

func TestBoardPositions(t *testing.T) {
	pts := BoardPositions(image.Pt(9, 6), 0.0245)
	if len(pts) != 54 {
		t.Fatalf("got %d corners, want 54", len(pts))
	}

	// Row-major: index = row*9 + col, position = (col*s, row*s, 0).
	checks := []struct {
		idx  int
		x, y float64
	}{
		{0, 0, 0},
		{1, 0.0245, 0},
		{8, 8 * 0.0245, 0},
		{9, 0, 0.0245},
		{53, 8 * 0.0245, 5 * 0.0245},
	}
	for _, c := range checks {
		p := pts[c.idx]
		if math.Abs(float64(p.X)-c.x) > 1e-6 || math.Abs(float64(p.Y)-c.y) > 1e-6 || p.Z != 0 {
			t.Errorf("corner %d = %+v, want (%v, %v, 0)", c.idx, p, c.x, c.y)
		}
	}
}

func TestCalibrator_NotEnoughFrames(t *testing.T) {
	c := NewCalibrator(DefaultBoardSize, DefaultSquareSize)
	board := BoardPositions(DefaultBoardSize, 1)
	corners := make([]gocv.Point2f, len(board))
	for i := 0; i < MinCalibrationFrames-1; i++ {
		c.AddCorners(image.Pt(640, 480), corners)
	}

	if c.Count() != MinCalibrationFrames-1 {
		t.Fatalf("Count() = %d", c.Count())
	}
	if _, _, err := c.Calibrate(); !errors.Is(err, ErrNotEnoughFrames) {
		t.Errorf("Calibrate() error = %v, want ErrNotEnoughFrames", err)
	}

	c.Reset()
	if c.Count() != 0 {
		t.Errorf("Count() after Reset = %d", c.Count())
	}
}

func TestSession_InvalidCamera(t *testing.T) {
	s := NewSession(vision.DefaultOptions())
	if err := s.Initialize(-1); !errors.Is(err, vision.ErrInvalidCamera) {
		t.Errorf("Initialize(-1) = %v, want ErrInvalidCamera", err)
	}
	if s.EstimatePose() != vision.StatusFailure {
		t.Error("EstimatePose before Initialize must fail")
	}
	if s.XCoordinate() != 0 || s.YCoordinate() != 0 || s.ZCoordinate() != 0 {
		t.Error("coordinates must be 0 without detections")
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close on uninitialized session: %v", err)
	}
}

func TestSession_LoadCalibrationMissing(t *testing.T) {
	s := NewSession(vision.DefaultOptions())
	defer s.Close()

	if s.LoadCalibration(t.TempDir() + "/missing") {
		t.Fatal("LoadCalibration of a missing file must return false")
	}
	if _, _, loaded := s.Calibration(); loaded {
		t.Error("Calibration() must report not loaded")
	}
}

func TestParseDictionary_CoversEveryName(t *testing.T) {
	for _, name := range vision.Dictionaries() {
		if _, ok := dictionaryCodes[name]; !ok {
			t.Errorf("no gocv code for %s", name)
		}
	}
	if len(dictionaryCodes) != len(vision.Dictionaries()) {
		t.Errorf("%d codes for %d names", len(dictionaryCodes), len(vision.Dictionaries()))
	}
}

func TestApplyCamera_DefersPreviewWindow(t *testing.T) {
	s := NewSession(vision.DefaultOptions())
	defer s.Close()
	s.initialized = true

	cfg := s.opts.Camera
	cfg.Preview = true
	if err := s.ApplyCamera(cfg); err != nil {
		t.Fatalf("ApplyCamera: %v", err)
	}
	if s.PreviewOpen() {
		t.Error("ApplyCamera must not open the preview window")
	}
	if !s.opts.Camera.Preview {
		t.Error("preview setting not recorded")
	}

	cfg.Preview = false
	if err := s.ApplyCamera(cfg); err != nil {
		t.Fatalf("ApplyCamera: %v", err)
	}
	if s.opts.Camera.Preview {
		t.Error("preview setting not cleared")
	}
	s.initialized = false
}

func TestApplyCamera_RejectsDeviceChange(t *testing.T) {
	s := NewSession(vision.DefaultOptions())
	defer s.Close()

	cfg := s.opts.Camera
	cfg.Device++
	cfg.Quality = 10
	if err := s.ApplyCamera(cfg); !errors.Is(err, ErrDeviceChange) {
		t.Fatalf("ApplyCamera = %v, want ErrDeviceChange", err)
	}
	if s.opts.Camera.Quality == 10 {
		t.Error("rejected settings must not be kept")
	}
}

func TestEstimateMarkers_KeepsIndexAlignment(t *testing.T) {
	square := []gocv.Point2f{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	corners := [][]gocv.Point2f{square, square, square[:3]}
	ids := []int{7, 3, 9}

	solved := 0
	solve := func(c []gocv.Point2f) (r3.Vector, r3.Vector, bool) {
		solved++
		if solved == 1 {
			return r3.Vector{}, r3.Vector{}, false
		}
		return r3.Vector{X: 0.1}, r3.Vector{X: 1, Y: 2, Z: 3}, true
	}

	markers := estimateMarkers(corners, ids, solve)
	if len(markers) != len(ids) {
		t.Fatalf("got %d markers, want %d", len(markers), len(ids))
	}
	if solved != 2 {
		t.Errorf("solver called %d times, want 2", solved)
	}

	tests := []struct {
		id     int
		solved bool
		tvec   r3.Vector
	}{
		{7, false, r3.Vector{}},
		{3, true, r3.Vector{X: 1, Y: 2, Z: 3}},
		{9, false, r3.Vector{}},
	}
	for i, tc := range tests {
		m := markers[i]
		if m.ID != tc.id || m.Solved != tc.solved || m.Translation != tc.tvec {
			t.Errorf("marker %d = %+v, want id %d solved %v translation %v", i, m, tc.id, tc.solved, tc.tvec)
		}
	}
}

func TestEstimateMarkers_NoDetections(t *testing.T) {
	if got := estimateMarkers(nil, nil, nil); got != nil {
		t.Errorf("estimateMarkers(nil) = %v, want nil", got)
	}
}
