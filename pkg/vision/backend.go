// Package vision provides marker-based pose estimation.
//
// Backend is the capability the pose bridge drives once per frame.
// Package opencv implements it on top of gocv: it captures frames from a
// camera, detects ArUco markers and solves each marker's pose against the
// loaded camera calibration. Mock implements it for tests. This package
// does not link OpenCV.
//
// The coordinate getters report the translation of the first detected
// marker in the camera frame, in the unit of the marker length (meters by
// default). OpenCV's camera frame is right-handed: x to the right, y down,
// z forward.
package vision

import "github.com/golang/geo/r3"

// Status is the result code of one estimation pass.
type Status int

const (
	// StatusSuccess means a frame was read and processed.
	// It does not imply that a marker was found.
	StatusSuccess Status = 1

	// StatusFailure means no frame could be processed.
	StatusFailure Status = -1
)

// OK reports whether the pass succeeded.
func (s Status) OK() bool {
	return s == StatusSuccess
}

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Backend is a marker pose estimation session.
//
// Callers own the lifecycle: one Initialize, any number of
// LoadCalibration/EstimatePose calls, one Close. Coordinates are only
// meaningful after EstimatePose returns StatusSuccess.
type Backend interface {
	// Initialize opens the session on the given camera device.
	Initialize(cameraIndex int) error

	// LoadCalibration loads camera intrinsics from the named file.
	// It reports whether the file could be loaded.
	LoadCalibration(name string) bool

	// EstimatePose captures one frame, detects markers and estimates
	// their poses.
	EstimatePose() Status

	// XCoordinate, YCoordinate and ZCoordinate return the translation of
	// the first detected marker, or 0 when none was detected or its pose
	// was not solved.
	XCoordinate() float64
	YCoordinate() float64
	ZCoordinate() float64

	// Close releases the session.
	Close() error
}

// Marker is one detected marker with its estimated pose.
type Marker struct {
	ID int `json:"id"`

	// Translation is the marker center in the camera frame.
	Translation r3.Vector `json:"translation"`

	// Rotation is the axis-angle (Rodrigues) rotation of the marker.
	Rotation r3.Vector `json:"rotation"`

	// Solved is false when the marker was detected but its pose could not
	// be estimated. Translation and Rotation are zero then.
	Solved bool `json:"solved"`
}
