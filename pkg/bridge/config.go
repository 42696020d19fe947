package bridge

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-markerpose/pkg/calibration"
)

// FailurePolicy decides what a frame does with coordinates read after a
// failed estimation pass.
type FailurePolicy string

const (
	// FailureApply applies the coordinates whatever the status is.
	// The backend then reports the previous detection or zeros.
	FailureApply FailurePolicy = "apply"

	// FailureHold leaves the scene object untouched on failure.
	FailureHold FailurePolicy = "hold"
)

// Config holds the bridge parameters.
type Config struct {
	// CameraIndex is passed to the backend's Initialize.
	CameraIndex int `yaml:"camera_index"`

	// CalibrationFile is passed to the backend's LoadCalibration.
	CalibrationFile string `yaml:"calibration_file"`

	// RequireCalibration makes Start fail when the calibration cannot be
	// loaded. When false the failure is only logged.
	RequireCalibration bool `yaml:"require_calibration"`

	// OnFailure is the policy for frames whose estimation failed.
	OnFailure FailurePolicy `yaml:"on_failure"`

	// FlipY negates y to turn the camera's right-handed frame into the
	// scene's left-handed one.
	FlipY bool `yaml:"flip_y"`

	// ScaleMoveByDelta multiplies the rigid-body target by the frame delta
	// time in seconds. The transform position is never scaled.
	ScaleMoveByDelta bool `yaml:"scale_move_by_delta"`

	// FrameInterval is the frame loop period.
	FrameInterval time.Duration `yaml:"frame_interval"`

	// HeartbeatFrames is how many frames pass between heartbeat logs.
	HeartbeatFrames uint64 `yaml:"heartbeat_frames"`
}

// DefaultConfig returns the configuration that reproduces the original
// cube behavior: camera 0, "CameraCalibration", calibration failure
// tolerated, coordinates applied on every frame, y flipped and the rigid
// body target scaled by delta time.
func DefaultConfig() Config {
	return Config{
		CameraIndex:      0,
		CalibrationFile:  calibration.DefaultFileName,
		OnFailure:        FailureApply,
		FlipY:            true,
		ScaleMoveByDelta: true,
		FrameInterval:    time.Second / 30,
		HeartbeatFrames:  100,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.CameraIndex < 0 {
		return fmt.Errorf("bridge: camera_index must be >= 0, got %d", c.CameraIndex)
	}
	if c.CalibrationFile == "" {
		return fmt.Errorf("bridge: calibration_file is required")
	}
	switch c.OnFailure {
	case FailureApply, FailureHold:
	default:
		return fmt.Errorf("bridge: on_failure must be %q or %q, got %q", FailureApply, FailureHold, c.OnFailure)
	}
	if c.FrameInterval <= 0 {
		return fmt.Errorf("bridge: frame_interval must be positive")
	}
	return nil
}
