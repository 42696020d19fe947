package bridge

import "errors"

var (
	// ErrNotStarted is returned by Update and Run before Start.
	ErrNotStarted = errors.New("bridge: not started")

	// ErrAlreadyStarted is returned by a second Start without Stop.
	ErrAlreadyStarted = errors.New("bridge: already started")

	// ErrCalibrationNotLoaded is returned by Start when RequireCalibration
	// is set and the calibration could not be loaded.
	ErrCalibrationNotLoaded = errors.New("bridge: calibration not loaded")
)
