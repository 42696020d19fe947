package opencv

import "errors"

var (
	// ErrNotEnoughFrames is returned when calibration has too few board views.
	ErrNotEnoughFrames = errors.New("opencv: not enough calibration frames")

	// ErrBoardNotFound is returned when a frame does not show the full board.
	ErrBoardNotFound = errors.New("opencv: chessboard not found")

	// ErrDeviceChange is returned when a settings update names another
	// capture device than the open one.
	ErrDeviceChange = errors.New("opencv: device change requires restart")

	// ErrWriteImage is returned when an image file cannot be written.
	ErrWriteImage = errors.New("opencv: cannot write image")
)
