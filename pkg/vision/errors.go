package vision

import "errors"

var (
	// ErrInvalidCamera is returned for a negative camera index.
	ErrInvalidCamera = errors.New("vision: invalid camera index")

	// ErrUnknownDictionary is returned for an unsupported dictionary name.
	ErrUnknownDictionary = errors.New("vision: unknown marker dictionary")
)
