package loader

import "errors"

var (
	// ErrDecode is returned when a settings file cannot be decoded.
	ErrDecode = errors.New("cannot decode settings file")
	// ErrUnknownFormat is returned when no loader exists for a format name.
	ErrUnknownFormat = errors.New("unknown settings format")
)
