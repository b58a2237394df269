package storage

import "errors"

var (
	// ErrInvalidArgument is returned when a file or directory path is empty.
	ErrInvalidArgument = errors.New("path must be a non-empty string")
	// ErrInvalidFormat is returned when LoadFile is given a file without the
	// recognised extension.
	ErrInvalidFormat = errors.New("unrecognised settings file extension")
)
