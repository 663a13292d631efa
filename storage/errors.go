package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when a file or directory does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotDirectory is returned when a directory operation targets a file.
	ErrNotDirectory = errors.New("not a directory")
)
