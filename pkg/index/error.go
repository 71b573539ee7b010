package index

import "errors"

var (
	// ErrIndexNotFound is returned when a named index has not been built.
	ErrIndexNotFound = errors.New("index not found")

	// ErrDimensionMismatch is returned when vectors do not match the
	// configured embedding dimensions.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
