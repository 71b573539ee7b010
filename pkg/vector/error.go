package vector

import "errors"

var (
	// ErrNotFound is returned when a document or collection is missing.
	ErrNotFound = errors.New("not found in vector store")

	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")

	// ErrDimensions is returned when a vector does not match the store.
	ErrDimensions = errors.New("embedding dimensions mismatch")
)
