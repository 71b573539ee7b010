// Package embeddings defines how text is turned into vectors for the index
// and for retrieval queries.
package embeddings

import "context"

// Embedder provides text embedding capabilities.
//
// The same Embedder must be used to build an index and to search it: vectors
// from different models are not comparable.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
