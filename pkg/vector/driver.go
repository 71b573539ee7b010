// Package vector defines the storage contract for embedded document chunks
// and the drivers that implement it.
package vector

import (
	"context"

	"github.com/google/uuid"
)

// Metadata keys carried by every indexed document.
const (
	MetaSource = "source"
	MetaTitle  = "title"
)

// Document is one index entry: a passage, its embedding and its metadata.
type Document struct {
	// ID is stable for a given source; see DocumentID.
	ID string

	Content   string
	Metadata  map[string]string
	Embedding []float32
}

// QueryResult represents a search result with similarity score.
type QueryResult struct {
	Document

	// Score represents the similarity score (higher = more similar).
	Score float32
}

// Driver stores the entries of a single named index.
type Driver interface {
	// Add stores documents with their embeddings. An existing ID is
	// overwritten.
	Add(ctx context.Context, docs []Document) error

	// Query returns at most topK documents, nearest first.
	Query(ctx context.Context, embedding []float32, topK int) ([]QueryResult, error)

	// Get retrieves documents by their IDs. Unknown IDs are skipped.
	Get(ctx context.Context, ids []string) ([]Document, error)

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Reset drops every entry and recreates empty storage.
	Reset(ctx context.Context) error

	// Close releases any resources held by the driver.
	Close() error
}

var idNamespace = uuid.MustParse("6f0b3d1c-5d0e-4a53-9a43-7a2f0c1e8b61")

// DocumentID derives the deterministic entry ID for a source path, so
// rebuilding an index rewrites the same rows.
func DocumentID(source string) string {
	return uuid.NewSHA1(idNamespace, []byte(source)).String()
}
