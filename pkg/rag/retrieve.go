package rag

import (
	"context"
	"fmt"

	"github.com/papercomputeco/helpbot/pkg/corpus"
)

// DefaultTopK is the number of passages handed to the generator.
const DefaultTopK = 2

// Searcher is the part of an index the retriever needs.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]corpus.Document, error)
}

// Retriever fetches a fixed number of passages for a question.
type Retriever struct {
	searcher Searcher
	k        int
}

// NewRetriever returns a Retriever asking searcher for k documents. k <= 0
// uses DefaultTopK.
func NewRetriever(searcher Searcher, k int) *Retriever {
	if k <= 0 {
		k = DefaultTopK
	}
	return &Retriever{searcher: searcher, k: k}
}

// K returns the number of documents requested per question.
func (r *Retriever) K() int { return r.k }

// Retrieve returns up to K documents nearest to question.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]corpus.Document, error) {
	docs, err := r.searcher.Search(ctx, question, r.k)
	if err != nil {
		return nil, fmt.Errorf("retrieving documents: %w", err)
	}
	return docs, nil
}
