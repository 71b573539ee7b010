package rag

import "github.com/papercomputeco/helpbot/pkg/corpus"

// Result is the outcome of one answered question.
type Result struct {
	Answer string

	// Question is the standalone question used for retrieval.
	Question string

	Sources []corpus.Document
}
