// Package corpus loads the HTML documentation tree that the index is built
// from.
//
// A corpus root holds one subdirectory per collection:
//
//	aws_docs/
//	  lambda/*.html
//	  sagemaker/*.html
//
// Every HTML file becomes exactly one Document; pages are not chunked.
package corpus

import "errors"

// ErrIngest is returned when any file of a collection cannot be loaded.
// A failed ingest produces no documents at all.
var ErrIngest = errors.New("ingest failed")

// Metadata describes where a Document came from.
type Metadata struct {
	// Source is the file path as root/collection/file, with forward slashes.
	Source string `json:"source"`

	// Title is the page's <title>, empty when the page has none.
	Title string `json:"title"`
}

// Document is the extracted text of one HTML page.
type Document struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// Collection is the ordered set of documents loaded from one subdirectory.
type Collection struct {
	Name      string
	Documents []Document
}

// Merge concatenates the documents of every collection in order.
func Merge(collections []Collection) []Document {
	n := 0
	for _, c := range collections {
		n += len(c.Documents)
	}
	out := make([]Document, 0, n)
	for _, c := range collections {
		out = append(out, c.Documents...)
	}
	return out
}
