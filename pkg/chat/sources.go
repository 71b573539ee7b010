package chat

import (
	"path"
	"sort"
	"strings"

	"github.com/papercomputeco/helpbot/pkg/corpus"
)

// Rewrite maps a source path prefix to a public documentation URL.
type Rewrite struct {
	Prefix string
	URL    string
}

// DefaultRewrites only covers SageMaker; Lambda pages have no stable public
// path derivable from the file name.
func DefaultRewrites() []Rewrite {
	return []Rewrite{{
		Prefix: "./aws_docs/sagemaker/",
		URL:    "https://docs.aws.amazon.com/sagemaker/latest/dg/",
	}}
}

// SourceLink is a source as shown to the user.
type SourceLink struct {
	Title  string `json:"title"`
	Source string `json:"source"`
	URL    string `json:"url"`
}

// SourceRewriter turns document source paths into links.
type SourceRewriter struct {
	rewrites []Rewrite
}

// NewSourceRewriter applies the longest matching prefix first.
func NewSourceRewriter(rewrites []Rewrite) *SourceRewriter {
	sorted := append([]Rewrite{}, rewrites...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return &SourceRewriter{rewrites: sorted}
}

// URL rewrites source, or returns it unchanged when no prefix matches.
func (r *SourceRewriter) URL(source string) string {
	for _, rw := range r.rewrites {
		if rw.Prefix != "" && strings.HasPrefix(source, rw.Prefix) {
			return rw.URL + strings.TrimPrefix(source, rw.Prefix)
		}
	}
	return source
}

// Link converts a document to a link. A missing title falls back to the
// file name.
func (r *SourceRewriter) Link(doc corpus.Document) SourceLink {
	title := doc.Metadata.Title
	if title == "" {
		title = path.Base(doc.Metadata.Source)
	}
	return SourceLink{
		Title:  title,
		Source: doc.Metadata.Source,
		URL:    r.URL(doc.Metadata.Source),
	}
}

// Links converts documents to links, keeping their order.
func (r *SourceRewriter) Links(docs []corpus.Document) []SourceLink {
	out := make([]SourceLink, 0, len(docs))
	for _, d := range docs {
		out = append(out, r.Link(d))
	}
	return out
}
