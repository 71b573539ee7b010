package corpus

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Ingestor turns collection directories into Documents.
type Ingestor struct {
	logger *slog.Logger
}

// NewIngestor returns an Ingestor logging to logger.
func NewIngestor(logger *slog.Logger) *Ingestor {
	return &Ingestor{logger: logger}
}

// Load reads every *.html entry directly under root/<name> for each name in
// collections. Files are visited in name order. Any failure aborts the run
// with an ErrIngest-wrapped error naming the offending path.
func (i *Ingestor) Load(ctx context.Context, root string, collections []string) ([]Collection, error) {
	out := make([]Collection, 0, len(collections))
	for _, name := range collections {
		docs, err := i.loadCollection(ctx, root, name)
		if err != nil {
			return nil, err
		}
		i.logger.Info("loaded collection", "collection", name, "documents", len(docs))
		out = append(out, Collection{Name: name, Documents: docs})
	}
	return out, nil
}

func (i *Ingestor) loadCollection(ctx context.Context, root, name string) ([]Document, error) {
	dir := filepath.Join(root, name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading collection %s: %v", ErrIngest, dir, err)
	}

	docs := []Document{}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) != ".html" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		source := SourcePath(root, name, entry.Name())
		doc, err := loadFile(filepath.Join(dir, entry.Name()), source)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrIngest, source, err)
		}
		i.logger.Debug("loaded document", "source", source, "title", doc.Metadata.Title, "chars", len(doc.Text))
		docs = append(docs, doc)
	}
	return docs, nil
}

func loadFile(file, source string) (Document, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return Document{}, err
	}

	text, title, err := extract(bytes.NewReader(data))
	if err != nil {
		return Document{}, err
	}
	return Document{
		Text:     text,
		Metadata: Metadata{Source: source, Title: title},
	}, nil
}

// SourcePath joins root, collection and file with forward slashes. Unlike
// filepath.Join it keeps a leading "./" on root, so sources read the way the
// corpus directory was named on the command line.
func SourcePath(root, collection, file string) string {
	root = filepath.ToSlash(root)
	prefix := ""
	if strings.HasPrefix(root, "./") {
		prefix = "./"
	}
	return prefix + path.Join(root, collection, file)
}
