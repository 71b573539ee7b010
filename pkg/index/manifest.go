package index

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Manifest records how an index was built. It sits next to the index as
// <dir>/<name>.toml and is what Load checks before opening a store.
type Manifest struct {
	Name           string    `toml:"name"`
	Provider       string    `toml:"provider"`
	EmbeddingModel string    `toml:"embedding_model"`
	Dimensions     uint      `toml:"dimensions"`
	Documents      int       `toml:"documents"`
	BuiltAt        time.Time `toml:"built_at"`
}

// ManifestPath returns the manifest location for the named index.
func ManifestPath(dir, name string) string {
	return filepath.Join(dir, name+".toml")
}

func writeManifest(dir string, m *Manifest) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating index dir: %w", err)
	}

	f, err := os.Create(ManifestPath(dir, m.Name))
	if err != nil {
		return fmt.Errorf("creating manifest: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(m); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the manifest of the named index. A missing manifest is
// reported as ErrIndexNotFound.
func ReadManifest(dir, name string) (*Manifest, error) {
	path := ManifestPath(dir, name)
	m := &Manifest{}
	if _, err := toml.DecodeFile(path, m); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (run helpbot ingest)", ErrIndexNotFound, name)
		}
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return m, nil
}
