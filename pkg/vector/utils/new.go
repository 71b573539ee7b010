// Package vectorutils builds a vector.Driver for a named index from config.
package vectorutils

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/papercomputeco/helpbot/pkg/vector"
	"github.com/papercomputeco/helpbot/pkg/vector/chroma"
	"github.com/papercomputeco/helpbot/pkg/vector/pgvector"
	"github.com/papercomputeco/helpbot/pkg/vector/qdrant"
	"github.com/papercomputeco/helpbot/pkg/vector/sqlitevec"
)

type NewVectorDriverOpts struct {
	ProviderType string
	Target       string

	// Index names the collection, table or file the driver is scoped to.
	Index string

	// Dir is where sqlite index files are written.
	Dir        string
	Dimensions uint
	Logger     *slog.Logger
}

// SQLitePath is the database file used for an index by the sqlite provider.
func SQLitePath(dir, index string) string {
	return filepath.Join(dir, index+".db")
}

func NewVectorDriver(ctx context.Context, o *NewVectorDriverOpts) (vector.Driver, error) {
	switch o.ProviderType {
	case "sqlite", "sqlite-vec", "":
		return sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
			DBPath:     SQLitePath(o.Dir, o.Index),
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "chroma":
		return chroma.NewChromaDriver(chroma.Config{
			URL:            o.Target,
			CollectionName: o.Index,
		}, o.Logger)
	case "qdrant":
		return qdrant.NewQdrantDriver(ctx, qdrant.Config{
			Target:     o.Target,
			Collection: o.Index,
			Dimensions: o.Dimensions,
		}, o.Logger)
	case "pgvector", "postgres":
		return pgvector.NewPGVectorDriver(ctx, pgvector.Config{
			DSN:        o.Target,
			Index:      o.Index,
			Dimensions: o.Dimensions,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
