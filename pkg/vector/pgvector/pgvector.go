// Package pgvector stores index entries in PostgreSQL with the pgvector
// extension, one table per index, ranked by cosine distance.
package pgvector

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/papercomputeco/helpbot/pkg/vector"
)

var unsafeIdent = regexp.MustCompile(`[^a-z0-9_]+`)

// PGVectorDriver implements vector.Driver over database/sql.
type PGVectorDriver struct {
	db         *sql.DB
	table      string
	dimensions uint
	logger     *slog.Logger
}

// Config holds configuration for the pgvector driver.
type Config struct {
	// DSN is a PostgreSQL connection string understood by pgx.
	DSN string

	// Index is the index name; the table is helpbot_<index>.
	Index      string
	Dimensions uint
}

// TableName returns the table used for an index name.
func TableName(index string) string {
	return "helpbot_" + strings.Trim(unsafeIdent.ReplaceAllString(strings.ToLower(index), "_"), "_")
}

// NewPGVectorDriver connects, enables the extension and creates the table.
func NewPGVectorDriver(ctx context.Context, c Config, logger *slog.Logger) (*PGVectorDriver, error) {
	if c.DSN == "" {
		return nil, errors.New("postgres DSN is required")
	}
	if c.Index == "" {
		return nil, errors.New("pgvector index name is required")
	}
	if c.Dimensions == 0 {
		return nil, errors.New("pgvector embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("pgx", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", vector.ErrConnection, err)
	}

	d := &PGVectorDriver{
		db:         db,
		table:      TableName(c.Index),
		dimensions: c.Dimensions,
		logger:     logger,
	}

	if _, err := db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling pgvector extension: %w", err)
	}
	if err := d.createTable(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("pgvector driver initialized", "table", d.table, "dimensions", c.Dimensions)

	return d, nil
}

func (d *PGVectorDriver) createTable(ctx context.Context) error {
	_, err := d.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			seq BIGSERIAL,
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			embedding vector(%d) NOT NULL
		)`, d.table, d.dimensions))
	if err != nil {
		return fmt.Errorf("creating table %s: %w", d.table, err)
	}
	return nil
}

// Add upserts documents in a single transaction.
func (d *PGVectorDriver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, content, metadata, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET content = EXCLUDED.content, metadata = EXCLUDED.metadata, embedding = EXCLUDED.embedding`,
		d.table)

	for _, doc := range docs {
		if uint(len(doc.Embedding)) != d.dimensions {
			return fmt.Errorf("%w: doc %s has %d, store has %d",
				vector.ErrDimensions, doc.ID, len(doc.Embedding), d.dimensions)
		}
		meta, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("encoding metadata for doc %s: %w", doc.ID, err)
		}
		if _, err := tx.ExecContext(ctx, stmt, doc.ID, doc.Content, string(meta), pgvector.NewVector(doc.Embedding)); err != nil {
			return fmt.Errorf("inserting document %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("added documents to pgvector", "count", len(docs))

	return nil
}

// Query orders by cosine distance; score is 1 - distance.
func (d *PGVectorDriver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		return nil, nil
	}

	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, content, metadata, embedding <=> $1 AS distance
		FROM %s
		ORDER BY distance, seq
		LIMIT $2`, d.table), pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var results []vector.QueryResult
	for rows.Next() {
		var (
			doc      vector.Document
			meta     []byte
			distance float64
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &meta, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}
		if err := json.Unmarshal(meta, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("decoding metadata for doc %s: %w", doc.ID, err)
		}
		results = append(results, vector.QueryResult{
			Document: doc,
			Score:    float32(1 - distance),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	d.logger.Debug("queried pgvector", "results", len(results))

	return results, nil
}

// Get retrieves documents by their IDs.
func (d *PGVectorDriver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, content, metadata, embedding
		FROM %s
		WHERE id = ANY($1)
		ORDER BY seq`, d.table), ids)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []vector.Document
	for rows.Next() {
		var (
			doc  vector.Document
			meta []byte
			emb  pgvector.Vector
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &meta, &emb); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if err := json.Unmarshal(meta, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("decoding metadata for doc %s: %w", doc.ID, err)
		}
		doc.Embedding = emb.Slice()
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// Delete removes documents by their IDs.
func (d *PGVectorDriver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := d.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, d.table), ids); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}

	d.logger.Debug("deleted documents from pgvector", "count", len(ids))

	return nil
}

// Reset drops and recreates the index table.
func (d *PGVectorDriver) Reset(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, d.table)); err != nil {
		return fmt.Errorf("dropping table %s: %w", d.table, err)
	}
	return d.createTable(ctx)
}

// Close releases the connection pool.
func (d *PGVectorDriver) Close() error {
	return d.db.Close()
}
