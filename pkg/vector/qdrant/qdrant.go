// Package qdrant provides a vector driver over Qdrant's gRPC API. Each index
// is one collection using cosine distance.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"

	qc "github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/helpbot/pkg/vector"
)

const defaultGRPCPort = 6334

const (
	payloadContent = "content"
	payloadMeta    = "meta_"
)

// QdrantDriver implements vector.Driver for a single Qdrant collection.
type QdrantDriver struct {
	client     *qc.Client
	collection string
	dimensions uint
	logger     *slog.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Target is "host", "host:port" or a URL; https enables TLS.
	// The port defaults to 6334 (gRPC).
	Target string

	// APIKey is sent with every request when set.
	APIKey string

	Collection string
	Dimensions uint
}

// ParseTarget splits a Qdrant target into host, port and TLS flag.
func ParseTarget(target string) (host string, port int, useTLS bool, err error) {
	if target == "" {
		return "", 0, false, errors.New("qdrant target is required")
	}

	hostport := target
	if strings.Contains(target, "://") {
		u, err := url.Parse(target)
		if err != nil {
			return "", 0, false, fmt.Errorf("parsing qdrant target: %w", err)
		}
		hostport = u.Host
		useTLS = u.Scheme == "https" || u.Scheme == "grpcs"
	}

	host, portStr, splitErr := net.SplitHostPort(hostport)
	if splitErr != nil {
		return hostport, defaultGRPCPort, useTLS, nil
	}

	port, err = strconv.Atoi(portStr)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}
	return host, port, useTLS, nil
}

// NewQdrantDriver connects and creates the collection when it is missing.
func NewQdrantDriver(ctx context.Context, c Config, logger *slog.Logger) (*QdrantDriver, error) {
	if c.Collection == "" {
		return nil, errors.New("qdrant collection name is required")
	}
	if c.Dimensions == 0 {
		return nil, errors.New("qdrant embedding dimensions cannot be 0, must be configured")
	}

	host, port, useTLS, err := ParseTarget(c.Target)
	if err != nil {
		return nil, err
	}

	client, err := qc.NewClient(&qc.Config{
		Host:   host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vector.ErrConnection, err)
	}

	d := &QdrantDriver{
		client:     client,
		collection: c.Collection,
		dimensions: c.Dimensions,
		logger:     logger,
	}

	if err := d.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}

	logger.Debug("connected to qdrant", "host", host, "port", port, "collection", c.Collection)

	return d, nil
}

func (d *QdrantDriver) ensureCollection(ctx context.Context) error {
	exists, err := d.client.CollectionExists(ctx, d.collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection %q: %w", vector.ErrConnection, d.collection, err)
	}
	if exists {
		return nil
	}

	err = d.client.CreateCollection(ctx, &qc.CreateCollection{
		CollectionName: d.collection,
		VectorsConfig: qc.NewVectorsConfig(&qc.VectorParams{
			Size:     uint64(d.dimensions),
			Distance: qc.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %q: %w", d.collection, err)
	}
	return nil
}

// payloadFor flattens a document into a Qdrant payload. Metadata keys are
// prefixed so they cannot collide with the content field.
func payloadFor(doc vector.Document) map[string]*qc.Value {
	fields := map[string]any{payloadContent: doc.Content}
	for k, v := range doc.Metadata {
		fields[payloadMeta+k] = v
	}
	return qc.NewValueMap(fields)
}

func documentFrom(id *qc.PointId, payload map[string]*qc.Value) vector.Document {
	doc := vector.Document{
		ID:       id.GetUuid(),
		Metadata: map[string]string{},
	}
	for k, v := range payload {
		switch {
		case k == payloadContent:
			doc.Content = v.GetStringValue()
		case strings.HasPrefix(k, payloadMeta):
			doc.Metadata[strings.TrimPrefix(k, payloadMeta)] = v.GetStringValue()
		}
	}
	return doc
}

func pointIDs(ids []string) []*qc.PointId {
	out := make([]*qc.PointId, len(ids))
	for i, id := range ids {
		out[i] = qc.NewID(id)
	}
	return out
}

// Add upserts points. IDs must be UUIDs, which vector.DocumentID produces.
func (d *QdrantDriver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qc.PointStruct, 0, len(docs))
	for _, doc := range docs {
		if uint(len(doc.Embedding)) != d.dimensions {
			return fmt.Errorf("%w: doc %s has %d, store has %d",
				vector.ErrDimensions, doc.ID, len(doc.Embedding), d.dimensions)
		}
		points = append(points, &qc.PointStruct{
			Id:      qc.NewID(doc.ID),
			Vectors: qc.NewVectors(doc.Embedding...),
			Payload: payloadFor(doc),
		})
	}

	wait := true
	if _, err := d.client.Upsert(ctx, &qc.UpsertPoints{
		CollectionName: d.collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("added documents to qdrant", "count", len(docs))

	return nil
}

// Query finds the topK most similar documents to the given embedding.
func (d *QdrantDriver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		return nil, nil
	}

	limit := uint64(topK)
	points, err := d.client.Query(ctx, &qc.QueryPoints{
		CollectionName: d.collection,
		Query:          qc.NewQuery(embedding...),
		Limit:          &limit,
		WithPayload:    qc.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	results := make([]vector.QueryResult, 0, len(points))
	for _, p := range points {
		results = append(results, vector.QueryResult{
			Document: documentFrom(p.GetId(), p.GetPayload()),
			Score:    p.GetScore(),
		})
	}

	d.logger.Debug("queried qdrant", "results", len(results))

	return results, nil
}

// Get retrieves documents by their IDs, vectors included.
func (d *QdrantDriver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	points, err := d.client.Get(ctx, &qc.GetPoints{
		CollectionName: d.collection,
		Ids:            pointIDs(ids),
		WithPayload:    qc.NewWithPayload(true),
		WithVectors:    qc.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting points: %w", err)
	}

	docs := make([]vector.Document, 0, len(points))
	for _, p := range points {
		doc := documentFrom(p.GetId(), p.GetPayload())
		if v := p.GetVectors().GetVector(); v != nil {
			if dense := v.GetDense(); dense != nil {
				doc.Embedding = dense.GetData()
			} else {
				doc.Embedding = v.GetData()
			}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Delete removes documents by their IDs.
func (d *QdrantDriver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	wait := true
	if _, err := d.client.Delete(ctx, &qc.DeletePoints{
		CollectionName: d.collection,
		Wait:           &wait,
		Points:         qc.NewPointsSelector(pointIDs(ids)...),
	}); err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}

	d.logger.Debug("deleted documents from qdrant", "count", len(ids))

	return nil
}

// Reset drops the collection and creates it again.
func (d *QdrantDriver) Reset(ctx context.Context) error {
	if err := d.client.DeleteCollection(ctx, d.collection); err != nil {
		return fmt.Errorf("deleting collection %q: %w", d.collection, err)
	}
	return d.ensureCollection(ctx)
}

// Close releases the gRPC connection.
func (d *QdrantDriver) Close() error {
	return d.client.Close()
}
