package testutils

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/papercomputeco/helpbot/pkg/vector"
)

// MockVectorDriver is an in-memory vector.Driver ranking by L2 distance.
type MockVectorDriver struct {
	mu        sync.Mutex
	documents []vector.Document
	resets    int
	closed    bool

	// FailAdd causes Add to return an error.
	FailAdd bool
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		documents: make([]vector.Document, 0),
	}
}

func (m *MockVectorDriver) Add(_ context.Context, docs []vector.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAdd {
		return errors.New("mock add failure")
	}

	for _, d := range docs {
		replaced := false
		for i := range m.documents {
			if m.documents[i].ID == d.ID {
				m.documents[i] = d
				replaced = true
				break
			}
		}
		if !replaced {
			m.documents = append(m.documents, d)
		}
	}
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]vector.QueryResult, 0, len(m.documents))
	for _, d := range m.documents {
		results = append(results, vector.QueryResult{
			Document: d,
			Score:    1 / (1 + l2(embedding, d.Embedding)),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) < topK {
		return results, nil
	}
	return results[:topK], nil
}

func (m *MockVectorDriver) Get(_ context.Context, ids []string) ([]vector.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]vector.Document, 0, len(ids))
	for _, id := range ids {
		for _, d := range m.documents {
			if d.ID == id {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := m.documents[:0]
	for _, d := range m.documents {
		if !drop[d.ID] {
			kept = append(kept, d)
		}
	}
	m.documents = kept
	return nil
}

func (m *MockVectorDriver) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents = m.documents[:0]
	m.resets++
	return nil
}

func (m *MockVectorDriver) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Documents returns a copy of the stored documents in insertion order.
func (m *MockVectorDriver) Documents() []vector.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]vector.Document(nil), m.documents...)
}

// Resets reports how many times Reset was called.
func (m *MockVectorDriver) Resets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resets
}

// Closed reports whether Close was called.
func (m *MockVectorDriver) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func l2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		if i >= len(b) {
			break
		}
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}
