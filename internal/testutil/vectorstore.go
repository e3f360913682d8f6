package testutil

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/pgvector/pgvector-go"

	"github.com/mossbase/moss/internal/knowledge"
)

// MemoryQuerier is an in-memory knowledge.Querier with brute-force
// cosine search. It mirrors the PostgreSQL implementation closely
// enough for unit tests that exercise the full store path without a
// database.
//
// Thread-safe for concurrent use.
type MemoryQuerier struct {
	mu   sync.Mutex
	rows []memoryRow
}

type memoryRow struct {
	doc knowledge.Document
	vec []float32
}

var _ knowledge.Querier = (*MemoryQuerier)(nil)

func NewMemoryQuerier() *MemoryQuerier {
	return &MemoryQuerier{}
}

// UpsertDocument implements knowledge.Querier.
func (m *MemoryQuerier) UpsertDocument(_ context.Context, doc knowledge.Document, embedding pgvector.Vector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := memoryRow{doc: doc, vec: embedding.Slice()}
	for i := range m.rows {
		if m.rows[i].doc.ID == doc.ID {
			m.rows[i] = row
			return nil
		}
	}
	m.rows = append(m.rows, row)
	return nil
}

// SearchDocuments implements knowledge.Querier.
func (m *MemoryQuerier) SearchDocuments(_ context.Context, embedding pgvector.Vector, limit int32) ([]knowledge.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	query := embedding.Slice()
	results := make([]knowledge.Candidate, 0, len(m.rows))
	for _, row := range m.rows {
		results = append(results, knowledge.Candidate{
			ID:         row.doc.ID,
			Content:    row.doc.Content,
			Similarity: cosineSimilarity(query, row.vec),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if int32(len(results)) > limit {
		results = results[:limit]
	}
	return results, nil
}

// ListChunks implements knowledge.Querier.
func (m *MemoryQuerier) ListChunks(_ context.Context, documentID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rows []memoryRow
	for _, row := range m.rows {
		if row.doc.DocumentID == documentID {
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].doc.ChunkIndex < rows[j].doc.ChunkIndex
	})
	chunks := make([]string, len(rows))
	for i, row := range rows {
		chunks[i] = row.doc.Content
	}
	return chunks, nil
}

// DeleteDocument implements knowledge.Querier.
func (m *MemoryQuerier) DeleteDocument(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.rows[:0]
	for _, row := range m.rows {
		if row.doc.DocumentID != documentID {
			kept = append(kept, row)
		}
	}
	m.rows = kept
	return nil
}

// Len returns the number of stored chunks.
func (m *MemoryQuerier) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
