package knowledge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mossbase/moss/internal/log"
)

// mockEmbedder implements ai.Embedder for testing.
type mockEmbedder struct {
	delay       time.Duration
	embedErr    error
	returnEmpty bool
	embeddings  []float32
	callCount   int
	lastInput   string
}

func (m *mockEmbedder) Name() string { return "mock-embedder" }

func (m *mockEmbedder) Register(r api.Registry) {}

func (m *mockEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	m.callCount++
	if len(req.Input) > 0 && len(req.Input[0].Content) > 0 {
		m.lastInput = req.Input[0].Content[0].Text
	}

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.returnEmpty {
		return &ai.EmbedResponse{Embeddings: []*ai.Embedding{{Embedding: []float32{}}}}, nil
	}

	embedding := m.embeddings
	if embedding == nil {
		embedding = []float32{0.1, 0.2, 0.3}
	}
	return &ai.EmbedResponse{Embeddings: []*ai.Embedding{{Embedding: embedding}}}, nil
}

// mockQuerier implements Querier for testing.
type mockQuerier struct {
	upsertErr error
	searchErr error
	listErr   error
	deleteErr error

	searchResults []Candidate
	chunks        []string

	upserted    []Document
	searchLimit int32
	deletedIDs  []string
}

func (m *mockQuerier) UpsertDocument(ctx context.Context, doc Document, embedding pgvector.Vector) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, doc)
	return nil
}

func (m *mockQuerier) SearchDocuments(ctx context.Context, embedding pgvector.Vector, limit int32) ([]Candidate, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	m.searchLimit = limit
	return m.searchResults, nil
}

func (m *mockQuerier) ListChunks(ctx context.Context, documentID string) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.chunks, nil
}

func (m *mockQuerier) DeleteDocument(ctx context.Context, documentID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedIDs = append(m.deletedIDs, documentID)
	return nil
}

func newTestStore(t *testing.T, q Querier, e ai.Embedder) *Store {
	t.Helper()
	store, err := New(q, e, log.NewNop())
	require.NoError(t, err)
	return store
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(nil, &mockEmbedder{}, log.NewNop())
	assert.Error(t, err)

	_, err = New(&mockQuerier{}, nil, log.NewNop())
	assert.Error(t, err)

	_, err = New(&mockQuerier{}, &mockEmbedder{}, nil)
	assert.Error(t, err)
}

func TestStore_Add(t *testing.T) {
	q := &mockQuerier{}
	e := &mockEmbedder{}
	store := newTestStore(t, q, e)

	doc := Document{ID: "doc-1:0", DocumentID: "doc-1", Content: "quarterly roadmap"}
	err := store.Add(context.Background(), doc)
	require.NoError(t, err)

	require.Len(t, q.upserted, 1)
	assert.Equal(t, "doc-1:0", q.upserted[0].ID)
	assert.Equal(t, "quarterly roadmap", e.lastInput)
}

func TestStore_Add_EmbedderError(t *testing.T) {
	e := &mockEmbedder{embedErr: errors.New("embedder down")}
	store := newTestStore(t, &mockQuerier{}, e)

	err := store.Add(context.Background(), Document{ID: "x", Content: "y"})
	assert.ErrorContains(t, err, "embedder down")
}

func TestStore_Add_EmptyEmbedding(t *testing.T) {
	e := &mockEmbedder{returnEmpty: true}
	store := newTestStore(t, &mockQuerier{}, e)

	err := store.Add(context.Background(), Document{ID: "x", Content: "y"})
	assert.ErrorIs(t, err, ErrEmptyEmbedding)
}

func TestStore_Search(t *testing.T) {
	q := &mockQuerier{
		searchResults: []Candidate{
			{ID: "a", Content: "first", Similarity: 0.92},
			{ID: "b", Content: "second", Similarity: 0.81},
		},
	}
	store := newTestStore(t, q, &mockEmbedder{})

	results, err := store.Search(context.Background(), "roadmap")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, int32(DefaultTopK), q.searchLimit)
}

func TestStore_Search_TopKOption(t *testing.T) {
	q := &mockQuerier{}
	store := newTestStore(t, q, &mockEmbedder{})

	_, err := store.Search(context.Background(), "roadmap", WithTopK(3))
	require.NoError(t, err)
	assert.Equal(t, int32(3), q.searchLimit)

	// Values beyond MaxTopK clamp instead of erroring.
	_, err = store.Search(context.Background(), "roadmap", WithTopK(100))
	require.NoError(t, err)
	assert.Equal(t, int32(MaxTopK), q.searchLimit)
}

func TestStore_Search_EmbedderTimeout(t *testing.T) {
	e := &mockEmbedder{delay: 200 * time.Millisecond}
	store := newTestStore(t, &mockQuerier{}, e)

	_, err := store.Search(context.Background(), "roadmap", WithTimeout(10*time.Millisecond))
	assert.ErrorContains(t, err, "timed out")
}

func TestStore_Search_QuerierError(t *testing.T) {
	q := &mockQuerier{searchErr: errors.New("connection lost")}
	store := newTestStore(t, q, &mockEmbedder{})

	_, err := store.Search(context.Background(), "roadmap")
	assert.ErrorContains(t, err, "vector search")
}

func TestStore_Chunks(t *testing.T) {
	q := &mockQuerier{chunks: []string{"part one", "part two"}}
	store := newTestStore(t, q, &mockEmbedder{})

	chunks, err := store.Chunks(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"part one", "part two"}, chunks)

	_, err = store.Chunks(context.Background(), "")
	assert.Error(t, err)
}

func TestStore_Delete(t *testing.T) {
	q := &mockQuerier{}
	store := newTestStore(t, q, &mockEmbedder{})

	err := store.Delete(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-1"}, q.deletedIDs)
}
