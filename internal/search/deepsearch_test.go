package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mossbase/moss/internal/knowledge"
	"github.com/mossbase/moss/internal/llm"
	"github.com/mossbase/moss/internal/log"
	"github.com/mossbase/moss/internal/rerank"
)

// mockStore serves canned candidates keyed by query substring.
type mockStore struct {
	mu      sync.Mutex
	results map[string][]knowledge.Candidate // substring -> candidates
	delays  map[string]time.Duration         // substring -> artificial delay
	errOn   string                           // queries containing this fail
	queries []string                         // recorded in call order
}

func (m *mockStore) Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Candidate, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()

	for sub, d := range m.delays {
		if strings.Contains(query, sub) {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if m.errOn != "" && strings.Contains(query, m.errOn) {
		return nil, errors.New("store unavailable")
	}
	for sub, cs := range m.results {
		if strings.Contains(query, sub) {
			return cs, nil
		}
	}
	return nil, nil
}

func (m *mockStore) queryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

// mockReranker flips candidate order unless configured to fail.
type mockReranker struct {
	err    error
	scores map[string]float64 // id -> score
	calls  int
	query  string
}

func (m *mockReranker) Rerank(ctx context.Context, query string, candidates []knowledge.Candidate) ([]rerank.Scored, error) {
	m.calls++
	m.query = query
	if m.err != nil {
		return nil, m.err
	}
	out := make([]rerank.Scored, len(candidates))
	for i, c := range candidates {
		score, ok := m.scores[c.ID]
		if !ok {
			score = c.Similarity
		}
		out[i] = rerank.Scored{Candidate: c, Score: score}
	}
	return out, nil
}

func expandingGenerator(alternatives ...string) llm.Generator {
	parts := make([]string, len(alternatives))
	for i, a := range alternatives {
		parts[i] = `"` + a + `"`
	}
	return &stubGenerator{response: "[" + strings.Join(parts, ", ") + "]"}
}

func cand(id, content string, sim float64) knowledge.Candidate {
	return knowledge.Candidate{ID: id, Content: content, Similarity: sim}
}

func newDeepSearch(t *testing.T, store Store, expander *Expander, reranker Reranker) *DeepSearch {
	t.Helper()
	ds, err := NewDeepSearch(store, expander, reranker, log.NewNop())
	require.NoError(t, err)
	return ds
}

func TestDeepSearch_SimilarityFallbackOrdering(t *testing.T) {
	// Three documents, one about roadmaps, reranking disabled. The
	// matching document must rank first on raw similarity.
	store := &mockStore{results: map[string][]knowledge.Candidate{
		"roadmap": {
			cand("doc-cats", "cats are independent animals", 0.31),
			cand("doc-roadmap", "a roadmap lays out milestones over time", 0.88),
			cand("doc-bread", "bread requires yeast and patience", 0.27),
		},
	}}
	ds := newDeepSearch(t, store, nil, nil)

	results, err := ds.Search(context.Background(), "roadmap basics")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "doc-roadmap", results[0].ID)
	assert.False(t, results[0].Reranked)
	assert.Equal(t, 1, results[0].Rank)
}

func TestDeepSearch_TruncatesToTopK(t *testing.T) {
	many := make([]knowledge.Candidate, 9)
	for i := range many {
		many[i] = cand(string(rune('a'+i)), strings.Repeat(string(rune('a'+i)), 60), float64(9-i)/10)
	}
	store := &mockStore{results: map[string][]knowledge.Candidate{"q": many}}
	ds := newDeepSearch(t, store, nil, nil)

	results, err := ds.Search(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, results, TopK)
	for i, r := range results {
		assert.Equal(t, i+1, r.Rank)
		if i > 0 {
			assert.GreaterOrEqual(t, results[i-1].Score, r.Score)
		}
	}
}

func TestDeepSearch_FansOutExpandedQueries(t *testing.T) {
	store := &mockStore{results: map[string][]knowledge.Candidate{}}
	expander := newExpander(t, expandingGenerator("alt one", "alt two", "alt three"))
	ds := newDeepSearch(t, store, expander, nil)

	_, err := ds.Search(context.Background(), "original")
	require.NoError(t, err)
	assert.Equal(t, 4, store.queryCount(), "original + 3 expansions")
}

func TestDeepSearch_ExpansionFailureUsesOriginalOnly(t *testing.T) {
	store := &mockStore{results: map[string][]knowledge.Candidate{
		"original": {cand("a", "some passage content here", 0.9)},
	}}
	expander := newExpander(t, &stubGenerator{err: errors.New("model down")})
	ds := newDeepSearch(t, store, expander, nil)

	results, err := ds.Search(context.Background(), "original")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, 1, store.queryCount())
}

func TestDeepSearch_DeduplicatesByContentPrefix(t *testing.T) {
	shared := strings.Repeat("x", 50)
	store := &mockStore{results: map[string][]knowledge.Candidate{
		"original": {
			cand("a", shared+" tail one", 0.9),
			cand("b", shared+" tail two", 0.8), // same 50-char prefix: duplicate
			cand("c", "entirely different content", 0.7),
		},
	}}
	ds := newDeepSearch(t, store, nil, nil)

	results, err := ds.Search(context.Background(), "original")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID, "first occurrence wins")
	assert.Equal(t, "c", results[1].ID)
}

func TestDeepSearch_DeterministicAcrossCompletionOrder(t *testing.T) {
	// The original query resolves last; dedup order must still follow the
	// query-list order, so the first-occurrence winner is stable.
	shared := strings.Repeat("y", 50)
	store := &mockStore{
		results: map[string][]knowledge.Candidate{
			"original": {cand("from-original", shared+" original tail", 0.9)},
			"alt":      {cand("from-alt", shared+" alt tail", 0.95)},
		},
		delays: map[string]time.Duration{"original": 30 * time.Millisecond},
	}
	expander := newExpander(t, expandingGenerator("alt one"))
	ds := newDeepSearch(t, store, expander, nil)

	for i := 0; i < 3; i++ {
		results, err := ds.Search(context.Background(), "original")
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "from-original", results[0].ID,
			"original query's candidate wins dedup regardless of completion order")
	}
}

func TestDeepSearch_Idempotent(t *testing.T) {
	store := &mockStore{results: map[string][]knowledge.Candidate{
		"q": {
			cand("a", "alpha content for the first passage", 0.8),
			cand("b", "beta content for the second passage", 0.8), // tie
			cand("c", "gamma content for the third passage", 0.6),
		},
	}}
	ds := newDeepSearch(t, store, nil, nil)

	first, err := ds.Search(context.Background(), "q")
	require.NoError(t, err)
	second, err := ds.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDeepSearch_PartialFanOutFailure(t *testing.T) {
	store := &mockStore{
		results: map[string][]knowledge.Candidate{
			"alt": {cand("a", "surviving passage content", 0.7)},
		},
		errOn: "original",
	}
	expander := newExpander(t, expandingGenerator("alt one"))
	ds := newDeepSearch(t, store, expander, nil)

	results, err := ds.Search(context.Background(), "original")
	require.NoError(t, err, "one failed sub-query must not abort the search")
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
}

func TestDeepSearch_TotalFailureYieldsEmpty(t *testing.T) {
	store := &mockStore{errOn: "original"}
	ds := newDeepSearch(t, store, nil, nil)

	results, err := ds.Search(context.Background(), "original")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDeepSearch_RerankerOrdersResults(t *testing.T) {
	store := &mockStore{results: map[string][]knowledge.Candidate{
		"q": {
			cand("a", "passage a with some content", 0.9),
			cand("b", "passage b with some content", 0.8),
		},
	}}
	reranker := &mockReranker{scores: map[string]float64{"a": 0.2, "b": 0.95}}
	ds := newDeepSearch(t, store, nil, reranker)

	results, err := ds.Search(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "b", results[0].ID, "rerank score overrides similarity")
	assert.True(t, results[0].Reranked)
	assert.InDelta(t, 0.95, results[0].Score, 1e-9)
}

func TestDeepSearch_RerankerReceivesOriginalQuery(t *testing.T) {
	store := &mockStore{results: map[string][]knowledge.Candidate{
		"": {cand("a", "passage content", 0.9)},
	}}
	expander := newExpander(t, expandingGenerator("expanded variant"))
	reranker := &mockReranker{}
	ds := newDeepSearch(t, store, expander, reranker)

	_, err := ds.Search(context.Background(), "the original question")
	require.NoError(t, err)
	assert.Equal(t, "the original question", reranker.query)
	assert.Equal(t, 1, reranker.calls, "one batch request for the whole candidate set")
}

func TestDeepSearch_RerankFailureFallsBackToSimilarity(t *testing.T) {
	store := &mockStore{results: map[string][]knowledge.Candidate{
		"q": {
			cand("low", "passage with lower similarity", 0.4),
			cand("high", "passage with higher similarity", 0.9),
		},
	}}
	reranker := &mockReranker{err: errors.New("rerank worker gone")}
	ds := newDeepSearch(t, store, nil, reranker)

	results, err := ds.Search(context.Background(), "q")
	require.NoError(t, err, "rerank failure must not fail the search")
	require.Len(t, results, 2)
	assert.Equal(t, "high", results[0].ID)
	assert.False(t, results[0].Reranked)
}
