package search

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mossbase/moss/internal/knowledge"
	"github.com/mossbase/moss/internal/log"
	"github.com/mossbase/moss/internal/rerank"
)

// Result limits. A deep search fans out at most 1 original + MaxVariants
// expanded queries and returns at most TopK ranked results.
const (
	TopK      = 5
	perQueryK = 5

	// dedupPrefixLen is the content fingerprint length for deduplication.
	// A cheap heuristic: passages whose first 50 characters match are
	// treated as the same passage. Distinct passages sharing a long common
	// prefix will collapse; acceptable for chunked documents where chunk
	// openings differ.
	dedupPrefixLen = 50
)

// Store is the vector index as the deep-search pipeline consumes it.
// knowledge.Store satisfies this.
type Store interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Candidate, error)
}

// Reranker scores a candidate batch against the original query.
// rerank.Service satisfies this. A nil Reranker disables reranking.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []knowledge.Candidate) ([]rerank.Scored, error)
}

// RankedResult is a candidate promoted into the final ranking. Rank is
// 1-based. Reranked reports whether Score came from the cross-encoder or
// fell back to vector similarity.
type RankedResult struct {
	knowledge.Candidate
	Score    float64 `json:"score"`
	Reranked bool    `json:"reranked"`
	Rank     int     `json:"rank"`
}

// DeepSearch orchestrates expansion, concurrent fan-out, deduplication, and
// reranking into a single ranked retrieval operation.
type DeepSearch struct {
	store    Store
	expander *Expander
	reranker Reranker
	logger   log.Logger
}

// NewDeepSearch wires the pipeline. expander and reranker are optional:
// a nil expander searches the original query only, a nil reranker ranks by
// raw similarity.
func NewDeepSearch(store Store, expander *Expander, reranker Reranker, logger log.Logger) (*DeepSearch, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &DeepSearch{
		store:    store,
		expander: expander,
		reranker: reranker,
		logger:   logger,
	}, nil
}

// Search runs the full pipeline for one query.
//
// Per-query lookups run concurrently; a failed lookup contributes zero
// candidates without aborting the others. The combined candidates are
// deduplicated in original query order once every lookup has resolved, so
// concurrency affects latency but never result order. Rerank failure
// degrades to similarity ordering. No candidates at all yields an empty
// result, not an error.
func (d *DeepSearch) Search(ctx context.Context, query string) ([]RankedResult, error) {
	queries := []string{query}
	if d.expander != nil {
		queries = append(queries, d.expander.Expand(ctx, query)...)
	}

	perQuery := make([][]knowledge.Candidate, len(queries))
	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			results, err := d.store.Search(ctx, q, knowledge.WithTopK(perQueryK))
			if err != nil {
				d.logger.Warn("fan-out query failed", "query", q, "error", err)
				return
			}
			perQuery[i] = results
		}(i, q)
	}
	wg.Wait()

	candidates := dedupe(perQuery)
	if len(candidates) == 0 {
		d.logger.Debug("deep search found no candidates", "query", query)
		return nil, nil
	}

	ranked := d.rank(ctx, query, candidates)

	if len(ranked) > TopK {
		ranked = ranked[:TopK]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	d.logger.Debug("deep search completed",
		"query", query, "fanout", len(queries),
		"candidates", len(candidates), "results", len(ranked))
	return ranked, nil
}

// rank scores candidates with the reranker when available, falling back to
// similarity ordering when reranking is disabled or fails. Sorting is
// stable: ties keep deduplication order, which keeps results deterministic.
func (d *DeepSearch) rank(ctx context.Context, query string, candidates []knowledge.Candidate) []RankedResult {
	if d.reranker != nil {
		// The original query, not the expansions, judges final relevance.
		scored, err := d.reranker.Rerank(ctx, query, candidates)
		if err == nil && len(scored) > 0 {
			return sortScored(scored, candidates)
		}
		if err != nil {
			d.logger.Warn("rerank unavailable, falling back to similarity order", "error", err)
		}
	}

	ranked := make([]RankedResult, len(candidates))
	for i, c := range candidates {
		ranked[i] = RankedResult{Candidate: c, Score: c.Similarity}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Score > ranked[b].Score
	})
	return ranked
}

// sortScored orders reranked results by score. The rerank response order is
// unspecified, so positions are re-anchored to the deduplicated candidate
// order before the stable sort to keep tie-breaking deterministic.
func sortScored(scored []rerank.Scored, candidates []knowledge.Candidate) []RankedResult {
	position := make(map[string]int, len(candidates))
	for i, c := range candidates {
		position[c.ID] = i
	}
	ordered := make([]rerank.Scored, len(scored))
	copy(ordered, scored)
	sort.SliceStable(ordered, func(a, b int) bool {
		return position[ordered[a].ID] < position[ordered[b].ID]
	})

	ranked := make([]RankedResult, len(ordered))
	for i, s := range ordered {
		ranked[i] = RankedResult{Candidate: s.Candidate, Score: s.Score, Reranked: true}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Score > ranked[b].Score
	})
	return ranked
}

// dedupe unions per-query result sets, keeping the first occurrence of each
// content fingerprint. Iteration follows the original query-list order, so
// the outcome is independent of goroutine completion order.
func dedupe(perQuery [][]knowledge.Candidate) []knowledge.Candidate {
	seen := make(map[string]bool)
	var out []knowledge.Candidate
	for _, results := range perQuery {
		for _, c := range results {
			key := contentKey(c.Content)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, c)
		}
	}
	return out
}

// contentKey returns the first dedupPrefixLen characters of content.
func contentKey(content string) string {
	runes := []rune(content)
	if len(runes) > dedupPrefixLen {
		runes = runes[:dedupPrefixLen]
	}
	return string(runes)
}
