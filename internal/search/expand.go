// Package search implements the moss retrieval pipeline: query expansion,
// concurrent vector-store fan-out, deduplication, and cross-encoder
// reranking with similarity fallback.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/mossbase/moss/internal/jsonx"
	"github.com/mossbase/moss/internal/llm"
	"github.com/mossbase/moss/internal/log"
)

// MaxVariants caps the number of alternative queries an expansion may add.
const MaxVariants = 3

// Expander turns one query into semantically diverse alternatives via the
// generation service. Expansion is an optimization, never a requirement:
// every failure mode degrades to "no alternatives" and the caller proceeds
// with the original query alone.
type Expander struct {
	gen      llm.Generator
	variants int
	logger   log.Logger
}

// NewExpander creates an expander producing up to variants alternatives.
// variants is clamped to [1, MaxVariants]; zero or negative selects the max.
func NewExpander(gen llm.Generator, variants int, logger log.Logger) (*Expander, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if variants <= 0 || variants > MaxVariants {
		variants = MaxVariants
	}
	return &Expander{gen: gen, variants: variants, logger: logger}, nil
}

// Expand returns up to e.variants alternative phrasings of query. The
// original query is never included; callers combine [query] + result.
// Returns an empty slice on any generation or parse failure.
func (e *Expander) Expand(ctx context.Context, query string) []string {
	prompt := fmt.Sprintf(`Generate %d alternative search queries for the following query. Each alternative should approach the topic from a different angle: different wording, synonyms, or a different aspect of the question.

Original query: %s

Respond with only a JSON array of exactly %d strings.
Example format: ["alternative 1", "alternative 2", "alternative 3"]`,
		e.variants, query, e.variants)

	out, err := e.gen.Generate(ctx,
		[]llm.Message{{Role: llm.RoleUser, Content: prompt}},
		llm.Options{Temperature: 0.2, MaxTokens: 300, JSONMode: true},
	)
	if err != nil {
		e.logger.Warn("query expansion failed, continuing with original query", "error", err)
		return nil
	}

	parsed, err := jsonx.StringArray(out)
	if err != nil {
		e.logger.Warn("query expansion returned unparseable output", "error", err)
		return nil
	}

	// Drop empties and trivial echoes of the original.
	alternatives := make([]string, 0, e.variants)
	seen := map[string]bool{strings.ToLower(strings.TrimSpace(query)): true}
	for _, q := range parsed {
		q = strings.TrimSpace(q)
		if q == "" || seen[strings.ToLower(q)] {
			continue
		}
		seen[strings.ToLower(q)] = true
		alternatives = append(alternatives, q)
		if len(alternatives) == e.variants {
			break
		}
	}

	e.logger.Debug("expanded query", "original", query, "alternatives", len(alternatives))
	return alternatives
}
