package rerank

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mossbase/moss/internal/jsonx"
	"github.com/mossbase/moss/internal/knowledge"
	"github.com/mossbase/moss/internal/llm"
	"github.com/mossbase/moss/internal/log"
)

// maxPassageChars truncates passages in the scoring prompt. Cross-encoder
// relevance is judged from the opening of each passage; full chunks would
// blow the prompt budget without improving the ranking.
const maxPassageChars = 500

// LLMScorer judges (query, passage) relevance jointly with a generation
// call, cross-encoder style. Deterministic: temperature 0, strict-JSON
// output requested.
type LLMScorer struct {
	gen    llm.Generator
	logger log.Logger
}

// NewLLMScorer creates a scorer backed by the given generator.
func NewLLMScorer(gen llm.Generator, logger log.Logger) (*LLMScorer, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &LLMScorer{gen: gen, logger: logger}, nil
}

// rankingDecision is one entry of the model's expected response array.
type rankingDecision struct {
	Index     int `json:"index"`
	Relevance int `json:"relevance"`
}

// Score implements Scorer. Candidates the model fails to rate keep their
// vector similarity as the score, so a partially parsed response still
// yields a complete, usable ranking.
func (s *LLMScorer) Score(ctx context.Context, query string, candidates []knowledge.Candidate) ([]Scored, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	prompt := buildScoringPrompt(query, candidates)

	out, err := s.gen.Generate(ctx,
		[]llm.Message{{Role: llm.RoleUser, Content: prompt}},
		llm.Options{Temperature: 0.0, MaxTokens: 800, JSONMode: true},
	)
	if err != nil {
		return nil, fmt.Errorf("scoring generation: %w", err)
	}

	span, err := jsonx.FirstArray(out)
	if err != nil {
		return nil, fmt.Errorf("no ranking array in response: %w", err)
	}
	var decisions []rankingDecision
	if err := json.Unmarshal([]byte(span), &decisions); err != nil {
		return nil, fmt.Errorf("decoding ranking array: %w", err)
	}

	scores := make(map[int]float64, len(decisions))
	for _, d := range decisions {
		if d.Index < 0 || d.Index >= len(candidates) {
			continue
		}
		rel := d.Relevance
		if rel < 1 {
			rel = 1
		}
		if rel > 10 {
			rel = 10
		}
		scores[d.Index] = float64(rel) / 10.0
	}

	results := make([]Scored, len(candidates))
	rated := 0
	for i, c := range candidates {
		score, ok := scores[i]
		if !ok {
			score = c.Similarity
		} else {
			rated++
		}
		results[i] = Scored{Candidate: c, Score: score}
	}

	if rated < len(candidates) {
		s.logger.Debug("model rated a subset of candidates",
			"rated", rated, "total", len(candidates))
	}

	return results, nil
}

// buildScoringPrompt lists the passages and asks for per-passage relevance.
func buildScoringPrompt(query string, candidates []knowledge.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rate how relevant each passage is to the query on a scale of 1 (irrelevant) to 10 (directly answers it).\n\nQuery: %s\n\nPassages:\n", query)

	for i, c := range candidates {
		content := c.Content
		if len(content) > maxPassageChars {
			content = content[:maxPassageChars] + "..."
		}
		fmt.Fprintf(&b, "[%d] %s\n", i, content)
	}

	b.WriteString("\nRespond with only a JSON array, one entry per passage: " +
		`[{"index": 0, "relevance": 7}, ...]`)
	return b.String()
}

var _ Scorer = (*LLMScorer)(nil)
