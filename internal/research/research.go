// Package research decomposes open-ended topics into sub-questions and
// compiles the retrieved evidence into a cited brief.
package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/mossbase/moss/internal/jsonx"
	"github.com/mossbase/moss/internal/llm"
	"github.com/mossbase/moss/internal/log"
	"github.com/mossbase/moss/internal/search"
)

const (
	// DefaultDepth is used when the caller passes a non-positive depth.
	DefaultDepth = 3
	// MaxDepth caps the number of sub-questions per research run.
	MaxDepth = 5

	snippetLimit = 400
)

// Finding holds the evidence gathered for one sub-question.
type Finding struct {
	Question string
	Evidence []string
}

// Brief is the compiled result of a research run.
type Brief struct {
	Topic    string
	Findings []Finding
}

// Searcher retrieves ranked evidence for a single query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]search.RankedResult, error)
}

// Researcher turns a topic into sub-questions, searches each one and
// renders the findings into a brief.
type Researcher struct {
	gen      llm.Generator
	searcher Searcher
	logger   log.Logger
}

func NewResearcher(gen llm.Generator, searcher Searcher, logger log.Logger) (*Researcher, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Researcher{
		gen:      gen,
		searcher: searcher,
		logger:   logger.With("component", "research"),
	}, nil
}

// Research decomposes topic into at most depth sub-questions and runs a
// deep search for each, sequentially. Depth is clamped to [1, MaxDepth];
// non-positive values fall back to DefaultDepth. Sub-questions run one
// after another to keep load on the generation and reranking
// collaborators bounded.
func (r *Researcher) Research(ctx context.Context, topic string, depth int) (*Brief, error) {
	if depth <= 0 {
		depth = DefaultDepth
	}
	if depth > MaxDepth {
		depth = MaxDepth
	}

	questions := r.decompose(ctx, topic, depth)
	r.logger.Debug("topic decomposed", "topic", topic, "questions", len(questions))

	brief := &Brief{Topic: topic}
	for _, q := range questions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		finding := Finding{Question: q}
		results, err := r.searcher.Search(ctx, q)
		if err != nil {
			r.logger.Warn("sub-question search failed", "question", q, "error", err)
		}
		for _, res := range results {
			finding.Evidence = append(finding.Evidence, res.Content)
		}
		brief.Findings = append(brief.Findings, finding)
	}
	return brief, nil
}

// decompose asks the model for exactly depth sub-questions. Any failure
// falls back to the topic itself so a research run always makes progress.
func (r *Researcher) decompose(ctx context.Context, topic string, depth int) []string {
	prompt := fmt.Sprintf(`Break the research topic below into exactly %d focused sub-questions.
Each sub-question should examine a distinct aspect of the topic and be
answerable by searching a personal knowledge base.

Topic: %s

Respond with ONLY a JSON array of %d strings, no other text.`, depth, topic, depth)

	resp, err := r.gen.Generate(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	}, llm.Options{Temperature: 0.3, MaxTokens: 500, JSONMode: true})
	if err != nil {
		r.logger.Warn("decomposition failed, using topic directly", "error", err)
		return []string{topic}
	}

	questions, err := jsonx.StringArray(resp)
	if err != nil {
		r.logger.Warn("decomposition response not parseable", "error", err)
		return []string{topic}
	}

	out := make([]string, 0, depth)
	for _, q := range questions {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		out = append(out, q)
		if len(out) == depth {
			break
		}
	}
	if len(out) == 0 {
		return []string{topic}
	}
	return out
}

// Render produces the citation-numbered textual form of the brief.
// Citations are numbered continuously across sections.
func (b *Brief) Render() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Research brief: %s\n", b.Topic)

	citation := 0
	for i, f := range b.Findings {
		fmt.Fprintf(&sb, "\n%d. %s\n", i+1, f.Question)
		if len(f.Evidence) == 0 {
			sb.WriteString("   no relevant evidence found\n")
			continue
		}
		for _, ev := range f.Evidence {
			citation++
			fmt.Fprintf(&sb, "   [%d] %s\n", citation, truncate(ev, snippetLimit))
		}
	}
	return sb.String()
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
