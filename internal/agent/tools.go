package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mossbase/moss/internal/knowledge"
	"github.com/mossbase/moss/internal/llm"
	"github.com/mossbase/moss/internal/research"
	"github.com/mossbase/moss/internal/search"
	"github.com/mossbase/moss/internal/tasks"
)

// Tool names the model may invoke.
const (
	toolSearchKB     = "search_knowledge_base"
	toolDeepSearch   = "deep_search"
	toolResearch     = "research_topic"
	toolCreateTask   = "create_task"
	toolSummarizeDoc = "summarize_document"
)

var knownTools = map[string]bool{
	toolSearchKB:     true,
	toolDeepSearch:   true,
	toolResearch:     true,
	toolCreateTask:   true,
	toolSummarizeDoc: true,
}

// KnowledgeSearcher is the cheap single-query lookup path.
type KnowledgeSearcher interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Candidate, error)
}

// DeepSearcher runs the expanded, reranked search pipeline.
type DeepSearcher interface {
	Search(ctx context.Context, query string) ([]search.RankedResult, error)
}

// Researcher compiles a multi-question research brief.
type Researcher interface {
	Research(ctx context.Context, topic string, depth int) (*research.Brief, error)
}

// TaskCreator persists tasks, skipping duplicates within a workspace.
type TaskCreator interface {
	Create(ctx context.Context, task tasks.Task) (bool, error)
}

// ChunkSource fetches the stored chunks of one document.
type ChunkSource interface {
	Chunks(ctx context.Context, documentID string) ([]string, error)
}

// dispatch executes one invocation and renders the result as the text
// fed back to the model. Errors never escape: they become a tool
// message so the model can recover on its next turn.
func (a *Agent) dispatch(ctx context.Context, inv *Invocation) string {
	out, err := a.execute(ctx, inv)
	if err != nil {
		a.logger.Warn("tool failed", "tool", inv.Tool, "error", err)
		return fmt.Sprintf("tool %s failed: %v", inv.Tool, err)
	}
	return out
}

func (a *Agent) execute(ctx context.Context, inv *Invocation) (string, error) {
	switch inv.Tool {
	case toolSearchKB:
		return a.runSearchKB(ctx, inv.Parameters)
	case toolDeepSearch:
		return a.runDeepSearch(ctx, inv.Parameters)
	case toolResearch:
		return a.runResearch(ctx, inv.Parameters)
	case toolCreateTask:
		return a.runCreateTask(ctx, inv.Parameters)
	case toolSummarizeDoc:
		return a.runSummarize(ctx, inv.Parameters)
	default:
		return "", fmt.Errorf("unknown tool %q", inv.Tool)
	}
}

func (a *Agent) runSearchKB(ctx context.Context, params map[string]any) (string, error) {
	query, err := strParam(params, "query")
	if err != nil {
		return "", err
	}
	candidates, err := a.knowledge.Search(ctx, query, knowledge.WithTopK(a.searchTopK))
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "no results found", nil
	}
	var sb strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&sb, "[%d] (similarity %.2f) %s\n", i+1, c.Similarity, c.Content)
	}
	return sb.String(), nil
}

func (a *Agent) runDeepSearch(ctx context.Context, params map[string]any) (string, error) {
	query, err := strParam(params, "query")
	if err != nil {
		return "", err
	}
	results, err := a.deep.Search(ctx, query)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "no results found", nil
	}
	var sb strings.Builder
	for _, r := range results {
		fmt.Fprintf(&sb, "[%d] (score %.2f) %s\n", r.Rank, r.Score, r.Content)
	}
	return sb.String(), nil
}

func (a *Agent) runResearch(ctx context.Context, params map[string]any) (string, error) {
	topic, err := strParam(params, "topic")
	if err != nil {
		return "", err
	}
	depth := intParam(params, "depth", 0) // researcher applies its own default
	brief, err := a.researcher.Research(ctx, topic, depth)
	if err != nil {
		return "", err
	}
	return brief.Render(), nil
}

func (a *Agent) runCreateTask(ctx context.Context, params map[string]any) (string, error) {
	title, err := strParam(params, "title")
	if err != nil {
		return "", err
	}
	task := tasks.Task{
		WorkspaceID: a.workspaceID,
		Title:       title,
		Description: optStrParam(params, "description"),
		Priority:    optStrParam(params, "priority"),
	}
	if raw := optStrParam(params, "due_date"); raw != "" {
		due, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return "", fmt.Errorf("invalid due_date %q, expected YYYY-MM-DD", raw)
		}
		task.DueDate = &due
	}
	inserted, err := a.tasks.Create(ctx, task)
	if err != nil {
		return "", err
	}
	if !inserted {
		return fmt.Sprintf("task %q already exists, skipped", title), nil
	}
	return fmt.Sprintf("task %q created", title), nil
}

func (a *Agent) runSummarize(ctx context.Context, params map[string]any) (string, error) {
	docID, err := strParam(params, "document_id")
	if err != nil {
		return "", err
	}
	chunks, err := a.chunks.Chunks(ctx, docID)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("document %q has no content", docID)
	}

	text := strings.Join(chunks, "\n\n")
	if runes := []rune(text); len(runes) > a.summaryBudget {
		text = string(runes[:a.summaryBudget])
	}
	prompt := "Summarize the following document concisely, keeping its key points:\n\n" + text
	return a.gen.Generate(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	}, llm.Options{Temperature: 0.3, MaxTokens: 600})
}

func strParam(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing parameter %q", key)
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("parameter %q must be a non-empty string", key)
	}
	return s, nil
}

func optStrParam(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return s
}

// intParam reads a numeric parameter. JSON numbers decode as float64.
func intParam(params map[string]any, key string, def int) int {
	v, ok := params[key]
	if !ok {
		return def
	}
	f, ok := v.(float64)
	if !ok {
		return def
	}
	return int(f)
}
