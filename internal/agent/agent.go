// Package agent drives the bounded-turn tool-calling loop. Each turn
// the model either answers in plain text or invokes one tool; tool
// results are appended to the conversation and the loop continues until
// an answer is produced or the turn budget runs out.
package agent

import (
	"context"
	"fmt"

	"github.com/mossbase/moss/internal/knowledge"
	"github.com/mossbase/moss/internal/llm"
	"github.com/mossbase/moss/internal/log"
)

const (
	// DefaultTurnBudget bounds how many generation turns one Run may use.
	DefaultTurnBudget = 8
	// DefaultSummaryBudget caps the characters fed to summarize_document.
	DefaultSummaryBudget = 6000

	exhaustedMessage = "could not complete the request within the allotted turns"
)

// Status is the terminal state of a loop run.
type Status string

const (
	StatusAnswered  Status = "answered"
	StatusExhausted Status = "exhausted"
)

// Outcome is the result of one Run.
type Outcome struct {
	Status Status
	Answer string
	Turns  int
}

// Deps are the collaborators behind the tool dispatch table.
type Deps struct {
	Generator llm.Generator
	Knowledge KnowledgeSearcher
	Deep      DeepSearcher
	Research  Researcher
	Tasks     TaskCreator
	Chunks    ChunkSource
}

// Agent owns one conversation at a time. It is safe to reuse across
// runs; each Run builds its own conversation.
type Agent struct {
	gen           llm.Generator
	knowledge     KnowledgeSearcher
	deep          DeepSearcher
	researcher    Researcher
	tasks         TaskCreator
	chunks        ChunkSource
	logger        log.Logger
	workspaceID   string
	turnBudget    int
	summaryBudget int
	searchTopK    int
	temperature   float64
}

// Option configures an Agent.
type Option func(*Agent)

// WithTurnBudget overrides the per-run turn limit.
func WithTurnBudget(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.turnBudget = n
		}
	}
}

// WithWorkspace scopes task creation to the given workspace.
func WithWorkspace(id string) Option {
	return func(a *Agent) {
		if id != "" {
			a.workspaceID = id
		}
	}
}

// WithSearchTopK sets how many passages search_knowledge_base returns.
func WithSearchTopK(k int) Option {
	return func(a *Agent) {
		if k > 0 {
			a.searchTopK = k
		}
	}
}

// WithTemperature sets the sampling temperature for loop turns.
func WithTemperature(t float64) Option {
	return func(a *Agent) { a.temperature = t }
}

func New(deps Deps, logger log.Logger, opts ...Option) (*Agent, error) {
	switch {
	case deps.Generator == nil:
		return nil, fmt.Errorf("generator is required")
	case deps.Knowledge == nil:
		return nil, fmt.Errorf("knowledge searcher is required")
	case deps.Deep == nil:
		return nil, fmt.Errorf("deep searcher is required")
	case deps.Research == nil:
		return nil, fmt.Errorf("researcher is required")
	case deps.Tasks == nil:
		return nil, fmt.Errorf("task creator is required")
	case deps.Chunks == nil:
		return nil, fmt.Errorf("chunk source is required")
	case logger == nil:
		return nil, fmt.Errorf("logger is required")
	}

	a := &Agent{
		gen:           deps.Generator,
		knowledge:     deps.Knowledge,
		deep:          deps.Deep,
		researcher:    deps.Research,
		tasks:         deps.Tasks,
		chunks:        deps.Chunks,
		logger:        logger.With("component", "agent"),
		workspaceID:   "default",
		turnBudget:    DefaultTurnBudget,
		summaryBudget: DefaultSummaryBudget,
		searchTopK:    knowledge.DefaultTopK,
		temperature:   0.7,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Run executes the loop for one user query. The conversation is
// append-only: the model's view of history always matches the order in
// which tools actually ran. A generation failure is fatal and returned
// to the caller; individual tool failures are fed back to the model as
// tool messages instead.
func (a *Agent) Run(ctx context.Context, query string) (*Outcome, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	conversation := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: query},
	}

	var lastAssistant string
	for turn := 1; turn <= a.turnBudget; turn++ {
		resp, err := a.gen.Generate(ctx, conversation, llm.Options{
			Temperature: a.temperature,
			MaxTokens:   2000,
		})
		if err != nil {
			return nil, fmt.Errorf("generate turn %d: %w", turn, err)
		}
		lastAssistant = resp

		inv, ok := ParseInvocation(resp)
		if !ok || !knownTools[inv.Tool] {
			a.logger.Debug("final answer", "turn", turn)
			return &Outcome{Status: StatusAnswered, Answer: resp, Turns: turn}, nil
		}

		a.logger.Debug("tool invocation", "turn", turn, "tool", inv.Tool)
		conversation = append(conversation, llm.Message{Role: llm.RoleAssistant, Content: resp})
		result := a.dispatch(ctx, inv)
		conversation = append(conversation, llm.Message{Role: llm.RoleTool, Content: result})
	}

	answer := lastAssistant
	if answer == "" {
		answer = exhaustedMessage
	}
	a.logger.Warn("turn budget exhausted", "budget", a.turnBudget)
	return &Outcome{Status: StatusExhausted, Answer: answer, Turns: a.turnBudget}, nil
}
