// Package testutil provides shared test infrastructure: a
// pattern-matching mock generator, a deterministic embedder and an
// in-memory vector store, plus a PostgreSQL container helper for
// integration tests.
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/mossbase/moss/internal/llm"
)

// MockGenerator provides deterministic generation responses for tests.
// It matches the last user message against registered patterns and
// returns the corresponding response.
//
// Thread-safe for concurrent use.
type MockGenerator struct {
	mu       sync.Mutex
	rules    []mockRule
	fallback string
	calls    []MockCall
}

type mockRule struct {
	pattern  string // substring match, case-insensitive
	response string
	err      error
}

// MockCall records a single call to the mock generator.
type MockCall struct {
	UserMessage string
	Response    string
	Options     llm.Options
}

var _ llm.Generator = (*MockGenerator)(nil)

// NewMockGenerator creates a mock with the given fallback response,
// returned when no pattern matches.
func NewMockGenerator(fallback string) *MockGenerator {
	return &MockGenerator{fallback: fallback}
}

// AddResponse registers a pattern-response pair. When the last user
// message contains the pattern (case-insensitive), the response is
// returned. Patterns are checked in registration order; first match wins.
func (m *MockGenerator) AddResponse(pattern, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{pattern: strings.ToLower(pattern), response: response})
}

// AddError registers a pattern that triggers a generation error.
func (m *MockGenerator) AddError(pattern string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{pattern: strings.ToLower(pattern), err: err})
}

// Calls returns a copy of all recorded calls.
func (m *MockGenerator) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]MockCall, len(m.calls))
	copy(cp, m.calls)
	return cp
}

// Reset clears recorded calls, keeping registered responses.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Generate implements llm.Generator.
func (m *MockGenerator) Generate(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var userText string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleUser {
			userText = messages[i].Content
			break
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	lower := strings.ToLower(userText)
	response := m.fallback
	var err error
	for _, rule := range m.rules {
		if strings.Contains(lower, rule.pattern) {
			response, err = rule.response, rule.err
			break
		}
	}
	if err != nil {
		return "", err
	}

	m.calls = append(m.calls, MockCall{
		UserMessage: userText,
		Response:    response,
		Options:     opts,
	})
	return response, nil
}
