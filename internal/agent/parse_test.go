package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInvocation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantTool string
		wantOK   bool
	}{
		{
			name:     "bare object",
			input:    `{"tool": "deep_search", "parameters": {"query": "roadmaps"}}`,
			wantTool: "deep_search",
			wantOK:   true,
		},
		{
			name:     "wrapped in prose",
			input:    `I'll search for that. {"tool": "search_knowledge_base", "parameters": {"query": "notes"}} Let me know.`,
			wantTool: "search_knowledge_base",
			wantOK:   true,
		},
		{
			name: "wrapped in code fence",
			input: "```json\n" +
				`{"tool": "create_task", "parameters": {"title": "water plants"}}` +
				"\n```",
			wantTool: "create_task",
			wantOK:   true,
		},
		{
			name:     "empty parameters object",
			input:    `{"tool": "deep_search", "parameters": {}}`,
			wantTool: "deep_search",
			wantOK:   true,
		},
		{
			name:   "plain text answer",
			input:  "Your roadmap covers three quarters of milestones.",
			wantOK: false,
		},
		{
			name:   "object without tool field",
			input:  `{"parameters": {"query": "x"}}`,
			wantOK: false,
		},
		{
			name:   "object without parameters field",
			input:  `{"tool": "deep_search"}`,
			wantOK: false,
		},
		{
			name:   "parameters not an object",
			input:  `{"tool": "deep_search", "parameters": "roadmaps"}`,
			wantOK: false,
		},
		{
			name:   "malformed json",
			input:  `{"tool": "deep_search", "parameters": {`,
			wantOK: false,
		},
		{
			name:   "empty input",
			input:  "",
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, ok := ParseInvocation(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				require.NotNil(t, inv)
				assert.Equal(t, tt.wantTool, inv.Tool)
				assert.NotNil(t, inv.Parameters)
			}
		})
	}
}

func TestParseInvocation_FirstObjectWins(t *testing.T) {
	input := `{"tool": "deep_search", "parameters": {"query": "a"}} {"tool": "create_task", "parameters": {"title": "b"}}`
	inv, ok := ParseInvocation(input)
	require.True(t, ok)
	assert.Equal(t, "deep_search", inv.Tool)
	assert.Equal(t, "a", inv.Parameters["query"])
}
