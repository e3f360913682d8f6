package agent

import (
	"encoding/json"

	"github.com/mossbase/moss/internal/jsonx"
)

// Invocation is a tool call extracted from a model response. It lives
// only as long as the turn that produced it.
type Invocation struct {
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters"`
}

// ParseInvocation extracts a tool invocation from model output. Models
// often wrap the JSON in commentary or code fences, so the first
// balanced object span is scanned out rather than requiring the whole
// message to be JSON. Anything without both a tool name and a
// parameters object is treated as a plain-text answer, not an error.
func ParseInvocation(text string) (*Invocation, bool) {
	obj, err := jsonx.FirstObject(text)
	if err != nil {
		return nil, false
	}
	var inv Invocation
	if err := json.Unmarshal([]byte(obj), &inv); err != nil {
		return nil, false
	}
	if inv.Tool == "" || inv.Parameters == nil {
		return nil, false
	}
	return &inv, true
}
