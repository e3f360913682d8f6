package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"rate limit", errString("API rate limit exceeded"), true},
		{"quota", errString("Quota Exceeded for project"), true},
		{"http 429", errString("unexpected status 429"), true},
		{"http 503", errString("503 Service Unavailable"), true},
		{"connection reset", errString("read: connection reset by peer"), true},
		{"connection refused", errString("dial tcp: connection refused"), true},
		{"timeout", errString("request timeout"), true},
		{"bad request", errString("invalid request payload"), false},
		{"auth failure", errString("401 unauthorized"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryableError(tt.err))
		})
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Greater(t, cfg.MaxInterval, cfg.InitialInterval)
}

type errString string

func (e errString) Error() string { return string(e) }
