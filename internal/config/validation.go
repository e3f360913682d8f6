package config

import (
	"fmt"
	"os"
	"slices"
)

var (
	ErrConfigNil            = fmt.Errorf("configuration is nil")
	ErrInvalidProvider      = fmt.Errorf("invalid provider")
	ErrMissingAPIKey        = fmt.Errorf("missing API key")
	ErrInvalidModelName     = fmt.Errorf("invalid model name")
	ErrInvalidEmbedderModel = fmt.Errorf("invalid embedder model")
	ErrInvalidTemperature   = fmt.Errorf("invalid temperature")
	ErrInvalidMaxTokens     = fmt.Errorf("invalid max tokens")
	ErrInvalidOllamaHost    = fmt.Errorf("invalid Ollama host")
	ErrInvalidTopK          = fmt.Errorf("invalid search top k")
	ErrInvalidExpansion     = fmt.Errorf("invalid expansion count")
	ErrInvalidRerankTimeout = fmt.Errorf("invalid rerank timeout")
	ErrInvalidTurnBudget    = fmt.Errorf("invalid turn budget")
	ErrInvalidResearchDepth = fmt.Errorf("invalid research depth")
	ErrInvalidWorkspace     = fmt.Errorf("invalid workspace")
	ErrInvalidPostgresHost  = fmt.Errorf("invalid PostgreSQL host")
	ErrInvalidPostgresPort  = fmt.Errorf("invalid PostgreSQL port")
	ErrInvalidPostgresDB    = fmt.Errorf("invalid PostgreSQL database name")
	ErrInvalidSSLMode       = fmt.Errorf("invalid PostgreSQL SSL mode")
)

var validSSLModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

// Validate checks all configuration values. Returns sentinel errors
// checkable with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	switch c.Provider {
	case ProviderOllama:
		if c.OllamaHost == "" {
			return fmt.Errorf("%w: ollama_host cannot be empty", ErrInvalidOllamaHost)
		}
	case ProviderGemini:
		if os.Getenv("GEMINI_API_KEY") == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required for provider gemini",
				ErrMissingAPIKey)
		}
	default:
		return fmt.Errorf("%w: %q (expected %q or %q)",
			ErrInvalidProvider, c.Provider, ProviderOllama, ProviderGemini)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("%w: must be positive, got %d", ErrInvalidMaxTokens, c.MaxTokens)
	}

	if c.SearchTopK < 1 || c.SearchTopK > 20 {
		return fmt.Errorf("%w: must be between 1 and 20, got %d", ErrInvalidTopK, c.SearchTopK)
	}
	if c.ExpansionCount < 1 || c.ExpansionCount > 3 {
		return fmt.Errorf("%w: must be between 1 and 3, got %d", ErrInvalidExpansion, c.ExpansionCount)
	}
	if c.RerankTimeoutSec < 1 || c.RerankTimeoutSec > 120 {
		return fmt.Errorf("%w: must be between 1 and 120 seconds, got %d", ErrInvalidRerankTimeout, c.RerankTimeoutSec)
	}

	if c.TurnBudget < 1 || c.TurnBudget > 32 {
		return fmt.Errorf("%w: must be between 1 and 32, got %d", ErrInvalidTurnBudget, c.TurnBudget)
	}
	if c.ResearchDepth < 1 || c.ResearchDepth > 5 {
		return fmt.Errorf("%w: must be between 1 and 5, got %d", ErrInvalidResearchDepth, c.ResearchDepth)
	}
	if c.Workspace == "" {
		return fmt.Errorf("%w: workspace cannot be empty", ErrInvalidWorkspace)
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDB)
	}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q", ErrInvalidSSLMode, c.PostgresSSLMode)
	}

	return nil
}
