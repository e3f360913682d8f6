package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/mossbase/moss/internal/log"
)

// GenkitGenerator adapts a Genkit model to the Generator interface.
//
// The generation backend is typically single-instance and resource-heavy
// (a locally hosted model), so every call is paced through a rate limiter
// and transient failures are retried with exponential backoff.
type GenkitGenerator struct {
	g         *genkit.Genkit
	modelName string
	limiter   *rate.Limiter
	retry     RetryConfig
	logger    log.Logger
}

// NewGenkitGenerator creates a generator bound to the named model.
// limiter may be nil to disable pacing (tests, trusted backends).
func NewGenkitGenerator(g *genkit.Genkit, modelName string, limiter *rate.Limiter, logger log.Logger) (*GenkitGenerator, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &GenkitGenerator{
		g:         g,
		modelName: modelName,
		limiter:   limiter,
		retry:     DefaultRetryConfig(),
		logger:    logger,
	}, nil
}

// Generate implements Generator. The first system message becomes the model
// system prompt; remaining messages are converted in order.
func (c *GenkitGenerator) Generate(ctx context.Context, messages []Message, opts Options) (string, error) {
	genOpts := []ai.GenerateOption{
		ai.WithModelName(c.modelName),
	}

	var system string
	converted := make([]*ai.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem && system == "" {
			system = m.Content
			continue
		}
		converted = append(converted, &ai.Message{
			Role:    toGenkitRole(m.Role),
			Content: []*ai.Part{ai.NewTextPart(m.Content)},
		})
	}
	if system != "" {
		genOpts = append(genOpts, ai.WithSystem(system))
	}
	genOpts = append(genOpts, ai.WithMessages(converted...))

	cfg := &ai.GenerationCommonConfig{}
	if opts.Temperature > 0 {
		cfg.Temperature = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = opts.MaxTokens
	}
	genOpts = append(genOpts, ai.WithConfig(cfg))

	if opts.JSONMode {
		genOpts = append(genOpts, ai.WithOutputFormat(ai.OutputFormatJSON))
	}

	resp, err := c.generateWithRetry(ctx, genOpts)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// generateWithRetry executes the call with exponential backoff.
// Each attempt, including the first, waits for the rate limiter so retries
// cannot stampede a struggling backend.
func (c *GenkitGenerator) generateWithRetry(ctx context.Context, genOpts []ai.GenerateOption) (*ai.ModelResponse, error) {
	var lastErr error
	delay := c.retry.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait: %w", err)
			}
		}

		resp, err := genkit.Generate(ctx, c.g, genOpts...)
		if err == nil {
			if attempt > 0 {
				c.logger.Debug("generation recovered after retry",
					"attempts", attempt+1, "elapsed", time.Since(start))
			}
			return resp, nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if !retryableError(err) {
			return nil, fmt.Errorf("generate: %w", err)
		}
		if attempt == c.retry.MaxRetries {
			break
		}

		c.logger.Warn("transient generation failure, retrying",
			"attempt", attempt+1, "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > c.retry.MaxInterval {
			delay = c.retry.MaxInterval
		}
	}

	return nil, fmt.Errorf("generate after %d attempts: %w", c.retry.MaxRetries+1, lastErr)
}

// toGenkitRole maps conversation roles onto Genkit message roles.
func toGenkitRole(r Role) ai.Role {
	switch r {
	case RoleAssistant:
		return ai.RoleModel
	case RoleTool:
		return ai.RoleTool
	case RoleSystem:
		return ai.RoleSystem
	default:
		return ai.RoleUser
	}
}

var _ Generator = (*GenkitGenerator)(nil)
