// Package app wires the application together: configuration, logging,
// database pool, Genkit provider plugins, retrieval pipeline and agent.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/time/rate"

	"github.com/mossbase/moss/db"
	"github.com/mossbase/moss/internal/agent"
	"github.com/mossbase/moss/internal/config"
	"github.com/mossbase/moss/internal/knowledge"
	"github.com/mossbase/moss/internal/llm"
	"github.com/mossbase/moss/internal/log"
	"github.com/mossbase/moss/internal/rerank"
	"github.com/mossbase/moss/internal/research"
	"github.com/mossbase/moss/internal/search"
	"github.com/mossbase/moss/internal/tasks"
)

// App is the application container. Construct with Setup, release with
// Close.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit    *genkit.Genkit
	Embedder  ai.Embedder
	Generator llm.Generator
	DBPool    *pgxpool.Pool

	Knowledge  *knowledge.Store
	Reranker   *rerank.Service
	DeepSearch *search.DeepSearch
	Research   *research.Researcher
	Tasks      *tasks.Store
	Agent      *agent.Agent
}

// Setup initializes all components. On error, everything already
// initialized is released before returning.
func Setup(ctx context.Context, cfg *config.Config) (_ *App, retErr error) {
	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), JSON: cfg.LogJSON})
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	pool, err := provideDBPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool

	g, embedder, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g
	a.Embedder = embedder

	// One call every 500ms keeps a single-instance local model responsive.
	limiter := rate.NewLimiter(rate.Every(500*time.Millisecond), 2)
	gen, err := llm.NewGenkitGenerator(g, cfg.FullModelName(), limiter, logger)
	if err != nil {
		return nil, fmt.Errorf("creating generator: %w", err)
	}
	a.Generator = gen

	store, err := knowledge.New(knowledge.NewPGQuerier(pool), embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("creating knowledge store: %w", err)
	}
	a.Knowledge = store

	scorer, err := rerank.NewLLMScorer(gen, logger)
	if err != nil {
		return nil, fmt.Errorf("creating rerank scorer: %w", err)
	}
	reranker, err := rerank.NewService(scorer, time.Duration(cfg.RerankTimeoutSec)*time.Second, logger)
	if err != nil {
		return nil, fmt.Errorf("creating rerank service: %w", err)
	}
	reranker.Start()
	a.Reranker = reranker

	expander, err := search.NewExpander(gen, cfg.ExpansionCount, logger)
	if err != nil {
		return nil, fmt.Errorf("creating expander: %w", err)
	}
	deepSearch, err := search.NewDeepSearch(store, expander, reranker, logger)
	if err != nil {
		return nil, fmt.Errorf("creating deep search: %w", err)
	}
	a.DeepSearch = deepSearch

	researcher, err := research.NewResearcher(gen, deepSearch, logger)
	if err != nil {
		return nil, fmt.Errorf("creating researcher: %w", err)
	}
	a.Research = researcher

	taskStore, err := tasks.New(tasks.NewPGQuerier(pool), logger)
	if err != nil {
		return nil, fmt.Errorf("creating task store: %w", err)
	}
	a.Tasks = taskStore

	ag, err := agent.New(agent.Deps{
		Generator: gen,
		Knowledge: store,
		Deep:      deepSearch,
		Research:  researcher,
		Tasks:     taskStore,
		Chunks:    store,
	}, logger,
		agent.WithTurnBudget(cfg.TurnBudget),
		agent.WithWorkspace(cfg.Workspace),
		agent.WithSearchTopK(cfg.SearchTopK),
		agent.WithTemperature(cfg.Temperature),
	)
	if err != nil {
		return nil, fmt.Errorf("creating agent: %w", err)
	}
	a.Agent = ag

	return a, nil
}

// Close releases all resources. Safe to call on a partially
// initialized App.
func (a *App) Close() error {
	if a.Reranker != nil {
		a.Reranker.Stop()
	}
	if a.DBPool != nil {
		a.DBPool.Close()
	}
	if a.Logger != nil {
		a.Logger.Debug("application closed")
	}
	return nil
}

// provideDBPool runs migrations and opens a connection pool.
func provideDBPool(ctx context.Context, cfg *config.Config, logger log.Logger) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// provideGenkit initializes Genkit with the configured provider plugin
// and returns the registered embedder. Ollama needs explicit model and
// embedder registration; GoogleAI resolves them by name.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, ai.Embedder, error) {
	var (
		g        *genkit.Genkit
		embedder ai.Embedder
	)

	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, nil, errors.New("initializing genkit with ollama provider")
		}
		ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
			Name: cfg.ModelName,
			Type: "chat",
		}, nil)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		embedder = ollama.Embedder(g, cfg.OllamaHost)
		logger.Info("initialized genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)

	case config.ProviderGemini:
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, nil, errors.New("initializing genkit with gemini provider")
		}
		embedder = googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
		logger.Info("initialized genkit with gemini provider", "model", cfg.ModelName)

	default:
		return nil, nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}

	if embedder == nil {
		return nil, nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	return g, embedder, nil
}
