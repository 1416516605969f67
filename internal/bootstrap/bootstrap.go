// Package bootstrap wires config, repository, providers, resolver,
// retrieval, generation, and the orchestrator into one App shared by
// cmd/api, cmd/worker, and cmd/cli, so each binary's main only differs
// in which surface (HTTP server, cron scheduler, one-shot CLI) it drives
// the App through.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"marketintel/internal/config"
	"marketintel/internal/embedding"
	"marketintel/internal/enrich"
	"marketintel/internal/generation"
	"marketintel/internal/ingest"
	"marketintel/internal/orchestrator"
	providerpkg "marketintel/internal/provider"
	"marketintel/internal/provider/alphavantage"
	"marketintel/internal/provider/cboe"
	"marketintel/internal/provider/ddg"
	"marketintel/internal/provider/finra"
	"marketintel/internal/provider/finviz"
	"marketintel/internal/provider/fmp"
	"marketintel/internal/provider/fred"
	"marketintel/internal/provider/polygon"
	"marketintel/internal/provider/reddit"
	"marketintel/internal/provider/secedgar"
	"marketintel/internal/provider/snapshot"
	"marketintel/internal/ratelimit"
	"marketintel/internal/repository"
	"marketintel/internal/repository/postgres"
	"marketintel/internal/resolver"
	"marketintel/internal/retrieve"
)

// App holds every long-lived component a binary needs, already wired
// together from config.Settings.
type App struct {
	Config       *config.Settings
	Repo         repository.Repository
	Resolver     *resolver.Resolver
	Retriever    *retrieve.Retriever
	Generation   *generation.Client
	Orchestrator *orchestrator.Orchestrator
	Queue        *ingest.PriorityQueue
	Worker       *ingest.Worker
	Log          zerolog.Logger

	closePool func()
}

// NewLogger builds the process-wide zerolog logger, console-formatted
// for local runs and structured JSON under any other environment.
func NewLogger(cfg *config.Settings) zerolog.Logger {
	if cfg.DeploymentEnv == "dev" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.ServiceName).Logger()
}

// Build constructs an App from cfg: opens the Postgres pool, builds
// every structured-data provider, wires the entity resolver and hybrid
// retriever, selects the configured LLM backend, and assembles the
// orchestrator. Returns a Close func that releases the pool.
func Build(ctx context.Context, cfg *config.Settings, log zerolog.Logger) (*App, error) {
	pool, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	var repo repository.Repository = pool

	httpClient := resty.New().SetTimeout(30 * time.Second)

	budgets := ratelimit.NewBudgets()
	dispatcher := providerpkg.NewDispatcher(budgets,
		fmp.New(httpClient, cfg.FMPAPIKey, repo),
		secedgar.New(httpClient, cfg.SECEdgarUserAgent, repo),
		fred.New(httpClient, cfg.FREDAPIKey, repo),
		alphavantage.New(httpClient, cfg.AlphaVantageAPIKey, repo),
		polygon.New(httpClient, cfg.PolygonAPIKey, repo),
		cboe.New(httpClient, repo),
		finviz.New(httpClient, repo),
		finra.New(httpClient, repo),
		ddg.New(httpClient, repo),
		reddit.New(httpClient, repo),
	)

	yahoo := snapshot.New(httpClient)
	fmpProvider := fmp.New(httpClient, cfg.FMPAPIKey, repo)
	secedgarProvider := secedgar.New(httpClient, cfg.SECEdgarUserAgent, repo)
	res := resolver.New(repo, yahoo, secedgarProvider, fmpProvider)

	embed := embedding.New(httpClient, cfg.OllamaHost, cfg.OllamaEmbedModel, cfg.EmbeddingVectorSize)
	retriever := retrieve.New(repo, embed, log)

	backend := selectBackend(cfg, httpClient)
	var redisClient redis.UniversalClient
	if opts, err := redis.ParseURL(cfg.RedisURL); err == nil {
		redisClient = redis.NewClient(opts)
	} else {
		log.Warn().Err(err).Msg("invalid redis URL, LLM response cache disabled")
	}
	genClient := generation.NewClient(backend, cfg, redisClient, log)
	scenarios := generation.NewScenarioSynthesizer(genClient, cfg.LLMCloudModel)
	backfill := enrich.NewYahooQuarterlyBackfill(httpClient, repo)

	policy := ingest.NewPolicyEngine(httpClient, cfg.IngestUserAgent, cfg.IngestAllowedDomains, cfg.IngestPolicyRequireRobots, cfg.IngestPolicyDenyOnRobotsErr)
	connectors := ingest.NewConnectorRegistry(httpClient)
	worker := ingest.NewWorker(repo, policy, connectors, embed, time.Duration(cfg.IngestMinIntervalSeconds)*time.Second, log)
	queue := ingest.NewPriorityQueue(repo, worker, log)

	orch := orchestrator.New(repo, res, dispatcher, retriever, genClient, yahoo, backfill, scenarios, queue, cfg, log)

	return &App{
		Config:       cfg,
		Repo:         repo,
		Resolver:     res,
		Retriever:    retriever,
		Generation:   genClient,
		Orchestrator: orch,
		Queue:        queue,
		Worker:       worker,
		Log:          log,
		closePool:    pool.Close,
	}, nil
}

// Close releases the underlying database pool.
func (a *App) Close() {
	if a.closePool != nil {
		a.closePool()
	}
}

// selectBackend picks the generation.Backend named by cfg.LLMProvider,
// defaulting to Ollama when the provider string is unrecognized or its
// cloud counterpart has no API key configured.
func selectBackend(cfg *config.Settings, httpClient *resty.Client) generation.Backend {
	switch {
	case cfg.LLMProvider == "gemini" && cfg.GeminiAPIKey != "":
		return generation.NewGeminiBackend(cfg.GeminiAPIKey, cfg.LLMCloudModel)
	case cfg.LLMProvider == "anthropic" && cfg.AnthropicAPIKey != "":
		return generation.NewAnthropicBackend(cfg.AnthropicAPIKey, cfg.LLMCloudModel)
	default:
		return generation.NewOllamaBackend(httpClient, cfg.OllamaHost, cfg.OllamaGenerateModel)
	}
}
