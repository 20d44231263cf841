package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pdiddy/usecase-engine/internal/agent"
	"github.com/pdiddy/usecase-engine/internal/llm"
	"github.com/pdiddy/usecase-engine/internal/metrics"
	"github.com/pdiddy/usecase-engine/internal/pipeline"
	"github.com/pdiddy/usecase-engine/internal/proposal"
	"github.com/pdiddy/usecase-engine/internal/publish"
	"github.com/pdiddy/usecase-engine/internal/research"
	"github.com/pdiddy/usecase-engine/internal/resources"
	"github.com/pdiddy/usecase-engine/internal/scrape"
	"github.com/pdiddy/usecase-engine/internal/store"
	"github.com/pdiddy/usecase-engine/internal/usecases"
	"github.com/pdiddy/usecase-engine/internal/websearch"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

// app owns the long-lived components built from the configuration.
type app struct {
	cfg      types.PipelineConfig
	log      *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	store    *store.Store
	redis    *redis.Client
}

// newApp builds the shared components. withMetrics registers Prometheus
// collectors for commands that expose them.
func newApp(c types.PipelineConfig, l *zap.Logger, withMetrics bool) *app {
	a := &app{cfg: c, log: l}
	if withMetrics {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		a.metrics = metrics.New(a.registry)
	}
	return a
}

// openStore opens the run history. It returns nil when no data directory
// is configured.
func (a *app) openStore() (*store.Store, error) {
	if a.store != nil || a.cfg.Store.DataDir == "" {
		return a.store, nil
	}
	s, err := store.New(a.cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening run history: %w", err)
	}
	a.store = s
	return s, nil
}

// agentOptions builds the model backend and tools shared by the agents.
func (a *app) agentOptions(ctx context.Context) (agent.Options, error) {
	backend, err := llm.New(a.cfg.AI)
	if err != nil {
		return agent.Options{}, err
	}

	searcher, err := websearch.NewSearcher(a.cfg.Search, nil, a.log)
	if err != nil {
		return agent.Options{}, err
	}
	if a.cfg.Search.RedisAddr != "" {
		client, err := websearch.DialRedis(ctx, a.cfg.Search.RedisAddr)
		if err != nil {
			a.log.Warn("search cache disabled", zap.String("addr", a.cfg.Search.RedisAddr), zap.Error(err))
		} else {
			a.redis = client
			searcher.Cache = websearch.NewRedisCache(client, a.cfg.Search.CacheTTL)
		}
	}

	opts := agent.Options{
		Backend:    backend,
		Searcher:   searcher,
		Agent:      a.cfg.Agent,
		MaxRetries: a.cfg.AI.MaxRetries,
		MaxTokens:  a.cfg.AI.MaxTokens,
		Counter:    llm.DefaultCounter(),
		Logger:     a.log,
		Metrics:    a.metrics,
	}
	if a.cfg.Agent.EnablePageReader {
		opts.Fetcher = scrape.New(a.cfg.Scrape)
	}
	return opts, nil
}

// system wires the full pipeline. Banners go to out.
func (a *app) system(ctx context.Context, out io.Writer) (*pipeline.System, error) {
	opts, err := a.agentOptions(ctx)
	if err != nil {
		return nil, err
	}

	links := resources.LinkChecking{
		Enabled:     a.cfg.LinkCheck.Enabled,
		Client:      &http.Client{Timeout: a.cfg.LinkCheck.Timeout},
		Concurrency: a.cfg.LinkCheck.Concurrency,
	}
	sys := &pipeline.System{
		Research:  research.New(opts),
		UseCases:  usecases.New(opts),
		Resources: resources.New(opts, links),
		Proposal: &proposal.Generator{
			Backend:    opts.Backend,
			MaxRetries: a.cfg.AI.MaxRetries,
			MaxTokens:  a.cfg.AI.MaxTokens,
			Logger:     a.log,
			Metrics:    a.metrics,
		},
		Writer:  &proposal.Writer{Dir: a.cfg.Output.Dir},
		Metrics: a.metrics,
		Logger:  a.log,
		Out:     out,
	}

	st, err := a.openStore()
	if err != nil {
		return nil, err
	}
	if st != nil {
		sys.Store = st
	}

	pub, err := publish.NewS3Publisher(ctx, a.cfg.Publish)
	if err != nil {
		return nil, err
	}
	if pub != nil {
		sys.Publisher = pub
	}
	return sys, nil
}

// Close releases the store and cache connections.
func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("closing run history", zap.Error(err))
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
