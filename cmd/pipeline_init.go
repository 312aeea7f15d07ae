package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/phone-insight/internal/cost"
	"github.com/sells-group/phone-insight/internal/pipeline"
	"github.com/sells-group/phone-insight/internal/resilience"
	"github.com/sells-group/phone-insight/internal/store"
	anthropicpkg "github.com/sells-group/phone-insight/pkg/anthropic"
	"github.com/sells-group/phone-insight/pkg/perplexity"
	"github.com/sells-group/phone-insight/pkg/trestle"
)

// pipelineEnv holds the store, guards and pipeline shared by the enrich,
// batch and serve commands.
type pipelineEnv struct {
	Store    store.Store
	Guards   *resilience.Guards
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "phone-insight.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store.database_url is required for postgres")
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore opens and migrates the configured store.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func initGuards() *resilience.Guards {
	breaker := resilience.FromCircuitConfig(cfg.Resilience.FailureThreshold, cfg.Resilience.ResetTimeoutSecs)
	return resilience.NewGuards(breaker, cfg.Research.RatePerSec)
}

// initResearcher builds the Researcher selected by research.provider.
func initResearcher() (pipeline.Researcher, error) {
	opts := pipeline.DefaultResearchOptions()
	opts.Temperature = cfg.Research.Temperature
	opts.MaxTokens = cfg.Research.MaxTokens

	switch cfg.Research.Provider {
	case "", "perplexity":
		opts.Model = cfg.Perplexity.Model
		client := perplexity.NewClient(cfg.Perplexity.Key,
			perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
			perplexity.WithModel(cfg.Perplexity.Model),
		)
		return pipeline.NewPerplexityResearcher(client, opts), nil
	case "anthropic":
		opts.Model = cfg.Anthropic.Model
		return pipeline.NewAnthropicResearcher(anthropicpkg.NewClient(cfg.Anthropic.Key), opts), nil
	default:
		return nil, eris.Errorf("unsupported research provider: %s", cfg.Research.Provider)
	}
}

// initPipeline validates config for mode, opens the store and builds the
// Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	researcher, err := initResearcher()
	if err != nil {
		return nil, err
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	guards := initGuards()
	lookup := trestle.NewClient(cfg.Trestle.Key, trestle.WithBaseURL(cfg.Trestle.BaseURL))

	p := pipeline.New(lookup, researcher,
		pipeline.WithStore(st),
		pipeline.WithGuards(guards),
		pipeline.WithCostCalculator(cost.NewCalculator(cost.FromConfig(cfg.Pricing))),
	)

	zap.L().Info("pipeline ready",
		zap.String("research_provider", researcher.Provider()),
		zap.String("store", cfg.Store.Driver),
	)

	return &pipelineEnv{
		Store:    st,
		Guards:   guards,
		Pipeline: p,
	}, nil
}
