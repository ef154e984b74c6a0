package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/talent-cli/internal/cache"
	"github.com/sells-group/talent-cli/internal/discovery"
	"github.com/sells-group/talent-cli/internal/enrich"
	"github.com/sells-group/talent-cli/internal/hierarchy"
	"github.com/sells-group/talent-cli/internal/ingest"
	"github.com/sells-group/talent-cli/internal/store"
	"github.com/sells-group/talent-cli/internal/validate"
	"github.com/sells-group/talent-cli/pkg/anthropic"
	"github.com/sells-group/talent-cli/pkg/serp"
)

// env holds the wired collaborators shared by all commands.
type env struct {
	Store        store.Store
	Search       serp.Client
	Validator    *validate.Validator
	Ingestor     *ingest.Ingestor
	Orchestrator *enrich.Orchestrator
}

// initEnv opens the configured store, runs migrations, and wires the
// pipeline.
func initEnv(ctx context.Context) (*env, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}

	search := serp.NewClient(cfg.Search.Key,
		serp.WithBaseURL(cfg.Search.BaseURL),
		serp.WithRateLimit(cfg.Search.RateLimit),
		serp.WithTimeout(time.Duration(cfg.Search.TimeoutSecs)*time.Second),
	)
	ai := anthropic.NewClient(cfg.Anthropic.Key)

	gw := cache.New(st, time.Duration(cfg.Cache.TTLHours)*time.Hour)
	validator := validate.New(cfg.Validate)
	resolver := discovery.NewResolver(search)
	extractor := hierarchy.NewExtractor(search, ai, gw, cfg.Hierarchy, cfg.Anthropic)

	return &env{
		Store:        st,
		Search:       search,
		Validator:    validator,
		Ingestor:     ingest.New(search, st, validator, nil, cfg.Search),
		Orchestrator: enrich.New(st, resolver, extractor, cfg.Enrich),
	}, nil
}

func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func (e *env) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}
