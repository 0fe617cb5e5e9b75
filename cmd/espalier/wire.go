package main

import (
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/espalier-ai/espalier"
	"github.com/espalier-ai/espalier/internal/config"
	"github.com/espalier-ai/espalier/pkg/adapters/memory"
	"github.com/espalier-ai/espalier/pkg/adapters/openai"
	redisadapter "github.com/espalier-ai/espalier/pkg/adapters/redis"
	"github.com/espalier-ai/espalier/pkg/adapters/wikipedia"
	"github.com/espalier-ai/espalier/pkg/persistence/middleware"
	"github.com/espalier-ai/espalier/pkg/ports"
	"github.com/espalier-ai/espalier/pkg/session"
)

// buildTutor assembles the engine from configuration. The extra options let
// callers attach host-specific wiring like notifiers and metrics hooks.
func buildTutor(cfg config.Config, logger *slog.Logger, extra ...espalier.Option) *espalier.Tutor {
	opts := []espalier.Option{espalier.WithLogger(logger)}

	if cfg.Provider.Enabled() {
		var providerOpts []openai.Option
		if cfg.Provider.BaseURL != "" {
			providerOpts = append(providerOpts, openai.WithBaseURL(cfg.Provider.BaseURL))
		}
		if cfg.Provider.Model != "" {
			providerOpts = append(providerOpts, openai.WithModel(cfg.Provider.Model))
		}
		opts = append(opts, espalier.WithProvider(openai.New(cfg.Provider.APIKey, providerOpts...)))
	}

	if cfg.Pipeline.RetrieverEnabled {
		var retrieverOpts []wikipedia.Option
		if cfg.Pipeline.RetrieverUserAgent != "" {
			retrieverOpts = append(retrieverOpts, wikipedia.WithUserAgent(cfg.Pipeline.RetrieverUserAgent))
		}
		opts = append(opts, espalier.WithRetriever(wikipedia.New(retrieverOpts...)))
	}

	if cfg.Pipeline.StepTimeout > 0 {
		opts = append(opts, espalier.WithStepTimeout(cfg.Pipeline.StepTimeout))
	}
	if cfg.Pipeline.ProblemCount > 0 {
		opts = append(opts, espalier.WithProblemCount(cfg.Pipeline.ProblemCount))
	}
	if cfg.Pipeline.DisableFallback {
		opts = append(opts, espalier.WithoutClassifierFallback())
	}

	return espalier.New(append(opts, extra...)...)
}

// buildSessionManager wires the session store, its persistence middleware
// and the manager. With Redis configured the store, artifact cache and
// distributed lock all share one client; otherwise everything stays in
// process memory.
func buildSessionManager(cfg config.Config, logger *slog.Logger) (*session.Manager, ports.ArtifactCache, func(), error) {
	var (
		store       ports.SessionStore
		cache       ports.ArtifactCache
		managerOpts = []session.Option{session.WithLogger(logger)}
		cleanup     = func() {}
	)

	if cfg.Redis.Enabled() {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store = redisadapter.NewStoreFromClient(client, redisadapter.WithTTL(cfg.Redis.SessionTTL))
		cache = redisadapter.NewCacheFromClient(client)
		managerOpts = append(managerOpts, session.WithLocker(redisadapter.NewLocker(client, "")))
		cleanup = func() { _ = client.Close() }
	} else {
		store = memory.NewStore()
		cache = memory.NewCache()
	}

	var mws []middleware.Middleware
	if cfg.Security.RedactIdentity {
		mws = append(mws, middleware.NewIdentityRedaction())
	}
	if cfg.Security.EncryptionEnabled() {
		active, err := cfg.Security.ActiveKey()
		if err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("security config: %w", err)
		}
		fallbacks, err := cfg.Security.DecodedFallbackKeys()
		if err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("security config: %w", err)
		}
		mws = append(mws, middleware.NewEncryption(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallbacks,
		}))
	}
	store = middleware.Chain(store, mws...)

	return session.NewManager(store, managerOpts...), cache, cleanup, nil
}
