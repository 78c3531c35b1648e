package setup

import (
	"context"
	"fmt"

	"nspec/internal/cache"
	"nspec/internal/database"
	"nspec/internal/fitter"
	"nspec/internal/fitter/continuum"
	"nspec/internal/logging"
	"nspec/internal/session"
	"nspec/internal/srvenv"

	"github.com/kelseyhightower/envconfig"
)

type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

type FitterConfigProvider interface {
	FitterConfig() *continuum.Config
	FitterType() fitter.AlgType
}

type SessionConfigProvider interface {
	SessionConfig() *session.Config
}

type CacheConfigProvider interface {
	CacheConfig() *cache.Config
}

func Setup(ctx context.Context, config interface{}) (*srvenv.SrvEnv, error) {
	logger := logging.FromContext(ctx)
	var serverEnvOpts []srvenv.Option
	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	var (
		db              *database.DB
		continuumCache  *cache.Cache
		fitterProvideFn fitter.ProvideFn
	)
	if dbConfigProvider, ok := config.(DatabaseConfigProvider); ok {
		logger.Info("Configuring anchor store")
		if err := envconfig.Process("", dbConfigProvider.DatabaseConfig()); err != nil {
			return nil, fmt.Errorf("dont process db env: %w", err)
		}
		dbFromEnv, err := database.NewFromEnv(ctx, dbConfigProvider.DatabaseConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to open anchor store: %v", err)
		}
		db = dbFromEnv
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDatabase(db))
	}

	if cacheConfigProvider, ok := config.(CacheConfigProvider); ok {
		cfg := cacheConfigProvider.CacheConfig()
		if err := envconfig.Process("", cfg); err != nil {
			return nil, fmt.Errorf("dont process cache env: %w", err)
		}
		if len(cfg.Addr) > 0 {
			logger.Info("Configuring continuum cache")
			c, err := cache.New(ctx, cfg)
			if err != nil {
				return nil, fmt.Errorf("unable to connect to redis: %v", err)
			}
			continuumCache = c
			serverEnvOpts = append(serverEnvOpts, srvenv.WithCache(continuumCache))
		}
	}

	if fitterConfigProvider, ok := config.(FitterConfigProvider); ok {
		logger.Info("Configuring continuum fitter")
		provideFn, err := ProvideFitterFor(fitterConfigProvider)
		if err != nil {
			return nil, fmt.Errorf("unable create fitter provide function: %v", err)
		}
		fitterProvideFn = provideFn
		serverEnvOpts = append(serverEnvOpts, srvenv.WithFitter(fitterProvideFn))
	}

	if sessionConfigProvider, ok := config.(SessionConfigProvider); ok {
		logger.Info("Configuring session manager")
		provideFn, err := ProvideSessionsFor(sessionConfigProvider, fitterProvideFn, db, continuumCache)
		if err != nil {
			return nil, fmt.Errorf("unable create session provide function: %v", err)
		}
		serverEnvOpts = append(serverEnvOpts, srvenv.WithSessions(provideFn))
	}

	return srvenv.New(serverEnvOpts...), nil
}

func ProvideFitterFor(provider FitterConfigProvider) (fitter.ProvideFn, error) {
	switch provider.FitterType() {
	case fitter.AlgTypeSpline:
		cfg := provider.FitterConfig()
		if err := envconfig.Process("", cfg); err != nil {
			return nil, fmt.Errorf("error loading environment variables: %w", err)
		}
		return func() (fitter.Fitter, error) {
			f, err := continuum.New(
				continuum.WithLowReject(cfg.LowReject),
				continuum.WithHighReject(cfg.HighReject),
				continuum.WithMaxIterations(cfg.MaxIterations),
			)
			if err != nil {
				return nil, fmt.Errorf("unable create continuum fitter instance: %v", err)
			}
			return f, nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown fitter type: %s", provider.FitterType())
	}
}

func ProvideSessionsFor(
	provider SessionConfigProvider,
	provideFitterFn fitter.ProvideFn,
	db *database.DB,
	continuumCache *cache.Cache,
) (session.ProvideFn, error) {
	cfg := provider.SessionConfig()
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("dont process session env: %w", err)
	}
	return func(shutdownCh chan<- error) (session.Manager, error) {
		opts := []session.Option{
			session.WithMedianWindow(cfg.MedianWindow),
			session.WithMaxAnchorsStored(cfg.MaxAnchorsStored),
			session.WithMaxStorageTime(cfg.MaxStorageTime),
			session.WithRebuildDBTime(cfg.RebuildDBTime),
			session.WithDBFlushTime(cfg.DBFlushTime),
			session.WithDBFlushSize(cfg.DBFlushSize),
		}
		if continuumCache != nil {
			opts = append(opts, session.WithCache(continuumCache))
		}
		return session.New(db, provideFitterFn, shutdownCh, opts...)
	}, nil
}
