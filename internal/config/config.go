package nspec

import (
	"nspec/internal/cache"
	"nspec/internal/database"
	"nspec/internal/fit"
	"nspec/internal/fitter"
	"nspec/internal/fitter/continuum"
	"nspec/internal/ingest"
	"nspec/internal/normalize"
	"nspec/internal/pick"
	"nspec/internal/session"
	"nspec/internal/setup"
)

var (
	_ setup.DatabaseConfigProvider = (*Config)(nil)
	_ setup.FitterConfigProvider   = (*Config)(nil)
	_ setup.SessionConfigProvider  = (*Config)(nil)
	_ setup.CacheConfigProvider    = (*Config)(nil)
)

type Config struct {
	SrvAddr   string `envconfig:"NSPEC_ADDR" default:":8787"`
	Database  database.Config
	Session   session.Config
	Fitter    fitter.Config
	Continuum continuum.Config
	Cache     cache.Config
	Ingest    ingest.Config
	Pick      pick.Config
	Fit       fit.Config
	Normalize normalize.Config
}

func (c Config) DatabaseConfig() *database.Config {
	return &c.Database
}

func (c Config) SessionConfig() *session.Config {
	return &c.Session
}

func (c Config) FitterType() fitter.AlgType {
	return c.Fitter.Type
}

func (c Config) FitterConfig() *continuum.Config {
	return &c.Continuum
}

func (c Config) CacheConfig() *cache.Config {
	return &c.Cache
}
