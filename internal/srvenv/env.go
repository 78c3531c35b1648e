package srvenv

import (
	"context"

	"nspec/internal/cache"
	"nspec/internal/database"
	"nspec/internal/fitter"
	"nspec/internal/session"
)

type Option func(*SrvEnv) *SrvEnv

func New(opts ...Option) *SrvEnv {
	env := &SrvEnv{}
	for _, f := range opts {
		env = f(env)
	}

	return env
}

type SrvEnv struct {
	database *database.DB
	cache    *cache.Cache
	fitter   fitter.ProvideFn
	sessions session.ProvideFn
}

func (s *SrvEnv) ProvideSessions() session.ProvideFn {
	return s.sessions
}

func (s *SrvEnv) ProvideFitter() fitter.ProvideFn {
	return s.fitter
}

func (s *SrvEnv) Database() *database.DB {
	return s.database
}

func (s *SrvEnv) Cache() *cache.Cache {
	return s.cache
}

func WithSessions(fn session.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.sessions = fn
		return s
	}
}

func WithFitter(fn fitter.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.fitter = fn
		return s
	}
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

func WithCache(c *cache.Cache) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.cache = c
		return s
	}
}

func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			return err
		}
	}
	if s.database != nil {
		return s.database.Close(ctx)
	}
	return nil
}
