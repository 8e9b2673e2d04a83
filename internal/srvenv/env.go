package srvenv

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sod/wknn/internal/cache"
	"github.com/go-sod/wknn/internal/database"
	"github.com/go-sod/wknn/internal/dispatcher"
	"github.com/go-sod/wknn/internal/predictor"
	"github.com/go-sod/wknn/internal/series"
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
	database   *database.DB
	cache      cache.Cache
	loaderOpts []series.Option
	predictor  predictor.ProvideFn
	dispatcher dispatcher.ProvideFn
}

func (s *SrvEnv) ProvideDispatcher() dispatcher.ProvideFn {
	return s.dispatcher
}

func (s *SrvEnv) ProvidePredictor() predictor.ProvideFn {
	return s.predictor
}

func (s *SrvEnv) LoaderOptions() []series.Option {
	return s.loaderOpts
}

func (s *SrvEnv) Database() *database.DB {
	return s.database
}

func (s *SrvEnv) Cache() cache.Cache {
	return s.cache
}

func WithDispatcher(fn dispatcher.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.dispatcher = fn
		return s
	}
}

func WithPredictor(fn predictor.ProvideFn) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.predictor = fn
		return s
	}
}

func WithLoaderOptions(opts ...series.Option) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.loaderOpts = opts
		return s
	}
}

func WithDatabase(db *database.DB) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.database = db
		return s
	}
}

func WithCache(c cache.Cache) Option {
	return func(s *SrvEnv) *SrvEnv {
		s.cache = c
		return s
	}
}

func (s *SrvEnv) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}

	var errs []error
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if s.database != nil {
		if err := s.database.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
