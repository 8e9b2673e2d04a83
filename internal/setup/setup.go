package setup

import (
	"context"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/davecgh/go-spew/spew"
	"github.com/kelseyhightower/envconfig"

	"github.com/go-sod/wknn/internal/cache"
	"github.com/go-sod/wknn/internal/database"
	"github.com/go-sod/wknn/internal/dispatcher"
	"github.com/go-sod/wknn/internal/errkind"
	"github.com/go-sod/wknn/internal/logging"
	"github.com/go-sod/wknn/internal/metrics"
	"github.com/go-sod/wknn/internal/predictor"
	"github.com/go-sod/wknn/internal/predictor/knn"
	resultDb "github.com/go-sod/wknn/internal/result/database"
	"github.com/go-sod/wknn/internal/result/model"
	"github.com/go-sod/wknn/internal/series"
	"github.com/go-sod/wknn/internal/srvenv"
	"github.com/go-sod/wknn/internal/target"
)

type ConfigFileProvider interface {
	ConfigFile() string
}

type PredictorConfigProvider interface {
	PredictConfig() *predictor.Config
}

type DatabaseConfigProvider interface {
	DatabaseConfig() *database.Config
}

type CacheConfigProvider interface {
	CacheConfig() *cache.Config
}

type TargetConfigProvider interface {
	TargetConfig() *target.Config
}

type LoaderConfigProvider interface {
	LoaderConfig() *series.Config
}

// Setup fills config from the environment, overlays the optional TOML file
// and builds the components the config provides for.
func Setup(ctx context.Context, config interface{}) (_ *srvenv.SrvEnv, err error) {
	logger := logging.FromContext(ctx)
	if err := Load(config); err != nil {
		return nil, err
	}
	logger.Debugf("resolved configuration:\n%s", spew.Sdump(config))

	var (
		serverEnvOpts      []srvenv.Option
		db                 *database.DB
		predictCache       cache.Cache
		loaderOpts         []series.Option
		targetSource       target.Source = target.TestTail{}
		predictorProvideFn predictor.ProvideFn
	)

	if loaderConfigProvider, ok := config.(LoaderConfigProvider); ok {
		loaderOpts = loaderConfigProvider.LoaderConfig().Options()
		serverEnvOpts = append(serverEnvOpts, srvenv.WithLoaderOptions(loaderOpts...))
	}

	if dbConfigProvider, ok := config.(DatabaseConfigProvider); ok && dbConfigProvider.DatabaseConfig().Enabled() {
		logger.Info("Configuring db")
		dbFromEnv, err := database.NewFromEnv(ctx, dbConfigProvider.DatabaseConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to database: %w", err)
		}
		db = dbFromEnv
		serverEnvOpts = append(serverEnvOpts, srvenv.WithDatabase(db))
	}
	defer func() {
		if err != nil {
			if closeErr := srvenv.New(serverEnvOpts...).Close(ctx); closeErr != nil {
				logger.Errorf("release partially configured env: %v", closeErr)
			}
		}
	}()

	if cacheConfigProvider, ok := config.(CacheConfigProvider); ok {
		logger.Info("Configuring cache")
		c, err := cache.New(ctx, cacheConfigProvider.CacheConfig())
		if err != nil {
			return nil, fmt.Errorf("unable to connect to cache: %w", err)
		}
		predictCache = c
		serverEnvOpts = append(serverEnvOpts, srvenv.WithCache(predictCache))
	}

	if targetConfigProvider, ok := config.(TargetConfigProvider); ok {
		src, err := target.SourceFor(targetConfigProvider.TargetConfig(), loaderOpts...)
		if err != nil {
			return nil, fmt.Errorf("unable create target source: %w", err)
		}
		targetSource = src
	}

	predictConfigProvider, ok := config.(PredictorConfigProvider)
	if !ok {
		return nil, fmt.Errorf("unable read predictor config")
	}
	cfg := predictConfigProvider.PredictConfig()
	predictorProvideFn, err = ProvidePredictorFor(cfg)
	if err != nil {
		return nil, fmt.Errorf("unable create predictor provide function: %w", err)
	}
	serverEnvOpts = append(serverEnvOpts, srvenv.WithPredictor(predictorProvideFn))

	dispatcherProvideFn := ProvideDispatcherFor(cfg, predictorProvideFn, targetSource, predictCache, db)
	serverEnvOpts = append(serverEnvOpts, srvenv.WithDispatcher(dispatcherProvideFn))

	return srvenv.New(serverEnvOpts...), nil
}

// Load processes the environment into config and then decodes the TOML file
// named by ConfigFile on top of it. Keys present in the file win.
func Load(config interface{}) error {
	if err := envconfig.Process("", config); err != nil {
		return fmt.Errorf("error loading environment variables: %v: %w", err, errkind.ErrArgument)
	}
	fileProvider, ok := config.(ConfigFileProvider)
	if !ok || fileProvider.ConfigFile() == "" {
		return nil
	}
	if _, err := toml.DecodeFile(fileProvider.ConfigFile(), config); err != nil {
		return fmt.Errorf("error decoding %s: %v: %w", fileProvider.ConfigFile(), err, errkind.ErrArgument)
	}
	return nil
}

func ProvidePredictorFor(cfg *predictor.Config) (predictor.ProvideFn, error) {
	if cfg.KNum < 1 {
		return nil, fmt.Errorf("k must be at least 1, got %d: %w", cfg.KNum, errkind.ErrArgument)
	}
	if cfg.Threads < 1 {
		return nil, fmt.Errorf("threads must be at least 1, got %d: %w", cfg.Threads, errkind.ErrArgument)
	}
	if cfg.Width < 1 || cfg.Step < 1 {
		return nil, fmt.Errorf(
			"window width %d and step %d must be positive: %w",
			cfg.Width, cfg.Step, errkind.ErrArgument,
		)
	}
	base := *cfg
	return func(opts ...predictor.Option) (predictor.Regressor, error) {
		jobCfg := base
		for _, f := range opts {
			f(&jobCfg)
		}
		r, err := knn.New(
			knn.WithKNum(jobCfg.KNum),
			knn.WithThreads(jobCfg.Threads),
			knn.WithObserver(metrics.Observe),
		)
		if err != nil {
			return nil, fmt.Errorf("unable create knn instance: %w", err)
		}
		return r, nil
	}, nil
}

func ProvideDispatcherFor(
	cfg *predictor.Config,
	providePredictFn predictor.ProvideFn,
	src target.Source,
	c cache.Cache,
	db *database.DB,
) dispatcher.ProvideFn {
	return func() (dispatcher.Manager, error) {
		opts := []dispatcher.Option{
			dispatcher.WithDefaults(model.Params{
				Width:   cfg.Width,
				Step:    cfg.Step,
				KNum:    cfg.KNum,
				Threads: cfg.Threads,
			}),
			dispatcher.WithTargetSource(src),
		}
		if c != nil {
			opts = append(opts, dispatcher.WithCache(c))
		}
		if db != nil {
			opts = append(opts, dispatcher.WithStore(resultDb.New(db)))
		}
		return dispatcher.New(providePredictFn, opts...)
	}
}
