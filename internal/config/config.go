package wknn

import (
	"github.com/go-sod/wknn/internal/cache"
	"github.com/go-sod/wknn/internal/database"
	"github.com/go-sod/wknn/internal/predict"
	"github.com/go-sod/wknn/internal/predictor"
	"github.com/go-sod/wknn/internal/series"
	"github.com/go-sod/wknn/internal/setup"
	"github.com/go-sod/wknn/internal/target"
)

var (
	_ setup.ConfigFileProvider      = (*Config)(nil)
	_ setup.PredictorConfigProvider = (*Config)(nil)
	_ setup.DatabaseConfigProvider  = (*Config)(nil)
	_ setup.CacheConfigProvider     = (*Config)(nil)
	_ setup.TargetConfigProvider    = (*Config)(nil)
	_ setup.LoaderConfigProvider    = (*Config)(nil)
)

// StdoutOutput selects standard output as the prediction sink.
const StdoutOutput = "-"

type Config struct {
	File           string `envconfig:"WKNN_CONFIG_FILE" toml:"-"`
	Output         string `envconfig:"WKNN_OUTPUT" default:"-" toml:"output"`
	SrvAddr        string `envconfig:"WKNN_ADDR" default:":8787" toml:"addr"`
	GRPCAddr       string `envconfig:"WKNN_GRPC_ADDR" default:":8788" toml:"grpc_addr"`
	MaxConnections int    `envconfig:"WKNN_MAX_CONNECTIONS" default:"256" toml:"max_connections"`

	Predictor predictor.Config `toml:"predictor"`
	Loader    series.Config    `toml:"loader"`
	Target    target.Config    `toml:"target"`
	Database  database.Config  `toml:"database"`
	Cache     cache.Config     `toml:"cache"`
	Predict   predict.Config   `toml:"predict"`
}

func (c *Config) ConfigFile() string {
	return c.File
}

func (c *Config) DatabaseConfig() *database.Config {
	return &c.Database
}

func (c *Config) CacheConfig() *cache.Config {
	return &c.Cache
}

func (c *Config) PredictConfig() *predictor.Config {
	return &c.Predictor
}

func (c *Config) TargetConfig() *target.Config {
	return &c.Target
}

func (c *Config) LoaderConfig() *series.Config {
	return &c.Loader
}
