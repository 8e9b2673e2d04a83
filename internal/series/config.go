package series

type Config struct {
	InitialCap int `envconfig:"WKNN_LOADER_INITIAL_CAP" default:"500" toml:"initial_cap"`
	GrowStep   int `envconfig:"WKNN_LOADER_GROW_STEP" default:"500" toml:"grow_step"`
	MaxSamples int `envconfig:"WKNN_LOADER_MAX_SAMPLES" default:"67108864" toml:"max_samples"`
}

func (c Config) Options() []Option {
	return []Option{
		WithInitialCap(c.InitialCap),
		WithGrowStep(c.GrowStep),
		WithMaxSamples(c.MaxSamples),
	}
}
