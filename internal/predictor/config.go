package predictor

// Config carries the window geometry and the regressor knobs.
type Config struct {
	Width   int `envconfig:"WKNN_WINDOW_WIDTH" default:"100" toml:"window_width"`
	Step    int `envconfig:"WKNN_WINDOW_STEP" default:"2" toml:"window_step"`
	KNum    int `envconfig:"WKNN_K_NUM" default:"10" toml:"k_num"`
	Threads int `envconfig:"WKNN_THREADS" default:"2" toml:"threads"`
}

func (c Config) PredictorConfig() Config {
	return c
}
