package predict

import "time"

type Config struct {
	RequestTimeout time.Duration `envconfig:"WKNN_PREDICT_REQUEST_TIMEOUT" default:"30s" toml:"request_timeout"`
	MaxSamples     int           `envconfig:"WKNN_PREDICT_MAX_SAMPLES" default:"1000000" toml:"max_samples"`
}
