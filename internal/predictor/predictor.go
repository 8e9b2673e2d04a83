package predictor

import (
	"context"
	"time"

	"github.com/go-sod/wknn/internal/window"
)

type ProvideFn func(opts ...Option) (Regressor, error)

// Option tunes a regressor built by a ProvideFn for a single job.
type Option func(*Config)

func WithKNum(k int) Option {
	return func(c *Config) {
		c.KNum = k
	}
}

func WithThreads(n int) Option {
	return func(c *Config) {
		c.Threads = n
	}
}

// Observer is called once a prediction finishes with the number of test
// rows and the wall time spent in the kernel.
type Observer func(ctx context.Context, rows int, elapsed time.Duration)

type Regressor interface {
	KNum() int
	Predict(ctx context.Context, train, test window.View, targets []float32) ([]float32, error)
}
