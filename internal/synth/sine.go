// Package synth generates reproducible series for experiments and tests.
package synth

import (
	"fmt"
	"math"

	"github.com/valyala/fastrand"

	"github.com/go-sod/wknn/internal/errkind"
)

type Config struct {
	Samples   int
	Period    float64
	Amplitude float64
	// Noise is the half-width of the uniform noise added to every sample.
	Noise float64
	// Seed 0 draws a random seed.
	Seed uint32
}

// Sine returns Samples values of Amplitude*sin(2*pi*i/Period) plus uniform
// noise in [-Noise, Noise]. Equal configs with a non-zero Seed give equal
// series.
func Sine(cfg Config) ([]float32, error) {
	if cfg.Samples < 0 {
		return nil, fmt.Errorf("samples %d is negative: %w", cfg.Samples, errkind.ErrArgument)
	}
	if cfg.Period <= 0 {
		return nil, fmt.Errorf("period %v must be positive: %w", cfg.Period, errkind.ErrArgument)
	}

	var rng fastrand.RNG
	rng.Seed(cfg.Seed)

	out := make([]float32, cfg.Samples)
	for i := range out {
		v := cfg.Amplitude * math.Sin(2*math.Pi*float64(i)/cfg.Period)
		if cfg.Noise > 0 {
			u := float64(rng.Uint32()) / float64(math.MaxUint32)
			v += (2*u - 1) * cfg.Noise
		}
		out[i] = float32(v)
	}
	return out, nil
}
