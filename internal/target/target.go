// Package target supplies the value attached to every training window.
package target

import (
	"context"
	"fmt"

	"github.com/go-sod/wknn/internal/errkind"
	"github.com/go-sod/wknn/internal/series"
)

type SourceType string

const (
	SourceTypeTestTail SourceType = "TEST_TAIL"
	SourceTypeFile     SourceType = "FILE"
)

type Config struct {
	Type SourceType `envconfig:"WKNN_TARGET_SOURCE" default:"TEST_TAIL" toml:"source"`
	File string     `envconfig:"WKNN_TARGET_FILE" toml:"file"`
}

// Source produces one target per training row.
type Source interface {
	Targets(ctx context.Context, test []float32, trainRows int) ([]float32, error)
}

var (
	_ Source = TestTail{}
	_ Source = (*File)(nil)
)

// FromTail copies the last trainRows samples of the test series. This is the
// dataset convention the regressor was built around: the tail of the test
// series doubles as the label of each training row.
func FromTail(test []float32, trainRows int) ([]float32, error) {
	if trainRows < 0 || trainRows > len(test) {
		return nil, fmt.Errorf(
			"%d training rows need as many test samples, have %d: %w",
			trainRows, len(test), errkind.ErrPrecondition,
		)
	}
	targets := make([]float32, trainRows)
	copy(targets, test[len(test)-trainRows:])
	return targets, nil
}

type TestTail struct{}

func (TestTail) Targets(_ context.Context, test []float32, trainRows int) ([]float32, error) {
	return FromTail(test, trainRows)
}

// File reads targets from a separate series file and uses its first
// trainRows samples.
type File struct {
	Path string
	Opts []series.Option
}

func (f *File) Targets(ctx context.Context, _ []float32, trainRows int) ([]float32, error) {
	labels, err := series.Load(ctx, f.Path, f.Opts...)
	if err != nil {
		return nil, fmt.Errorf("load targets: %w", err)
	}
	if len(labels) < trainRows {
		return nil, fmt.Errorf(
			"target file %s has %d samples, need %d: %w",
			f.Path, len(labels), trainRows, errkind.ErrPrecondition,
		)
	}
	return labels[:trainRows:trainRows], nil
}

func SourceFor(cfg *Config, opts ...series.Option) (Source, error) {
	switch cfg.Type {
	case SourceTypeTestTail, "":
		return TestTail{}, nil
	case SourceTypeFile:
		if cfg.File == "" {
			return nil, fmt.Errorf("target source %s requires a file: %w", cfg.Type, errkind.ErrArgument)
		}
		return &File{Path: cfg.File, Opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown target source: %s: %w", cfg.Type, errkind.ErrArgument)
	}
}
