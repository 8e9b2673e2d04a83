package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	wknn "github.com/go-sod/wknn/internal/config"
	"github.com/go-sod/wknn/internal/dispatcher"
	"github.com/go-sod/wknn/internal/errkind"
	"github.com/go-sod/wknn/internal/logging"
	"github.com/go-sod/wknn/internal/metrics"
	"github.com/go-sod/wknn/internal/series"
	"github.com/go-sod/wknn/internal/setup"
	"github.com/go-sod/wknn/internal/shutdown"
	"github.com/go-sod/wknn/pkg/rworker"
)

const usage = "usage: %s <train-file> <test-file>\n"

var errUsage = fmt.Errorf("expected train and test file arguments: %w", errkind.ErrArgument)

func main() {
	ctx, done := shutdown.New()
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	done()

	if err != nil {
		if errors.Is(err, errUsage) {
			_, _ = fmt.Fprintf(os.Stderr, usage, filepath.Base(os.Args[0]))
		}
		logging.FromContext(ctx).Errorf("wknn: %v", err)
		os.Exit(errkind.ExitCode(err))
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	if len(args) != 2 {
		return fmt.Errorf("got %d: %w", len(args), errUsage)
	}

	config := wknn.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer func() {
		if closeErr := env.Close(ctx); closeErr != nil && err == nil {
			err = fmt.Errorf("env.Close: %w", closeErr)
		}
	}()

	inputs := make([][]float32, len(args))
	if err := rworker.Run(ctx, len(args), len(args), func(ctx context.Context, _, idx int) error {
		data, err := series.Load(ctx, args[idx], env.LoaderOptions()...)
		if err != nil {
			return err
		}
		inputs[idx] = data
		return nil
	}); err != nil {
		return fmt.Errorf("load series: %w", err)
	}

	manager, err := env.ProvideDispatcher()()
	if err != nil {
		return fmt.Errorf("dispatcher provider function error: %w", err)
	}

	ctx = metrics.WithSource(ctx, metrics.SourceCLI)
	r, err := manager.Predict(ctx, dispatcher.Job{
		Train:       inputs[0],
		Test:        inputs[1],
		TrainSource: args[0],
		TestSource:  args[1],
	})
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}

	_, _ = fmt.Fprintf(stderr, "elapsed time: %f seconds\n", r.Elapsed.Seconds())
	if r.Cached {
		logging.FromContext(ctx).Infof("run %s served from cache", r.ID)
	}

	return writePredictions(config.Output, stdout, r.Predictions)
}

// writePredictions prints one value per line to stdout when output is "-"
// and to the named file otherwise.
func writePredictions(output string, stdout io.Writer, predictions []float32) (err error) {
	sink := stdout
	if output != "" && output != wknn.StdoutOutput {
		f, createErr := os.Create(output)
		if createErr != nil {
			return fmt.Errorf("create output %s: %v: %w", output, createErr, errkind.ErrIO)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output %s: %v: %w", output, closeErr, errkind.ErrIO)
			}
		}()
		sink = f
	}

	w := bufio.NewWriter(sink)
	buf := make([]byte, 0, 32)
	for _, p := range predictions {
		buf = strconv.AppendFloat(buf[:0], float64(p), 'g', -1, 32)
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write predictions: %v: %w", err, errkind.ErrIO)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write predictions: %v: %w", err, errkind.ErrIO)
	}
	return nil
}
