package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-sod/wknn/internal/errkind"
	"github.com/go-sod/wknn/internal/logging"
	"github.com/go-sod/wknn/internal/synth"
)

func main() {
	logger := logging.DefaultLogger()
	if err := run(os.Args[1:], os.Stdout); err != nil {
		logger.Errorf("wknn-gen: %v", err)
		os.Exit(errkind.ExitCode(err))
	}
}

func run(args []string, stdout io.Writer) error {
	var (
		cfg    synth.Config
		seed   uint
		output string
	)
	fs := flag.NewFlagSet("wknn-gen", flag.ContinueOnError)
	fs.IntVar(&cfg.Samples, "n", 10000, "number of samples")
	fs.Float64Var(&cfg.Period, "period", 200, "sine period in samples")
	fs.Float64Var(&cfg.Amplitude, "amplitude", 1, "sine amplitude")
	fs.Float64Var(&cfg.Noise, "noise", 0.05, "half-width of the uniform noise")
	fs.UintVar(&seed, "seed", 1, "noise seed")
	fs.StringVar(&output, "o", "-", "output file, - for stdout")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%v: %w", err, errkind.ErrArgument)
	}
	cfg.Seed = uint32(seed)

	data, err := synth.Sine(cfg)
	if err != nil {
		return err
	}

	sink := stdout
	if output != "-" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create %s: %v: %w", output, err, errkind.ErrIO)
		}
		defer f.Close()
		sink = f
	}

	w := bufio.NewWriter(sink)
	buf := make([]byte, 0, 32)
	for _, v := range data {
		buf = strconv.AppendFloat(buf[:0], float64(v), 'g', -1, 32)
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write: %v: %w", err, errkind.ErrIO)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush: %v: %w", err, errkind.ErrIO)
	}
	return nil
}
