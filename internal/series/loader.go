// Package series reads flat single-precision sample series from text sources.
package series

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-sod/wknn/internal/errkind"
	"github.com/go-sod/wknn/internal/logging"
)

const (
	DefaultInitialCap = 500
	DefaultGrowStep   = 500
	DefaultMaxSamples = 1 << 26
)

type Option func(*loader)

func WithInitialCap(n int) Option {
	return func(l *loader) {
		l.opts.initialCap = n
	}
}

func WithGrowStep(n int) Option {
	return func(l *loader) {
		l.opts.growStep = n
	}
}

// WithMaxSamples caps the buffer; reading past the cap fails with errkind.ErrAllocation.
func WithMaxSamples(n int) Option {
	return func(l *loader) {
		l.opts.maxSamples = n
	}
}

type Options struct {
	initialCap int
	growStep   int
	maxSamples int
}

var defaultOptions = Options{
	initialCap: DefaultInitialCap,
	growStep:   DefaultGrowStep,
	maxSamples: DefaultMaxSamples,
}

type loader struct {
	opts Options
	buf  []float32
}

func newLoader(opts ...Option) *loader {
	l := &loader{opts: defaultOptions}
	for _, f := range opts {
		f(l)
	}
	if l.opts.initialCap < 1 {
		l.opts.initialCap = DefaultInitialCap
	}
	if l.opts.growStep < 1 {
		l.opts.growStep = DefaultGrowStep
	}
	if l.opts.maxSamples > 0 && l.opts.initialCap > l.opts.maxSamples {
		l.opts.initialCap = l.opts.maxSamples
	}
	return l
}

// Load opens path, reads every sample from it and closes it before returning.
func Load(ctx context.Context, path string, opts ...Option) ([]float32, error) {
	logger := logging.FromContext(ctx)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v: %w", path, err, errkind.ErrIO)
	}
	defer f.Close()

	buf, err := Read(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	logger.Debugf("loaded %d samples from %s", len(buf), path)

	return buf, nil
}

// Read parses whitespace separated floats from r until EOF. The first token
// that does not parse as a float ends the series; the samples before it are
// returned without an error.
func Read(r io.Reader, opts ...Option) ([]float32, error) {
	l := newLoader(opts...)
	l.buf = make([]float32, 0, l.opts.initialCap)

	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		value, err := strconv.ParseFloat(scanner.Text(), 32)
		if err != nil {
			break
		}
		if err := l.append(float32(value)); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan samples: %v: %w", err, errkind.ErrIO)
	}

	return l.buf, nil
}

func (l *loader) append(v float32) error {
	if len(l.buf) == cap(l.buf) {
		if err := l.grow(); err != nil {
			return err
		}
	}
	l.buf = append(l.buf, v)
	return nil
}

// grow extends capacity by a fixed step rather than doubling.
func (l *loader) grow() error {
	if l.opts.maxSamples > 0 && len(l.buf) >= l.opts.maxSamples {
		return fmt.Errorf("series exceeds %d samples: %w", l.opts.maxSamples, errkind.ErrAllocation)
	}
	next := cap(l.buf) + l.opts.growStep
	if l.opts.maxSamples > 0 && next > l.opts.maxSamples {
		next = l.opts.maxSamples
	}
	buf := make([]float32, len(l.buf), next)
	copy(buf, l.buf)
	l.buf = buf
	return nil
}
