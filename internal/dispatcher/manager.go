package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/go-sod/wknn/internal/cache"
	"github.com/go-sod/wknn/internal/errkind"
	"github.com/go-sod/wknn/internal/logging"
	"github.com/go-sod/wknn/internal/metrics"
	"github.com/go-sod/wknn/internal/predictor"
	resultDb "github.com/go-sod/wknn/internal/result/database"
	"github.com/go-sod/wknn/internal/result/model"
	"github.com/go-sod/wknn/internal/target"
	"github.com/go-sod/wknn/internal/util"
	"github.com/go-sod/wknn/internal/window"
)

// Contract for returning the Manager instance
type ProvideFn func() (Manager, error)

var ErrNoStore = errors.New("results store is not configured")

// Manager runs prediction jobs and serves stored runs.
type Manager interface {
	Predictor
	Finder
}

type Predictor interface {
	Predict(ctx context.Context, job Job) (*model.Run, error)
}

type Finder interface {
	Find(ctx context.Context, id uuid.UUID) (*model.Run, error)
}

// Job is one train/test pair. Zero Params fields fall back to the manager
// defaults.
type Job struct {
	Train       []float32
	Test        []float32
	TrainSource string
	TestSource  string
	Params      model.Params
}

// Abstractions for the results store
type (
	storeRunFn func(context.Context, model.Run) error
	findRunFn  func(context.Context, uuid.UUID) (*model.Run, error)
)

type Options struct {
	defaults   model.Params
	maxThreads int
	targets  target.Source
	cache    cache.Cache
	storeRun storeRunFn
	findRun  findRunFn
}

type Option func(*manager)

func WithDefaults(p model.Params) Option {
	return func(m *manager) {
		m.opts.defaults = p
	}
}

// WithMaxThreads caps the worker count a job may ask for. The default is the
// larger of runtime.NumCPU and the default thread count.
func WithMaxThreads(n int) Option {
	return func(m *manager) {
		m.opts.maxThreads = n
	}
}

func WithTargetSource(src target.Source) Option {
	return func(m *manager) {
		m.opts.targets = src
	}
}

func WithCache(c cache.Cache) Option {
	return func(m *manager) {
		m.opts.cache = c
	}
}

// WithStore persists every finished run and enables Find.
func WithStore(db *resultDb.DB) Option {
	return func(m *manager) {
		if db == nil {
			return
		}
		m.opts.storeRun = db.Store
		m.opts.findRun = db.Find
	}
}

func New(providePredictorFn predictor.ProvideFn, opts ...Option) (*manager, error) {
	if providePredictorFn == nil {
		return nil, fmt.Errorf("predictor instance is not created")
	}
	m := &manager{
		predictorProvideFn: providePredictorFn,
		opts: Options{
			targets: target.TestTail{},
		},
	}
	for _, f := range opts {
		f(m)
	}
	if m.opts.cache == nil {
		m.opts.cache = cache.NewNop()
	}
	if m.opts.maxThreads < 1 {
		m.opts.maxThreads = runtime.NumCPU()
		if m.opts.defaults.Threads > m.opts.maxThreads {
			m.opts.maxThreads = m.opts.defaults.Threads
		}
	}
	return m, nil
}

type manager struct {
	opts Options
	// The factory returns a regressor configured for one job
	predictorProvideFn predictor.ProvideFn
}

func (m *manager) Params(p model.Params) model.Params {
	if p.Width == 0 {
		p.Width = m.opts.defaults.Width
	}
	if p.Step == 0 {
		p.Step = m.opts.defaults.Step
	}
	if p.KNum == 0 {
		p.KNum = m.opts.defaults.KNum
	}
	if p.Threads == 0 {
		p.Threads = m.opts.defaults.Threads
	}
	if p.Threads > m.opts.maxThreads {
		p.Threads = m.opts.maxThreads
	}
	return p
}

// Predict validates the job geometry, then serves the predictions from cache
// or computes them, and records the run.
func (m *manager) Predict(ctx context.Context, job Job) (*model.Run, error) {
	logger := logging.FromContext(ctx)
	params := m.Params(job.Params)

	train, err := window.New(job.Train, params.Width, params.Step)
	if err != nil {
		return nil, fmt.Errorf("train series: %w", err)
	}
	test, err := window.New(job.Test, params.Width, params.Step)
	if err != nil {
		return nil, fmt.Errorf("test series: %w", err)
	}
	if params.KNum < 1 || params.KNum > train.Rows() {
		return nil, fmt.Errorf(
			"k=%d must be within [1, %d] training rows: %w",
			params.KNum, train.Rows(), errkind.ErrPrecondition,
		)
	}

	if err := train.CheckFinite(); err != nil {
		return nil, fmt.Errorf("train series: %w", err)
	}
	if err := test.CheckFinite(); err != nil {
		return nil, fmt.Errorf("test series: %w", err)
	}

	targets, err := m.opts.targets.Targets(ctx, job.Test, train.Rows())
	if err != nil {
		return nil, fmt.Errorf("targets: %w", err)
	}
	if err := window.CheckFinite(targets); err != nil {
		return nil, fmt.Errorf("targets: %w", err)
	}

	run := model.NewRun(params, job.TrainSource, job.TestSource)
	run.TrainRows, run.TestRows = train.Rows(), test.Rows()

	digest := util.HashSeries(params.Ints(), job.Train, job.Test, targets)
	if cached, ok, err := m.opts.cache.Get(ctx, digest); err != nil {
		logger.Errorf("prediction cache lookup failed: %v", err)
	} else if ok && len(cached) == test.Rows() {
		metrics.CacheHit(ctx)
		run.Cached = true
		run.Predictions = cached
		return m.store(ctx, run)
	}

	regressor, err := m.predictorProvideFn(predictor.WithKNum(params.KNum), predictor.WithThreads(params.Threads))
	if err != nil {
		return nil, fmt.Errorf("can not create predictor instance: %w", err)
	}

	start := time.Now()
	predictions, err := regressor.Predict(ctx, train, test, targets)
	if err != nil {
		return nil, err
	}
	run.Elapsed = time.Since(start)
	run.Predictions = predictions
	logger.Debugf("run %s: %d rows in %v", run.ID, run.TestRows, run.Elapsed)

	if err := m.opts.cache.Set(ctx, digest, predictions); err != nil {
		logger.Errorf("prediction cache store failed: %v", err)
	}

	return m.store(ctx, run)
}

func (m *manager) Find(ctx context.Context, id uuid.UUID) (*model.Run, error) {
	if m.opts.findRun == nil {
		return nil, ErrNoStore
	}
	return m.opts.findRun(ctx, id)
}

func (m *manager) store(ctx context.Context, run model.Run) (*model.Run, error) {
	if m.opts.storeRun == nil {
		return &run, nil
	}
	if err := m.opts.storeRun(ctx, run); err != nil {
		return nil, fmt.Errorf("store run %s: %w", run.ID, err)
	}
	return &run, nil
}
