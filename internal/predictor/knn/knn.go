// Package knn implements brute-force k-nearest-neighbour regression over
// sliding windows.
package knn

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sod/wknn/internal/errkind"
	"github.com/go-sod/wknn/internal/geom"
	"github.com/go-sod/wknn/internal/predictor"
	"github.com/go-sod/wknn/internal/window"
	"github.com/go-sod/wknn/pkg/pqueue"
	"github.com/go-sod/wknn/pkg/rworker"
)

var _ predictor.Regressor = (*Regressor)(nil)

const (
	DefaultKNum    = 10
	DefaultThreads = 2
)

type Option func(*Regressor)

func WithKNum(k int) Option {
	return func(r *Regressor) {
		r.kNum = k
	}
}

// WithThreads fixes the number of workers scanning test rows.
func WithThreads(n int) Option {
	return func(r *Regressor) {
		r.threads = n
	}
}

func WithObserver(fn predictor.Observer) Option {
	return func(r *Regressor) {
		r.observer = fn
	}
}

func New(opts ...Option) (*Regressor, error) {
	r := &Regressor{
		kNum:    DefaultKNum,
		threads: DefaultThreads,
	}
	for _, f := range opts {
		f(r)
	}
	if r.kNum < 1 {
		return nil, fmt.Errorf("k must be at least 1, got %d: %w", r.kNum, errkind.ErrPrecondition)
	}
	if r.threads < 1 {
		return nil, fmt.Errorf("threads must be at least 1, got %d: %w", r.threads, errkind.ErrPrecondition)
	}
	return r, nil
}

type Regressor struct {
	kNum     int
	threads  int
	observer predictor.Observer
}

// NeighborSet lists the nearest training rows of one test row, closest first.
type NeighborSet struct {
	Indices   []int
	Distances []float32
}

func (r *Regressor) KNum() int {
	return r.kNum
}

func (r *Regressor) Threads() int {
	return r.threads
}

// Predict returns, for every test row, the mean target of its k nearest
// training rows. Rows are independent; each worker reuses its own
// neighbour queue and writes only its row's slot.
func (r *Regressor) Predict(ctx context.Context, train, test window.View, targets []float32) ([]float32, error) {
	if err := r.validate(train, test, targets); err != nil {
		return nil, err
	}

	start := time.Now()
	workers := r.workers(test.Rows())
	predictions := make([]float32, test.Rows())
	queues := make([]*pqueue.Queue, workers)
	for i := range queues {
		queues[i] = pqueue.New(r.kNum)
	}

	if err := rworker.Run(ctx, workers, test.Rows(), func(_ context.Context, worker, row int) error {
		nn := queues[worker]
		nn.Reset()
		scan(nn, train, test.Row(row))
		if err := r.checkFilled(nn, row); err != nil {
			return err
		}
		predictions[row] = mean(nn, targets)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("predict %d rows: %w", test.Rows(), err)
	}

	if r.observer != nil {
		r.observer(ctx, test.Rows(), time.Since(start))
	}
	return predictions, nil
}

// Neighbors runs the same scan as Predict and returns every row's set.
func (r *Regressor) Neighbors(ctx context.Context, train, test window.View) ([]NeighborSet, error) {
	if err := r.validateGeometry(train, test); err != nil {
		return nil, err
	}

	sets := make([]NeighborSet, test.Rows())
	if err := rworker.Run(ctx, r.workers(test.Rows()), test.Rows(), func(_ context.Context, _, row int) error {
		nn := pqueue.New(r.kNum)
		scan(nn, train, test.Row(row))
		if err := r.checkFilled(nn, row); err != nil {
			return err
		}
		set := NeighborSet{
			Indices:   make([]int, r.kNum),
			Distances: make([]float32, r.kNum),
		}
		copy(set.Indices, nn.Items())
		copy(set.Distances, nn.Priorities())
		sets[row] = set
		return nil
	}); err != nil {
		return nil, fmt.Errorf("neighbors of %d rows: %w", test.Rows(), err)
	}
	return sets, nil
}

// workers never exceeds the number of rows to scan.
func (r *Regressor) workers(rows int) int {
	if r.threads < rows {
		return r.threads
	}
	return rows
}

// checkFilled rejects a row left with fewer than k neighbours because its
// distances overflowed to +Inf.
func (r *Regressor) checkFilled(nn *pqueue.Queue, row int) error {
	if n := nn.Len(); n < r.kNum {
		return fmt.Errorf(
			"test row %d has %d of %d neighbours at a finite distance: %w",
			row, n, r.kNum, errkind.ErrPrecondition,
		)
	}
	return nil
}

func (r *Regressor) validateGeometry(train, test window.View) error {
	if train.Rows() < 1 || test.Rows() < 1 {
		return fmt.Errorf(
			"empty views: %d train rows, %d test rows: %w",
			train.Rows(), test.Rows(), errkind.ErrPrecondition,
		)
	}
	if train.Width() != test.Width() {
		return fmt.Errorf(
			"train width %d differs from test width %d: %w",
			train.Width(), test.Width(), errkind.ErrPrecondition,
		)
	}
	if r.kNum > train.Rows() {
		return fmt.Errorf(
			"k=%d exceeds %d training rows: %w",
			r.kNum, train.Rows(), errkind.ErrPrecondition,
		)
	}
	if err := train.CheckFinite(); err != nil {
		return fmt.Errorf("train series: %w", err)
	}
	if err := test.CheckFinite(); err != nil {
		return fmt.Errorf("test series: %w", err)
	}
	return nil
}

func (r *Regressor) validate(train, test window.View, targets []float32) error {
	if err := r.validateGeometry(train, test); err != nil {
		return err
	}
	if len(targets) != train.Rows() {
		return fmt.Errorf(
			"%d targets for %d training rows: %w",
			len(targets), train.Rows(), errkind.ErrPrecondition,
		)
	}
	if err := window.CheckFinite(targets); err != nil {
		return fmt.Errorf("targets: %w", err)
	}
	return nil
}

// scan compares vec with every training row in ascending order. Rows are
// never pruned; the queue only keeps strict improvements.
func scan(nn *pqueue.Queue, train window.View, vec []float32) {
	for j := 0; j < train.Rows(); j++ {
		nn.Push(j, geom.Euclidean(vec, train.Row(j)))
	}
}

// mean sums targets in neighbour order with an accumulator local to the row.
func mean(nn *pqueue.Queue, targets []float32) float32 {
	var sum float32
	items := nn.Items()
	for _, idx := range items {
		sum += targets[idx]
	}
	return sum / float32(len(items))
}
