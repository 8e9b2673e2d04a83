package knn

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/valyala/fastrand"
	"gonum.org/v1/gonum/floats"

	"github.com/go-sod/wknn/internal/errkind"
	"github.com/go-sod/wknn/internal/target"
	"github.com/go-sod/wknn/internal/window"
)

func mustView(t *testing.T, data []float32, w, h int) window.View {
	t.Helper()
	v, err := window.New(data, w, h)
	if err != nil {
		t.Fatalf("window.New: %v", err)
	}
	return v
}

func randomSeries(n int, levels uint32) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = float32(fastrand.Uint32n(levels))
	}
	return s
}

func widen(v []float32) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = float64(v[i])
	}
	return out
}

// bruteForce recomputes every prediction in float64 with gonum, breaking
// distance ties by ascending training row. Inputs are integer valued, so the
// squared distance is rounded back to an integer and ties compare exactly.
func bruteForce(train, test window.View, targets []float32, k int) []float64 {
	out := make([]float64, test.Rows())
	for i := 0; i < test.Rows(); i++ {
		query := widen(test.Row(i))
		idx := make([]int, train.Rows())
		dist := make([]float64, train.Rows())
		for j := range idx {
			idx[j] = j
			d := floats.Distance(query, widen(train.Row(j)), 2)
			dist[j] = math.Round(d * d)
		}
		sort.SliceStable(idx, func(a, b int) bool {
			return dist[idx[a]] < dist[idx[b]]
		})
		var sum float64
		for _, j := range idx[:k] {
			sum += float64(targets[j])
		}
		out[i] = sum / float64(k)
	}
	return out
}

func TestRegressor_PredictScenario(t *testing.T) {
	t.Parallel()
	trainSeries := []float32{1, 2, 2, 3, 3, 4}
	testSeries := []float32{1, 2, 2, 3, 3, 4, 5, 6}
	train := mustView(t, trainSeries, 2, 2)
	test := mustView(t, testSeries, 2, 2)
	targets, err := target.FromTail(testSeries, train.Rows())
	if err != nil {
		t.Fatalf("target.FromTail: %v", err)
	}

	r, err := New(WithKNum(2), WithThreads(2))
	if err != nil {
		t.Fatalf("the error should not be returned, got %v", err)
	}
	got, err := r.Predict(context.Background(), train, test, targets)
	if err != nil {
		t.Fatalf("the error should not be returned, got %v", err)
	}

	expected := []float32{4.5, 4.5, 5.5, 5.5}
	if len(got) != len(expected) {
		t.Fatalf("predictions got: %v, expected: %v", got, expected)
	}
	for i := range expected {
		if math.Abs(float64(got[i]-expected[i])) > 1e-5 {
			t.Errorf("prediction %d got: %v, expected: %v", i, got[i], expected[i])
		}
	}

	sets, err := r.Neighbors(context.Background(), train, test)
	if err != nil {
		t.Fatalf("the error should not be returned, got %v", err)
	}
	// row 1 sits at distance sqrt(2) from rows 0 and 2; the first one scanned stays.
	if sets[1].Indices[0] != 1 || sets[1].Indices[1] != 0 {
		t.Errorf("row 1 neighbours got: %v, expected: [1 0]", sets[1].Indices)
	}
}

func TestRegressor_PredictMatchesBruteForce(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		trainLen int
		testLen  int
		w, h, k  int
		threads  int
		levels   uint32
	}{
		{name: "overlapping", trainLen: 120, testLen: 90, w: 8, h: 2, k: 5, threads: 3, levels: 7},
		{name: "disjoint", trainLen: 200, testLen: 60, w: 10, h: 10, k: 4, threads: 2, levels: 16},
		{name: "single_sample", trainLen: 50, testLen: 40, w: 1, h: 1, k: 3, threads: 4, levels: 5},
		{name: "k_equals_rows", trainLen: 12, testLen: 30, w: 3, h: 3, k: 4, threads: 1, levels: 9},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			trainSeries := randomSeries(test.trainLen, test.levels)
			testSeries := randomSeries(test.testLen, test.levels)
			train := mustView(t, trainSeries, test.w, test.h)
			testView := mustView(t, testSeries, test.w, test.h)
			targets := randomSeries(train.Rows(), 100)

			r, err := New(WithKNum(test.k), WithThreads(test.threads))
			if err != nil {
				t.Fatalf("the error should not be returned, got %v", err)
			}
			got, err := r.Predict(context.Background(), train, testView, targets)
			if err != nil {
				t.Fatalf("the error should not be returned, got %v", err)
			}
			expected := bruteForce(train, testView, targets, test.k)
			for i := range expected {
				if math.Abs(float64(got[i])-expected[i]) > 1e-4 {
					t.Errorf("row %d got: %v, expected: %v", i, got[i], expected[i])
				}
			}
		})
	}
}

func TestRegressor_NeighborsSortedAndUnique(t *testing.T) {
	t.Parallel()
	train := mustView(t, randomSeries(300, 11), 6, 3)
	test := mustView(t, randomSeries(150, 11), 6, 3)
	r, err := New(WithKNum(7), WithThreads(3))
	if err != nil {
		t.Fatalf("the error should not be returned, got %v", err)
	}
	sets, err := r.Neighbors(context.Background(), train, test)
	if err != nil {
		t.Fatalf("the error should not be returned, got %v", err)
	}
	for row, set := range sets {
		seen := map[int]struct{}{}
		for i, idx := range set.Indices {
			if idx < 0 || idx >= train.Rows() {
				t.Fatalf("row %d: neighbour index %d out of range", row, idx)
			}
			if _, ok := seen[idx]; ok {
				t.Errorf("row %d: training row %d appears twice", row, idx)
			}
			seen[idx] = struct{}{}
			if i > 0 && set.Distances[i] < set.Distances[i-1] {
				t.Errorf("row %d: distances not ascending: %v", row, set.Distances)
			}
		}
	}
}

func TestRegressor_KEqualsTrainRows(t *testing.T) {
	t.Parallel()
	train := mustView(t, []float32{4, 1, 3, 2, 5}, 1, 1)
	test := mustView(t, []float32{0, 10}, 1, 1)
	r, err := New(WithKNum(train.Rows()), WithThreads(2))
	if err != nil {
		t.Fatalf("the error should not be returned, got %v", err)
	}
	sets, err := r.Neighbors(context.Background(), train, test)
	if err != nil {
		t.Fatalf("the error should not be returned, got %v", err)
	}
	for row, set := range sets {
		idx := append([]int(nil), set.Indices...)
		sort.Ints(idx)
		for i := range idx {
			if idx[i] != i {
				t.Fatalf("row %d: neighbours %v do not cover every training row once", row, set.Indices)
			}
		}
	}
}

func TestRegressor_SingleSampleWindowsUseAbsoluteDifference(t *testing.T) {
	t.Parallel()
	trainSeries := []float32{0.5, -3, 8, 2.25}
	testSeries := []float32{1, -1.5}
	train := mustView(t, trainSeries, 1, 1)
	test := mustView(t, testSeries, 1, 1)
	r, err := New(WithKNum(4), WithThreads(1))
	if err != nil {
		t.Fatalf("the error should not be returned, got %v", err)
	}
	sets, err := r.Neighbors(context.Background(), train, test)
	if err != nil {
		t.Fatalf("the error should not be returned, got %v", err)
	}
	for row, set := range sets {
		for i, idx := range set.Indices {
			expected := float32(math.Abs(float64(testSeries[row] - trainSeries[idx])))
			if set.Distances[i] != expected {
				t.Errorf("row %d neighbour %d distance got: %v, expected: %v", row, idx, set.Distances[i], expected)
			}
		}
	}
}

func TestRegressor_PredictIsDeterministic(t *testing.T) {
	t.Parallel()
	trainSeries := make([]float32, 400)
	testSeries := make([]float32, 300)
	for i := range trainSeries {
		trainSeries[i] = float32(math.Sin(float64(i)/7)) + float32(fastrand.Uint32n(1000))/1e4
	}
	for i := range testSeries {
		testSeries[i] = float32(math.Sin(float64(i)/7+0.3)) + float32(fastrand.Uint32n(1000))/1e4
	}
	train := mustView(t, trainSeries, 20, 2)
	test := mustView(t, testSeries, 20, 2)
	targets, err := target.FromTail(testSeries, train.Rows())
	if err != nil {
		t.Fatalf("target.FromTail: %v", err)
	}

	var baseline []float32
	for _, threads := range []int{1, 1, 2, 5, 16} {
		r, err := New(WithKNum(10), WithThreads(threads))
		if err != nil {
			t.Fatalf("the error should not be returned, got %v", err)
		}
		got, err := r.Predict(context.Background(), train, test, targets)
		if err != nil {
			t.Fatalf("the error should not be returned, got %v", err)
		}
		if baseline == nil {
			baseline = got
			continue
		}
		for i := range got {
			if math.Float32bits(got[i]) != math.Float32bits(baseline[i]) {
				t.Fatalf("threads=%d row %d got: %v, expected bit-identical %v", threads, i, got[i], baseline[i])
			}
		}
	}
}

func TestRegressor_Preconditions(t *testing.T) {
	t.Parallel()
	train := mustView(t, []float32{1, 2, 2, 3, 3, 4}, 2, 2)
	test := mustView(t, []float32{1, 2, 2, 3}, 2, 2)
	wide := mustView(t, []float32{1, 2, 3, 4}, 3, 1)
	tests := []struct {
		name    string
		k       int
		train   window.View
		test    window.View
		targets []float32
	}{
		{name: "k_exceeds_train_rows", k: 4, train: train, test: test, targets: []float32{1, 2, 3}},
		{name: "targets_mismatch", k: 2, train: train, test: test, targets: []float32{1, 2}},
		{name: "width_mismatch", k: 1, train: train, test: wide, targets: []float32{1, 2, 3}},
		{name: "empty_test", k: 1, train: train, test: window.View{}, targets: []float32{1, 2, 3}},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			var observed bool
			r, err := New(WithKNum(test.k), WithObserver(func(context.Context, int, time.Duration) {
				observed = true
			}))
			if err != nil {
				t.Fatalf("the error should not be returned, got %v", err)
			}
			got, err := r.Predict(context.Background(), test.train, test.test, test.targets)
			if !errors.Is(err, errkind.ErrPrecondition) {
				t.Errorf("error got: %v, expected: %v", err, errkind.ErrPrecondition)
			}
			if got != nil || observed {
				t.Errorf("no computation may run when preconditions fail")
			}
		})
	}
}

func TestRegressor_NonFiniteInput(t *testing.T) {
	t.Parallel()
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	tests := []struct {
		name    string
		k       int
		train   []float32
		test    []float32
		targets []float32
	}{
		{
			name:    "every_distance_overflows",
			k:       1,
			train:   []float32{1e20, 2e20, 3e20},
			test:    []float32{-1e20, -2e20},
			targets: []float32{1, 2, 3},
		},
		{
			name:    "fewer_than_k_finite_distances",
			k:       2,
			train:   []float32{0, 3e20},
			test:    []float32{1},
			targets: []float32{1, 2},
		},
		{name: "nan_train", k: 1, train: []float32{1, nan, 3}, test: []float32{1}, targets: []float32{1, 2, 3}},
		{name: "inf_test", k: 1, train: []float32{1, 2, 3}, test: []float32{-inf}, targets: []float32{1, 2, 3}},
		{name: "nan_target", k: 1, train: []float32{1, 2, 3}, test: []float32{1}, targets: []float32{1, nan, 3}},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			train := mustView(t, test.train, 1, 1)
			testView := mustView(t, test.test, 1, 1)
			r, err := New(WithKNum(test.k), WithThreads(1))
			if err != nil {
				t.Fatalf("the error should not be returned, got %v", err)
			}
			got, err := r.Predict(context.Background(), train, testView, test.targets)
			if !errors.Is(err, errkind.ErrPrecondition) || got != nil {
				t.Errorf("predict got: %v, %v, expected: %v", got, err, errkind.ErrPrecondition)
			}
			if test.name == "nan_target" {
				return
			}
			if _, err := r.Neighbors(context.Background(), train, testView); !errors.Is(err, errkind.ErrPrecondition) {
				t.Errorf("neighbors error got: %v, expected: %v", err, errkind.ErrPrecondition)
			}
		})
	}
}

func TestRegressor_ThreadsBeyondRows(t *testing.T) {
	t.Parallel()
	train := mustView(t, []float32{1, 2, 2, 3, 3, 4}, 2, 2)
	test := mustView(t, []float32{1, 2, 2, 3, 3, 4, 5, 6}, 2, 2)

	r, err := New(WithKNum(2), WithThreads(1<<50))
	if err != nil {
		t.Fatalf("the error should not be returned, got %v", err)
	}
	got, err := r.Predict(context.Background(), train, test, []float32{4, 5, 6})
	if err != nil {
		t.Fatalf("the error should not be returned, got %v", err)
	}
	expected := []float32{4.5, 4.5, 5.5, 5.5}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("prediction %d got: %v, expected: %v", i, got[i], expected[i])
		}
	}
	if _, err := r.Neighbors(context.Background(), train, test); err != nil {
		t.Errorf("the error should not be returned, got %v", err)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		opts []Option
		err  error
	}{
		{name: "defaults", opts: nil},
		{name: "zero_k", opts: []Option{WithKNum(0)}, err: errkind.ErrPrecondition},
		{name: "zero_threads", opts: []Option{WithThreads(0)}, err: errkind.ErrPrecondition},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			r, err := New(test.opts...)
			if test.err == nil {
				if err != nil || r.KNum() != DefaultKNum || r.Threads() != DefaultThreads {
					t.Errorf("defaults got: %v %v", r, err)
				}
				return
			}
			if !errors.Is(err, test.err) {
				t.Errorf("error got: %v, expected: %v", err, test.err)
			}
		})
	}
}

func TestRegressor_Observer(t *testing.T) {
	t.Parallel()
	var rows int
	r, err := New(WithKNum(1), WithThreads(1), WithObserver(func(_ context.Context, n int, _ time.Duration) {
		rows = n
	}))
	if err != nil {
		t.Fatalf("the error should not be returned, got %v", err)
	}
	train := mustView(t, []float32{1, 2, 3}, 1, 1)
	test := mustView(t, []float32{1, 2}, 1, 1)
	if _, err := r.Predict(context.Background(), train, test, []float32{1, 1, 1}); err != nil {
		t.Fatalf("the error should not be returned, got %v", err)
	}
	if rows != 2 {
		t.Errorf("observed rows got: %d, expected: %d", rows, 2)
	}
}
