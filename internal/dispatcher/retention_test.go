package dispatcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	resultDb "github.com/go-sod/wknn/internal/result/database"
	"github.com/go-sod/wknn/internal/result/model"
)

func TestRetention_Sweep(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ages := []time.Duration{5 * time.Hour, time.Minute, 3 * time.Hour, 2 * time.Minute, 30 * time.Second}

	tests := []struct {
		name     string
		maxRuns  int
		maxAge   time.Duration
		expected int
	}{
		{name: "disabled", expected: 0},
		{name: "max_runs", maxRuns: 3, expected: 2},
		{name: "max_age", maxAge: time.Hour, expected: 2},
		{name: "max_age_then_max_runs", maxRuns: 1, maxAge: time.Hour, expected: 4},
		{name: "under_limits", maxRuns: 10, maxAge: 24 * time.Hour, expected: 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			runs := make([]model.Run, len(ages))
			for i, age := range ages {
				runs[i] = model.NewRun(model.Params{}, "train", "test")
				runs[i].CreatedAt = now.Add(-age)
			}

			var deleted []uuid.UUID
			r := &Retention{
				maxRuns: tc.maxRuns,
				maxAge:  tc.maxAge,
				listFn: func(context.Context, resultDb.FilterFn) ([]model.Run, error) {
					return append([]model.Run(nil), runs...), nil
				},
				deleteFn: func(_ context.Context, id uuid.UUID) error {
					deleted = append(deleted, id)
					return nil
				},
				now: func() time.Time { return now },
			}

			n, err := r.Sweep(context.Background())
			if err != nil {
				t.Fatalf("the error should not be returned, got %v", err)
			}
			if n != tc.expected || len(deleted) != tc.expected {
				t.Fatalf("deleted got: %d (%d calls), expected: %d", n, len(deleted), tc.expected)
			}
			// the oldest runs go first
			if tc.expected > 0 && deleted[0] != runs[0].ID {
				t.Errorf("first deleted got: %s, expected the oldest run %s", deleted[0], runs[0].ID)
			}
		})
	}
}

func TestRetention_SweepErrors(t *testing.T) {
	t.Parallel()
	listErr := errors.New("list failed")
	r := &Retention{
		maxRuns: 1,
		listFn: func(context.Context, resultDb.FilterFn) ([]model.Run, error) {
			return nil, listErr
		},
		now: time.Now,
	}
	if _, err := r.Sweep(context.Background()); !errors.Is(err, listErr) {
		t.Errorf("error got: %v, expected: %v", err, listErr)
	}

	deleteErr := errors.New("delete failed")
	r.listFn = func(context.Context, resultDb.FilterFn) ([]model.Run, error) {
		return []model.Run{model.NewRun(model.Params{}, "", ""), model.NewRun(model.Params{}, "", "")}, nil
	}
	r.deleteFn = func(context.Context, uuid.UUID) error { return deleteErr }
	if n, err := r.Sweep(context.Background()); !errors.Is(err, deleteErr) || n != 0 {
		t.Errorf("sweep got: %d, %v, expected: 0, %v", n, err, deleteErr)
	}
}

func TestRetention_RunDisabled(t *testing.T) {
	t.Parallel()
	r := &Retention{interval: time.Millisecond}
	if err := r.Run(context.Background()); err != nil {
		t.Errorf("the error should not be returned, got %v", err)
	}
}
