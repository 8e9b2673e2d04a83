package dispatcher

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/go-sod/wknn/internal/database"
	"github.com/go-sod/wknn/internal/logging"
	resultDb "github.com/go-sod/wknn/internal/result/database"
	"github.com/go-sod/wknn/internal/result/model"
)

// abstraction level for listing stored runs
type listRunsFn func(context.Context, resultDb.FilterFn) ([]model.Run, error)

// abstraction level for deleting a stored run
type deleteRunFn func(context.Context, uuid.UUID) error

func NewRetention(db *resultDb.DB, cfg *database.Config) *Retention {
	return &Retention{
		maxRuns:  cfg.MaxRuns,
		maxAge:   cfg.MaxAge,
		interval: cfg.SweepInterval,
		listFn:   db.FindAll,
		deleteFn: db.Delete,
		now:      time.Now,
	}
}

// Retention deletes stored runs that are older than maxAge and, past that,
// the oldest runs beyond maxRuns.
type Retention struct {
	maxRuns  int
	maxAge   time.Duration
	interval time.Duration

	listFn   listRunsFn
	deleteFn deleteRunFn
	now      func() time.Time
}

func (r *Retention) Enabled() bool {
	return r.maxRuns > 0 || r.maxAge > 0
}

// Sweep applies both rules once and returns the number of deleted runs.
func (r *Retention) Sweep(ctx context.Context) (int, error) {
	runs, err := r.listFn(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("unable to list runs: %w", err)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.Before(runs[j].CreatedAt)
	})

	var expired int
	if r.maxAge > 0 {
		now := r.now()
		for expired < len(runs) && now.Sub(runs[expired].CreatedAt) > r.maxAge {
			expired++
		}
	}
	if r.maxRuns > 0 && len(runs)-expired > r.maxRuns {
		expired = len(runs) - r.maxRuns
	}

	for i := 0; i < expired; i++ {
		if err := r.deleteFn(ctx, runs[i].ID); err != nil {
			return i, fmt.Errorf("unable to delete run %s: %w", runs[i].ID, err)
		}
	}
	return expired, nil
}

// Run sweeps on every tick until ctx is done.
func (r *Retention) Run(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	if !r.Enabled() || r.interval <= 0 {
		logger.Debug("run retention is disabled")
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n, err := r.Sweep(ctx)
			if err != nil {
				logger.Errorf("unable to sweep runs: %v", err)
				continue
			}
			if n > 0 {
				logger.Debugf("retention deleted %d runs", n)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
