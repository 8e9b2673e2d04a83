package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/go-sod/wknn/internal/window"
)

// Params is the geometry and neighbour configuration a run was computed with.
type Params struct {
	Width   int `json:"width"`
	Step    int `json:"step"`
	KNum    int `json:"k"`
	Threads int `json:"threads"`
}

// Ints lists the parameters that shape the output, in a fixed order for
// hashing. Threads is left out: it never changes the predictions.
func (p Params) Ints() []int {
	return []int{p.Width, p.Step, p.KNum}
}

func NewRun(params Params, trainSource, testSource string) Run {
	return Run{
		ID:          uuid.New(),
		Params:      params,
		TrainSource: trainSource,
		TestSource:  testSource,
		CreatedAt:   time.Now().UTC(),
	}
}

// Run is one completed prediction pass and its output.
type Run struct {
	ID          uuid.UUID     `json:"id"`
	Params      Params        `json:"params"`
	TrainSource string        `json:"trainSource"`
	TestSource  string        `json:"testSource"`
	TrainRows   int           `json:"trainRows"`
	TestRows    int           `json:"testRows"`
	Elapsed     time.Duration `json:"elapsed"`
	Cached      bool          `json:"cached"`
	CreatedAt   time.Time     `json:"createdAt"`
	Predictions []float32     `json:"predictions,omitempty"`
}

// CheckFinite fails with ErrPrecondition when a prediction overflowed
// float32. JSON cannot carry such values.
func (r Run) CheckFinite() error {
	if err := window.CheckFinite(r.Predictions); err != nil {
		return fmt.Errorf("run %s predictions: %w", r.ID, err)
	}
	return nil
}
