// Package metrics records kernel timings with OpenCensus and exposes them in
// the Prometheus text format.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"contrib.go.opencensus.io/exporter/prometheus"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"

	"github.com/go-sod/wknn/internal/predictor"
)

const (
	SourceCLI  = "cli"
	SourceHTTP = "http"
	SourceGRPC = "grpc"
)

var (
	KeySource = tag.MustNewKey("source")

	PredictLatency = stats.Float64("wknn/predict/latency", "Wall time of one prediction pass", stats.UnitMilliseconds)
	PredictRows    = stats.Int64("wknn/predict/rows", "Test rows predicted", stats.UnitDimensionless)
	CacheHits      = stats.Int64("wknn/cache/hits", "Predictions served from cache", stats.UnitDimensionless)
)

var Views = []*view.View{
	{
		Name:        "wknn/predict/latency",
		Measure:     PredictLatency,
		Description: "Distribution of prediction pass wall time",
		TagKeys:     []tag.Key{KeySource},
		Aggregation: view.Distribution(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000),
	},
	{
		Name:        "wknn/predict/rows",
		Measure:     PredictRows,
		Description: "Total test rows predicted",
		TagKeys:     []tag.Key{KeySource},
		Aggregation: view.Sum(),
	},
	{
		Name:        "wknn/predict/count",
		Measure:     PredictRows,
		Description: "Number of prediction passes",
		TagKeys:     []tag.Key{KeySource},
		Aggregation: view.Count(),
	},
	{
		Name:        "wknn/cache/hits",
		Measure:     CacheHits,
		Description: "Predictions served from cache",
		TagKeys:     []tag.Key{KeySource},
		Aggregation: view.Sum(),
	},
}

func Register() error {
	if err := view.Register(Views...); err != nil {
		return fmt.Errorf("register views: %w", err)
	}
	return nil
}

// NewHandler returns the Prometheus scrape endpoint for the registered views.
func NewHandler(namespace string) (http.Handler, error) {
	exporter, err := prometheus.NewExporter(prometheus.Options{Namespace: namespace})
	if err != nil {
		return nil, fmt.Errorf("prometheus exporter: %w", err)
	}
	return exporter, nil
}

// WithSource tags ctx so that every measurement under it carries source.
func WithSource(ctx context.Context, source string) context.Context {
	tagged, err := tag.New(ctx, tag.Upsert(KeySource, source))
	if err != nil {
		return ctx
	}
	return tagged
}

// Observe is a predictor.Observer recording latency and rows.
func Observe(ctx context.Context, rows int, elapsed time.Duration) {
	stats.Record(ctx,
		PredictLatency.M(float64(elapsed)/float64(time.Millisecond)),
		PredictRows.M(int64(rows)),
	)
}

var _ predictor.Observer = Observe

func CacheHit(ctx context.Context) {
	stats.Record(ctx, CacheHits.M(1))
}
