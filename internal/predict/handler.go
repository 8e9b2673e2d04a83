package predict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/go-sod/wknn/internal/dispatcher"
	"github.com/go-sod/wknn/internal/httputil"
	"github.com/go-sod/wknn/internal/logging"
	"github.com/go-sod/wknn/internal/metrics"
	resultDb "github.com/go-sod/wknn/internal/result/database"
	"github.com/go-sod/wknn/internal/result/model"
)

const maxBodyBytes = 64 * 1024 * 1024

type request struct {
	Train       []float32    `json:"train"`
	Test        []float32    `json:"test"`
	TrainSource string       `json:"trainSource"`
	TestSource  string       `json:"testSource"`
	Params      model.Params `json:"params"`
}

func NewHandler(cfg *Config, predictor dispatcher.Predictor) (http.Handler, error) {
	if predictor == nil {
		return nil, fmt.Errorf("predictor is not created")
	}
	return &handler{
		cfg:       cfg,
		predictor: predictor,
	}, nil
}

type handler struct {
	predictor dispatcher.Predictor
	cfg       *Config
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	ctx = metrics.WithSource(ctx, metrics.SourceHTTP)
	logger := logging.FromContext(ctx)

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		logger.Debug(fmt.Sprintf(`{"error": "method %v is not allowed"}`, r.Method))
		_, _ = fmt.Fprintf(w, `{"error": "method %v is not allowed"}`, r.Method)
		return
	}

	if t := r.Header.Get("content-type"); len(t) < 16 || t[:16] != "application/json" {
		w.WriteHeader(http.StatusUnsupportedMediaType)
		logger.Debug(fmt.Sprintf(`{"error": "%v"}`, "content-type is not application/json"))
		_, _ = fmt.Fprintf(w, `{"error": "%v"}`, "content-type is not application/json")
		return
	}

	defer r.Body.Close()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	d := json.NewDecoder(r.Body)
	d.DisallowUnknownFields()
	if err := d.Decode(&req); err != nil {
		httputil.DecodeErr(ctx, w, err)
		return
	}

	if len(req.Train) > h.cfg.MaxSamples || len(req.Test) > h.cfg.MaxSamples {
		httputil.RespBadRequest(ctx, w, `{"error": "series is too large, max allowed len is %d"}`, h.cfg.MaxSamples)
		return
	}

	run, err := h.predictor.Predict(ctx, dispatcher.Job{
		Train:       req.Train,
		Test:        req.Test,
		TrainSource: req.TrainSource,
		TestSource:  req.TestSource,
		Params:      req.Params,
	})
	if err != nil {
		httputil.PredictErr(ctx, w, err)
		return
	}
	if err := run.CheckFinite(); err != nil {
		httputil.PredictErr(ctx, w, err)
		return
	}

	writeJSON(ctx, w, run)
}

func NewRunsHandler(finder dispatcher.Finder) http.Handler {
	return &runsHandler{finder: finder}
}

// runsHandler serves GET /runs/{id}.
type runsHandler struct {
	finder dispatcher.Finder
}

func (h *runsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		httputil.RespBadRequest(ctx, w, `{"error": "invalid run id: %v"}`, err)
		return
	}
	run, err := h.finder.Find(ctx, id)
	switch {
	case errors.Is(err, resultDb.ErrNotFound):
		http.Error(w, fmt.Sprintf(`{"error": "run %s not found"}`, id), http.StatusNotFound)
		return
	case errors.Is(err, dispatcher.ErrNoStore):
		http.Error(w, `{"error": "runs are not persisted"}`, http.StatusNotImplemented)
		return
	case err != nil:
		httputil.RespInternalError(ctx, w, `{"error": "find run %s: %v"}`, id, err)
		return
	}
	writeJSON(ctx, w, run)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, v interface{}) {
	bytes, err := json.Marshal(v)
	if err != nil {
		httputil.RespInternalError(ctx, w, `{"error": "failed to encode output json %v"}`, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "%s", bytes)
}
