// Package server exposes the evaluation pipeline over HTTP.
//
//	POST /evaluate     {"candidate": "...", "reference": "...", "metrics": ["bertscore"]}
//	GET  /v1/metrics   registered metric names
//	GET  /healthz      liveness
//	GET  /metrics      Prometheus exposition
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/datar-psa/evalservice/api"
	"github.com/datar-psa/evalservice/executor"
	"github.com/datar-psa/evalservice/observability"
	"github.com/datar-psa/evalservice/pipeline"
	"github.com/datar-psa/evalservice/registry"
	"github.com/datar-psa/evalservice/translate"
)

// StatusClientClosedRequest is reported when the client went away or the
// server cancelled the request before a result was ready.
const StatusClientClosedRequest = 499

// maxBodyBytes caps the /evaluate request body.
const maxBodyBytes = 4 << 20

// Config wires a Handler.
type Config struct {
	Registry *registry.Registry
	Executor *executor.Executor
	Pipeline *pipeline.Pipeline
	// Preprocessor translates texts before evaluation; nil disables translation
	Preprocessor *translate.Preprocessor
	// Metrics may be nil
	Metrics *observability.Metrics
	// Gatherer backs GET /metrics; nil uses prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer
}

// Handler serves the evaluation API.
type Handler struct {
	cfg     Config
	handler http.Handler
}

// New creates a Handler and registers its routes.
func New(cfg Config) *Handler {
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	h := &Handler{cfg: cfg}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /evaluate", h.evaluate)
	mux.HandleFunc("GET /v1/metrics", h.listMetrics)
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	h.handler = otelhttp.NewHandler(withRequestContext(mux), "evalservice",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}))
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.handler.ServeHTTP(w, r)
}

// EvaluateRequest is the POST /evaluate body. Metrics absent or null selects
// pipeline.DefaultMetrics; an empty list evaluates nothing.
type EvaluateRequest struct {
	Candidate *string   `json:"candidate"`
	Reference *string   `json:"reference"`
	Metrics   *[]string `json:"metrics"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.FromContext(ctx)

	var body EvaluateRequest
	if err := json.UnmarshalRead(http.MaxBytesReader(w, r.Body, maxBodyBytes), &body); err != nil {
		h.invalid(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if body.Candidate == nil {
		h.invalid(w, "field 'candidate' is required")
		return
	}
	if body.Reference == nil {
		h.invalid(w, "field 'reference' is required")
		return
	}

	req := pipeline.Request{
		Candidate: *body.Candidate,
		Reference: *body.Reference,
		Metrics:   pipeline.DefaultMetrics,
	}
	if body.Metrics != nil {
		req.Metrics = *body.Metrics
	}

	if h.cfg.Preprocessor != nil {
		req.Candidate, req.Reference = h.translate(ctx, req.Candidate, req.Reference)
	}

	res, err := h.cfg.Pipeline.Run(ctx, req, func() bool { return r.Context().Err() != nil })
	outcome := pipeline.Outcome(err)
	h.cfg.Metrics.ObserveRequest(outcome)
	if err != nil {
		status, detail := statusFor(err)
		logger.Info("evaluation failed", "outcome", outcome, "status", status, "err", err)
		if status == StatusClientClosedRequest {
			w.WriteHeader(status)
			return
		}
		writeJSON(w, status, ErrorResponse{Detail: detail})
		return
	}

	logger.Debug("evaluation completed", "metrics", len(res.Scores))
	writeJSON(w, http.StatusOK, res)
}

// translate applies the preprocessor to both texts within one metric timeout.
func (h *Handler) translate(ctx context.Context, candidate, reference string) (string, string) {
	tctx, cancel := context.WithTimeout(ctx, h.cfg.Executor.Timeout())
	defer cancel()
	return h.cfg.Preprocessor.Apply(tctx, candidate), h.cfg.Preprocessor.Apply(tctx, reference)
}

func (h *Handler) invalid(w http.ResponseWriter, detail string) {
	h.cfg.Metrics.ObserveRequest(observability.OutcomeInvalid)
	writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Detail: detail})
}

// statusFor maps a pipeline error to its HTTP status and detail message.
func statusFor(err error) (int, string) {
	name := ""
	cause := err
	var me *api.MetricError
	if errors.As(err, &me) {
		name, cause = me.Metric, me.Err
	}

	switch {
	case errors.Is(err, api.ErrCancelled):
		return StatusClientClosedRequest, ""
	case errors.Is(err, api.ErrUnknownMetric):
		return http.StatusBadRequest, fmt.Sprintf("Metric '%s' is not available", name)
	case errors.Is(err, api.ErrTimeout):
		return http.StatusGatewayTimeout, fmt.Sprintf("Metric '%s' evaluation timed out", name)
	default:
		return http.StatusInternalServerError, cause.Error()
	}
}

// MetricsResponse is the GET /v1/metrics body.
type MetricsResponse struct {
	Metrics []string `json:"metrics"`
	Timeout string   `json:"timeout"`
}

func (h *Handler) listMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MetricsResponse{
		Metrics: h.cfg.Registry.Names(),
		Timeout: h.cfg.Executor.Timeout().Round(time.Millisecond).String(),
	})
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.MarshalWrite(w, v); err != nil {
		slog.Warn("write response failed", "err", err)
	}
}
