// Package pipeline evaluates one request's metrics in order.
//
// For every requested name the pipeline resolves the metric in the registry,
// runs it through the executor and, once it has a score, checks whether the
// client is still there before moving on. The first failure of any kind aborts
// the whole request; scores already computed are discarded.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/datar-psa/evalservice/api"
	"github.com/datar-psa/evalservice/executor"
	"github.com/datar-psa/evalservice/observability"
	"github.com/datar-psa/evalservice/registry"
)

// DefaultMetrics are evaluated when a request does not name any
var DefaultMetrics = []string{"bertscore", "summac"}

// State is a step of the per-request state machine
type State int

const (
	StatePending State = iota
	StateResolvingMetric
	StateExecuting
	StateCheckingDisconnect
	StateAggregating
	StateAborted
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolvingMetric:
		return "resolving_metric"
	case StateExecuting:
		return "executing"
	case StateCheckingDisconnect:
		return "checking_disconnect"
	case StateAggregating:
		return "aggregating"
	case StateAborted:
		return "aborted"
	case StateCompleted:
		return "completed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Request is one evaluation request
type Request struct {
	Candidate string
	Reference string
	// Metrics are evaluated strictly in order; duplicates are evaluated again
	Metrics []string
}

// DisconnectCheck reports whether the client that issued the request has gone away
type DisconnectCheck func() bool

// Pipeline evaluates requests against a registry. It is safe for concurrent use.
type Pipeline struct {
	registry *registry.Registry
	executor *executor.Executor
	metrics  *observability.Metrics

	// onTransition is a test hook
	onTransition func(State, string)
}

// New creates a Pipeline. metrics may be nil.
func New(reg *registry.Registry, exec *executor.Executor, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		registry: reg,
		executor: exec,
		metrics:  metrics,
	}
}

// Run evaluates req.Metrics in order and returns their scores.
//
// Every error is a *api.MetricError naming the metric being processed and
// wrapping one of api.ErrUnknownMetric, api.ErrTimeout, api.ErrDependencyMissing,
// api.ErrMetricFailed or api.ErrCancelled. disconnected may be nil, in which
// case only ctx is consulted between metrics.
func (p *Pipeline) Run(ctx context.Context, req Request, disconnected DisconnectCheck) (res *Result, err error) {
	ctx, span := observability.StartSpan(ctx, "evaluate",
		attribute.StringSlice("evalservice.metrics", req.Metrics))
	defer func() { observability.EndSpan(span, err) }()

	logger := observability.FromContext(ctx)
	p.transition(ctx, StatePending, "")

	agg := newAggregator(len(req.Metrics))
	for _, name := range req.Metrics {
		p.transition(ctx, StateResolvingMetric, name)
		m, err := p.registry.Get(name)
		if err != nil {
			return nil, p.abort(ctx, name, err)
		}

		p.transition(ctx, StateExecuting, name)
		score, err := p.evaluate(ctx, m, req)
		if err != nil {
			return nil, p.abort(ctx, name, err)
		}
		agg.add(name, score)

		p.transition(ctx, StateCheckingDisconnect, name)
		if ctx.Err() != nil || (disconnected != nil && disconnected()) {
			logger.Info("client disconnected, stopping evaluation", "after_metric", name)
			return nil, p.abort(ctx, name, fmt.Errorf("%w: client disconnected", api.ErrCancelled))
		}
	}

	p.transition(ctx, StateAggregating, "")
	res = agg.result()
	p.transition(ctx, StateCompleted, "")
	return res, nil
}

func (p *Pipeline) evaluate(ctx context.Context, m api.Metric, req Request) (score float64, err error) {
	ctx, span := observability.StartSpan(ctx, "metric.evaluate",
		attribute.String("evalservice.metric", m.Name()))
	defer func() { observability.EndSpan(span, err) }()

	start := time.Now()
	score, err = p.executor.Run(ctx, m, req.Candidate, req.Reference)
	p.metrics.ObserveEvaluation(m.Name(), Outcome(err), start)
	if err == nil {
		span.SetAttributes(attribute.Float64("evalservice.score", score))
	}
	return score, err
}

func (p *Pipeline) abort(ctx context.Context, name string, err error) error {
	p.transition(ctx, StateAborted, name)
	observability.FromContext(ctx).Debug("evaluation aborted", "metric", name, "err", err)
	return &api.MetricError{Metric: name, Err: err}
}

func (p *Pipeline) transition(ctx context.Context, s State, metric string) {
	if p.onTransition != nil {
		p.onTransition(s, metric)
	}
	observability.FromContext(ctx).Debug("pipeline state", "state", s.String(), "metric", metric)
}

// Outcome maps an evaluation error to the observability outcome label
func Outcome(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeSuccess
	case errors.Is(err, api.ErrUnknownMetric):
		return observability.OutcomeUnknownMetric
	case errors.Is(err, api.ErrTimeout):
		return observability.OutcomeTimeout
	case errors.Is(err, api.ErrCancelled):
		return observability.OutcomeCancelled
	case errors.Is(err, api.ErrDependencyMissing):
		return observability.OutcomeDependencyMissing
	default:
		return observability.OutcomeFailed
	}
}
