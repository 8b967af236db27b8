// Package executor runs blocking metric evaluations off the caller's goroutine
// and stops waiting for them once a per-metric timeout elapses or the caller
// is cancelled.
//
// Timing out does not stop the work: Go cannot interrupt a goroutine, so an
// evaluation that ignores its context keeps running in the background until it
// returns on its own. Its result is then dropped. The context handed to the
// metric is cancelled as soon as Run returns so cooperative backends (HTTP
// clients, gRPC stubs) abort early.
package executor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/datar-psa/evalservice/api"
	"github.com/datar-psa/evalservice/observability"
)

// DefaultTimeout bounds a single metric evaluation when no timeout is configured
const DefaultTimeout = 10 * time.Second

// FaultPolicy decides what happens when a metric panics or fails with an
// error that is neither a timeout, a cancellation nor a missing dependency.
type FaultPolicy string

const (
	// FaultFail surfaces the failure as api.ErrMetricFailed and aborts the request
	FaultFail FaultPolicy = "fail"
	// FaultNeutral logs the failure and scores the metric api.NeutralScore,
	// trading correctness for availability
	FaultNeutral FaultPolicy = "neutral"
)

// Options configures an Executor
type Options struct {
	// Timeout bounds each evaluation; zero means DefaultTimeout
	Timeout time.Duration
	// MaxWorkers caps evaluations running at once across all requests; zero means unbounded.
	// Waiting for a free worker counts against the evaluation's timeout.
	MaxWorkers int64
	// FaultPolicy defaults to FaultFail
	FaultPolicy FaultPolicy
}

// Executor runs metric evaluations with a timeout. It is safe for concurrent use.
type Executor struct {
	timeout atomic.Int64
	workers *semaphore.Weighted
	policy  FaultPolicy
}

// New creates an Executor from opts
func New(opts Options) *Executor {
	e := &Executor{policy: opts.FaultPolicy}
	if e.policy == "" {
		e.policy = FaultFail
	}
	if opts.MaxWorkers > 0 {
		e.workers = semaphore.NewWeighted(opts.MaxWorkers)
	}
	e.SetTimeout(opts.Timeout)
	return e
}

// Timeout returns the timeout applied to each evaluation
func (e *Executor) Timeout() time.Duration {
	return time.Duration(e.timeout.Load())
}

// SetTimeout changes the per-evaluation timeout for evaluations started afterwards.
// A non-positive d restores DefaultTimeout.
func (e *Executor) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultTimeout
	}
	e.timeout.Store(int64(d))
}

// FaultPolicy returns the policy applied to failing metrics
func (e *Executor) FaultPolicy() FaultPolicy {
	return e.policy
}

type outcome struct {
	score float64
	err   error
}

// Run evaluates m on its own goroutine and waits for the result.
//
// It returns an error wrapping api.ErrTimeout when the timeout elapses first,
// api.ErrCancelled when ctx is cancelled first, the metric's own error when it
// wraps api.ErrDependencyMissing, and api.ErrMetricFailed for anything else,
// including a NaN or infinite score (unless the fault policy is FaultNeutral). Run never waits past the timeout.
func (e *Executor) Run(ctx context.Context, m api.Metric, candidate, reference string) (float64, error) {
	timeout := e.Timeout()
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if e.workers != nil {
		if err := e.workers.Acquire(runCtx, 1); err != nil {
			return 0, e.stopped(ctx, timeout)
		}
	}

	// Buffered so an abandoned evaluation can always deliver and exit.
	done := make(chan outcome, 1)
	go func() {
		if e.workers != nil {
			defer e.workers.Release(1)
		}
		done <- e.call(runCtx, m, candidate, reference)
	}()

	select {
	case out := <-done:
		if out.err != nil && runCtx.Err() != nil {
			// The metric gave up because its context expired.
			return 0, e.stopped(ctx, timeout)
		}
		return out.score, out.err
	case <-runCtx.Done():
		select {
		case out := <-done:
			if out.err == nil {
				return out.score, nil
			}
		default:
		}
		return 0, e.stopped(ctx, timeout)
	}
}

// stopped classifies why waiting ended: the caller went away or the timeout elapsed.
func (e *Executor) stopped(ctx context.Context, timeout time.Duration) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", api.ErrCancelled, context.Cause(ctx))
	}
	return fmt.Errorf("%w after %s", api.ErrTimeout, timeout)
}

func (e *Executor) call(ctx context.Context, m api.Metric, candidate, reference string) (out outcome) {
	defer func() {
		if p := recover(); p != nil {
			out = e.fault(ctx, m, fmt.Errorf("%w: panic: %v", api.ErrMetricFailed, p))
		}
	}()

	score, err := m.Evaluate(ctx, candidate, reference)
	switch {
	case err == nil && (math.IsNaN(score) || math.IsInf(score, 0)):
		return e.fault(ctx, m, fmt.Errorf("%w: non-finite score %v", api.ErrMetricFailed, score))
	case err == nil:
		return outcome{score: score}
	case errors.Is(err, api.ErrDependencyMissing),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return outcome{err: err}
	default:
		return e.fault(ctx, m, fmt.Errorf("%w: %w", api.ErrMetricFailed, err))
	}
}

func (e *Executor) fault(ctx context.Context, m api.Metric, err error) outcome {
	if e.policy == FaultNeutral {
		observability.FromContext(ctx).Warn("metric failed, scoring neutral",
			"metric", m.Name(), "err", err)
		return outcome{score: api.NeutralScore}
	}
	return outcome{err: err}
}
