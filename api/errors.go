package api

import (
	"errors"
	"fmt"
)

var (
	// ErrNoExpectedValue is returned when an expected value is required but not provided
	ErrNoExpectedValue = errors.New("expected value is required for this scorer")
	// ErrLLMGenerationFailed is returned when LLM generation fails
	ErrLLMGenerationFailed = errors.New("LLM generation failed")

	// ErrUnknownMetric is returned when a requested metric is not registered
	ErrUnknownMetric = errors.New("metric is not available")
	// ErrTimeout is returned when a metric does not finish within its timeout
	ErrTimeout = errors.New("metric evaluation timed out")
	// ErrDependencyMissing is returned when the library, model or client backing a metric is unavailable
	ErrDependencyMissing = errors.New("metric dependency is not available")
	// ErrMetricFailed is returned when a metric fails for any other reason, including a panic
	ErrMetricFailed = errors.New("metric evaluation failed")
	// ErrCancelled is returned when the caller went away before evaluation finished
	ErrCancelled = errors.New("evaluation cancelled")
)

// MetricError attaches the metric name to a failure so callers can report which metric aborted a request
type MetricError struct {
	Metric string
	Err    error
}

func (e *MetricError) Error() string {
	return fmt.Sprintf("metric %q: %v", e.Metric, e.Err)
}

func (e *MetricError) Unwrap() error {
	return e.Err
}

// MissingDependency reports that what could not be loaded.
// The returned error always wraps ErrDependencyMissing.
func MissingDependency(what string, err error) error {
	if errors.Is(err, ErrDependencyMissing) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrDependencyMissing, what, err)
}
