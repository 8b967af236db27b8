package heuristic

import (
	"context"
	"time"

	"github.com/datar-psa/evalservice/api"
)

// DefaultSlowDelay is how long the slow metric blocks
const DefaultSlowDelay = 5 * time.Second

// SlowMetric simulates a heavy computation: it blocks for delay without
// watching its context and then scores 0. It exists to exercise timeouts.
func SlowMetric(delay time.Duration) api.Metric {
	if delay <= 0 {
		delay = DefaultSlowDelay
	}
	return api.MetricFunc("slow", func(context.Context, string, string) (float64, error) {
		time.Sleep(delay)
		return api.NeutralScore, nil
	})
}
