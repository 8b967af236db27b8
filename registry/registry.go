// Package registry maps metric names to Metric instances.
//
// A Registry is built once at process start, handed to the request pipeline,
// and only read afterwards. There is no way to remove a metric.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/datar-psa/evalservice/api"
)

// Registry holds the metrics the service can dispatch to.
type Registry struct {
	mu      sync.RWMutex
	metrics map[string]api.Metric
}

// New creates a registry pre-populated with metrics.
// A later metric with the same name replaces an earlier one.
func New(metrics ...api.Metric) *Registry {
	r := &Registry{metrics: make(map[string]api.Metric, len(metrics))}
	for _, m := range metrics {
		r.Register(m)
	}
	return r
}

// Register adds m under m.Name(), overwriting any metric already registered under that name.
func (r *Registry) Register(m api.Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics[m.Name()] = m
}

// Get returns the metric registered under name.
// The only error it returns wraps api.ErrUnknownMetric.
func (r *Registry) Get(name string) (api.Metric, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not registered", api.ErrUnknownMetric, name)
	}
	return m, nil
}

// Available returns a snapshot of the registered metrics. Mutating the
// returned map does not affect the registry.
func (r *Registry) Available() map[string]api.Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]api.Metric, len(r.metrics))
	for name, m := range r.metrics {
		out[name] = m
	}
	return out
}

// Names returns the registered metric names in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Filter returns a new registry holding only the metrics whose names are in
// enabled. An empty enabled list keeps everything. Names in enabled that are
// not registered are returned so the caller can report them.
func (r *Registry) Filter(enabled []string) (*Registry, []string) {
	if len(enabled) == 0 {
		return New(r.list()...), nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := New()
	var missing []string
	for _, name := range enabled {
		m, ok := r.metrics[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		out.Register(m)
	}
	return out, missing
}

func (r *Registry) list() []api.Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]api.Metric, 0, len(r.metrics))
	for _, m := range r.metrics {
		out = append(out, m)
	}
	return out
}
