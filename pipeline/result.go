package pipeline

import (
	"bytes"

	"github.com/go-json-experiment/json/jsontext"
)

// MetricScore is one metric's score in a Result
type MetricScore struct {
	Metric string
	Score  float64
}

// Result is the ordered mapping from requested metric name to score.
// It encodes as a JSON object whose keys follow request order.
type Result struct {
	Scores []MetricScore
}

// Len returns the number of distinct metrics in the result
func (r *Result) Len() int {
	return len(r.Scores)
}

// Get returns the score recorded for metric
func (r *Result) Get(metric string) (float64, bool) {
	for _, s := range r.Scores {
		if s.Metric == metric {
			return s.Score, true
		}
	}
	return 0, false
}

// Map returns the scores as an unordered map
func (r *Result) Map() map[string]float64 {
	out := make(map[string]float64, len(r.Scores))
	for _, s := range r.Scores {
		out[s.Metric] = s.Score
	}
	return out
}

// MarshalJSON writes the scores as a JSON object in request order.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := jsontext.NewEncoder(&buf)
	if err := enc.WriteToken(jsontext.BeginObject); err != nil {
		return nil, err
	}
	for _, s := range r.Scores {
		if err := enc.WriteToken(jsontext.String(s.Metric)); err != nil {
			return nil, err
		}
		if err := enc.WriteToken(jsontext.Float(s.Score)); err != nil {
			return nil, err
		}
	}
	if err := enc.WriteToken(jsontext.EndObject); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// aggregator collects scores as the pipeline produces them.
// A metric requested twice keeps its first position and its latest score.
type aggregator struct {
	index  map[string]int
	scores []MetricScore
}

func newAggregator(capacity int) *aggregator {
	return &aggregator{
		index:  make(map[string]int, capacity),
		scores: make([]MetricScore, 0, capacity),
	}
}

func (a *aggregator) add(metric string, score float64) {
	if i, ok := a.index[metric]; ok {
		a.scores[i].Score = score
		return
	}
	a.index[metric] = len(a.scores)
	a.scores = append(a.scores, MetricScore{Metric: metric, Score: score})
}

func (a *aggregator) result() *Result {
	return &Result{Scores: a.scores}
}
