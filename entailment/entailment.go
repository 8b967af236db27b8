// Package entailment scores how well a candidate text is supported by a reference
// text using a natural language inference classifier, in the manner of SummaC:
// both texts are split into units, every (reference unit, candidate unit) pair is
// classified, and each candidate unit keeps its best entailment and worst
// contradiction.
//
//	score = mean(max entailment per candidate unit) - alpha * mean(max contradiction per candidate unit)
package entailment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/datar-psa/evalservice/api"
	"github.com/datar-psa/evalservice/segment"
)

// Options configures an entailment metric
type Options struct {
	// Granularity of the compared units; empty means sentence
	Granularity segment.Granularity
	// Alpha weighs the contradiction penalty; zero scores entailment only
	Alpha float64
	// Segmenter splits sentences; nil uses segment.Rule
	Segmenter api.Segmenter
}

// Breakdown is the detailed result of one comparison
type Breakdown struct {
	Score             float64             `json:"score"`
	EntailMean        float64             `json:"entail_mean"`
	ContradMean       float64             `json:"contrad_mean"`
	PerCandMaxEntail  []float64           `json:"per_cand_max_entail"`
	PerCandMaxContrad []float64           `json:"per_cand_max_contrad"`
	NRef              int                 `json:"n_ref"`
	NCand             int                 `json:"n_cand"`
	Granularity       segment.Granularity `json:"granularity"`
}

// Metric is an entailment metric. It implements api.Metric and api.Scorer.
type Metric struct {
	name       string
	opts       Options
	classifier func() (api.NLIClassifier, error)
}

// New creates an entailment metric registered under name.
// load builds the classifier; it runs at most once, on the first comparison that needs it.
func New(name string, load func() (api.NLIClassifier, error), opts Options) *Metric {
	if opts.Granularity == "" {
		opts.Granularity = segment.Sentence
	}
	if load == nil {
		load = func() (api.NLIClassifier, error) {
			return nil, errors.New("no NLI classifier configured")
		}
	}
	return &Metric{
		name:       name,
		opts:       opts,
		classifier: sync.OnceValues(load),
	}
}

func (m *Metric) Name() string { return m.name }

// Evaluate implements api.Metric
func (m *Metric) Evaluate(ctx context.Context, candidate, reference string) (float64, error) {
	b, err := m.Compare(ctx, candidate, reference)
	if err != nil {
		return 0, err
	}
	return b.Score, nil
}

// Score implements api.Scorer, comparing Output against Expected
func (m *Metric) Score(ctx context.Context, in api.ScoreInputs) api.Score {
	result := api.Score{Name: m.name, Metadata: make(map[string]any)}

	b, err := m.Compare(ctx, in.Output, in.Expected)
	if err != nil {
		result.Error = err
		return result
	}

	result.Score = b.Score
	result.Metadata["entail_mean"] = b.EntailMean
	result.Metadata["contrad_mean"] = b.ContradMean
	result.Metadata["n_ref"] = b.NRef
	result.Metadata["n_cand"] = b.NCand
	result.Metadata["granularity"] = string(b.Granularity)
	return result
}

// Compare scores candidate against reference and reports the per-unit detail.
// When either text has no units the result is a zero Breakdown and the classifier is not loaded.
func (m *Metric) Compare(ctx context.Context, candidate, reference string) (Breakdown, error) {
	b := Breakdown{Granularity: m.opts.Granularity}

	refUnits, err := segment.UnitsWith(ctx, m.opts.Segmenter, reference, m.opts.Granularity)
	if err != nil {
		return b, fmt.Errorf("segment reference: %w", err)
	}
	candUnits, err := segment.UnitsWith(ctx, m.opts.Segmenter, candidate, m.opts.Granularity)
	if err != nil {
		return b, fmt.Errorf("segment candidate: %w", err)
	}
	b.NRef, b.NCand = len(refUnits), len(candUnits)
	if b.NRef == 0 || b.NCand == 0 {
		return b, nil
	}

	clf, err := m.classifier()
	if err != nil {
		return b, api.MissingDependency(m.name, err)
	}

	b.PerCandMaxEntail = make([]float64, 0, b.NCand)
	b.PerCandMaxContrad = make([]float64, 0, b.NCand)
	for _, cand := range candUnits {
		var maxEntail, maxContrad float64
		for _, ref := range refUnits {
			scores, err := clf.Classify(ctx, ref, cand)
			if err != nil {
				return b, fmt.Errorf("classify: %w", err)
			}
			maxEntail = max(maxEntail, scores.Entailment)
			maxContrad = max(maxContrad, scores.Contradiction)
		}
		b.PerCandMaxEntail = append(b.PerCandMaxEntail, maxEntail)
		b.PerCandMaxContrad = append(b.PerCandMaxContrad, maxContrad)
	}

	b.EntailMean = mean(b.PerCandMaxEntail)
	b.ContradMean = mean(b.PerCandMaxContrad)
	b.Score = b.EntailMean - m.opts.Alpha*b.ContradMean
	return b, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

var (
	_ api.Metric = (*Metric)(nil)
	_ api.Scorer = (*Metric)(nil)
)
