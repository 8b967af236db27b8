package api

import (
	"context"
	"strings"
	"sync"
)

// ReferenceRole says which ScoreInputs field a metric's reference text fills
type ReferenceRole int

const (
	// ReferenceExpected passes the reference as the expected answer; an empty reference scores neutral
	ReferenceExpected ReferenceRole = iota
	// ReferenceInput passes the reference as context for judging the candidate alone
	ReferenceInput
	// ReferenceUnused ignores the reference
	ReferenceUnused
)

// ScorerMetric exposes a Scorer as a Metric.
// build runs at most once, on the first evaluation that needs it; if it fails
// every evaluation reports ErrDependencyMissing.
// An empty candidate, or an empty reference under ReferenceExpected, scores
// NeutralScore without building the scorer.
func ScorerMetric(name string, role ReferenceRole, build func() (Scorer, error)) Metric {
	return &scorerMetric{
		name:   name,
		role:   role,
		scorer: sync.OnceValues(build),
	}
}

type scorerMetric struct {
	name   string
	role   ReferenceRole
	scorer func() (Scorer, error)
}

func (m *scorerMetric) Name() string { return m.name }

func (m *scorerMetric) Evaluate(ctx context.Context, candidate, reference string) (float64, error) {
	if strings.TrimSpace(candidate) == "" {
		return NeutralScore, nil
	}

	in := ScoreInputs{Output: candidate}
	switch m.role {
	case ReferenceExpected:
		if strings.TrimSpace(reference) == "" {
			return NeutralScore, nil
		}
		in.Expected = reference
	case ReferenceInput:
		in.Input = reference
	}

	scorer, err := m.scorer()
	if err != nil {
		return 0, MissingDependency(m.name, err)
	}

	result := scorer.Score(ctx, in)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.Score, nil
}
