// Package heuristic holds metrics that need no model or remote backend.
package heuristic

import (
	"context"
	"strings"

	"github.com/datar-psa/evalservice/api"
)

// ExactMatchOptions configures the ExactMatch scorer
type ExactMatchOptions struct {
	// CaseInsensitive determines if the comparison should ignore case
	CaseInsensitive bool
	// TrimWhitespace determines if leading and trailing whitespace should be trimmed
	TrimWhitespace bool
	// CollapseWhitespace treats any run of whitespace as a single space; implies TrimWhitespace
	CollapseWhitespace bool
}

// ExactMatch returns a scorer that checks if the output exactly matches the expected value
func ExactMatch(opts ExactMatchOptions) api.Scorer {
	return &exactMatchScorer{opts: opts}
}

// ExactMatchMetric is ExactMatch registered as "exact_match"
func ExactMatchMetric(opts ExactMatchOptions) api.Metric {
	scorer := ExactMatch(opts)
	return api.ScorerMetric("exact_match", api.ReferenceExpected, func() (api.Scorer, error) {
		return scorer, nil
	})
}

type exactMatchScorer struct {
	opts ExactMatchOptions
}

func (s *exactMatchScorer) Score(ctx context.Context, in api.ScoreInputs) api.Score {
	result := api.Score{
		Name:     "ExactMatch",
		Metadata: make(map[string]any),
	}

	if in.Expected == "" {
		result.Error = api.ErrNoExpectedValue
		return result
	}

	if s.normalize(in.Output) == s.normalize(in.Expected) {
		result.Score = 1.0
	}

	result.Metadata["case_insensitive"] = s.opts.CaseInsensitive
	result.Metadata["trim_whitespace"] = s.opts.TrimWhitespace
	result.Metadata["collapse_whitespace"] = s.opts.CollapseWhitespace
	result.Metadata["output_length"] = len(in.Output)
	result.Metadata["expected_length"] = len(in.Expected)

	return result
}

func (s *exactMatchScorer) normalize(text string) string {
	switch {
	case s.opts.CollapseWhitespace:
		text = strings.Join(strings.Fields(text), " ")
	case s.opts.TrimWhitespace:
		text = strings.TrimSpace(text)
	}
	if s.opts.CaseInsensitive {
		text = strings.ToLower(text)
	}
	return text
}
