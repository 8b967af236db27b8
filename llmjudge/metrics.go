package llmjudge

import (
	"errors"

	"github.com/datar-psa/evalservice/api"
)

var errNoBackend = errors.New("backend is not configured")

// FactualityMetric judges whether the candidate is factually consistent with the reference.
// load runs once, on first use.
func FactualityMetric(load func() (api.LLMGenerator, error), opts FactualityOptions) api.Metric {
	return api.ScorerMetric("factuality", api.ReferenceExpected, func() (api.Scorer, error) {
		llm, err := loadBackend(load)
		if err != nil {
			return nil, err
		}
		return Factuality(llm, opts), nil
	})
}

// TonalityMetric rates the candidate's tone, using the reference as the context it answers.
func TonalityMetric(load func() (api.LLMGenerator, error), opts TonalityOptions) api.Metric {
	return api.ScorerMetric("tonality", api.ReferenceInput, func() (api.Scorer, error) {
		llm, err := loadBackend(load)
		if err != nil {
			return nil, err
		}
		return Tonality(llm, opts), nil
	})
}

// ModerationMetric scores the candidate 1 when it is safe and 0 when any category is flagged.
// The reference is ignored.
func ModerationMetric(load func() (api.ModerationProvider, error), opts ModerationOptions) api.Metric {
	return api.ScorerMetric("moderation", api.ReferenceUnused, func() (api.Scorer, error) {
		provider, err := loadBackend(load)
		if err != nil {
			return nil, err
		}
		return Moderation(provider, opts), nil
	})
}

func loadBackend[T any](load func() (T, error)) (T, error) {
	if load == nil {
		var zero T
		return zero, errNoBackend
	}
	return load()
}
