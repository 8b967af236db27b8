package llmjudge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/datar-psa/evalservice/api"
)

func TestFactualityMetric(t *testing.T) {
	mockLLM := &mockLLMGenerator{response: `{"choice": "A", "explanation": "same"}`}
	m := FactualityMetric(func() (api.LLMGenerator, error) { return mockLLM, nil }, FactualityOptions{})

	if m.Name() != "factuality" {
		t.Errorf("Name() = %q", m.Name())
	}
	got, err := m.Evaluate(context.Background(), "Paris", "The capital is Paris")
	if err != nil {
		t.Fatalf("Evaluate() unexpected error = %v", err)
	}
	if got != 1 {
		t.Errorf("Evaluate() = %v, want 1", got)
	}
	if !strings.Contains(mockLLM.lastPrompt, "[Expert]: The capital is Paris") {
		t.Errorf("reference not passed as expert answer:\n%s", mockLLM.lastPrompt)
	}
}

func TestFactualityMetric_EmptyReferenceIsNeutral(t *testing.T) {
	m := FactualityMetric(func() (api.LLMGenerator, error) {
		t.Fatal("backend loaded for degenerate input")
		return nil, nil
	}, FactualityOptions{})

	got, err := m.Evaluate(context.Background(), "Paris", "")
	if err != nil || got != api.NeutralScore {
		t.Errorf("Evaluate() = %v, %v; want neutral", got, err)
	}
}

func TestTonalityMetric_ReferenceIsContext(t *testing.T) {
	mockLLM := &mockLLMGenerator{response: `{"professionalism": "A", "kindness": "A", "clarity": "A", "helpfulness": "A"}`}
	m := TonalityMetric(func() (api.LLMGenerator, error) { return mockLLM, nil }, TonalityOptions{})

	if _, err := m.Evaluate(context.Background(), "Happy to help.", "Where is my order?"); err != nil {
		t.Fatalf("Evaluate() unexpected error = %v", err)
	}
	if !strings.Contains(mockLLM.lastPrompt, "[Context]: Where is my order?") {
		t.Errorf("reference not passed as context:\n%s", mockLLM.lastPrompt)
	}
}

func TestModerationMetric(t *testing.T) {
	provider := &mockModerationProvider{result: &api.ModerationResult{
		Categories: []api.ModerationCategory{{Name: "Toxic", Confidence: 0.9}},
	}}
	m := ModerationMetric(func() (api.ModerationProvider, error) { return provider, nil }, ModerationOptions{})

	got, err := m.Evaluate(context.Background(), "you are useless", "")
	if err != nil {
		t.Fatalf("Evaluate() unexpected error = %v", err)
	}
	if got != 0 {
		t.Errorf("Evaluate() = %v, want 0 for flagged content", got)
	}
}

func TestMetrics_MissingBackend(t *testing.T) {
	tests := []struct {
		name   string
		metric api.Metric
	}{
		{"nil factuality loader", FactualityMetric(nil, FactualityOptions{})},
		{"failing tonality loader", TonalityMetric(func() (api.LLMGenerator, error) {
			return nil, errors.New("GEMINI_API_KEY is not set")
		}, TonalityOptions{})},
		{"nil moderation loader", ModerationMetric(nil, ModerationOptions{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.metric.Evaluate(context.Background(), "candidate", "reference")
			if !errors.Is(err, api.ErrDependencyMissing) {
				t.Errorf("Evaluate() error = %v, want ErrDependencyMissing", err)
			}
		})
	}
}
