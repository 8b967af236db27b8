package llmjudge

import (
	"context"
	"fmt"

	"github.com/datar-psa/evalservice/api"
)

// TonalityOptions configures the Tonality scorer
type TonalityOptions struct {
	// Individual weights; if all are 0, defaults to equal weights
	ProfessionalismWeight float64
	KindnessWeight        float64
	ClarityWeight         float64
	HelpfulnessWeight     float64

	// Threshold: if any used category (non-zero weight) is below this threshold, score becomes 0
	// Range: 0.0-1.0, where 0.0 means no threshold (default)
	Threshold float64
}

var tonalityDimensions = [4]string{"professionalism", "kindness", "clarity", "helpfulness"}

// A is the best rating
var tonalityChoiceScores = map[string]float64{
	"A": 1.0,
	"B": 0.75,
	"C": 0.5,
	"D": 0.25,
	"E": 0.0,
}

// Tonality returns a scorer that evaluates professionalism, kindness, clarity, and helpfulness
// in a single LLM-judge call using anchored A–E categories.
// The final score is a weighted blend of the dimensions, normalized to [0,1].
func Tonality(llm api.LLMGenerator, opts TonalityOptions) api.Scorer {
	return &tonalityScorer{
		opts: opts,
		llm:  llm,
	}
}

type tonalityScorer struct {
	opts TonalityOptions
	llm  api.LLMGenerator
}

const tonalityPromptTemplate = `You are evaluating the tone of a response. Be deterministic and concise.

[BEGIN DATA]
[Context]: %s
[Response]: %s
[END DATA]

Dimension anchors (use these precise anchors, not your own):
- Professionalism:
  A: highly professional; precise, neutral, impeccably formatted
  B: consistently professional; precise and neutral
  C: generally professional; minor informality
  D: frequent informality; repeated imprecision
  E: casual/slang, confrontational, imprecise
- Kindness:
  A: exemplary empathy and care
  B: empathetic, supportive
  C: neutral/polite
  D: occasionally harsh/blaming
  E: hostile, shaming, dismissive
- Clarity:
  A: exceptionally clear; concise and well structured
  B: clear, well-structured
  C: understandable; some redundancy
  D: somewhat unclear; weak structure
  E: hard to understand; disorganized
- Helpfulness:
  A: fully addresses the context; anticipates edge cases
  B: directly addresses the context; actionable
  C: addresses the context; limited actionability
  D: partially relevant
  E: off-topic

Rate each dimension independently with one of A, B, C, D, E.`

func tonalitySchema() map[string]interface{} {
	props := make(map[string]interface{}, len(tonalityDimensions)*2)
	for _, d := range tonalityDimensions {
		props[d] = map[string]interface{}{
			"type":        "string",
			"enum":        []string{"A", "B", "C", "D", "E"},
			"description": d + " rating (A–E) with anchored definitions",
		}
		props[d+"_explanation"] = map[string]interface{}{"type": "string"}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   tonalityDimensions[:],
	}
}

func (s *tonalityScorer) Score(ctx context.Context, in api.ScoreInputs) api.Score {
	result := api.Score{
		Name:     "Tonality",
		Metadata: make(map[string]any),
	}

	if s.llm == nil {
		result.Error = fmt.Errorf("LLM generator is required")
		return result
	}

	prompt := fmt.Sprintf(tonalityPromptTemplate, in.Input, in.Output)
	resp, err := s.llm.StructuredGenerate(ctx, prompt, tonalitySchema())
	if err != nil {
		result.Error = fmt.Errorf("%w: %w", api.ErrLLMGenerationFailed, err)
		return result
	}
	result.Metadata["raw_response"] = resp

	var base [4]float64
	for i, d := range tonalityDimensions {
		choice, ok := resp[d].(string)
		if !ok {
			result.Error = fmt.Errorf("failed to extract %s choice from structured response", d)
			return result
		}
		score, ok := tonalityChoiceScores[choice]
		if !ok {
			result.Error = fmt.Errorf("unknown %s choice %q", d, choice)
			return result
		}
		base[i] = score
		result.Metadata[d+".choice"] = choice
		result.Metadata[d+".score"] = score
	}

	weights := normalizeWeights([4]float64{
		s.opts.ProfessionalismWeight,
		s.opts.KindnessWeight,
		s.opts.ClarityWeight,
		s.opts.HelpfulnessWeight,
	})

	final := 0.0
	for i := range base {
		final += weights[i] * base[i]
		result.Metadata["weights."+tonalityDimensions[i]] = weights[i]
	}

	if s.opts.Threshold > 0 {
		for i := range base {
			if weights[i] > 0 && base[i] < s.opts.Threshold {
				final = 0
				break
			}
		}
	}

	result.Score = final
	result.Metadata["threshold"] = s.opts.Threshold
	return result
}

// normalizeWeights drops negative weights and scales the rest to sum to 1.
// All-zero weights become equal weights.
func normalizeWeights(w [4]float64) [4]float64 {
	sum := 0.0
	for i := range w {
		if w[i] < 0 {
			w[i] = 0
		}
		sum += w[i]
	}
	if sum == 0 {
		return [4]float64{0.25, 0.25, 0.25, 0.25}
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}
