package llmjudge

import (
	"context"
	"fmt"

	"github.com/datar-psa/evalservice/api"
)

// FactualityOptions configures the Factuality scorer
type FactualityOptions struct {
	// ChoiceScores overrides the score awarded for each verdict; missing choices fall back to the defaults
	ChoiceScores map[string]float64
}

// factualityChoiceScores maps the judge's verdict onto [0,1]
var factualityChoiceScores = map[string]float64{
	"A": 1.0, // same details
	"B": 0.6, // consistent superset
	"C": 0.8, // differences do not matter factually
	"D": 0.4, // consistent subset
	"E": 0.0, // disagreement
}

// Factuality returns a scorer that asks an LLM whether Output is factually consistent with Expected.
// The judge answers with one of five anchored choices and a short explanation.
func Factuality(llm api.LLMGenerator, opts FactualityOptions) api.Scorer {
	return &factualityScorer{llm: llm, opts: opts}
}

type factualityScorer struct {
	llm  api.LLMGenerator
	opts FactualityOptions
}

const factualityPromptTemplate = `You are comparing a submitted answer to an expert answer for factual consistency.

[BEGIN DATA]
[Question]: %s
[Expert]: %s
[Submission]: %s
[END DATA]

Compare the factual content of the submitted answer with the expert answer. Ignore differences in style, grammar, or punctuation.
Select exactly one option:
(A) The submitted answer contains all the same details as the expert answer.
(B) The submitted answer is a superset of the expert answer and is fully consistent with it.
(C) There are differences between the submitted answer and the expert answer, but these differences don't matter from the perspective of factuality.
(D) The submitted answer is a subset of the expert answer and is fully consistent with it.
(E) There is a disagreement between the submitted answer and the expert answer.

Explain your choice in at most two sentences.`

var factualitySchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"choice": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"A", "B", "C", "D", "E"},
			"description": "The selected option",
		},
		"explanation": map[string]interface{}{
			"type":        "string",
			"description": "Why the option was selected",
		},
	},
	"required": []string{"choice", "explanation"},
}

func (s *factualityScorer) Score(ctx context.Context, in api.ScoreInputs) api.Score {
	result := api.Score{
		Name:     "Factuality",
		Metadata: make(map[string]any),
	}

	if in.Expected == "" {
		result.Error = api.ErrNoExpectedValue
		return result
	}

	if s.llm == nil {
		result.Error = fmt.Errorf("LLM generator is required")
		return result
	}

	prompt := fmt.Sprintf(factualityPromptTemplate, in.Input, in.Expected, in.Output)
	resp, err := s.llm.StructuredGenerate(ctx, prompt, factualitySchema)
	if err != nil {
		result.Error = fmt.Errorf("%w: %w", api.ErrLLMGenerationFailed, err)
		return result
	}
	result.Metadata["raw_response"] = resp

	choice, ok := resp["choice"].(string)
	if !ok {
		result.Error = fmt.Errorf("failed to extract choice from structured response")
		return result
	}
	explanation, ok := resp["explanation"].(string)
	if !ok {
		result.Error = fmt.Errorf("failed to extract explanation from structured response")
		return result
	}

	score, ok := s.opts.ChoiceScores[choice]
	if !ok {
		score, ok = factualityChoiceScores[choice]
	}
	if !ok {
		result.Error = fmt.Errorf("unknown factuality choice %q", choice)
		return result
	}

	result.Score = score
	result.Metadata["choice"] = choice
	result.Metadata["explanation"] = explanation
	return result
}
