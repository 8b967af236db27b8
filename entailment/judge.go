package entailment

import (
	"context"
	"fmt"

	"github.com/datar-psa/evalservice/api"
)

// JudgeClassifier is an NLIClassifier backed by an LLM asked for label probabilities
type JudgeClassifier struct {
	llm api.LLMGenerator
}

// NewJudgeClassifier creates a classifier that prompts llm
func NewJudgeClassifier(llm api.LLMGenerator) *JudgeClassifier {
	return &JudgeClassifier{llm: llm}
}

const nliPromptTemplate = `You are a natural language inference classifier. The texts may be in any language.

[Premise]: %s
[Hypothesis]: %s

Give the probability that the premise entails the hypothesis, that it is neutral towards it, and that it contradicts it. The three probabilities must sum to 1.`

var nliSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"entailment":    map[string]interface{}{"type": "number"},
		"neutral":       map[string]interface{}{"type": "number"},
		"contradiction": map[string]interface{}{"type": "number"},
	},
	"required": []string{"entailment", "neutral", "contradiction"},
}

// Classify implements api.NLIClassifier.
// Negative values count as 0 and the three are renormalised to sum to 1, so
// replies on a percentage or weight scale keep their proportions.
func (c *JudgeClassifier) Classify(ctx context.Context, premise, hypothesis string) (api.NLIScores, error) {
	if c.llm == nil {
		return api.NLIScores{}, fmt.Errorf("LLM generator is required")
	}

	resp, err := c.llm.StructuredGenerate(ctx, fmt.Sprintf(nliPromptTemplate, premise, hypothesis), nliSchema)
	if err != nil {
		return api.NLIScores{}, fmt.Errorf("%w: %w", api.ErrLLMGenerationFailed, err)
	}

	var probs [3]float64
	for i, label := range [3]string{"entailment", "neutral", "contradiction"} {
		v, ok := resp[label].(float64)
		if !ok {
			return api.NLIScores{}, fmt.Errorf("failed to extract %s from structured response", label)
		}
		probs[i] = max(v, 0)
	}

	if sum := probs[0] + probs[1] + probs[2]; sum > 0 {
		for i := range probs {
			probs[i] = min(probs[i]/sum, 1)
		}
	} else {
		probs[1] = 1
	}

	return api.NLIScores{Entailment: probs[0], Neutral: probs[1], Contradiction: probs[2]}, nil
}

var _ api.NLIClassifier = (*JudgeClassifier)(nil)
