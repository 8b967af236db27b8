package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/datar-psa/evalservice/api"
)

// Translator implements api.Translator by prompting an LLM
type Translator struct {
	llm api.LLMGenerator
}

// NewTranslator creates a translator backed by llm, typically a *Generator
func NewTranslator(llm api.LLMGenerator) *Translator {
	return &Translator{llm: llm}
}

const translatePromptTemplate = `Translate the text between the markers into the language with BCP-47 tag %q.
Preserve meaning, sentence boundaries and paragraph breaks. Reply with the translation only.

<<<
%s
>>>`

// Translate implements api.Translator
func (t *Translator) Translate(ctx context.Context, text, target string) (string, error) {
	if t.llm == nil {
		return "", fmt.Errorf("LLM generator is required")
	}
	if target == "" {
		target = "en"
	}

	out, err := t.llm.Generate(ctx, fmt.Sprintf(translatePromptTemplate, target, text))
	if err != nil {
		return "", fmt.Errorf("%w: %w", api.ErrLLMGenerationFailed, err)
	}

	out = strings.TrimSpace(out)
	out = strings.TrimPrefix(out, "<<<")
	out = strings.TrimSuffix(out, ">>>")
	return strings.TrimSpace(out), nil
}

var _ api.Translator = (*Translator)(nil)
