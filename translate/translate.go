// Package translate rewrites request texts into a target language before
// evaluation so metrics built for that language can score them.
package translate

import (
	"context"
	"strings"
	"unicode"

	"github.com/datar-psa/evalservice/api"
	"github.com/datar-psa/evalservice/observability"
)

// ContainsHangul reports whether text has any Hangul character
func ContainsHangul(text string) bool {
	return strings.IndexFunc(text, func(r rune) bool { return unicode.Is(unicode.Hangul, r) }) >= 0
}

// Preprocessor translates texts that need it. A nil Preprocessor, or one
// without a Translator, passes text through unchanged.
type Preprocessor struct {
	Translator api.Translator
	// Target is the BCP-47 language texts are translated into, e.g. "en"
	Target string
	// Detect selects the texts to translate; nil means ContainsHangul
	Detect func(text string) bool
}

// Apply returns text translated into p.Target. Translation failures are
// logged and the original text is returned.
func (p *Preprocessor) Apply(ctx context.Context, text string) string {
	if p == nil || p.Translator == nil || strings.TrimSpace(text) == "" {
		return text
	}
	detect := p.Detect
	if detect == nil {
		detect = ContainsHangul
	}
	if !detect(text) {
		return text
	}

	out, err := p.Translator.Translate(ctx, text, p.Target)
	if err != nil {
		observability.FromContext(ctx).Warn("translation failed, evaluating original text", "target", p.Target, "err", err)
		return text
	}
	if strings.TrimSpace(out) == "" {
		return text
	}
	return out
}
