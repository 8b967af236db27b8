// Package segment splits text into the units entailment metrics compare:
// sentences, blank-line separated paragraphs, or the whole text.
package segment

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/datar-psa/evalservice/api"
	"github.com/datar-psa/evalservice/observability"
)

// Granularity selects the unit texts are split into
type Granularity string

const (
	Sentence  Granularity = "sentence"
	Paragraph Granularity = "paragraph"
	Whole     Granularity = "whole"
)

// ParseGranularity validates s; empty means Sentence
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return Sentence, nil
	case Sentence, Paragraph, Whole:
		return g, nil
	default:
		return "", fmt.Errorf("unknown granularity %q", s)
	}
}

// terminator matches the Korean declarative ending and common sentence-final punctuation
var terminator = regexp.MustCompile(`다\.|[.?!…]`)

// Sentences splits text after every terminator and line break.
// Empty and whitespace-only pieces are dropped.
func Sentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return splitLines(terminator.ReplaceAllString(text, "$0\n"))
}

// Paragraphs splits text on blank lines
func Paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(strings.TrimSpace(text), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Units splits text at granularity g using the rule-based sentence splitter
func Units(text string, g Granularity) []string {
	switch g {
	case Whole:
		if t := strings.TrimSpace(text); t != "" {
			return []string{t}
		}
		return nil
	case Paragraph:
		return Paragraphs(text)
	default:
		return Sentences(text)
	}
}

// UnitsWith is Units with sentence splitting delegated to seg. A nil seg uses Rule.
func UnitsWith(ctx context.Context, seg api.Segmenter, text string, g Granularity) ([]string, error) {
	if g != Sentence && g != "" {
		return Units(text, g), nil
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if seg == nil {
		seg = Rule{}
	}
	return seg.Segment(ctx, text)
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.FieldsFunc(s, isLineBreak) {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

// Rule is the regular-expression sentence splitter as an api.Segmenter
type Rule struct{}

func (Rule) Segment(_ context.Context, text string) ([]string, error) {
	return Sentences(text), nil
}

// Fallback segments with Primary and falls back to Rule when Primary fails or finds nothing
type Fallback struct {
	Primary api.Segmenter
}

func (f Fallback) Segment(ctx context.Context, text string) ([]string, error) {
	if f.Primary != nil {
		units, err := f.Primary.Segment(ctx, text)
		if err == nil && len(units) > 0 {
			return units, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			observability.FromContext(ctx).Warn("sentence segmenter failed, using rule-based splitter", "err", err)
		}
	}
	return Sentences(text), nil
}
