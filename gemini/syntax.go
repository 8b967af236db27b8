package gemini

import (
	"context"
	"fmt"
	"strings"

	language "cloud.google.com/go/language/apiv1"
	languagepb "cloud.google.com/go/language/apiv1/languagepb"

	"github.com/datar-psa/evalservice/api"
)

// SyntaxSegmenter splits text into sentences with the Cloud Natural Language AnalyzeSyntax call.
// It handles Korean, which the rule-based splitter only approximates.
type SyntaxSegmenter struct {
	client   *language.Client
	language string
}

// NewSyntaxSegmenter creates a segmenter. lang is a BCP-47 hint such as "ko"; empty lets the API detect it.
func NewSyntaxSegmenter(client *language.Client, lang string) *SyntaxSegmenter {
	return &SyntaxSegmenter{client: client, language: lang}
}

// Segment implements api.Segmenter
func (s *SyntaxSegmenter) Segment(ctx context.Context, text string) ([]string, error) {
	if s.client == nil {
		return nil, fmt.Errorf("language client is required")
	}

	doc := plainText(text)
	doc.Language = s.language
	resp, err := s.client.AnalyzeSyntax(ctx, &languagepb.AnalyzeSyntaxRequest{
		Document:     doc,
		EncodingType: languagepb.EncodingType_UTF8,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze syntax failed: %w", err)
	}

	sentences := make([]string, 0, len(resp.GetSentences()))
	for _, sentence := range resp.GetSentences() {
		if t := strings.TrimSpace(sentence.GetText().GetContent()); t != "" {
			sentences = append(sentences, t)
		}
	}
	return sentences, nil
}

var _ api.Segmenter = (*SyntaxSegmenter)(nil)
