package gemini_test

import (
	"context"
	"testing"

	"github.com/datar-psa/evalservice/gemini"
	"github.com/datar-psa/evalservice/internal/testutils"
)

func TestSyntaxSegmenter_Integration(t *testing.T) {
	testutils.RequireRecordings(t, "syntax")

	seg := gemini.NewSyntaxSegmenter(testutils.NewLanguageClient(t, "syntax"), "ko")
	got, err := seg.Segment(context.Background(), "오늘은 날씨가 좋다. 우리는 공원에 갔다.")
	if err != nil {
		t.Fatalf("Segment() unexpected error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Segment() = %q, want two sentences", got)
	}
}
