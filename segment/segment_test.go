package segment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "empty", text: "   ", want: nil},
		{name: "english", text: "The cat sat. Did it? Yes!", want: []string{"The cat sat.", "Did it?", "Yes!"}},
		{name: "korean declarative", text: "오늘은 날씨가 좋다. 산책을 갔다.", want: []string{"오늘은 날씨가 좋다.", "산책을 갔다."}},
		{name: "ellipsis", text: "Well… maybe", want: []string{"Well…", "maybe"}},
		{name: "newlines", text: "first line\nsecond line", want: []string{"first line", "second line"}},
		{name: "no terminator", text: "just a fragment", want: []string{"just a fragment"}},
		{name: "repeated punctuation", text: "Wait... what", want: []string{"Wait.", ".", ".", "what"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Sentences(tt.text)); diff != "" {
				t.Errorf("Sentences() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnits(t *testing.T) {
	text := "First one. Second one.\n\nNew paragraph here."

	tests := []struct {
		g    Granularity
		want []string
	}{
		{Sentence, []string{"First one.", "Second one.", "New paragraph here."}},
		{Paragraph, []string{"First one. Second one.", "New paragraph here."}},
		{Whole, []string{text}},
	}
	for _, tt := range tests {
		t.Run(string(tt.g), func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Units(text, tt.g)); diff != "" {
				t.Errorf("Units() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	for _, g := range []Granularity{Sentence, Paragraph, Whole} {
		if got := Units(" \n\n ", g); len(got) != 0 {
			t.Errorf("Units(blank, %s) = %q, want none", g, got)
		}
	}
}

func TestParseGranularity(t *testing.T) {
	for in, want := range map[string]Granularity{"": Sentence, "Paragraph": Paragraph, " whole ": Whole} {
		got, err := ParseGranularity(in)
		if err != nil || got != want {
			t.Errorf("ParseGranularity(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseGranularity("word"); err == nil {
		t.Error("ParseGranularity(word) expected error")
	}
}

type stubSegmenter struct {
	units []string
	err   error
	calls int
}

func (s *stubSegmenter) Segment(context.Context, string) ([]string, error) {
	s.calls++
	return s.units, s.err
}

func TestFallback(t *testing.T) {
	ctx := context.Background()
	text := "하나다. 둘이다."

	primary := &stubSegmenter{units: []string{"whole thing"}}
	got, err := Fallback{Primary: primary}.Segment(ctx, text)
	if err != nil || !cmp.Equal(got, []string{"whole thing"}) {
		t.Errorf("Segment() = %q, %v; want the primary's units", got, err)
	}

	for _, broken := range []*stubSegmenter{{err: errors.New("quota exceeded")}, {}} {
		got, err := Fallback{Primary: broken}.Segment(ctx, text)
		if err != nil {
			t.Fatalf("Segment() unexpected error = %v", err)
		}
		if want := []string{"하나다.", "둘이다."}; !cmp.Equal(got, want) {
			t.Errorf("Segment() = %q, want rule-based %q", got, want)
		}
	}
}

func TestFallback_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Fallback{Primary: &stubSegmenter{err: context.Canceled}}.Segment(ctx, "a. b.")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Segment() error = %v, want context.Canceled", err)
	}
}

func TestUnitsWith(t *testing.T) {
	ctx := context.Background()
	seg := &stubSegmenter{units: []string{"x"}}

	got, err := UnitsWith(ctx, seg, "a. b.", Sentence)
	if err != nil || !cmp.Equal(got, []string{"x"}) {
		t.Errorf("UnitsWith(sentence) = %q, %v", got, err)
	}

	got, _ = UnitsWith(ctx, seg, "a. b.", Whole)
	if !cmp.Equal(got, []string{"a. b."}) || seg.calls != 1 {
		t.Errorf("UnitsWith(whole) = %q, segmenter calls %d; want whole text without segmenter", got, seg.calls)
	}

	got, _ = UnitsWith(ctx, nil, "  ", Sentence)
	if len(got) != 0 {
		t.Errorf("UnitsWith(blank) = %q, want none", got)
	}
}
