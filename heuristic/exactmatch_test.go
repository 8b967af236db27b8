package heuristic

import (
	"context"
	"testing"
	"time"

	"github.com/datar-psa/evalservice/api"
)

func TestExactMatch(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		opts      ExactMatchOptions
		input     string
		output    string
		expected  string
		wantErr   error
		wantScore float64
	}{
		{
			name:      "exact match",
			opts:      ExactMatchOptions{},
			input:     "What is 2+2?",
			output:    "4",
			expected:  "4",
			wantScore: 1.0,
		},
		{
			name:      "no match",
			opts:      ExactMatchOptions{},
			input:     "What is 2+2?",
			output:    "5",
			expected:  "4",
			wantScore: 0.0,
		},
		{
			name:      "case sensitive mismatch",
			opts:      ExactMatchOptions{CaseInsensitive: false},
			input:     "What is the capital?",
			output:    "Paris",
			expected:  "paris",
			wantScore: 0.0,
		},
		{
			name:      "case insensitive match",
			opts:      ExactMatchOptions{CaseInsensitive: true},
			input:     "What is the capital?",
			output:    "Paris",
			expected:  "paris",
			wantScore: 1.0,
		},
		{
			name:      "whitespace sensitive mismatch",
			opts:      ExactMatchOptions{TrimWhitespace: false},
			input:     "What is 2+2?",
			output:    "4 ",
			expected:  "4",
			wantScore: 0.0,
		},
		{
			name:      "whitespace insensitive match",
			opts:      ExactMatchOptions{TrimWhitespace: true},
			input:     "What is 2+2?",
			output:    "  4  ",
			expected:  "4",
			wantScore: 1.0,
		},
		{
			name:      "combined options match",
			opts:      ExactMatchOptions{CaseInsensitive: true, TrimWhitespace: true},
			input:     "What is the capital?",
			output:    "  PARIS  ",
			expected:  "paris",
			wantScore: 1.0,
		},
		{
			name:      "collapsed internal whitespace",
			opts:      ExactMatchOptions{CollapseWhitespace: true},
			input:     "Where?",
			output:    " New\t York\n",
			expected:  "New York",
			wantScore: 1.0,
		},
		{
			name:      "internal whitespace kept without collapse",
			opts:      ExactMatchOptions{TrimWhitespace: true},
			input:     "Where?",
			output:    "New  York",
			expected:  "New York",
			wantScore: 0.0,
		},
		{
			name:      "no expected value",
			opts:      ExactMatchOptions{},
			input:     "What is 2+2?",
			output:    "4",
			expected:  "",
			wantErr:   api.ErrNoExpectedValue,
			wantScore: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := ExactMatch(tt.opts)
			result := scorer.Score(ctx, api.ScoreInputs{Output: tt.output, Expected: tt.expected})

			if result.Error != tt.wantErr {
				t.Errorf("ExactMatch.Score() error = %v, wantErr %v", result.Error, tt.wantErr)
			}

			if result.Score != tt.wantScore {
				t.Errorf("ExactMatch.Score() score = %v, wantScore %v", result.Score, tt.wantScore)
			}

			if result.Name != "ExactMatch" {
				t.Errorf("ExactMatch.Score() name = %v, want 'ExactMatch'", result.Name)
			}

			// Verify metadata
			if result.Metadata == nil {
				t.Error("ExactMatch.Score() metadata is nil")
			}
		})
	}
}

func TestExactMatchMetric(t *testing.T) {
	m := ExactMatchMetric(ExactMatchOptions{TrimWhitespace: true})
	if m.Name() != "exact_match" {
		t.Errorf("Name() = %q, want exact_match", m.Name())
	}

	tests := []struct {
		candidate, reference string
		want                 float64
	}{
		{"Paris ", "Paris", 1},
		{"paris", "Paris", 0},
		{"", "Paris", 0},
		{"Paris", "", 0},
	}
	for _, tt := range tests {
		got, err := m.Evaluate(context.Background(), tt.candidate, tt.reference)
		if err != nil {
			t.Errorf("Evaluate(%q, %q) unexpected error = %v", tt.candidate, tt.reference, err)
		}
		if got != tt.want {
			t.Errorf("Evaluate(%q, %q) = %v, want %v", tt.candidate, tt.reference, got, tt.want)
		}
	}
}

func TestSlowMetric(t *testing.T) {
	m := SlowMetric(30 * time.Millisecond)
	if m.Name() != "slow" {
		t.Errorf("Name() = %q, want slow", m.Name())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	got, err := m.Evaluate(ctx, "a", "b")
	if err != nil || got != 0 {
		t.Errorf("Evaluate() = %v, %v; want 0, nil", got, err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("Evaluate() returned after %v; it must ignore cancellation", elapsed)
	}
}
