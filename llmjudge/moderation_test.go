package llmjudge

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/datar-psa/evalservice/api"
)

// mockModerationProvider is a simple mock for unit tests
type mockModerationProvider struct {
	result *api.ModerationResult
	err    error
}

func (m *mockModerationProvider) Moderate(ctx context.Context, content string) (*api.ModerationResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func TestModeration_Unit(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		categories  []api.ModerationCategory
		mockErr     error
		threshold   float64
		only        []string
		wantErr     bool
		wantScore   float64
		wantFlagged map[string]float64
	}{
		{
			name: "safe content",
			categories: []api.ModerationCategory{
				{Name: "Toxic", Confidence: 0.1},
				{Name: "Violent", Confidence: 0.05},
			},
			threshold:   0.5,
			wantScore:   1.0,
			wantFlagged: map[string]float64{},
		},
		{
			name: "unsafe content",
			categories: []api.ModerationCategory{
				{Name: "Toxic", Confidence: 0.8},
				{Name: "Violent", Confidence: 0.3},
			},
			threshold:   0.5,
			wantScore:   0.0,
			wantFlagged: map[string]float64{"Toxic": 0.8},
		},
		{
			name: "multiple flagged categories",
			categories: []api.ModerationCategory{
				{Name: "Toxic", Confidence: 0.7},
				{Name: "Violent", Confidence: 0.6},
				{Name: "Sexual", Confidence: 0.0},
			},
			threshold:   0.5,
			wantScore:   0.0,
			wantFlagged: map[string]float64{"Toxic": 0.7, "Violent": 0.6},
		},
		{
			name: "custom threshold",
			categories: []api.ModerationCategory{
				{Name: "Toxic", Confidence: 0.3},
				{Name: "Violent", Confidence: 0.2},
			},
			threshold:   0.25,
			wantScore:   0.0,
			wantFlagged: map[string]float64{"Toxic": 0.3},
		},
		{
			name: "default threshold",
			categories: []api.ModerationCategory{
				{Name: "Toxic", Confidence: 0.45},
			},
			wantScore:   1.0,
			wantFlagged: map[string]float64{},
		},
		{
			name: "specific categories only",
			categories: []api.ModerationCategory{
				{Name: "Toxic", Confidence: 0.2},
				{Name: "Violent", Confidence: 0.9},
			},
			threshold:   0.5,
			only:        []string{"Toxic"},
			wantScore:   1.0,
			wantFlagged: map[string]float64{},
		},
		{
			name:    "provider error",
			mockErr: fmt.Errorf("API error"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &mockModerationProvider{
				result: &api.ModerationResult{Categories: tt.categories},
				err:    tt.mockErr,
			}

			scorer := Moderation(provider, ModerationOptions{Threshold: tt.threshold, Categories: tt.only})
			result := scorer.Score(ctx, api.ScoreInputs{Output: "content"})

			if tt.wantErr {
				if result.Error == nil {
					t.Error("Moderation.Score() expected error but got none")
				}
				return
			}
			if result.Error != nil {
				t.Fatalf("Moderation.Score() unexpected error = %v", result.Error)
			}

			if result.Score != tt.wantScore {
				t.Errorf("Moderation.Score() score = %v, wantScore %v", result.Score, tt.wantScore)
			}
			if isSafe, ok := result.Metadata["is_safe"].(bool); !ok || isSafe != (tt.wantScore == 1) {
				t.Errorf("Moderation.Score() is_safe = %v, want %v", isSafe, tt.wantScore == 1)
			}
			flagged, ok := result.Metadata["flagged_categories"].(map[string]float64)
			if !ok {
				t.Fatal("Moderation.Score() missing flagged_categories in metadata")
			}
			if diff := cmp.Diff(tt.wantFlagged, flagged); diff != "" {
				t.Errorf("Moderation.Score() flagged mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestModeration_NoProvider(t *testing.T) {
	ctx := context.Background()

	scorer := Moderation(nil, ModerationOptions{})
	result := scorer.Score(ctx, api.ScoreInputs{Output: "output"})

	if result.Error == nil {
		t.Error("Moderation.Score() expected error when provider is nil")
	}

	if result.Score != 0 {
		t.Errorf("Moderation.Score() score = %v, want 0", result.Score)
	}
}
