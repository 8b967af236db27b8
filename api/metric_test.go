package api

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type recordingScorer struct {
	score float64
	err   error
	last  ScoreInputs
	mu    sync.Mutex
}

func (s *recordingScorer) Score(ctx context.Context, in ScoreInputs) Score {
	s.mu.Lock()
	s.last = in
	s.mu.Unlock()
	return Score{Name: "recording", Score: s.score, Error: s.err}
}

func TestScorerMetric_Roles(t *testing.T) {
	tests := []struct {
		name      string
		role      ReferenceRole
		candidate string
		reference string
		wantIn    ScoreInputs
		wantScore float64
		wantCall  bool
	}{
		{name: "expected", role: ReferenceExpected, candidate: "c", reference: "r", wantIn: ScoreInputs{Output: "c", Expected: "r"}, wantScore: 0.6, wantCall: true},
		{name: "input", role: ReferenceInput, candidate: "c", reference: "r", wantIn: ScoreInputs{Output: "c", Input: "r"}, wantScore: 0.6, wantCall: true},
		{name: "unused", role: ReferenceUnused, candidate: "c", reference: "r", wantIn: ScoreInputs{Output: "c"}, wantScore: 0.6, wantCall: true},
		{name: "empty candidate", role: ReferenceUnused, candidate: "  ", reference: "r", wantScore: NeutralScore},
		{name: "empty expected reference", role: ReferenceExpected, candidate: "c", reference: "", wantScore: NeutralScore},
		{name: "empty input reference", role: ReferenceInput, candidate: "c", reference: "", wantIn: ScoreInputs{Output: "c"}, wantScore: 0.6, wantCall: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := &recordingScorer{score: 0.6}
			var builds atomic.Int32
			m := ScorerMetric("m", tt.role, func() (Scorer, error) {
				builds.Add(1)
				return scorer, nil
			})

			got, err := m.Evaluate(context.Background(), tt.candidate, tt.reference)
			if err != nil {
				t.Fatalf("Evaluate() unexpected error = %v", err)
			}
			if got != tt.wantScore {
				t.Errorf("Evaluate() = %v, want %v", got, tt.wantScore)
			}
			if called := builds.Load() > 0; called != tt.wantCall {
				t.Errorf("scorer built = %v, want %v", called, tt.wantCall)
			}
			if tt.wantCall && scorer.last != tt.wantIn {
				t.Errorf("scorer inputs = %+v, want %+v", scorer.last, tt.wantIn)
			}
		})
	}
}

func TestScorerMetric_BuildFailure(t *testing.T) {
	m := ScorerMetric("factuality", ReferenceExpected, func() (Scorer, error) {
		return nil, errors.New("no credentials")
	})

	_, err := m.Evaluate(context.Background(), "c", "r")
	if !errors.Is(err, ErrDependencyMissing) {
		t.Fatalf("Evaluate() error = %v, want ErrDependencyMissing", err)
	}
}

func TestScorerMetric_ScoreError(t *testing.T) {
	boom := errors.New("boom")
	m := ScorerMetric("m", ReferenceExpected, func() (Scorer, error) {
		return &recordingScorer{score: 0.4, err: boom}, nil
	})

	got, err := m.Evaluate(context.Background(), "c", "r")
	if !errors.Is(err, boom) {
		t.Fatalf("Evaluate() error = %v, want %v", err, boom)
	}
	if got != 0 {
		t.Errorf("Evaluate() = %v, want 0 on error", got)
	}
}

func TestScorerMetric_BuildsOnceConcurrently(t *testing.T) {
	var builds atomic.Int32
	m := ScorerMetric("m", ReferenceExpected, func() (Scorer, error) {
		builds.Add(1)
		time.Sleep(20 * time.Millisecond)
		return &recordingScorer{score: 1}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Evaluate(context.Background(), "c", "r"); err != nil {
				t.Errorf("Evaluate() unexpected error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := builds.Load(); got != 1 {
		t.Errorf("builds = %d, want 1", got)
	}
}

func TestMissingDependency(t *testing.T) {
	err := MissingDependency("summac", errors.New("client not configured"))
	if !errors.Is(err, ErrDependencyMissing) {
		t.Fatalf("MissingDependency() = %v, want ErrDependencyMissing", err)
	}
	if got := MissingDependency("other", err); got != err {
		t.Errorf("MissingDependency() re-wrapped an existing dependency error: %v", got)
	}
}

func TestMetricError(t *testing.T) {
	err := &MetricError{Metric: "slow", Err: ErrTimeout}
	if !errors.Is(err, ErrTimeout) {
		t.Error("MetricError does not unwrap to its cause")
	}
	if got := err.Error(); got != `metric "slow": metric evaluation timed out` {
		t.Errorf("Error() = %q", got)
	}
}
