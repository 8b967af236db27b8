package embedding

import (
	"context"
	"errors"
	"strings"

	"github.com/datar-psa/evalservice/api"
)

// Metric scores semantic similarity between candidate and reference embeddings.
// It is the service's "bertscore".
type Metric struct {
	name   string
	scorer api.Metric
}

// NewMetric creates a similarity metric registered under name.
// load builds the embedder once, on the first comparison that needs it.
func NewMetric(name string, load func() (api.Embedder, error), opts EmbeddingSimilarityOptions) *Metric {
	return &Metric{
		name: name,
		scorer: api.ScorerMetric(name, api.ReferenceExpected, func() (api.Scorer, error) {
			if load == nil {
				return nil, errNoEmbedder
			}
			embedder, err := load()
			if err != nil {
				return nil, err
			}
			return EmbeddingSimilarity(embedder, opts), nil
		}),
	}
}

func (m *Metric) Name() string { return m.name }

// Evaluate scores identical non-empty texts 1 without embedding them and an empty side 0.
func (m *Metric) Evaluate(ctx context.Context, candidate, reference string) (float64, error) {
	if strings.TrimSpace(candidate) != "" && candidate == reference {
		return 1, nil
	}
	return m.scorer.Evaluate(ctx, candidate, reference)
}

var errNoEmbedder = errors.New("no embedder configured")
