// Package evalservice assembles the metric registry, executor and pipeline
// behind the evaluation HTTP service.
package evalservice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	language "cloud.google.com/go/language/apiv1"
	"google.golang.org/genai"

	"github.com/datar-psa/evalservice/api"
	"github.com/datar-psa/evalservice/config"
	"github.com/datar-psa/evalservice/embedding"
	"github.com/datar-psa/evalservice/entailment"
	"github.com/datar-psa/evalservice/executor"
	"github.com/datar-psa/evalservice/gemini"
	"github.com/datar-psa/evalservice/heuristic"
	"github.com/datar-psa/evalservice/llmjudge"
	"github.com/datar-psa/evalservice/observability"
	"github.com/datar-psa/evalservice/pipeline"
	"github.com/datar-psa/evalservice/registry"
	"github.com/datar-psa/evalservice/segment"
	"github.com/datar-psa/evalservice/translate"
)

// Backends are the lazily built collaborators behind model-backed metrics.
// A nil loader makes the metrics that need it fail with api.ErrDependencyMissing.
type Backends struct {
	Generator  func() (api.LLMGenerator, error)
	Embedder   func() (api.Embedder, error)
	Moderation func() (api.ModerationProvider, error)
	// Segmenter splits sentences for summac_ko; nil uses the rule-based splitter
	Segmenter api.Segmenter
}

// Options configures NewRegistry
type Options struct {
	backends    Backends
	slowDelay   time.Duration
	granularity segment.Granularity
	alpha       float64
}

// WithBackends sets the model backends
func WithBackends(b Backends) func(*Options) {
	return func(opts *Options) {
		opts.backends = b
	}
}

// WithSlowDelay sets how long the "slow" metric blocks
func WithSlowDelay(d time.Duration) func(*Options) {
	return func(opts *Options) {
		opts.slowDelay = d
	}
}

// WithEntailment sets summac_ko's granularity and the contradiction weight of both summac metrics
func WithEntailment(g segment.Granularity, alpha float64) func(*Options) {
	return func(opts *Options) {
		opts.granularity = g
		opts.alpha = alpha
	}
}

// NewRegistry creates a registry holding every metric the service knows.
// Backends are not touched until a metric needs them.
func NewRegistry(opts ...func(*Options)) *registry.Registry {
	options := &Options{slowDelay: heuristic.DefaultSlowDelay, granularity: segment.Sentence}
	for _, opt := range opts {
		opt(options)
	}
	b := options.backends

	nli := func() (api.NLIClassifier, error) {
		if b.Generator == nil {
			return nil, errNoGenerator
		}
		llm, err := b.Generator()
		if err != nil {
			return nil, err
		}
		return entailment.NewJudgeClassifier(llm), nil
	}

	return registry.New(
		embedding.NewMetric("bertscore", b.Embedder, embedding.EmbeddingSimilarityOptions{}),
		entailment.New("summac", nli, entailment.Options{
			Granularity: segment.Sentence,
			Alpha:       options.alpha,
		}),
		entailment.New("summac_ko", nli, entailment.Options{
			Granularity: options.granularity,
			Alpha:       options.alpha,
			Segmenter:   b.Segmenter,
		}),
		llmjudge.FactualityMetric(b.Generator, llmjudge.FactualityOptions{}),
		llmjudge.TonalityMetric(b.Generator, llmjudge.TonalityOptions{}),
		llmjudge.ModerationMetric(b.Moderation, llmjudge.ModerationOptions{}),
		heuristic.ExactMatchMetric(heuristic.ExactMatchOptions{TrimWhitespace: true}),
		heuristic.SlowMetric(options.slowDelay),
	)
}

var errNoGenerator = errors.New("no LLM generator configured")

// Service is everything an HTTP handler needs to evaluate requests.
type Service struct {
	Registry     *registry.Registry
	Executor     *executor.Executor
	Pipeline     *pipeline.Pipeline
	Preprocessor *translate.Preprocessor
}

// FromConfig builds the Service described by cfg. Gemini and Cloud Natural
// Language clients are created on first use; missing credentials surface as
// api.ErrDependencyMissing from the metrics that need them.
// metrics may be nil.
func FromConfig(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (*Service, error) {
	granularity, err := segment.ParseGranularity(cfg.Entailment.Granularity)
	if err != nil {
		return nil, err
	}

	// Clients outlive the startup context.
	ctx = context.WithoutCancel(ctx)
	backends := geminiBackends(ctx, cfg)

	all := NewRegistry(
		WithBackends(backends),
		WithSlowDelay(cfg.Metrics.SlowDelay),
		WithEntailment(granularity, cfg.Entailment.Alpha),
	)
	reg, missing := all.Filter(cfg.Metrics.Enabled)
	if len(missing) > 0 {
		return nil, fmt.Errorf("metrics.enabled names unknown metrics %v; available: %v", missing, all.Names())
	}

	exec := executor.New(executor.Options{
		Timeout:     cfg.Metrics.Timeout,
		MaxWorkers:  cfg.Executor.MaxWorkers,
		FaultPolicy: executor.FaultPolicy(cfg.Executor.FaultPolicy),
	})

	svc := &Service{
		Registry: reg,
		Executor: exec,
		Pipeline: pipeline.New(reg, exec, metrics),
	}
	if cfg.Translation.Enabled {
		svc.Preprocessor = &translate.Preprocessor{
			Translator: lazyTranslator{load: sync.OnceValues(func() (api.Translator, error) {
				llm, err := backends.Generator()
				if err != nil {
					return nil, err
				}
				return gemini.NewTranslator(llm), nil
			})},
			Target: cfg.Translation.Target,
		}
	}
	return svc, nil
}

func geminiBackends(ctx context.Context, cfg *config.Config) Backends {
	client := sync.OnceValues(func() (*genai.Client, error) {
		return gemini.NewClient(ctx, gemini.ClientConfig{
			Backend:  cfg.Gemini.Backend,
			APIKey:   cfg.Gemini.APIKey(),
			Project:  cfg.Gemini.Project,
			Location: cfg.Gemini.Location,
		})
	})

	b := Backends{
		Generator: func() (api.LLMGenerator, error) {
			c, err := client()
			if err != nil {
				return nil, err
			}
			return gemini.NewGenerator(c, cfg.Gemini.JudgeModel), nil
		},
		Embedder: func() (api.Embedder, error) {
			c, err := client()
			if err != nil {
				return nil, err
			}
			return gemini.NewEmbedder(c, cfg.Gemini.EmbeddingModel), nil
		},
		Moderation: func() (api.ModerationProvider, error) {
			return nil, api.MissingDependency("moderation", errors.New("language.enabled is false"))
		},
	}

	if cfg.Language.Enabled {
		lang := sync.OnceValues(func() (*language.Client, error) {
			return gemini.NewLanguageClient(ctx, gemini.LanguageConfig{QuotaProject: cfg.Gemini.Project})
		})
		b.Moderation = func() (api.ModerationProvider, error) {
			c, err := lang()
			if err != nil {
				return nil, err
			}
			return gemini.NewGoogleLanguageProvider(c), nil
		}
		b.Segmenter = segment.Fallback{Primary: lazySegmenter{load: func() (api.Segmenter, error) {
			c, err := lang()
			if err != nil {
				return nil, err
			}
			return gemini.NewSyntaxSegmenter(c, "ko"), nil
		}}}
	}
	return b
}

// lazySegmenter defers building the segmenter to the first Segment call
type lazySegmenter struct {
	load func() (api.Segmenter, error)
}

func (s lazySegmenter) Segment(ctx context.Context, text string) ([]string, error) {
	seg, err := s.load()
	if err != nil {
		return nil, err
	}
	return seg.Segment(ctx, text)
}

type lazyTranslator struct {
	load func() (api.Translator, error)
}

func (t lazyTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	tr, err := t.load()
	if err != nil {
		return "", err
	}
	return tr.Translate(ctx, text, target)
}
