package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the service configuration.
const (
	DefaultAddr            = ":8000"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMetricTimeout   = 10 * time.Second
	DefaultAPIKeyEnv       = "GEMINI_API_KEY"
	DefaultEmbeddingModel  = "text-embedding-005"
	DefaultJudgeModel      = "gemini-2.5-flash"
	DefaultSlowDelay       = 5 * time.Second
)

// Environment variables that override the file.
const (
	EnvMetricTimeout  = "METRIC_TIMEOUT"
	EnvEnabledMetrics = "EVAL_ENABLED_METRICS"
	EnvProject        = "GOOGLE_PROJECT_ID"
	EnvRegion         = "GOOGLE_REGION"
	EnvFallbackAPIKey = "GOOGLE_API_KEY"
)

// Config is the full evalserver configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Executor    ExecutorConfig    `yaml:"executor"`
	Gemini      GeminiConfig      `yaml:"gemini"`
	Language    LanguageConfig    `yaml:"language"`
	Translation TranslationConfig `yaml:"translation"`
	Entailment  EntailmentConfig  `yaml:"entailment"`
	Log         LogConfig         `yaml:"log"`
	Tracing     TracingConfig     `yaml:"tracing"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	// Addr is the listen address (default ":8000").
	Addr string `yaml:"addr"`

	// ShutdownTimeout bounds graceful shutdown (default 10s).
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// MetricsConfig selects and bounds metrics.
type MetricsConfig struct {
	// Timeout bounds each metric evaluation (default 10s). Overridden by METRIC_TIMEOUT in seconds.
	Timeout time.Duration `yaml:"timeout"`

	// Enabled lists the metric names to register; empty registers all.
	// Overridden by a non-empty EVAL_ENABLED_METRICS, a comma separated list.
	Enabled []string `yaml:"enabled"`

	// SlowDelay is how long the "slow" metric blocks (default 5s).
	SlowDelay time.Duration `yaml:"slow_delay"`
}

// ExecutorConfig controls how evaluations are run.
type ExecutorConfig struct {
	// MaxWorkers caps concurrent evaluations across requests; 0 means unbounded.
	MaxWorkers int64 `yaml:"max_workers"`

	// FaultPolicy is one of: fail | neutral (default fail).
	FaultPolicy string `yaml:"fault_policy"`
}

// GeminiConfig selects the Gemini backend used by model-backed metrics.
type GeminiConfig struct {
	// Backend is one of: gemini-api | vertex-ai (default gemini-api).
	Backend string `yaml:"backend"`

	// Project and Location select the Vertex AI endpoint. Fall back to GOOGLE_PROJECT_ID and GOOGLE_REGION.
	Project  string `yaml:"project"`
	Location string `yaml:"location"`

	// APIKeyEnv names the environment variable holding the Gemini API key (default GEMINI_API_KEY).
	// GOOGLE_API_KEY is consulted when it is unset.
	APIKeyEnv string `yaml:"api_key_env"`

	EmbeddingModel string `yaml:"embedding_model"`
	JudgeModel     string `yaml:"judge_model"`
}

// APIKey returns the Gemini API key resolved from the environment.
func (g GeminiConfig) APIKey() string {
	if g.APIKeyEnv != "" {
		if v := os.Getenv(g.APIKeyEnv); v != "" {
			return v
		}
	}
	return os.Getenv(EnvFallbackAPIKey)
}

// LanguageConfig enables Cloud Natural Language backed features.
type LanguageConfig struct {
	// Enabled turns on the moderation metric backend and syntax-based sentence segmentation for summac_ko.
	Enabled bool `yaml:"enabled"`
}

// TranslationConfig controls request text translation before evaluation.
type TranslationConfig struct {
	Enabled bool `yaml:"enabled"`

	// Target is the BCP-47 language Hangul texts are translated into (default "en").
	Target string `yaml:"target"`
}

// EntailmentConfig tunes the summac metrics.
type EntailmentConfig struct {
	// Granularity for summac_ko is one of: sentence | paragraph | whole (default sentence).
	Granularity string `yaml:"granularity"`

	// Alpha weighs the contradiction penalty (default 0).
	Alpha float64 `yaml:"alpha"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	// Level is one of: debug | info | warn | error (default info).
	Level string `yaml:"level"`

	// Format is one of: json | text (default json).
	Format string `yaml:"format"`
}

// TracingConfig controls OTLP span export.
type TracingConfig struct {
	// Endpoint is the OTLP gRPC collector address; empty disables export.
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
	Insecure     bool    `yaml:"insecure"`
}

// Load reads the config file at path, applies environment overrides and validates the result.
// An empty path skips the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            DefaultAddr,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Metrics: MetricsConfig{
			Timeout:   DefaultMetricTimeout,
			SlowDelay: DefaultSlowDelay,
		},
		Executor: ExecutorConfig{
			FaultPolicy: "fail",
		},
		Gemini: GeminiConfig{
			Backend:        "gemini-api",
			APIKeyEnv:      DefaultAPIKeyEnv,
			EmbeddingModel: DefaultEmbeddingModel,
			JudgeModel:     DefaultJudgeModel,
		},
		Translation: TranslationConfig{
			Target: "en",
		},
		Entailment: EntailmentConfig{
			Granularity: "sentence",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// applyEnv overrides cfg from the environment as seen through lookup.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvMetricTimeout); ok && strings.TrimSpace(v) != "" {
		d, err := ParseSeconds(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMetricTimeout, err)
		}
		cfg.Metrics.Timeout = d
	}

	if v, ok := lookup(EnvEnabledMetrics); ok && strings.TrimSpace(v) != "" {
		cfg.Metrics.Enabled = splitList(v)
	}

	if v, ok := lookup(EnvProject); ok && cfg.Gemini.Project == "" {
		cfg.Gemini.Project = v
	}
	if v, ok := lookup(EnvRegion); ok && cfg.Gemini.Location == "" {
		cfg.Gemini.Location = v
	}
	return nil
}

// ParseSeconds parses a positive number of seconds, e.g. "10" or "2.5".
func ParseSeconds(s string) (time.Duration, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("want a number of seconds, got %q", s)
	}
	if f <= 0 {
		return 0, fmt.Errorf("must be positive, got %q", s)
	}
	return time.Duration(f * float64(time.Second)), nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if cfg.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must not be negative")
	}
	if cfg.Metrics.Timeout <= 0 {
		return fmt.Errorf("metrics.timeout must be positive")
	}
	if cfg.Executor.MaxWorkers < 0 {
		return fmt.Errorf("executor.max_workers must not be negative")
	}
	switch cfg.Executor.FaultPolicy {
	case "fail", "neutral", "":
	default:
		return fmt.Errorf("executor.fault_policy %q unknown: want fail|neutral", cfg.Executor.FaultPolicy)
	}
	switch cfg.Gemini.Backend {
	case "gemini-api", "vertex-ai", "":
	default:
		return fmt.Errorf("gemini.backend %q unknown: want gemini-api|vertex-ai", cfg.Gemini.Backend)
	}
	switch cfg.Entailment.Granularity {
	case "sentence", "paragraph", "whole", "":
	default:
		return fmt.Errorf("entailment.granularity %q unknown: want sentence|paragraph|whole", cfg.Entailment.Granularity)
	}
	if cfg.Entailment.Alpha < 0 {
		return fmt.Errorf("entailment.alpha must not be negative")
	}
	switch cfg.Log.Format {
	case "json", "text", "":
	default:
		return fmt.Errorf("log.format %q unknown: want json|text", cfg.Log.Format)
	}
	if cfg.Tracing.SamplingRate < 0 || cfg.Tracing.SamplingRate > 1 {
		return fmt.Errorf("tracing.sampling_rate %v is out of range [0, 1]", cfg.Tracing.SamplingRate)
	}
	return nil
}
