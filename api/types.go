package api

import "context"

// Metric is a named scoring function comparing a candidate text against a reference text.
// Evaluate may block for an unbounded amount of time and may lazily initialise
// expensive state on first use; implementations must make that initialisation
// happen at most once even under concurrent first use.
type Metric interface {
	// Name is the unique identifier the metric is registered and requested under
	Name() string
	// Evaluate scores candidate against reference.
	// Degenerate input (empty text, nothing to compare) yields a neutral score, not an error.
	// A backend that cannot be loaded is reported with an error wrapping ErrDependencyMissing.
	Evaluate(ctx context.Context, candidate, reference string) (float64, error)
}

// MetricFunc adapts an ordinary function to the Metric interface
func MetricFunc(name string, fn func(ctx context.Context, candidate, reference string) (float64, error)) Metric {
	return &funcMetric{name: name, fn: fn}
}

type funcMetric struct {
	name string
	fn   func(ctx context.Context, candidate, reference string) (float64, error)
}

func (m *funcMetric) Name() string { return m.name }

func (m *funcMetric) Evaluate(ctx context.Context, candidate, reference string) (float64, error) {
	return m.fn(ctx, candidate, reference)
}

// LLMGenerator is an interface for generating text using an LLM
// A Gemini implementation is provided in the gemini subpackage
type LLMGenerator interface {
	// Generate generates free-form text for the prompt
	Generate(ctx context.Context, prompt string) (string, error)

	// StructuredGenerate generates structured data based on the provided prompt and JSON schema
	// schema must be a valid JSON schema (map[string]interface{})
	// Returns the generated data as a map[string]interface{} or an error
	StructuredGenerate(ctx context.Context, prompt string, schema map[string]interface{}) (map[string]interface{}, error)
}

// Embedder generates vector embeddings for text
type Embedder interface {
	// Embed generates an embedding vector for the given text
	// Returns a normalized vector (length = 1) suitable for cosine similarity
	Embed(ctx context.Context, text string) ([]float64, error)
}

// NLIScores holds the label probabilities of a natural language inference call
type NLIScores struct {
	Entailment    float64 `json:"entailment"`
	Neutral       float64 `json:"neutral"`
	Contradiction float64 `json:"contradiction"`
}

// NLIClassifier decides whether a premise entails, contradicts or is neutral towards a hypothesis
type NLIClassifier interface {
	Classify(ctx context.Context, premise, hypothesis string) (NLIScores, error)
}

// Segmenter splits raw text into an ordered sequence of sentence units
type Segmenter interface {
	Segment(ctx context.Context, text string) ([]string, error)
}

// Translator maps text into the target language (BCP-47 tag, e.g. "en")
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// ModerationCategories contains all supported moderation category names
// These are developer-friendly names that map to Google Cloud Natural Language API categories
var ModerationCategories []string = []string{
	"Toxic",
	"Derogatory",
	"Violent",
	"Sexual",
	"Insult",
	"Profanity",
	"DeathHarmTragedy",
	"FirearmsWeapons",
	"PublicSafety",
	"Health",
	"ReligionBelief",
	"IllicitDrugs",
	"WarConflict",
	"Finance",
	"Politics",
	"Legal",
}

// ModerationCategory represents a safety category with confidence score
type ModerationCategory struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// ModerationResult represents the result of content moderation
type ModerationResult struct {
	Categories []ModerationCategory `json:"categories"`
}

// ModerationProvider is an interface for content moderation
// A Google Cloud Natural Language implementation is provided in the gemini subpackage
type ModerationProvider interface {
	// Moderate analyzes content for safety and returns moderation results
	Moderate(ctx context.Context, content string) (*ModerationResult, error)
}

// Score represents the result of an evaluation
type Score struct {
	// Name identifies the scorer that produced this result
	Name string
	// Score is a value between 0 and 1, where 1 is the best possible score
	Score float64
	// Metadata contains additional information about the scoring process
	Metadata map[string]any
	// Error contains any error that occurred during scoring
	Error error
}

// ScoreInputs carries inputs for scoring across different scorers.
//
// Fields usage conventions:
// - Output:   the candidate text being evaluated (required for most scorers)
// - Expected: the reference text (optional depending on scorer)
// - Input:    the original prompt/context (optional)
type ScoreInputs struct {
	Output   string
	Expected string
	Input    string
}

// Scorer evaluates the quality of an output
type Scorer interface {
	// Score evaluates the output and returns a score
	// in: container for output/expected/input depending on scorer needs
	Score(ctx context.Context, in ScoreInputs) Score
}

// NeutralScore is reported for degenerate input and, when the fault policy allows it, for failed evaluations
const NeutralScore = 0.0
