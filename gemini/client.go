package gemini

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/genai"

	"github.com/datar-psa/evalservice/api"
)

// Backend names accepted by ClientConfig.Backend
const (
	BackendGeminiAPI = "gemini-api"
	BackendVertexAI  = "vertex-ai"
)

// ClientConfig selects and authenticates a Gemini backend
type ClientConfig struct {
	// Backend is BackendGeminiAPI (default) or BackendVertexAI
	Backend string
	// APIKey authenticates BackendGeminiAPI
	APIKey string
	// Project and Location select the Vertex AI endpoint; credentials come from the environment
	Project  string
	Location string
	// HTTPClient overrides the transport, e.g. for recorded tests
	HTTPClient *http.Client
}

// NewClient creates a genai.Client for cfg.
// Missing credentials are reported as api.ErrDependencyMissing.
func NewClient(ctx context.Context, cfg ClientConfig) (*genai.Client, error) {
	cc := &genai.ClientConfig{HTTPClient: cfg.HTTPClient}

	switch cfg.Backend {
	case BackendVertexAI:
		if cfg.Project == "" || cfg.Location == "" {
			return nil, api.MissingDependency("gemini", errors.New("vertex-ai backend needs a project and a location"))
		}
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.Project
		cc.Location = cfg.Location
	case BackendGeminiAPI, "":
		if cfg.APIKey == "" {
			return nil, api.MissingDependency("gemini", errors.New("no API key configured"))
		}
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = cfg.APIKey
	default:
		return nil, api.MissingDependency("gemini", errors.New("unknown backend "+cfg.Backend))
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, api.MissingDependency("gemini", err)
	}
	return client, nil
}
