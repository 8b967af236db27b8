package gemini

import (
	"context"
	"fmt"
	"net/http"

	language "cloud.google.com/go/language/apiv1"
	languagepb "cloud.google.com/go/language/apiv1/languagepb"
	"google.golang.org/api/option"

	"github.com/datar-psa/evalservice/api"
)

// LanguageConfig configures a Cloud Natural Language client
type LanguageConfig struct {
	// HTTPClient overrides the transport, e.g. for recorded tests
	HTTPClient *http.Client
	// QuotaProject bills requests to this project when set
	QuotaProject string
}

// NewLanguageClient creates a REST Cloud Natural Language client.
// Missing credentials are reported as api.ErrDependencyMissing.
func NewLanguageClient(ctx context.Context, cfg LanguageConfig) (*language.Client, error) {
	var opts []option.ClientOption
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.QuotaProject != "" {
		opts = append(opts, option.WithQuotaProject(cfg.QuotaProject))
	}

	client, err := language.NewRESTClient(ctx, opts...)
	if err != nil {
		return nil, api.MissingDependency("cloud natural language", err)
	}
	return client, nil
}

// GoogleLanguageProvider implements ModerationProvider using Google Cloud Natural Language API client
type GoogleLanguageProvider struct {
	client *language.Client
}

// NewGoogleLanguageProvider creates a new provider using a preconfigured *language.Client (auth handled by caller)
func NewGoogleLanguageProvider(client *language.Client) api.ModerationProvider {
	return &GoogleLanguageProvider{client: client}
}

// Moderate analyzes content for safety using Google Cloud Natural Language API
func (p *GoogleLanguageProvider) Moderate(ctx context.Context, content string) (*api.ModerationResult, error) {
	if p.client == nil {
		return nil, fmt.Errorf("language client is required")
	}

	req := &languagepb.ModerateTextRequest{
		Document: plainText(content),
	}

	resp, err := p.client.ModerateText(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("moderate text failed: %w", err)
	}

	categories := make([]api.ModerationCategory, 0, len(resp.ModerationCategories))
	for _, c := range resp.ModerationCategories {
		categories = append(categories, api.ModerationCategory{
			Name:       mapCategoryName(c.Name),
			Confidence: float64(c.Confidence),
		})
	}

	return &api.ModerationResult{Categories: categories}, nil
}

func plainText(content string) *languagepb.Document {
	return &languagepb.Document{
		Type: languagepb.Document_PLAIN_TEXT,
		Source: &languagepb.Document_Content{
			Content: content,
		},
	}
}

// mapCategoryName maps Google Cloud Natural Language API category names to developer-friendly names
func mapCategoryName(googleCategory string) string {
	switch googleCategory {
	case "Death, Harm & Tragedy":
		return "DeathHarmTragedy"
	case "Firearms & Weapons":
		return "FirearmsWeapons"
	case "Public Safety":
		return "PublicSafety"
	case "Religion & Belief":
		return "ReligionBelief"
	case "Illicit Drugs":
		return "IllicitDrugs"
	case "War & Conflict":
		return "WarConflict"
	default:
		// Single-word categories already match
		return googleCategory
	}
}
