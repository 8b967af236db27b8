package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-json-experiment/json"
	"google.golang.org/genai"

	"github.com/datar-psa/evalservice/api"
)

// Generator wraps a genai.Client to implement the LLMGenerator interface
type Generator struct {
	client    *genai.Client
	modelName string
}

// NewGenerator creates a new Gemini generator
// client: genai.Client from google.golang.org/genai
// modelName: the model to use (e.g., "gemini-2.5-flash")
func NewGenerator(client *genai.Client, modelName string) *Generator {
	return &Generator{
		client:    client,
		modelName: modelName,
	}
}

// Generate implements LLMGenerator.Generate
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.generate(ctx, prompt, &genai.GenerateContentConfig{})
}

// StructuredGenerate implements LLMGenerator.StructuredGenerate.
// The model is constrained to JSON output matching schema.
func (g *Generator) StructuredGenerate(ctx context.Context, prompt string, schema map[string]interface{}) (map[string]interface{}, error) {
	responseSchema, err := SchemaFromMap(schema)
	if err != nil {
		return nil, err
	}

	text, err := g.generate(ctx, prompt, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema,
	})
	if err != nil {
		return nil, err
	}

	var out map[string]interface{}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("failed to decode structured response: %w", err)
	}
	return out, nil
}

func (g *Generator) generate(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	content := &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: prompt},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, []*genai.Content{content}, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no parts in response")
	}
	return sb.String(), nil
}

// SchemaFromMap converts a JSON-schema style map, as accepted by LLMGenerator.StructuredGenerate,
// into a genai.Schema. Supported keywords: type, description, enum, properties, required, items.
func SchemaFromMap(m map[string]interface{}) (*genai.Schema, error) {
	s := &genai.Schema{}

	if t, ok := m["type"].(string); ok {
		typ, err := schemaType(t)
		if err != nil {
			return nil, err
		}
		s.Type = typ
	}
	if d, ok := m["description"].(string); ok {
		s.Description = d
	}

	var err error
	if s.Enum, err = stringList(m["enum"]); err != nil {
		return nil, fmt.Errorf("enum: %w", err)
	}
	if s.Required, err = stringList(m["required"]); err != nil {
		return nil, fmt.Errorf("required: %w", err)
	}

	if props, ok := m["properties"].(map[string]interface{}); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			sub, ok := raw.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("property %q: schema must be an object", name)
			}
			if s.Properties[name], err = SchemaFromMap(sub); err != nil {
				return nil, fmt.Errorf("property %q: %w", name, err)
			}
		}
	}

	if items, ok := m["items"].(map[string]interface{}); ok {
		if s.Items, err = SchemaFromMap(items); err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
	}

	return s, nil
}

func schemaType(t string) (genai.Type, error) {
	switch strings.ToLower(t) {
	case "object":
		return genai.TypeObject, nil
	case "string":
		return genai.TypeString, nil
	case "number":
		return genai.TypeNumber, nil
	case "integer":
		return genai.TypeInteger, nil
	case "boolean":
		return genai.TypeBoolean, nil
	case "array":
		return genai.TypeArray, nil
	default:
		return "", fmt.Errorf("unsupported schema type %q", t)
	}
}

func stringList(v interface{}) ([]string, error) {
	switch list := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return list, nil
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of strings, got %T", v)
	}
}

// Verify that Generator implements LLMGenerator
var _ api.LLMGenerator = (*Generator)(nil)
