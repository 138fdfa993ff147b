package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	if err := requireField(ProviderGemini, "api_key", cfg.APIKey); err != nil {
		return nil, err
	}
	if err := requireField(ProviderGemini, "model", cfg.Model); err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: cfg,
	}, nil
}

// GenerateText generates free-form text content
func (c *GeminiClient) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	log.Printf("[gemini] Generating text with %d messages", len(req.Messages))
	return c.generate(ctx, req, false, nil)
}

// GenerateStructured generates JSON constrained by the converted response schema
func (c *GeminiClient) GenerateStructured(ctx context.Context, req StructuredRequest) (string, error) {
	log.Printf("[gemini] Generating structured output with %d messages", len(req.Messages))
	text, err := c.generate(ctx, req.TextRequest, true, toGenaiSchema(req.Schema))
	if err != nil {
		return "", err
	}
	// Clean any markdown code block wrappers
	return CleanJSONBlock(text), nil
}

// Provider returns ProviderGemini
func (c *GeminiClient) Provider() Provider {
	return ProviderGemini
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *GeminiClient) generate(ctx context.Context, req TextRequest, jsonMode bool, schema *genai.Schema) (string, error) {
	if err := requireField(ProviderGemini, "api_key", c.config.APIKey); err != nil {
		return "", err
	}

	model := c.client.GenerativeModel(c.config.Model)
	model.SetTemperature(float32(resolveTemperature(req.Temperature, c.config.Temperature)))
	model.SetMaxOutputTokens(int32(resolveMaxTokens(req.MaxTokens, c.config.MaxTokens)))
	if jsonMode {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = schema
	}

	system, turns := splitSystem(req.Messages)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if len(turns) == 0 {
		return "", fmt.Errorf("at least one user message is required")
	}

	cs := model.StartChat()
	for _, m := range turns[:len(turns)-1] {
		cs.History = append(cs.History, &genai.Content{
			Role:  geminiRole(m.Role),
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(turns[len(turns)-1].Content))
	if err != nil {
		return "", wrapGeminiError(err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", err
	}
	log.Printf("[gemini] Generated text length: %d", len(text))
	return text, nil
}

// geminiRole maps chat roles onto Gemini's user/model vocabulary
func geminiRole(r Role) string {
	if r == RoleAssistant {
		return "model"
	}
	return "user"
}

// wrapGeminiError converts SDK errors into ProviderError, keeping the HTTP status when known
func wrapGeminiError(err error) error {
	perr := &ProviderError{Provider: ProviderGemini, Message: "failed to generate content", Cause: err}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		perr.StatusCode = apiErr.Code
		perr.Body = apiErr.Body
	}
	return perr
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &ProviderError{Provider: ProviderGemini, Message: "no candidates in response"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &ProviderError{Provider: ProviderGemini, Message: "no content in response"}
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 || strings.TrimSpace(strings.Join(parts, "")) == "" {
		return "", &ProviderError{Provider: ProviderGemini, Message: "empty completion"}
	}

	return strings.Join(parts, ""), nil
}

// toGenaiSchema converts the subset of JSON Schema used by this service into
// a Gemini response schema. Unsupported keywords are dropped; validation of
// the full schema happens after the response is parsed.
func toGenaiSchema(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}

	out := &genai.Schema{}
	switch t := schema["type"].(type) {
	case string:
		out.Type = genaiType(t)
	case []any:
		for _, v := range t {
			s, _ := v.(string)
			if s == "null" {
				out.Nullable = true
				continue
			}
			if out.Type == genai.TypeUnspecified {
				out.Type = genaiType(s)
			}
		}
	}

	if desc, ok := schema["description"].(string); ok {
		out.Description = desc
	}
	if enum, ok := schema["enum"].([]any); ok {
		for _, v := range enum {
			if s, ok := v.(string); ok {
				out.Enum = append(out.Enum, s)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		out.Items = toGenaiSchema(items)
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if prop, ok := raw.(map[string]any); ok {
				out.Properties[name] = toGenaiSchema(prop)
			}
		}
	}
	switch req := schema["required"].(type) {
	case []any:
		for _, v := range req {
			if s, ok := v.(string); ok {
				out.Required = append(out.Required, s)
			}
		}
	case []string:
		out.Required = append(out.Required, req...)
	}
	return out
}

func genaiType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}
