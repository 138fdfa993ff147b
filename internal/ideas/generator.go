package ideas

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/idea-studio/internal/llm"
	"github.com/jonathan/idea-studio/internal/schemas"
)

// Mode selects how the provider is asked for JSON.
type Mode string

const (
	// ModeText asks for JSON in the prompt only.
	ModeText Mode = "text"
	// ModeStructured also hands the provider the output schema.
	ModeStructured Mode = "structured"
)

// ParseMode accepts "text" or "structured", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeText, "":
		return ModeText, nil
	case ModeStructured:
		return ModeStructured, nil
	default:
		return "", fmt.Errorf("unknown generation mode %q (want text or structured)", s)
	}
}

// Generator runs the idea pipeline against one provider client.
// It is immutable after construction and safe for concurrent use.
type Generator struct {
	client      llm.Client
	maxIdeas    int
	mode        Mode
	temperature *float64
	maxTokens   int
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithMaxIdeas caps how many ideas are requested. Values outside
// [MinCount, MaxCount] are ignored.
func WithMaxIdeas(n int) GeneratorOption {
	return func(g *Generator) {
		if n >= MinCount && n <= MaxCount {
			g.maxIdeas = n
		}
	}
}

// WithMode selects text or structured generation.
func WithMode(mode Mode) GeneratorOption {
	return func(g *Generator) {
		g.mode = mode
	}
}

// WithTemperature overrides the client's configured temperature.
func WithTemperature(t float64) GeneratorOption {
	return func(g *Generator) {
		g.temperature = &t
	}
}

// WithMaxTokens overrides the client's configured completion budget.
func WithMaxTokens(n int) GeneratorOption {
	return func(g *Generator) {
		g.maxTokens = n
	}
}

// NewGenerator creates a Generator that calls client.
func NewGenerator(client llm.Client, opts ...GeneratorOption) *Generator {
	g := &Generator{
		client:   client,
		maxIdeas: MaxCount,
		mode:     ModeText,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MaxIdeas returns the ceiling applied to requested counts.
func (g *Generator) MaxIdeas() int {
	return g.maxIdeas
}

// Mode returns the generation mode.
func (g *Generator) Mode() Mode {
	return g.mode
}

// Generate validates req, prompts the provider and returns the parsed ideas.
// Any failing stage stops the pipeline; no partial result is returned.
func (g *Generator) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	normalized, err := NormalizeRequest(req)
	if err != nil {
		return nil, err
	}
	normalized.Count = g.clampCount(normalized.Count)

	if g.client == nil {
		return nil, &llm.ConfigurationError{Field: "client", Message: "no generation client configured"}
	}

	text, err := g.call(ctx, BuildMessages(*normalized))
	if err != nil {
		return nil, fmt.Errorf("generate ideas: %w", err)
	}

	return ParseResult(text, normalized.Count)
}

func (g *Generator) call(ctx context.Context, messages []llm.Message) (string, error) {
	textReq := llm.TextRequest{
		Messages:    messages,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	}
	if g.mode != ModeStructured {
		return g.client.GenerateText(ctx, textReq)
	}

	schema, err := schemas.Load(schemas.IdeasOutput)
	if err != nil {
		return "", err
	}
	// Providers reject the draft metadata keywords.
	delete(schema, "$schema")
	delete(schema, "$id")
	delete(schema, "title")

	return g.client.GenerateStructured(ctx, llm.StructuredRequest{
		TextRequest: textReq,
		SchemaName:  "generation_result",
		Schema:      schema,
	})
}

func (g *Generator) clampCount(n int) int {
	if n < MinCount {
		return MinCount
	}
	if n > g.maxIdeas {
		return g.maxIdeas
	}
	return n
}
