package ideas

import (
	"strconv"
	"strings"

	"github.com/jonathan/idea-studio/internal/llm"
	"github.com/jonathan/idea-studio/internal/prompts"
)

const promptFile = "ideas.json"

// BuildPrompt renders the user instruction for a normalized request.
// The output depends only on req.
func BuildPrompt(req GenerationRequest) string {
	platforms := req.Platforms
	if len(platforms) == 0 {
		platforms = DefaultPlatforms()
	}
	count := strconv.Itoa(req.Count)

	names := make([]string, 0, len(platforms))
	keys := make([]string, 0, len(platforms))
	for _, p := range platforms {
		names = append(names, p.DisplayName())
		keys = append(keys, string(p))
	}

	// The contract is rendered first because Format does not expand
	// placeholders inside substituted values.
	contract := prompts.Format(prompts.MustGet(promptFile, "output-contract"), map[string]string{
		"Count": count,
	})

	return prompts.Format(prompts.MustGet(promptFile, "generate-ideas"), map[string]string{
		"Niche":          req.Niche,
		"Platforms":      strings.Join(names, ", "),
		"PlatformKeys":   strings.Join(keys, ", "),
		"Branding":       brandingLines(req.Branding),
		"Count":          count,
		"OutputContract": contract,
	})
}

// BuildMessages returns the system and user messages for req.
func BuildMessages(req GenerationRequest) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: prompts.MustGet(promptFile, "system")},
		{Role: llm.RoleUser, Content: BuildPrompt(req)},
	}
}

func brandingLines(b Branding) string {
	var lines []string
	if b.Voice != "" {
		lines = append(lines, "Brand voice: "+b.Voice)
	}
	if len(b.Values) > 0 {
		lines = append(lines, "Brand values: "+strings.Join(b.Values, ", "))
	}
	if len(b.Colors) > 0 {
		lines = append(lines, "Brand colors: "+strings.Join(b.Colors, ", "))
	}
	return strings.Join(lines, "\n")
}
