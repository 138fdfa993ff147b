package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	prompt, err := Get("ideas.json", "generate-ideas")
	require.NoError(t, err)
	assert.Contains(t, prompt, "{{.Niche}}")
	assert.Contains(t, prompt, "Generate exactly {{.Count}} ideas")
}

func TestGet_InvalidFile(t *testing.T) {
	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	_, err := Get("ideas.json", "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestMustGet_ValidPrompt(t *testing.T) {
	assert.NotPanics(t, func() {
		prompt := MustGet("ideas.json", "system")
		assert.Contains(t, prompt, "pure JSON")
	})
}

func TestFormat(t *testing.T) {
	template := "Ideas for {{.Niche}} on {{.Platforms}}!"
	data := map[string]string{
		"Niche":     "fitness",
		"Platforms": "TikTok",
	}

	assert.Equal(t, "Ideas for fitness on TikTok!", Format(template, data))
}

func TestFormat_NoPlaceholders(t *testing.T) {
	template := "No placeholders here"
	data := map[string]string{"Key": "Value"}

	assert.Equal(t, template, Format(template, data))
}

func TestFormat_EmptyData(t *testing.T) {
	template := "Hello {{.Name}}"

	assert.Equal(t, template, Format(template, map[string]string{})) // Placeholder remains
}

func TestFormat_ValuesAreNotReexpanded(t *testing.T) {
	template := "Niche: {{.Niche}} / Count: {{.Count}}"
	data := map[string]string{
		"Niche": "cooking {{.Count}}",
		"Count": "3",
	}

	assert.Equal(t, "Niche: cooking {{.Count}} / Count: 3", Format(template, data))
}

func TestIdeasFileKeys(t *testing.T) {
	for _, key := range []string{"system", "generate-ideas", "output-contract"} {
		prompt, err := Get("ideas.json", key)
		require.NoError(t, err, key)
		assert.NotEmpty(t, prompt, key)
	}
}

func TestCaching(t *testing.T) {
	prompt1, err := Get("ideas.json", "system")
	require.NoError(t, err)

	// Second call should use cache
	prompt2, err := Get("ideas.json", "system")
	require.NoError(t, err)

	assert.Equal(t, prompt1, prompt2)

	cacheMu.RLock()
	_, cached := cache["ideas.json"]
	cacheMu.RUnlock()
	assert.True(t, cached)
}
