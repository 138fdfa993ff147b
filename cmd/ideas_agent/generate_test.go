package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/idea-studio/internal/config"
	"github.com/jonathan/idea-studio/internal/ideas"
	"github.com/jonathan/idea-studio/internal/llm"
)

type stubGenerator struct {
	mu       sync.Mutex
	failFor  map[string]error
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (g *stubGenerator) Generate(_ context.Context, req ideas.GenerationRequest) (*ideas.GenerationResult, error) {
	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		peak := g.peak.Load()
		if n <= peak || g.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(10 * time.Millisecond)

	g.mu.Lock()
	err := g.failFor[req.Niche]
	g.mu.Unlock()
	if err != nil {
		return nil, err
	}

	result := &ideas.GenerationResult{}
	for i := 0; i < req.Count; i++ {
		result.Ideas = append(result.Ideas, ideas.GenerationIdea{Title: req.Niche, Platform: "tiktok", ViralScore: 50})
	}
	return result, nil
}

func TestBuildRequests(t *testing.T) {
	reqs, err := buildRequests([]string{" fitness ", "cooking"}, []string{"TikTok", "shorts", "tiktok"}, 3,
		ideas.Branding{Voice: "calm", Values: []string{"", "honesty"}})
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	assert.Equal(t, "fitness", reqs[0].Niche)
	assert.Equal(t, "cooking", reqs[1].Niche)
	assert.Equal(t, []ideas.Platform{ideas.PlatformTikTok, ideas.PlatformShorts}, reqs[0].Platforms)
	assert.Equal(t, 3, reqs[0].Count)
	assert.Equal(t, []string{"honesty"}, reqs[0].Branding.Values)
}

func TestBuildRequests_Defaults(t *testing.T) {
	reqs, err := buildRequests([]string{"travel"}, nil, 0, ideas.Branding{})
	require.NoError(t, err)
	require.Len(t, reqs, 1)

	assert.Equal(t, ideas.DefaultPlatforms(), reqs[0].Platforms)
	assert.Equal(t, ideas.DefaultCount, reqs[0].Count)
}

func TestBuildRequests_Invalid(t *testing.T) {
	_, err := buildRequests([]string{"fitness", "  "}, []string{"myspace"}, 30, ideas.Branding{})

	var validationErr *ideas.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, err.Error(), `niche "fitness"`)
}

func TestRunBatch_AllSucceed(t *testing.T) {
	gen := &stubGenerator{}
	reqs, err := buildRequests([]string{"baking", "fitness", "travel", "gardening"}, nil, 2, ideas.Branding{})
	require.NoError(t, err)

	results := runBatch(context.Background(), gen, reqs, 2)
	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, reqs[i].Niche, r.Niche, "results keep request order")
		assert.Len(t, r.Ideas, 2)
		assert.NoError(t, r.err)
	}
	assert.LessOrEqual(t, gen.peak.Load(), int32(2))
	assert.NoError(t, batchError(results))
}

func TestRunBatch_FailureDoesNotCancelOthers(t *testing.T) {
	gen := &stubGenerator{failFor: map[string]error{
		"fitness": &llm.ProviderError{Provider: llm.ProviderOpenAI, StatusCode: 503},
	}}
	reqs, err := buildRequests([]string{"baking", "fitness", "travel"}, nil, 1, ideas.Branding{})
	require.NoError(t, err)

	results := runBatch(context.Background(), gen, reqs, 0)
	require.Len(t, results, 3)
	assert.Len(t, results[0].Ideas, 1)
	assert.Len(t, results[2].Ideas, 1)
	assert.Empty(t, results[1].Ideas)
	assert.Contains(t, results[1].Error, "503")

	err = batchError(results)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 generations failed")
	assert.Contains(t, err.Error(), "fitness (provider)")
}

func TestClientConfig_ModelOverride(t *testing.T) {
	cfg := config.Default()
	cfg.OpenAI.Model = "gpt-4o-mini"

	assert.Equal(t, "gpt-4o-mini", clientConfig(cfg, "").Model)

	overridden := clientConfig(cfg, "gpt-4o")
	assert.Equal(t, "gpt-4o", overridden.Model)
	assert.Equal(t, llm.ProviderOpenAI, overridden.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLMConfig().Model)
}

func TestBatchError_SingleRunKeepsCause(t *testing.T) {
	cause := &ideas.ParseError{Message: "no JSON value found"}
	err := batchError([]batchResult{{Niche: "a", err: cause}})

	var parseErr *ideas.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestWriteResults_Single(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResults(&buf, []batchResult{{
		Niche: "fitness",
		Ideas: []ideas.GenerationIdea{{Title: "t", Hook: "h", Outline: []string{"o"}, CTA: "c", Platform: "tiktok", ViralScore: 70}},
	}}))

	var result ideas.GenerationResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	require.Len(t, result.Ideas, 1)
	assert.Equal(t, "t", result.Ideas[0].Title)
}

func TestWriteResults_Batch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResults(&buf, []batchResult{
		{Niche: "a", Ideas: []ideas.GenerationIdea{{Title: "x"}}},
		{Niche: "b", Error: "boom", err: errors.New("boom")},
	}))

	var out []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0]["niche"])
	assert.Equal(t, "boom", out[1]["error"])
	assert.NotContains(t, out[1], "ideas")
}

func TestGenerateCommand_MissingNicheFlag(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "generate", "--count", "3")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "required flag(s) \"niche\" not set")
}

func TestGenerateCommand_InvalidRequest(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "generate", "--niche", "fitness", "--count", "99")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "invalid request")
	assert.Contains(t, string(output), "count")
}
