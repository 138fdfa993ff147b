package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newChatServer returns a fake /chat/completions endpoint that records every request
func newChatServer(t *testing.T, status int, reply string, calls *int32, captured *chatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"role": "assistant", "content": content}}},
	})
	return string(b)
}

func testMessages() []Message {
	return []Message{
		{Role: RoleSystem, Content: "You write short-video ideas."},
		{Role: RoleUser, Content: "Generate 3 ideas about fitness."},
	}
}

func TestOpenAIClient_GenerateText(t *testing.T) {
	var calls int32
	var captured chatCompletionRequest
	srv := newChatServer(t, http.StatusOK, completionBody("hello"), &calls, &captured)

	client, err := NewOpenAIClient(Config{BaseURL: srv.URL, Model: "gpt-test", APIKey: "sk-test", Temperature: 0.7, MaxTokens: 4096})
	require.NoError(t, err)

	text, err := client.GenerateText(context.Background(), TextRequest{Messages: testMessages()})
	require.NoError(t, err)

	assert.Equal(t, "hello", text)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "gpt-test", captured.Model)
	assert.Equal(t, 0.7, captured.Temperature)
	assert.Equal(t, 4096, captured.MaxTokens)
	assert.Nil(t, captured.ResponseFormat)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, RoleSystem, captured.Messages[0].Role)
}

func TestOpenAIClient_RequestOverrides(t *testing.T) {
	var calls int32
	var captured chatCompletionRequest
	srv := newChatServer(t, http.StatusOK, completionBody("ok"), &calls, &captured)

	client, err := NewOpenAIClient(Config{BaseURL: srv.URL, Model: "gpt-test", APIKey: "sk-test", Temperature: 0.7, MaxTokens: 4096})
	require.NoError(t, err)

	temp := 0.2
	_, err = client.GenerateText(context.Background(), TextRequest{Messages: testMessages(), Temperature: &temp, MaxTokens: 100})
	require.NoError(t, err)

	assert.Equal(t, 0.2, captured.Temperature)
	assert.Equal(t, 100, captured.MaxTokens)
}

func TestOpenAIClient_GenerateStructured_SchemaFormat(t *testing.T) {
	var calls int32
	var captured chatCompletionRequest
	srv := newChatServer(t, http.StatusOK, completionBody(`{"ideas": []}`), &calls, &captured)

	client, err := NewOpenAIClient(Config{BaseURL: srv.URL, Model: "gpt-test", APIKey: "sk-test"})
	require.NoError(t, err)

	schema := map[string]any{"type": "object"}
	text, err := client.GenerateStructured(context.Background(), StructuredRequest{
		TextRequest: TextRequest{Messages: testMessages()},
		SchemaName:  "ideas",
		Schema:      schema,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ideas": []}`, text)

	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, "json_schema", captured.ResponseFormat.Type)
	require.NotNil(t, captured.ResponseFormat.JSONSchema)
	assert.Equal(t, "ideas", captured.ResponseFormat.JSONSchema.Name)
	assert.Equal(t, "object", captured.ResponseFormat.JSONSchema.Schema["type"])
}

func TestOpenAIClient_GenerateStructured_JSONObjectWithoutSchema(t *testing.T) {
	var calls int32
	var captured chatCompletionRequest
	srv := newChatServer(t, http.StatusOK, completionBody(`{}`), &calls, &captured)

	client, err := NewOpenAIClient(Config{BaseURL: srv.URL, Model: "gpt-test", APIKey: "sk-test"})
	require.NoError(t, err)

	_, err = client.GenerateStructured(context.Background(), StructuredRequest{TextRequest: TextRequest{Messages: testMessages()}})
	require.NoError(t, err)

	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, "json_object", captured.ResponseFormat.Type)
	assert.Nil(t, captured.ResponseFormat.JSONSchema)
}

func TestOpenAIClient_Non2xxIsProviderError(t *testing.T) {
	var calls int32
	srv := newChatServer(t, http.StatusTooManyRequests, `{"error": {"message": "slow down"}}`, &calls, nil)

	client, err := NewOpenAIClient(Config{BaseURL: srv.URL, Model: "gpt-test", APIKey: "sk-test"})
	require.NoError(t, err)

	_, err = client.GenerateText(context.Background(), TextRequest{Messages: testMessages()})
	require.Error(t, err)

	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusTooManyRequests, provErr.StatusCode)
	assert.Contains(t, provErr.Body, "slow down")
	assert.Equal(t, ProviderOpenAI, provErr.Provider)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "errors must not be retried")
}

func TestOpenAIClient_EmptyCompletion(t *testing.T) {
	var calls int32
	srv := newChatServer(t, http.StatusOK, `{"choices": []}`, &calls, nil)

	client, err := NewOpenAIClient(Config{BaseURL: srv.URL, Model: "gpt-test", APIKey: "sk-test"})
	require.NoError(t, err)

	_, err = client.GenerateText(context.Background(), TextRequest{Messages: testMessages()})
	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Contains(t, provErr.Error(), "empty completion")
}

func TestOpenAIClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client, err := NewOpenAIClient(Config{BaseURL: url, Model: "gpt-test", APIKey: "sk-test"})
	require.NoError(t, err)

	_, err = client.GenerateText(context.Background(), TextRequest{Messages: testMessages()})
	var provErr *ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, 0, provErr.StatusCode)
	assert.NotNil(t, provErr.Unwrap())
}

func TestOpenAIClient_MissingCredentialMakesNoCall(t *testing.T) {
	var calls int32
	srv := newChatServer(t, http.StatusOK, completionBody("unreachable"), &calls, nil)

	client, err := NewOpenAIClient(Config{BaseURL: srv.URL, Model: "gpt-test", APIKey: ""})
	require.Error(t, err)
	assert.Nil(t, client)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "api_key", cfgErr.Field)

	// A zero-value client must also fail fast at call time.
	bare := &OpenAIClient{config: Config{BaseURL: srv.URL, Model: "gpt-test"}, httpClient: srv.Client()}
	_, err = bare.GenerateText(context.Background(), TextRequest{Messages: testMessages()})
	require.ErrorAs(t, err, &cfgErr)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestOpenAIClient_ContextCancelled(t *testing.T) {
	var calls int32
	srv := newChatServer(t, http.StatusOK, completionBody("late"), &calls, nil)

	client, err := NewOpenAIClient(Config{BaseURL: srv.URL, Model: "gpt-test", APIKey: "sk-test"}, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.GenerateText(ctx, TextRequest{Messages: testMessages()})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
