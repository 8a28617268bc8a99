package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	appcfg "github.com/presenton/core/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func chunkFrame(content string) string {
	payload := map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion.chunk",
		"created": 1,
		"model":   "gpt-test",
		"choices": []map[string]any{{
			"index":         0,
			"delta":         map[string]any{"content": content},
			"finish_reason": nil,
		}},
	}
	data, _ := json.Marshal(payload)
	return "data: " + string(data) + "\n\n"
}

// fakeCompletions serves an OpenAI-compatible streaming endpoint and records
// the last request body.
func fakeCompletions(t *testing.T, fragments []string, lastBody *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		if lastBody != nil {
			assert.NoError(t, json.Unmarshal(body, lastBody))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, f := range fragments {
			_, _ = io.WriteString(w, chunkFrame(f))
			w.(http.Flusher).Flush()
		}
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func outlineSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"slides": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		},
		Required: []string{"slides"},
	}
}

func collect(seq func(func(string, error) bool)) ([]string, error) {
	var out []string
	var last error
	seq(func(s string, err error) bool {
		if err != nil {
			last = err
			return false
		}
		out = append(out, s)
		return true
	})
	return out, last
}

func TestOpenAIClient_StreamsFragmentsInOrder(t *testing.T) {
	var body map[string]any
	srv := fakeCompletions(t, []string{`{"slides":`, ` ["a",`, ` "b"]}`}, &body)

	client, err := New(context.Background(), appcfg.LLMConfig{
		Provider: appcfg.ProviderCustom,
		Model:    "gpt-test",
		APIKey:   "sk-test",
		BaseURL:  srv.URL,
	})
	require.NoError(t, err)
	assert.Equal(t, "gpt-test", client.Model())
	assert.False(t, client.SupportsWebGrounding())

	messages := []Message{SystemMessage("be terse"), UserMessage("make slides")}
	fragments, err := collect(client.StreamStructured(context.Background(), "", messages, outlineSchema(), true, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{`{"slides":`, ` ["a",`, ` "b"]}`}, fragments)

	assert.Equal(t, "gpt-test", body["model"])
	format := body["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	jsonSchema := format["json_schema"].(map[string]any)
	assert.Equal(t, true, jsonSchema["strict"])
	assert.Equal(t, responseSchemaName, jsonSchema["name"])
	assert.NotContains(t, body, "web_search_options")

	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
}

func TestOpenAIClient_WebSearchOptions(t *testing.T) {
	var body map[string]any
	srv := fakeCompletions(t, []string{"{}"}, &body)

	client, err := New(context.Background(), appcfg.LLMConfig{
		Provider:     appcfg.ProviderOpenAI,
		Model:        "gpt-test",
		APIKey:       "sk-test",
		BaseURL:      srv.URL,
		WebGrounding: true,
	})
	require.NoError(t, err)
	require.True(t, client.SupportsWebGrounding())

	_, err = collect(client.StreamStructured(context.Background(), "gpt-test", []Message{UserMessage("x")}, nil, true, []Tool{WebSearchTool}))
	require.NoError(t, err)
	assert.Contains(t, body, "web_search_options")
	assert.NotContains(t, body, "response_format")
}

func TestOpenAIClient_StopsWhenConsumerStops(t *testing.T) {
	srv := fakeCompletions(t, []string{"a", "b", "c"}, nil)
	client, err := New(context.Background(), appcfg.LLMConfig{
		Provider: appcfg.ProviderCustom, Model: "m", APIKey: "k", BaseURL: srv.URL,
	})
	require.NoError(t, err)

	var got []string
	for fragment, err := range client.StreamStructured(context.Background(), "", []Message{UserMessage("x")}, nil, false, nil) {
		require.NoError(t, err)
		got = append(got, fragment)
		break
	}
	assert.Equal(t, []string{"a"}, got)
}

func TestOpenAIClient_APIErrorIsTranslated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"rate limited","type":"rate_limit_error"}}`)
	}))
	t.Cleanup(srv.Close)

	client, err := New(context.Background(), appcfg.LLMConfig{
		Provider: appcfg.ProviderCustom, Model: "m", APIKey: "k", BaseURL: srv.URL,
	})
	require.NoError(t, err)

	fragments, err := collect(client.StreamStructured(context.Background(), "", []Message{UserMessage("x")}, outlineSchema(), true, nil))
	require.Error(t, err)
	assert.Empty(t, fragments)

	translated := TranslateError(err)
	assert.Equal(t, http.StatusTooManyRequests, translated.Status)
	assert.True(t, strings.HasPrefix(translated.Detail, "OpenAI API error: "), translated.Detail)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(context.Background(), appcfg.LLMConfig{Provider: "bedrock"})
	assert.ErrorContains(t, err, "unsupported llm provider")

	for _, provider := range []string{appcfg.ProviderOpenAI, appcfg.ProviderGoogle, appcfg.ProviderAnthropic} {
		_, err := New(context.Background(), appcfg.LLMConfig{Provider: provider, Model: "m"})
		assert.ErrorIs(t, err, errEmptyAPIKey, provider)
	}

	// ollama runs without a key
	client, err := New(context.Background(), appcfg.LLMConfig{Provider: appcfg.ProviderOllama, Model: "llama3.2:3b", BaseURL: "http://localhost:11434"})
	require.NoError(t, err)
	assert.False(t, client.SupportsWebGrounding())
}

func TestAnthropicClient_NoWebGrounding(t *testing.T) {
	client, err := New(context.Background(), appcfg.LLMConfig{
		Provider: appcfg.ProviderAnthropic, Model: "claude-test", APIKey: "k", WebGrounding: true,
	})
	require.NoError(t, err)
	assert.False(t, client.SupportsWebGrounding())
	assert.Equal(t, "claude-test", client.Model())
}

func TestTranslateError(t *testing.T) {
	t.Run("google api error", func(t *testing.T) {
		err := fmt.Errorf("stream: %w", genai.APIError{Code: 403, Message: "permission denied", Status: "PERMISSION_DENIED"})
		got := TranslateError(err)
		assert.Equal(t, 403, got.Status)
		assert.Equal(t, "Google API error: permission denied", got.Detail)
	})
	t.Run("stream error passes through", func(t *testing.T) {
		in := &StreamError{Status: 502, Detail: "upstream closed"}
		assert.Same(t, in, TranslateError(fmt.Errorf("wrap: %w", in)))
	})
	t.Run("unknown error", func(t *testing.T) {
		got := TranslateError(errors.New("tool call interrupted"))
		assert.Equal(t, http.StatusInternalServerError, got.Status)
		assert.Equal(t, "LLM API error: tool call interrupted", got.Detail)
	})
	t.Run("nil and blank errors never produce an empty detail", func(t *testing.T) {
		assert.NotEmpty(t, TranslateError(nil).Detail)
		assert.Equal(t, "LLM API error: unknown error", TranslateError(errors.New("  ")).Detail)
		assert.NotEmpty(t, TranslateError(&StreamError{}).Detail)
	})
}

func TestWithSchemaInstruction(t *testing.T) {
	got, err := withSchemaInstruction("persona", outlineSchema())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "persona\n\nRespond only with a JSON object"))
	assert.Contains(t, got, `"slides"`)

	same, err := withSchemaInstruction("persona", nil)
	require.NoError(t, err)
	assert.Equal(t, "persona", same)
}

func TestNormalizeOpenAIBaseURL(t *testing.T) {
	assert.Equal(t, "", normalizeOpenAIBaseURL(" "))
	assert.Equal(t, "http://localhost:11434/v1", normalizeOpenAIBaseURL("http://localhost:11434"))
	assert.Equal(t, "http://localhost:11434/v1", normalizeOpenAIBaseURL("http://localhost:11434/v1/"))
	assert.Equal(t, "https://proxy.example.com/openai/v1", normalizeOpenAIBaseURL("https://proxy.example.com/openai"))
}
