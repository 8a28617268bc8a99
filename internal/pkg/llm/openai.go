package llm

import (
	"context"
	"iter"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	appcfg "github.com/presenton/core/internal/config"
)

const responseSchemaName = "response"

// openAIClient serves openai, custom and ollama providers through the
// chat completions API.
type openAIClient struct {
	client       openai.Client
	model        string
	maxTokens    int
	temperature  float64
	webGrounding bool
}

func newOpenAIClient(cfg appcfg.LLMConfig) (*openAIClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		if cfg.Provider != appcfg.ProviderOllama {
			return nil, errEmptyAPIKey
		}
		// ollama ignores the key but the SDK requires one
		apiKey = "ollama"
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if base := normalizeOpenAIBaseURL(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}

	return &openAIClient{
		client:       openai.NewClient(opts...),
		model:        cfg.Model,
		maxTokens:    cfg.MaxOutputTokens,
		temperature:  cfg.Temperature,
		webGrounding: cfg.Provider == appcfg.ProviderOpenAI && cfg.WebGrounding,
	}, nil
}

func (c *openAIClient) Model() string              { return c.model }
func (c *openAIClient) SupportsWebGrounding() bool { return c.webGrounding }

func (c *openAIClient) StreamStructured(ctx context.Context, model string, messages []Message, schema *jsonschema.Schema, strict bool, tools []Tool) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if model == "" {
			model = c.model
		}
		params := openai.ChatCompletionNewParams{
			Model:    shared.ChatModel(model),
			Messages: toOpenAIMessages(messages),
		}
		if c.maxTokens > 0 {
			params.MaxCompletionTokens = openai.Int(int64(c.maxTokens))
		}
		if c.temperature > 0 {
			params.Temperature = openai.Float(c.temperature)
		}
		if schema != nil {
			rendered, err := schemaMap(schema)
			if err != nil {
				yield("", err)
				return
			}
			params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
					JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
						Name:   responseSchemaName,
						Strict: openai.Bool(strict),
						Schema: rendered,
					},
				},
			}
		}
		if hasTool(tools, WebSearchTool.Name) {
			params.WebSearchOptions = openai.ChatCompletionNewParamsWebSearchOptions{
				SearchContextSize: "medium",
			}
		}

		stream := c.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			if !yield(delta, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield("", err)
		}
	}
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
