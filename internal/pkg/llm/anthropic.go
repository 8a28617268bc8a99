package llm

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/jsonschema-go/jsonschema"
	appcfg "github.com/presenton/core/internal/config"
	jetai "go.jetify.com/ai"
	jetapi "go.jetify.com/ai/api"
	jetanthropic "go.jetify.com/ai/provider/anthropic"
)

// anthropicClient streams through the jetify provider abstraction. Claude has
// no native response schema, so the schema is carried in the system prompt.
type anthropicClient struct {
	client    anthropicclient.Client
	model     string
	maxTokens int
}

func newAnthropicClient(cfg appcfg.LLMConfig) (*anthropicClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errEmptyAPIKey
	}

	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(apiKey),
		anthropicoption.WithMaxRetries(cfg.MaxRetries),
	}
	if endpoint := strings.TrimSpace(cfg.BaseURL); endpoint != "" {
		opts = append(opts, anthropicoption.WithBaseURL(strings.TrimRight(endpoint, "/")))
	}

	return &anthropicClient{
		client:    anthropicclient.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxOutputTokens,
	}, nil
}

func (c *anthropicClient) Model() string              { return c.model }
func (c *anthropicClient) SupportsWebGrounding() bool { return false }

func (c *anthropicClient) StreamStructured(ctx context.Context, model string, messages []Message, schema *jsonschema.Schema, strict bool, tools []Tool) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if model == "" {
			model = c.model
		}
		system, rest := splitSystem(messages)
		system, err := withSchemaInstruction(system, schema)
		if err != nil {
			yield("", err)
			return
		}

		lm := jetanthropic.NewLanguageModel(model, jetanthropic.WithClient(c.client))
		resp, err := jetai.StreamText(
			ctx,
			buildPromptMessages(system, rest),
			jetai.WithModel(lm),
			jetai.WithMaxOutputTokens(c.maxTokens),
		)
		if err != nil {
			yield("", err)
			return
		}

		for event := range resp.Stream {
			switch evt := event.(type) {
			case *jetapi.TextDeltaEvent:
				if evt.TextDelta == "" {
					continue
				}
				if !yield(evt.TextDelta, nil) {
					return
				}
			case *jetapi.ErrorEvent:
				if evt.Err == nil {
					yield("", errors.New("anthropic stream returned an unknown error"))
					return
				}
				if err, ok := any(evt.Err).(error); ok {
					yield("", err)
				} else {
					yield("", fmt.Errorf("%v", evt.Err))
				}
				return
			}
		}
	}
}

func buildPromptMessages(system string, rest []Message) []jetapi.Message {
	out := make([]jetapi.Message, 0, len(rest)+1)
	if strings.TrimSpace(system) != "" {
		out = append(out, &jetapi.SystemMessage{Content: system})
	}
	for _, m := range rest {
		out = append(out, &jetapi.UserMessage{Content: jetapi.ContentFromText(m.Content)})
	}
	return out
}
