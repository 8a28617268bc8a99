package llm

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	appcfg "github.com/presenton/core/internal/config"
	"google.golang.org/genai"
)

type googleClient struct {
	client       *genai.Client
	model        string
	maxTokens    int
	temperature  float64
	webGrounding bool
}

func newGoogleClient(ctx context.Context, cfg appcfg.LLMConfig) (*googleClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errEmptyAPIKey
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create google client: %w", err)
	}

	return &googleClient{
		client:       client,
		model:        cfg.Model,
		maxTokens:    cfg.MaxOutputTokens,
		temperature:  cfg.Temperature,
		webGrounding: cfg.WebGrounding,
	}, nil
}

func (c *googleClient) Model() string              { return c.model }
func (c *googleClient) SupportsWebGrounding() bool { return c.webGrounding }

// StreamStructured enforces the schema natively unless a search tool is
// attached; Gemini rejects a response schema combined with tools, so the
// schema then travels in the system instruction instead.
func (c *googleClient) StreamStructured(ctx context.Context, model string, messages []Message, schema *jsonschema.Schema, strict bool, tools []Tool) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if model == "" {
			model = c.model
		}
		system, rest := splitSystem(messages)
		config := &genai.GenerateContentConfig{}
		if c.maxTokens > 0 {
			config.MaxOutputTokens = int32(c.maxTokens)
		}
		if c.temperature > 0 {
			config.Temperature = genai.Ptr(float32(c.temperature))
		}

		if hasTool(tools, WebSearchTool.Name) {
			config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
			withSchema, err := withSchemaInstruction(system, schema)
			if err != nil {
				yield("", err)
				return
			}
			system = withSchema
		} else if schema != nil {
			rendered, err := schemaMap(schema)
			if err != nil {
				yield("", err)
				return
			}
			config.ResponseMIMEType = "application/json"
			config.ResponseJsonSchema = rendered
		}
		if system != "" {
			config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
		}

		contents := make([]*genai.Content, 0, len(rest))
		for _, m := range rest {
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}

		for resp, err := range c.client.Models.GenerateContentStream(ctx, model, contents, config) {
			if err != nil {
				yield("", err)
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}
}
