// Package llm streams structured completions from the configured model provider.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	neturl "net/url"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	appcfg "github.com/presenton/core/internal/config"
)

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

type Message struct {
	Role    Role
	Content string
}

func SystemMessage(content string) Message { return Message{Role: RoleSystem, Content: content} }
func UserMessage(content string) Message   { return Message{Role: RoleUser, Content: content} }

// Tool is a provider-side capability attached to a completion request.
type Tool struct {
	Name string
}

// WebSearchTool asks the provider to ground its answer with a web search.
var WebSearchTool = Tool{Name: "web_search"}

// Client streams a completion constrained by a JSON schema.
type Client interface {
	// StreamStructured yields text fragments in arrival order. A non-nil error is
	// always the last item.
	StreamStructured(ctx context.Context, model string, messages []Message, schema *jsonschema.Schema, strict bool, tools []Tool) iter.Seq2[string, error]
	SupportsWebGrounding() bool
	Model() string
}

// New builds the client for cfg.Provider.
func New(ctx context.Context, cfg appcfg.LLMConfig) (Client, error) {
	switch cfg.Provider {
	case appcfg.ProviderOpenAI, appcfg.ProviderCustom, appcfg.ProviderOllama:
		return newOpenAIClient(cfg)
	case appcfg.ProviderGoogle:
		return newGoogleClient(ctx, cfg)
	case appcfg.ProviderAnthropic:
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

func hasTool(tools []Tool, name string) bool {
	for _, t := range tools {
		if t.Name == name {
			return true
		}
	}
	return false
}

// splitSystem joins system messages into one instruction and returns the rest.
func splitSystem(messages []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			if strings.TrimSpace(m.Content) != "" {
				system = append(system, m.Content)
			}
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}

// schemaMap renders a schema as the generic JSON object provider SDKs accept.
func schemaMap(schema *jsonschema.Schema) (map[string]any, error) {
	if schema == nil {
		return nil, nil
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("encode response schema: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("encode response schema: %w", err)
	}
	return out, nil
}

// withSchemaInstruction appends the schema to a system prompt for providers that
// cannot enforce it natively.
func withSchemaInstruction(system string, schema *jsonschema.Schema) (string, error) {
	if schema == nil {
		return system, nil
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode response schema: %w", err)
	}
	instruction := "Respond only with a JSON object that conforms to this JSON schema:\n" + string(data)
	if strings.TrimSpace(system) == "" {
		return instruction, nil
	}
	return system + "\n\n" + instruction, nil
}

func normalizeOpenAIBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return ""
	}
	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.TrimRight(base, "/")
	}

	path := strings.TrimRight(parsed.Path, "/")
	if !strings.HasSuffix(path, "/v1") {
		path += "/v1"
	}
	parsed.Path = path
	return strings.TrimRight(parsed.String(), "/")
}

var errEmptyAPIKey = errors.New("llm api key is empty")
