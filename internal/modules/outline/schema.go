package outline

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/presenton/core/internal/models"
)

// SchemaFor describes {"slides": [{"content": string}]} with exactly n slides.
// A zero budget still bounds the array so the provider is told to emit none.
// n <= 0 leaves the slide count unbounded.
func SchemaFor(n int) *jsonschema.Schema {
	return outlineSchema(n, true)
}

func outlineSchema(n int, closed bool) *jsonschema.Schema {
	slide := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"content": {
				Type:        "string",
				Description: "Markdown content for the slide",
			},
		},
		Required: []string{"content"},
	}
	slides := &jsonschema.Schema{
		Type:        "array",
		Description: "List of slide outlines",
		Items:       slide,
	}
	if n >= 0 {
		slides.MinItems = ptr(n)
		slides.MaxItems = ptr(n)
	}
	root := &jsonschema.Schema{
		Type:       "object",
		Title:      "PresentationOutline",
		Properties: map[string]*jsonschema.Schema{"slides": slides},
		Required:   []string{"slides"},
	}
	if closed {
		// marshals as "additionalProperties": false
		slide.AdditionalProperties = &jsonschema.Schema{Not: &jsonschema.Schema{}}
		root.AdditionalProperties = &jsonschema.Schema{Not: &jsonschema.Schema{}}
	}
	return root
}

// outlineFromDecoded checks the decoded payload's shape and converts it.
// Extra keys are ignored and the slide count is not enforced here; the
// caller truncates to its budget.
func outlineFromDecoded(decoded map[string]any) (*models.PresentationOutline, error) {
	resolved, err := outlineSchema(-1, false).Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve outline schema: %w", err)
	}
	if err := resolved.Validate(decoded); err != nil {
		return nil, fmt.Errorf("invalid outline: %w", err)
	}

	data, err := json.Marshal(decoded)
	if err != nil {
		return nil, err
	}
	var outline models.PresentationOutline
	if err := json.Unmarshal(data, &outline); err != nil {
		return nil, fmt.Errorf("invalid outline: %w", err)
	}
	if outline.Slides == nil {
		outline.Slides = []models.SlideOutline{}
	}
	return &outline, nil
}

func ptr[T any](v T) *T { return &v }
