package jsonrepair

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Lenient(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]any
	}{
		{
			name:  "plain json",
			input: `{"slides": [{"content": "# Intro"}]}`,
			want:  map[string]any{"slides": []any{map[string]any{"content": "# Intro"}}},
		},
		{
			name:  "code fence",
			input: "```json\n{\"a\": 1}\n```",
			want:  map[string]any{"a": float64(1)},
		},
		{
			name:  "surrounding prose",
			input: "Here is the outline:\n{\"a\": true} hope this helps",
			want:  map[string]any{"a": true},
		},
		{
			name:  "trailing commas",
			input: `{"a": [1, 2, ], "b": "x",}`,
			want:  map[string]any{"a": []any{float64(1), float64(2)}, "b": "x"},
		},
		{
			name:  "adjacent single quoted strings",
			input: `{slides: [{'content': 'It''s'}]}`,
			want:  nil,
		},
		{
			name:  "python literals",
			input: `{"a": True, "b": False, "c": None}`,
			want:  map[string]any{"a": true, "b": false, "c": nil},
		},
		{
			name:  "raw newline inside string",
			input: "{\"content\": \"line one\nline two\"}",
			want:  map[string]any{"content": "line one\nline two"},
		},
		{
			name:  "comments",
			input: "{\n// note\n\"a\": /* inline */ 2\n}",
			want:  map[string]any{"a": float64(2)},
		},
		{
			name:  "escapes and surrogate pairs",
			input: `{"s": "tab\there \"q\" \u00e9 \ud83d\ude00"}`,
			want:  map[string]any{"s": "tab\there \"q\" é 😀"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			if tt.want == nil {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_SingleQuotedAndBareKeys(t *testing.T) {
	got, err := Decode(`{slides: [{'content': 'Hello "world"'}]}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"slides": []any{map[string]any{"content": `Hello "world"`}},
	}, got)
}

func TestDecode_Failures(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := Decode("  \n ")
		assert.ErrorIs(t, err, ErrEmpty)
	})
	t.Run("no object", func(t *testing.T) {
		_, err := Decode("I cannot help with that.")
		assert.ErrorIs(t, err, ErrNoObject)
	})
	t.Run("truncated object", func(t *testing.T) {
		_, err := Decode(`{"slides": [{"content": "# Intro"}, {"content": "Second`)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTruncated)

		var syntaxErr *SyntaxError
		assert.True(t, errors.As(err, &syntaxErr))
	})
	t.Run("missing colon", func(t *testing.T) {
		_, err := Decode(`{"a" 1}`)
		var syntaxErr *SyntaxError
		require.True(t, errors.As(err, &syntaxErr))
		assert.Equal(t, 5, syntaxErr.Offset)
		assert.NotErrorIs(t, err, ErrTruncated)
	})
	t.Run("garbage value", func(t *testing.T) {
		_, err := Decode(`{"a": @}`)
		assert.Error(t, err)
	})
}

func TestDecodePartial_Repairs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]any
	}{
		{
			name:  "unterminated string closes",
			input: `{"slides": [{"content": "# Intro"}, {"content": "Sec`,
			want: map[string]any{"slides": []any{
				map[string]any{"content": "# Intro"},
				map[string]any{"content": "Sec"},
			}},
		},
		{
			name:  "cut key is dropped",
			input: `{"slides": [{"content": "a"}, {"cont`,
			want: map[string]any{"slides": []any{
				map[string]any{"content": "a"},
				map[string]any{},
			}},
		},
		{
			name:  "cut literal is dropped",
			input: `{"a": 1, "b": tr`,
			want:  map[string]any{"a": float64(1)},
		},
		{
			name:  "key without value is dropped",
			input: `{"a": 1, "b":`,
			want:  map[string]any{"a": float64(1)},
		},
		{
			name:  "complete input is unchanged",
			input: `{"a": [1]}`,
			want:  map[string]any{"a": []any{float64(1)}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePartial(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
