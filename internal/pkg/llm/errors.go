package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go/v2"
	"google.golang.org/genai"
)

// StreamError is the in-band failure value a generation stream ends with.
type StreamError struct {
	Status int    `json:"status_code"`
	Detail string `json:"detail"`
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("llm stream error (%d): %s", e.Status, e.Detail)
}

// TranslateError maps a provider SDK error to a StreamError with a non-empty detail.
func TranslateError(err error) *StreamError {
	if err == nil {
		return &StreamError{Status: http.StatusInternalServerError, Detail: "LLM API error: unknown error"}
	}

	var streamErr *StreamError
	if errors.As(err, &streamErr) {
		if strings.TrimSpace(streamErr.Detail) == "" {
			return &StreamError{Status: statusOrDefault(streamErr.Status), Detail: "LLM API error: unknown error"}
		}
		return streamErr
	}

	var openaiErr *openai.Error
	if errors.As(err, &openaiErr) {
		return &StreamError{
			Status: statusOrDefault(openaiErr.StatusCode),
			Detail: "OpenAI API error: " + errorText(openaiErr),
		}
	}

	var googleErr genai.APIError
	if errors.As(err, &googleErr) {
		msg := strings.TrimSpace(googleErr.Message)
		if msg == "" {
			msg = errorText(googleErr)
		}
		return &StreamError{
			Status: statusOrDefault(googleErr.Code),
			Detail: "Google API error: " + msg,
		}
	}

	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return &StreamError{
			Status: statusOrDefault(anthropicErr.StatusCode),
			Detail: "Anthropic API error: " + errorText(anthropicErr),
		}
	}

	return &StreamError{
		Status: http.StatusInternalServerError,
		Detail: "LLM API error: " + errorText(err),
	}
}

func statusOrDefault(code int) int {
	if code <= 0 {
		return http.StatusInternalServerError
	}
	return code
}

func errorText(err error) string {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "unknown error"
	}
	return msg
}
