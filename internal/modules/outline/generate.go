package outline

import (
	"context"
	"iter"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/presenton/core/internal/pkg/llm"
	"go.uber.org/zap"
)

// Request carries the parameters of one outline generation.
type Request struct {
	Content           string
	NSlides           int
	Language          string
	AdditionalContext string
	Tone              string
	Verbosity         string
	Instructions      string
	IncludeTitleSlide bool
	WebSearch         bool
}

// Item is one element of a generation stream: a text fragment, or the error
// that ended the stream.
type Item struct {
	Text string
	Err  *llm.StreamError
}

// Generator drives the structured LLM stream for an outline.
type Generator struct {
	client llm.Client
	model  string
	now    func() time.Time
	logger *zap.Logger
}

func NewGenerator(client llm.Client, model string, logger *zap.Logger) *Generator {
	if model == "" {
		model = client.Model()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{client: client, model: model, now: time.Now, logger: logger}
}

var errStreamConsumed = &llm.StreamError{
	Status: http.StatusInternalServerError,
	Detail: "outline stream already consumed",
}

// Generate returns a single-use sequence of fragments. Provider failures end
// the sequence with one Item carrying Err. When ctx is cancelled the sequence
// ends without an error item.
func (g *Generator) Generate(ctx context.Context, req Request) iter.Seq[Item] {
	var used atomic.Bool
	return func(yield func(Item) bool) {
		if used.Swap(true) {
			yield(Item{Err: errStreamConsumed})
			return
		}

		messages := []llm.Message{
			llm.SystemMessage(buildSystemPrompt(req.Tone, req.Verbosity, req.Instructions, req.IncludeTitleSlide)),
			llm.UserMessage(buildUserPrompt(req.Content, req.NSlides, req.Language, req.AdditionalContext, g.now())),
		}
		var tools []llm.Tool
		if g.client.SupportsWebGrounding() && req.WebSearch {
			tools = []llm.Tool{llm.WebSearchTool}
		}

		count := 0
		for fragment, err := range g.client.StreamStructured(ctx, g.model, messages, SchemaFor(req.NSlides), true, tools) {
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				g.logger.Warn("outline stream failed",
					zap.Int("fragments", count),
					zap.Error(err),
				)
				yield(Item{Err: llm.TranslateError(err)})
				return
			}
			count++
			if !yield(Item{Text: fragment}) {
				return
			}
		}
		if ctx.Err() == nil {
			g.logger.Debug("outline stream finished", zap.Int("fragments", count))
		}
	}
}
