package outline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/presenton/core/internal/models"
	"github.com/presenton/core/internal/pkg/jsonrepair"
	"github.com/presenton/core/internal/pkg/runledger"
	"github.com/presenton/core/internal/pkg/tempdir"
	"go.uber.org/zap"
)

// heartbeatEvery is how many chunks pass between "generating" status events.
const heartbeatEvery = 10

const ledgerTimeout = 3 * time.Second

// DocumentLoader returns the text of each referenced document.
type DocumentLoader interface {
	Load(ctx context.Context, refs []string, workDir string) ([]string, error)
}

// TempDirs hands out per-stream scratch directories.
type TempDirs interface {
	CreateScoped(prefix string) (*tempdir.Handle, error)
	Release(h *tempdir.Handle) error
}

// RunLedger records stream invocations.
type RunLedger interface {
	Start(ctx context.Context, presentationID string) (*runledger.Run, error)
	Finish(ctx context.Context, id string, status runledger.RunStatus, slides int, errMsg string) error
	List(ctx context.Context, presentationID string, limit int) ([]*runledger.Run, error)
}

type Options struct {
	Store     Store
	Generator *Generator
	Loader    DocumentLoader
	TempDirs  TempDirs
	Ledger    RunLedger // optional
	Logger    *zap.Logger
}

// Service runs outline streams and serves presentation reads.
type Service struct {
	store     Store
	generator *Generator
	loader    DocumentLoader
	tmp       TempDirs
	ledger    RunLedger
	logger    *zap.Logger
}

func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     opts.Store,
		generator: opts.Generator,
		loader:    opts.Loader,
		tmp:       opts.TempDirs,
		ledger:    opts.Ledger,
		logger:    logger,
	}
}

// streamState tracks delivery for one stream. At most one terminal event is
// sent and nothing is sent after the client has gone.
type streamState struct {
	emit     Emitter
	gone     bool
	terminal bool
	status   runledger.RunStatus
	slides   int
	errMsg   string
}

func (st *streamState) send(ev Event) bool {
	if st.gone || (st.terminal && ev.Terminal()) {
		return false
	}
	if err := st.emit.Emit(ev); err != nil {
		st.gone = true
		return false
	}
	if ev.Terminal() {
		st.terminal = true
	}
	return true
}

func (st *streamState) fail(detail string) {
	st.status = runledger.RunFailed
	st.errMsg = detail
	st.send(ErrorEvent(detail))
}

// Stream runs the generation pipeline for p and reports progress through emit.
// The scratch directory is released on every exit path, and p is persisted
// only when the whole outline was received and decoded.
func (s *Service) Stream(ctx context.Context, p *models.PresentationModel, emit Emitter) {
	log := s.logger.With(zap.String("presentation_id", p.ID))
	st := &streamState{emit: emit, status: runledger.RunRunning}

	runID := s.startRun(ctx, p.ID, log)
	defer s.finishRun(ctx, runID, st, log)

	handle, err := s.tmp.CreateScoped("outline")
	if err != nil {
		log.Error("create temp dir failed", zap.Error(err))
		st.fail(fmt.Sprintf("Unexpected error: %v", err))
		return
	}
	defer func() {
		if err := s.tmp.Release(handle); err != nil {
			log.Warn("release temp dir failed", zap.String("dir", handle.Path()), zap.Error(err))
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			log.Error("outline stream panicked", zap.Any("panic", r), zap.Stack("stack"))
			st.fail(fmt.Sprintf("Unexpected error: %v", r))
		}
	}()

	s.run(ctx, p, handle.Path(), st, log)

	if st.status == runledger.RunRunning {
		st.status = runledger.RunCancelled
		log.Info("outline stream cancelled")
	}
}

func (s *Service) run(ctx context.Context, p *models.PresentationModel, workDir string, st *streamState, log *zap.Logger) {
	if !st.send(StatusEvent("connected")) || !st.send(StatusEvent("Initializing presentation generation...")) {
		return
	}

	additionalContext := ""
	if len(p.FilePaths) > 0 {
		if !st.send(StatusEvent("Loading documents...")) {
			return
		}
		docs, err := s.loader.Load(ctx, p.FilePaths, workDir)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("load documents failed", zap.Error(err))
			st.fail(fmt.Sprintf("Failed to load documents: %v", err))
			return
		}
		additionalContext = strings.Join(docs, "\n\n")
		log.Debug("documents loaded", zap.Int("count", len(docs)))
		if !st.send(StatusEvent(fmt.Sprintf("Loaded %d document(s)", len(docs)))) {
			return
		}
	}

	budget := SlideBudget(p.NSlides, p.IncludeTableOfContents)
	if !st.send(StatusEvent(fmt.Sprintf("Generating %d slide outlines...", budget))) {
		return
	}

	var acc strings.Builder
	count := 0
	items := s.generator.Generate(ctx, Request{
		Content:           p.Content,
		NSlides:           budget,
		Language:          p.Language,
		AdditionalContext: additionalContext,
		Tone:              p.Tone,
		Verbosity:         p.Verbosity,
		Instructions:      p.Instructions,
		IncludeTitleSlide: p.IncludeTitleSlide,
		WebSearch:         p.WebSearch,
	})
	for item := range items {
		if item.Err != nil {
			st.fail(item.Err.Detail)
			return
		}
		count++
		acc.WriteString(item.Text)
		if !st.send(ChunkEvent(item.Text)) {
			return
		}
		if count%heartbeatEvery == 0 {
			logProgress(log, count, acc.String())
			if !st.send(StatusEvent("generating")) {
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
	}
	if ctx.Err() != nil {
		return
	}

	if !st.send(StatusEvent("Parsing generated content...")) {
		return
	}
	decoded, err := jsonrepair.Decode(acc.String())
	if err != nil {
		log.Warn("decode outline failed", zap.Int("chars", acc.Len()), zap.Error(err))
		st.fail("Failed to parse presentation outlines: " + err.Error())
		return
	}
	outline, err := outlineFromDecoded(decoded)
	if err != nil {
		log.Warn("outline shape rejected", zap.Error(err))
		st.fail("Failed to parse presentation outlines: " + err.Error())
		return
	}
	outline.Truncate(budget)

	if !st.send(StatusEvent("Saving presentation...")) || ctx.Err() != nil {
		return
	}
	title := titleFromOutline(outline)
	p.Outlines = outline
	p.Title = &title
	if err := s.store.SaveOutline(ctx, p); err != nil {
		p.Outlines, p.Title = nil, nil
		if ctx.Err() != nil {
			return
		}
		log.Error("save outline failed", zap.Error(err))
		st.fail(fmt.Sprintf("Unexpected error: %v", err))
		return
	}

	st.status = runledger.RunCompleted
	st.slides = len(outline.Slides)
	log.Info("outline saved", zap.Int("slides", st.slides), zap.Int("chunks", count))

	// delivery of the final events is best-effort
	st.send(CompleteEvent("presentation", p))
	st.send(ClosingEvent())
}

// logProgress reports how many slides the partial output already holds.
func logProgress(log *zap.Logger, chunks int, text string) {
	if ce := log.Check(zap.DebugLevel, "outline progress"); ce != nil {
		slides := 0
		if partial, err := jsonrepair.DecodePartial(text); err == nil {
			if list, ok := partial["slides"].([]any); ok {
				slides = len(list)
			}
		}
		ce.Write(zap.Int("chunks", chunks), zap.Int("partial_slides", slides))
	}
}

func (s *Service) startRun(ctx context.Context, presentationID string, log *zap.Logger) string {
	if s.ledger == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, ledgerTimeout)
	defer cancel()
	run, err := s.ledger.Start(ctx, presentationID)
	if err != nil {
		log.Warn("record run start failed", zap.Error(err))
		return ""
	}
	return run.ID
}

func (s *Service) finishRun(ctx context.Context, runID string, st *streamState, log *zap.Logger) {
	if s.ledger == nil || runID == "" {
		return
	}
	status := st.status
	if !status.Terminal() {
		status = runledger.RunCancelled
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerTimeout)
	defer cancel()
	if err := s.ledger.Finish(ctx, runID, status, st.slides, st.errMsg); err != nil {
		log.Warn("record run finish failed", zap.String("run_id", runID), zap.Error(err))
	}
}
