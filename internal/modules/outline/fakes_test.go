package outline

import (
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/presenton/core/internal/database"
	"github.com/presenton/core/internal/models"
	"github.com/presenton/core/internal/pkg/llm"
	redisc "github.com/presenton/core/internal/pkg/redis"
	"github.com/presenton/core/internal/pkg/runledger"
	"github.com/presenton/core/internal/pkg/tempdir"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeClient replays fixed fragments and then an optional error.
type fakeClient struct {
	fragments    []string
	err          error
	panicAfter   int // panic once this many fragments were sent; 0 disables
	webGrounding bool

	mu       sync.Mutex
	calls    int
	model    string
	messages []llm.Message
	schema   *jsonschema.Schema
	strict   bool
	tools    []llm.Tool
}

func (f *fakeClient) Model() string              { return "fake-model" }
func (f *fakeClient) SupportsWebGrounding() bool { return f.webGrounding }

func (f *fakeClient) StreamStructured(ctx context.Context, model string, messages []llm.Message, schema *jsonschema.Schema, strict bool, tools []llm.Tool) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		f.mu.Lock()
		f.calls++
		f.model, f.messages, f.schema, f.strict, f.tools = model, messages, schema, strict, tools
		f.mu.Unlock()

		for i, fragment := range f.fragments {
			if f.panicAfter > 0 && i == f.panicAfter {
				panic("provider exploded")
			}
			if ctx.Err() != nil {
				yield("", ctx.Err())
				return
			}
			if !yield(fragment, nil) {
				return
			}
		}
		if f.err != nil {
			yield("", f.err)
		}
	}
}

// recordingEmitter keeps every delivered event. onEmit runs after each one.
type recordingEmitter struct {
	events []Event
	onEmit func(Event)
	failAt int // Emit returns an error on this call number (1-based); 0 disables
}

func (r *recordingEmitter) Emit(ev Event) error {
	if r.failAt > 0 && len(r.events)+1 == r.failAt {
		return errors.New("broken pipe")
	}
	r.events = append(r.events, ev)
	if r.onEmit != nil {
		r.onEmit(ev)
	}
	return nil
}

func (r *recordingEmitter) kinds() []EventKind {
	out := make([]EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (r *recordingEmitter) statuses() []string {
	var out []string
	for _, ev := range r.events {
		if ev.Kind == EventStatus {
			out = append(out, ev.Message)
		}
	}
	return out
}

func (r *recordingEmitter) terminals() []Event {
	var out []Event
	for _, ev := range r.events {
		if ev.Terminal() {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recordingEmitter) chunks() []string {
	var out []string
	for _, ev := range r.events {
		if ev.Kind == EventChunk {
			out = append(out, ev.Message)
		}
	}
	return out
}

// countingTempDirs wraps the real service and counts releases per handle.
type countingTempDirs struct {
	*tempdir.Service
	mu       sync.Mutex
	created  []*tempdir.Handle
	released map[*tempdir.Handle]int
}

func newCountingTempDirs(t *testing.T) *countingTempDirs {
	return &countingTempDirs{
		Service:  tempdir.NewService(filepath.Join(t.TempDir(), "tmp")),
		released: map[*tempdir.Handle]int{},
	}
}

func (c *countingTempDirs) CreateScoped(prefix string) (*tempdir.Handle, error) {
	h, err := c.Service.CreateScoped(prefix)
	if err == nil {
		c.mu.Lock()
		c.created = append(c.created, h)
		c.mu.Unlock()
	}
	return h, err
}

func (c *countingTempDirs) Release(h *tempdir.Handle) error {
	c.mu.Lock()
	c.released[h]++
	c.mu.Unlock()
	return c.Service.Release(h)
}

type fakeLoader struct {
	texts   []string
	err     error
	panics  bool
	refs    []string
	workDir string
	dirSeen bool
}

func (f *fakeLoader) Load(_ context.Context, refs []string, workDir string) ([]string, error) {
	if f.panics {
		panic("loader exploded")
	}
	f.refs = refs
	f.workDir = workDir
	f.dirSeen = dirExists(workDir)
	return f.texts, f.err
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(sqlite.Open(filepath.Join(t.TempDir(), "presenton.db")), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestLedger(t *testing.T) *runledger.Ledger {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := redisc.Connect("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	return runledger.New(rc)
}

type harness struct {
	svc    *Service
	store  Store
	client *fakeClient
	loader *fakeLoader
	tmp    *countingTempDirs
	ledger *runledger.Ledger
}

func newHarness(t *testing.T, client *fakeClient) *harness {
	t.Helper()
	store := NewStore(newTestDB(t))
	loader := &fakeLoader{}
	tmp := newCountingTempDirs(t)
	ledger := newTestLedger(t)

	gen := NewGenerator(client, "", nil)
	gen.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC) }

	svc := NewService(Options{
		Store:     store,
		Generator: gen,
		Loader:    loader,
		TempDirs:  tmp,
		Ledger:    ledger,
	})
	return &harness{svc: svc, store: store, client: client, loader: loader, tmp: tmp, ledger: ledger}
}

func (h *harness) createPresentation(t *testing.T, mutate func(*models.PresentationModel)) *models.PresentationModel {
	t.Helper()
	p := &models.PresentationModel{
		Content:           "Renewable energy trends",
		NSlides:           3,
		Language:          "English",
		IncludeTitleSlide: true,
	}
	if mutate != nil {
		mutate(p)
	}
	require.NoError(t, h.store.Create(context.Background(), p))
	return p
}

// requireReleasedOnce checks the single scratch dir was released exactly once and is gone.
func (h *harness) requireReleasedOnce(t *testing.T) {
	t.Helper()
	require.Len(t, h.tmp.created, 1)
	handle := h.tmp.created[0]
	require.Equal(t, 1, h.tmp.released[handle])
	require.False(t, dirExists(handle.Path()))
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
