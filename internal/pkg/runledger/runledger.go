package runledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redisc "github.com/presenton/core/internal/pkg/redis"
	"github.com/redis/go-redis/v9"
)

// RunStatus is the lifecycle state of one outline stream invocation.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// Terminal reports whether the status can no longer change.
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunFailed || s == RunCancelled
}

// Run records one stream invocation for a presentation.
type Run struct {
	ID             string     `json:"id"`
	PresentationID string     `json:"presentation_id"`
	Status         RunStatus  `json:"status"`
	Slides         int        `json:"slides,omitempty"`
	Error          string     `json:"error,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

const (
	keyPrefix      = "presenton:run:"
	keyIndexPrefix = "presenton:runs:"       // sorted set per presentation: score=started_at, member=run_id
	keyActive      = "presenton:runs:active" // hash: presentation_id -> run_id
	runTTL         = 7 * 24 * time.Hour
)

// ErrRunNotFound is returned when a run id is unknown or expired.
var ErrRunNotFound = errors.New("run not found")

// Ledger stores stream run records in Redis.
type Ledger struct {
	rc  *redisc.Client
	now func() time.Time
}

func New(rc *redisc.Client) *Ledger {
	return &Ledger{rc: rc, now: time.Now}
}

func runKey(id string) string               { return keyPrefix + id }
func indexKey(presentationID string) string { return keyIndexPrefix + presentationID }

// Start records a new running invocation and marks it as the presentation's active run.
func (l *Ledger) Start(ctx context.Context, presentationID string) (*Run, error) {
	run := &Run{
		ID:             uuid.New().String(),
		PresentationID: presentationID,
		Status:         RunRunning,
		StartedAt:      l.now(),
	}
	data, err := json.Marshal(run)
	if err != nil {
		return nil, err
	}

	pipe := l.rc.Raw().TxPipeline()
	pipe.Set(ctx, runKey(run.ID), data, runTTL)
	pipe.ZAdd(ctx, indexKey(presentationID), redis.Z{
		Score:  float64(run.StartedAt.UnixMilli()),
		Member: run.ID,
	})
	pipe.Expire(ctx, indexKey(presentationID), runTTL)
	pipe.HSet(ctx, keyActive, presentationID, run.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}
	return run, nil
}

// Finish moves a run to a terminal status.
func (l *Ledger) Finish(ctx context.Context, id string, status RunStatus, slides int, errMsg string) error {
	if !status.Terminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}
	run, err := l.Get(ctx, id)
	if err != nil {
		return err
	}

	finished := l.now()
	run.Status = status
	run.Slides = slides
	run.Error = errMsg
	run.FinishedAt = &finished

	data, err := json.Marshal(run)
	if err != nil {
		return err
	}

	pipe := l.rc.Raw().TxPipeline()
	pipe.Set(ctx, runKey(id), data, runTTL)
	pipe.HDel(ctx, keyActive, run.PresentationID)
	_, err = pipe.Exec(ctx)
	return err
}

// Get retrieves a run by id.
func (l *Ledger) Get(ctx context.Context, id string) (*Run, error) {
	data, err := l.rc.Raw().Get(ctx, runKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &run, nil
}

// Active returns the presentation's in-flight run, or nil when none is running.
func (l *Ledger) Active(ctx context.Context, presentationID string) (*Run, error) {
	id, err := l.rc.Raw().HGet(ctx, keyActive, presentationID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	run, err := l.Get(ctx, id)
	if errors.Is(err, ErrRunNotFound) {
		return nil, nil
	}
	return run, err
}

// List returns the most recent runs for a presentation, newest first.
func (l *Ledger) List(ctx context.Context, presentationID string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	ids, err := l.rc.Raw().ZRevRange(ctx, indexKey(presentationID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	runs := make([]*Run, 0, len(ids))
	for _, id := range ids {
		run, err := l.Get(ctx, id)
		if errors.Is(err, ErrRunNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}
