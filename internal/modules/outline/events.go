package outline

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type EventKind string

const (
	EventStatus   EventKind = "status"
	EventChunk    EventKind = "chunk"
	EventError    EventKind = "error"
	EventComplete EventKind = "complete"
	EventClosing  EventKind = "closing"
)

// sseEventName is the SSE event field on every frame; clients dispatch on data.type.
const sseEventName = "response"

// Event is one message on the outline stream.
type Event struct {
	Kind    EventKind
	Message string // status text, chunk text, error detail or closing message
	Key     string // complete only
	Value   any    // complete only
}

func StatusEvent(msg string) Event   { return Event{Kind: EventStatus, Message: msg} }
func ChunkEvent(text string) Event   { return Event{Kind: EventChunk, Message: text} }
func ErrorEvent(detail string) Event { return Event{Kind: EventError, Message: detail} }
func ClosingEvent() Event            { return Event{Kind: EventClosing, Message: "Stream completed"} }

func CompleteEvent(key string, value any) Event {
	return Event{Kind: EventComplete, Key: key, Value: value}
}

// Terminal reports whether the event ends the stream's outcome.
func (e Event) Terminal() bool {
	return e.Kind == EventComplete || e.Kind == EventError
}

func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case EventStatus:
		return json.Marshal(struct {
			Type   EventKind `json:"type"`
			Status string    `json:"status"`
		}{e.Kind, e.Message})
	case EventChunk:
		return json.Marshal(struct {
			Type  EventKind `json:"type"`
			Chunk string    `json:"chunk"`
		}{e.Kind, e.Message})
	case EventError:
		return json.Marshal(struct {
			Type   EventKind `json:"type"`
			Detail string    `json:"detail"`
		}{e.Kind, e.Message})
	case EventClosing:
		return json.Marshal(struct {
			Type    EventKind `json:"type"`
			Message string    `json:"message"`
		}{e.Kind, e.Message})
	case EventComplete:
		return json.Marshal(map[string]any{"type": e.Kind, e.Key: e.Value})
	default:
		return nil, fmt.Errorf("unknown event kind %q", e.Kind)
	}
}

// Emitter delivers events to the client. An error means the client is gone.
type Emitter interface {
	Emit(Event) error
}

type sseEmitter struct {
	w gin.ResponseWriter
}

// openSSE writes the stream headers and returns an emitter over the response.
func openSSE(c *gin.Context) *sseEmitter {
	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache, no-transform")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	h.Set("Access-Control-Allow-Origin", "*")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()
	return &sseEmitter{w: c.Writer}
}

func (s *sseEmitter) Emit(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", sseEventName, data); err != nil {
		return err
	}
	s.w.Flush()
	return nil
}
