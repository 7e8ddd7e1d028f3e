package chat

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ShaneChing7/Shimmer-AIChatBot-backend/internal/models"
)

// Encoder serializes orchestrator events into the client-facing SSE wire
// format: one `data: <json>\n\n` frame per event, flushed immediately so
// chunks reach the client in arrival order with no buffering.
type Encoder struct {
	w       io.Writer
	flusher http.Flusher
}

func NewEncoder(w io.Writer) *Encoder {
	enc := &Encoder{w: w}
	if f, ok := w.(http.Flusher); ok {
		enc.flusher = f
	}
	return enc
}

type chunkEvent struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type doneEvent struct {
	Event     string          `json:"event"`
	Message   *models.Message `json:"message"`
	Reasoning string          `json:"reasoning"`
}

type errorEvent struct {
	Event  string `json:"event"`
	Detail string `json:"detail"`
}

// Chunk emits one incremental model-output event.
func (e *Encoder) Chunk(c Chunk) error {
	return e.write(chunkEvent{Type: string(c.Kind), Content: c.Text})
}

// Done emits the terminal success event carrying the persisted message.
func (e *Encoder) Done(message *models.Message, reasoning string) error {
	return e.write(doneEvent{Event: "done", Message: message, Reasoning: reasoning})
}

// Error emits the terminal error event.
func (e *Encoder) Error(detail string) error {
	return e.write(errorEvent{Event: "error", Detail: detail})
}

func (e *Encoder) write(payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if _, err := fmt.Fprintf(e.w, "data: %s\n\n", data); err != nil {
		return err
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}
