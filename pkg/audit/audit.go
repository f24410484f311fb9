// Package audit records authorization verdicts as structured JSON lines.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one recorded authorization decision.
type Event struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	UserAddress  string    `json:"user_address"`
	Allowed      bool      `json:"allowed"`
	Code         string    `json:"code,omitempty"`
	DecisionHash string    `json:"decision_hash"`
	ActionCount  int       `json:"action_count"`
	Timestamp    time.Time `json:"timestamp"`
}

// Recorder writes events to a configurable sink.
type Recorder struct {
	mu     sync.Mutex
	writer io.Writer
	clock  func() time.Time
}

// NewRecorder creates a Recorder writing to os.Stdout.
func NewRecorder() *Recorder {
	return NewRecorderWithWriter(os.Stdout)
}

// NewRecorderWithWriter creates a Recorder with an injected sink, for
// testing and custom pipelines.
func NewRecorderWithWriter(w io.Writer) *Recorder {
	if w == nil {
		w = os.Stdout
	}
	return &Recorder{writer: w, clock: time.Now}
}

// Record assigns the event an ID and timestamp and appends it as one JSON
// line.
func (r *Recorder) Record(ctx context.Context, e Event) error {
	e.ID = uuid.New().String()
	e.Timestamp = r.clock().UTC()

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("audit: marshal failed: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.writer.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit: write failed: %w", err)
	}
	return nil
}
