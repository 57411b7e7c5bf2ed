// Package eventlog appends click records to a line-delimited JSON file.
package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventTypeMouseClick is the only record kind written today.
const EventTypeMouseClick = "MouseClick"

// LoggedEvent is one line of the log. Records are written and never read back.
type LoggedEvent struct {
	EventType string  `json:"event_type"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp float64 `json:"timestamp"` // Unix epoch seconds, fractional
}

// Writer appends records to a single file. Each append opens the file in
// append mode and closes it again, so pre-existing lines are never touched.
//
// A Writer serialises its own callers. Separate Writers, or separate
// processes, targeting the same path only get the interleaving that O_APPEND
// provides.
type Writer struct {
	path string
	mu   sync.Mutex
}

func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

func (w *Writer) Path() string { return w.path }

// LogClick appends a MouseClick record.
func (w *Writer) LogClick(x, y, timestamp float64) error {
	return w.Append(LoggedEvent{
		EventType: EventTypeMouseClick,
		X:         x,
		Y:         y,
		Timestamp: timestamp,
	})
}

// Append writes ev as one JSON line, creating the file and its directory
// when missing. On error nothing is retried; the caller decides whether to
// drop the event.
func (w *Writer) Append(ev LoggedEvent) error {
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("write event log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close event log: %w", err)
	}
	return nil
}

// UnixSeconds converts t to fractional seconds since the Unix epoch.
func UnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
