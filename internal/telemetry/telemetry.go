// Package telemetry implements the append-only evidence and event log
// (C1): a JSONL event stream per run with monotonic sequence numbers,
// secret redaction, and a bounded in-memory buffer for live tailing.
package telemetry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/harrison/scengine/internal/filelock"
)

// secretKeyPattern matches field names whose values must be redacted
// before an event is ever written to disk.
var secretKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|authorization|token|secret|password|bearer)`)

const redactedPlaceholder = "[redacted]"

// eventLockTimeout bounds how long an append waits for another run's
// writer to release the same event log before giving up; a run must
// never stall indefinitely behind a stuck sibling run's lock.
const eventLockTimeout = 2 * time.Second

// Event is one append-only record in a run's event log.
type Event struct {
	Seq       int64                  `json:"seq"`
	RunID     string                 `json:"run_id"`
	Timestamp time.Time              `json:"timestamp"`
	Stage     string                 `json:"stage"`
	Kind      string                 `json:"kind"`
	Critical  bool                   `json:"critical,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// RunDir returns the directory holding one run's evidence tree:
// <metricsDir>/<runID>/.
func RunDir(metricsDir, runID string) string {
	return filepath.Join(metricsDir, runID)
}

// EventLogPath returns the path to a run's JSONL event log.
func EventLogPath(metricsDir, runID string) string {
	return filepath.Join(RunDir(metricsDir, runID), "events.jsonl")
}

// EvidencePath returns the path to a run's evidence record file.
func EvidencePath(metricsDir, runID string) string {
	return filepath.Join(RunDir(metricsDir, runID), "evidence.json")
}

// maxBufferedEvents bounds the in-memory ring buffer kept for live
// tailing; older non-critical events are dropped first when it fills.
const maxBufferedEvents = 1000

// Recorder writes events for a single run, appending to its JSONL log
// under an flock-guarded lock and keeping a bounded in-memory buffer.
type Recorder struct {
	mu        sync.Mutex
	runID     string
	path      string
	lock      *filelock.FileLock
	seq       int64
	buffer    []Event
}

// NewRecorder creates the run directory (if needed) and returns a
// Recorder that appends events to its JSONL log.
func NewRecorder(metricsDir, runID string) (*Recorder, error) {
	dir := RunDir(metricsDir, runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	path := EventLogPath(metricsDir, runID)
	return &Recorder{
		runID: runID,
		path:  path,
		lock:  filelock.NewFileLock(path + ".lock"),
	}, nil
}

// Record appends one event, assigning the next monotonic sequence
// number for this run. Secret-looking fields in Data are redacted
// before the event reaches disk or the in-memory buffer.
func (r *Recorder) Record(stage, kind string, critical bool, data map[string]interface{}) error {
	r.mu.Lock()
	r.seq++
	evt := Event{
		Seq:       r.seq,
		RunID:     r.runID,
		Timestamp: time.Now().UTC(),
		Stage:     stage,
		Kind:      kind,
		Critical:  critical,
		Data:      redact(data),
	}
	r.bufferEvent(evt)
	r.mu.Unlock()

	return r.append(evt)
}

// bufferEvent keeps the bounded ring buffer, preferentially dropping
// the oldest non-critical event when at capacity. Must be called with
// r.mu held.
func (r *Recorder) bufferEvent(evt Event) {
	if len(r.buffer) < maxBufferedEvents {
		r.buffer = append(r.buffer, evt)
		return
	}
	for i, buffered := range r.buffer {
		if !buffered.Critical {
			r.buffer = append(r.buffer[:i], r.buffer[i+1:]...)
			break
		}
	}
	r.buffer = append(r.buffer, evt)
}

// Buffered returns a snapshot of the currently buffered events.
func (r *Recorder) Buffered() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.buffer))
	copy(out, r.buffer)
	return out
}

func (r *Recorder) append(evt Event) error {
	if err := r.lock.LockWithTimeout(eventLockTimeout); err != nil {
		return fmt.Errorf("failed to lock event log: %w", err)
	}
	defer r.lock.Unlock()

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// redact walks a data map and replaces any value whose key matches the
// secret pattern with a fixed placeholder, recursively.
func redact(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		if secretKeyPattern.MatchString(k) {
			out[k] = redactedPlaceholder
			continue
		}
		if nested, ok := v.(map[string]interface{}); ok {
			out[k] = redact(nested)
			continue
		}
		out[k] = v
	}
	return out
}

// ReadEvents reads every event from a run's JSONL log, in append order.
func ReadEvents(metricsDir, runID string) ([]Event, error) {
	path := EventLogPath(metricsDir, runID)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var evt Event
		if err := json.Unmarshal(line, &evt); err != nil {
			return nil, fmt.Errorf("failed to parse event line: %w", err)
		}
		events = append(events, evt)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan event log: %w", err)
	}
	return events, nil
}

// WriteEvidence writes the final evidence record for a run, atomically.
func WriteEvidence(metricsDir, runID string, data []byte) error {
	path := EvidencePath(metricsDir, runID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create evidence directory: %w", err)
	}
	return filelock.LockAndWriteTimeout(path, data, eventLockTimeout)
}
