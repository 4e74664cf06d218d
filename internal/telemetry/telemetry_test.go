package telemetry

import (
	"testing"
)

func TestRecordAppendsMonotonicSequence(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewRecorder(dir, "run-1")
	if err != nil {
		t.Fatal(err)
	}

	if err := rec.Record("parse", "started", false, nil); err != nil {
		t.Fatal(err)
	}
	if err := rec.Record("parse", "finished", false, nil); err != nil {
		t.Fatal(err)
	}

	events, err := ReadEvents(dir, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Seq != 1 || events[1].Seq != 2 {
		t.Errorf("expected sequence 1,2, got %d,%d", events[0].Seq, events[1].Seq)
	}
}

func TestRecordRedactsSecretFields(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewRecorder(dir, "run-2")
	if err != nil {
		t.Fatal(err)
	}

	err = rec.Record("provider_call", "request", false, map[string]interface{}{
		"api_key": "sk-super-secret",
		"model":   "claude-opus-4",
	})
	if err != nil {
		t.Fatal(err)
	}

	events, err := ReadEvents(dir, "run-2")
	if err != nil {
		t.Fatal(err)
	}
	if events[0].Data["api_key"] != redactedPlaceholder {
		t.Errorf("expected api_key redacted, got %v", events[0].Data["api_key"])
	}
	if events[0].Data["model"] != "claude-opus-4" {
		t.Errorf("expected model field preserved, got %v", events[0].Data["model"])
	}
}

func TestBufferDropsOldestNonCriticalWhenFull(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewRecorder(dir, "run-3")
	if err != nil {
		t.Fatal(err)
	}

	if err := rec.Record("loop", "iteration", true, nil); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < maxBufferedEvents; i++ {
		if err := rec.Record("loop", "noise", false, nil); err != nil {
			t.Fatal(err)
		}
	}

	buffered := rec.Buffered()
	if len(buffered) != maxBufferedEvents {
		t.Fatalf("expected buffer capped at %d, got %d", maxBufferedEvents, len(buffered))
	}
	foundCritical := false
	for _, evt := range buffered {
		if evt.Critical {
			foundCritical = true
		}
	}
	if !foundCritical {
		t.Error("expected the critical event to survive the drop policy")
	}
}

func TestReadEventsMissingRunErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := ReadEvents(dir, "nonexistent"); err == nil {
		t.Fatal("expected error reading nonexistent run log")
	}
}

func TestWriteEvidenceCreatesFile(t *testing.T) {
	dir := t.TempDir()
	if err := WriteEvidence(dir, "run-4", []byte(`{"run_id":"run-4"}`)); err != nil {
		t.Fatal(err)
	}
}
