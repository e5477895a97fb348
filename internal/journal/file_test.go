package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFileStoreCreatesEmptyDocument(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "journal.json")
	s, err := NewFileStore(p)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}

	doc, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(doc.Devices) != 0 || len(doc.History) != 0 || doc.CurrentProblem != nil {
		t.Fatalf("expected empty document, got %+v", doc)
	}

	// The empty document must have been persisted, with all keys present.
	raw, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}
	var onDisk map[string]json.RawMessage
	if err := json.Unmarshal(raw, &onDisk); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"devices", "history", "devices_data", "chat_history", "current_problem"} {
		if _, ok := onDisk[key]; !ok {
			t.Fatalf("missing top-level key %q", key)
		}
	}
}

func TestFileStoreDefaultsMissingKeys(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "journal.json")
	if err := os.WriteFile(p, []byte(`{"history":[{"message":"headache","bodyPart":"head","timestamp":"2024-01-01T10:00:00Z"}]}`), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, err := NewFileStore(p)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	doc, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Devices == nil || doc.DevicesData == nil || doc.ChatHistory == nil {
		t.Fatalf("missing collections should default to empty: %+v", doc)
	}
	if len(doc.History) != 1 {
		t.Fatalf("history lost on load: %+v", doc.History)
	}
}

func TestFileStoreBackfillsTimestampOnce(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "journal.json")
	if err := os.WriteFile(p, []byte(`{"history":[{"message":"headache","bodyPart":"head"}]}`), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, err := NewFileStore(p)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}

	first, err := s.Load()
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	assigned := first.History[0].Timestamp
	if assigned == "" {
		t.Fatalf("timestamp not backfilled")
	}
	if _, ok := ParseTimestamp(assigned); !ok {
		t.Fatalf("backfilled timestamp should parse: %q", assigned)
	}

	second, err := s.Load()
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if second.History[0].Timestamp != assigned {
		t.Fatalf("backfill not persisted: %q vs %q", second.History[0].Timestamp, assigned)
	}
}

func TestFileStoreRoundTripOrderIsStable(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "journal.json")
	s, err := NewFileStore(p)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}

	doc, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	doc.AppendSymptom("headache", "head", "2024-01-01T10:00:00Z")
	doc.AppendSymptom("dizzy", "head", "2024-01-02T10:00:00Z")
	doc.AppendSensorRecord(SensorRecord{"timestamp": "2024-01-01T12:00:00Z", "pulse": float64(70)})
	doc.AppendSensorRecord(SensorRecord{"timestamp": "garbage", "pulse": float64(71)})
	if err := s.Save(doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	one, err := s.Load()
	if err != nil {
		t.Fatalf("reload 1: %v", err)
	}
	if err := s.Save(one); err != nil {
		t.Fatalf("resave: %v", err)
	}
	two, err := s.Load()
	if err != nil {
		t.Fatalf("reload 2: %v", err)
	}

	if !reflect.DeepEqual(one.History, two.History) {
		t.Fatalf("history order unstable:\n%+v\n%+v", one.History, two.History)
	}
	if !reflect.DeepEqual(one.DevicesData, two.DevicesData) {
		t.Fatalf("sensor order unstable:\n%+v\n%+v", one.DevicesData, two.DevicesData)
	}
	if one.History[0].Message != "dizzy" {
		t.Fatalf("history not newest-first: %+v", one.History)
	}
}

func TestFileStoreMalformedJSONFails(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "journal.json")
	if err := os.WriteFile(p, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s, err := NewFileStore(p)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	if _, err := s.Load(); err == nil {
		t.Fatalf("malformed document should be a fatal storage error")
	}
}

func TestMemoryStoreMatchesFileStoreSemantics(t *testing.T) {
	s := NewMemoryStore()
	s.Seed([]byte(`{"history":[{"message":"headache","bodyPart":"head"}],"chat_history":[{"role":"user","message":"hi","timestamp":"2024-01-01T10:00:00Z"}]}`))

	doc, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.History[0].Timestamp == "" {
		t.Fatalf("memory store should backfill timestamps")
	}
	if doc.Devices == nil || doc.DevicesData == nil {
		t.Fatalf("memory store should default missing keys")
	}

	assigned := doc.History[0].Timestamp
	again, err := s.Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.History[0].Timestamp != assigned {
		t.Fatalf("backfill not persisted in memory store")
	}

	// Load hands out copies: mutating one load must not leak into the next.
	again.History[0].Message = "mutated"
	fresh, err := s.Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if fresh.History[0].Message != "headache" {
		t.Fatalf("memory store leaked a shared document")
	}
}
