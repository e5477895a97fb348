package journal

import (
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore keeps the document as serialized JSON in memory. It runs
// the same normalize/backfill/sort pipeline as FileStore, so tests and
// ephemeral deployments observe identical semantics.
type MemoryStore struct {
	mu  sync.Mutex
	raw []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.raw == nil {
		doc := NewDocument()
		if err := s.saveUnlocked(doc); err != nil {
			return nil, err
		}
		return doc, nil
	}

	var doc Document
	if err := json.Unmarshal(s.raw, &doc); err != nil {
		return nil, fmt.Errorf("decode journal: %w", err)
	}
	if err := finishLoad(&doc, s.saveUnlocked); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *MemoryStore) Save(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveUnlocked(doc)
}

func (s *MemoryStore) saveUnlocked(doc *Document) error {
	doc.normalize()
	doc.sortNewestFirst()
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode journal: %w", err)
	}
	s.raw = raw
	return nil
}

// Seed replaces the stored document with raw JSON, bypassing the load
// pipeline. Intended for tests that need legacy or partial documents.
func (s *MemoryStore) Seed(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = append([]byte(nil), raw...)
}
