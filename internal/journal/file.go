package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the document as one JSON file. Every Save rewrites
// the whole file; there is no locking across processes, so the last
// writer wins.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure data dir: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

// Load reads the document, creating and persisting an empty one when the
// file does not exist yet. Storage errors and malformed JSON propagate;
// malformed timestamps inside records never do.
func (s *FileStore) Load() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		doc := NewDocument()
		if err := s.saveUnlocked(doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode journal: %w", err)
	}
	if err := finishLoad(&doc, s.saveUnlocked); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Save re-sorts the document and overwrites the backing file.
func (s *FileStore) Save(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveUnlocked(doc)
}

func (s *FileStore) saveUnlocked(doc *Document) error {
	doc.normalize()
	doc.sortNewestFirst()
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal for write: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode journal: %w", err)
	}
	return nil
}
