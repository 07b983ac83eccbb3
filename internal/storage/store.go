package storage

import (
	"encoding/json"
	"os"
	"sync"
)

// Store reads and writes the whole business document. There is no finer
// granularity: every caller does read-modify-write on the full dataset.
type Store interface {
	Read() (*Document, error)
	Write(doc *Document) error
}

// FileStore keeps the document in a single JSON file, rewritten whole on
// every save. Last writer wins.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Read loads the document. A missing or malformed file yields an empty
// document, never an error: corruption is silently discarded by design.
func (s *FileStore) Read() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return &Document{}, nil
	}
	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return &Document{}, nil
	}
	return doc, nil
}

// Write rewrites the whole file.
func (s *FileStore) Write(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// MemStore holds the document in memory. Used in tests and anywhere a
// throwaway dataset is enough.
type MemStore struct {
	mu  sync.Mutex
	doc *Document
}

func NewMemStore(doc *Document) *MemStore {
	if doc == nil {
		doc = &Document{}
	}
	return &MemStore{doc: doc}
}

func (s *MemStore) Read() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(s.doc)
	if err != nil {
		return nil, err
	}
	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *MemStore) Write(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	copied := &Document{}
	if err := json.Unmarshal(data, copied); err != nil {
		return err
	}
	s.doc = copied
	return nil
}
