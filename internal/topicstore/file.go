package topicstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/rmacdonaldsmith/cnotify-go/pkg/topicstore"
)

// ErrCorruptDocument is returned when the preferences file cannot be decoded.
var ErrCorruptDocument = errors.New("topic store document is corrupt")

// FileStore implements topicstore.Store as a JSON preferences document on an
// afero filesystem. The document maps keys to string lists so other keys
// written by the host application survive a Save.
type FileStore struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

// NewFileStore creates a store for the document at path. A nil fs means the
// OS filesystem.
func NewFileStore(fs afero.Fs, path string) *FileStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileStore{fs: fs, path: path}
}

// Path returns the document location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the topic list from the document. A missing document or key
// yields an empty slice.
func (s *FileStore) Load(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDocument()
	if err != nil {
		return nil, err
	}
	return copyTopics(doc[topicstore.SubscribedTopicsKey]), nil
}

// Save replaces the topic list. The document is written to a temporary file
// and renamed over the original.
func (s *FileStore) Save(ctx context.Context, topics []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDocument()
	if err != nil {
		return err
	}
	doc[topicstore.SubscribedTopicsKey] = copyTopics(topics)
	return s.writeDocument(doc)
}

// Clear removes the topic list key from the document.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readDocument()
	if err != nil {
		return err
	}
	if _, ok := doc[topicstore.SubscribedTopicsKey]; !ok {
		return nil
	}
	delete(doc, topicstore.SubscribedTopicsKey)
	return s.writeDocument(doc)
}

func (s *FileStore) readDocument() (map[string][]string, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string][]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	doc := make(map[string][]string)
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	return doc, nil
}

func (s *FileStore) writeDocument(doc map[string][]string) error {
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
