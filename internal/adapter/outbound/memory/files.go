package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/labportal/server/internal/port/outbound"
)

// FileStore keeps uploaded deliverables in memory.
type FileStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ outbound.FileStorePort = (*FileStore)(nil)

// NewFileStore creates an empty file store.
func NewFileStore() *FileStore {
	return &FileStore{objects: make(map[string][]byte)}
}

// Put reads the whole object into memory and returns its key as the reference.
func (s *FileStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = buf.Bytes()
	return key, nil
}

// GetPresignedURL returns a pseudo URL for the stored object.
func (s *FileStore) GetPresignedURL(ctx context.Context, ref string, duration time.Duration) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[ref]; !ok {
		return "", fmt.Errorf("object %q not found", ref)
	}
	return "memory://" + ref, nil
}

// Object returns the stored bytes for ref.
func (s *FileStore) Object(ref string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.objects[ref]
	return b, ok
}
