package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	appcatalog "github.com/assetflow/backend/internal/application/catalog"
)

var _ appcatalog.ObjectStorage = (*MemoryObjectStorage)(nil)

// MemoryObjectStorage keeps objects in process memory. Used when no bucket is
// configured (development) and in tests. Download URLs point at BaseURL and
// are not actually served.
type MemoryObjectStorage struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	contentType string
	data        []byte
}

// NewMemoryObjectStorage creates a new MemoryObjectStorage
func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{
		BaseURL: "https://storage.example.com",
		objects: make(map[string]memoryObject),
	}
}

// PutObject stores the body under key. A body shorter than size is an error.
func (s *MemoryObjectStorage) PutObject(_ context.Context, key, contentType string, body io.Reader, size int64) error {
	if key == "" {
		return errKeyRequired
	}
	data, err := io.ReadAll(io.LimitReader(body, size))
	if err != nil {
		return fmt.Errorf("failed to read object body: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("object body is %d bytes, expected %d", len(data), size)
	}

	s.mu.Lock()
	s.objects[key] = memoryObject{contentType: contentType, data: data}
	s.mu.Unlock()
	return nil
}

// GenerateDownloadURL returns a fake presigned URL for key
func (s *MemoryObjectStorage) GenerateDownloadURL(_ context.Context, key, fileName string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errKeyRequired
	}
	expiresAt := time.Now().Add(expiresIn)
	q := url.Values{}
	q.Set("expires", expiresAt.UTC().Format(time.RFC3339))
	if fileName != "" {
		q.Set("filename", fileName)
	}
	return s.BaseURL + "/download/" + key + "?" + q.Encode(), expiresAt, nil
}

// DeleteObject drops key. Missing keys are ignored.
func (s *MemoryObjectStorage) DeleteObject(_ context.Context, key string) error {
	if key == "" {
		return errKeyRequired
	}
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

// ObjectExists reports whether key is stored
func (s *MemoryObjectStorage) ObjectExists(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errKeyRequired
	}
	s.mu.RLock()
	_, ok := s.objects[key]
	s.mu.RUnlock()
	return ok, nil
}

// Object returns a copy of the stored bytes and content type
func (s *MemoryObjectStorage) Object(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, "", false
	}
	return append([]byte(nil), obj.data...), obj.contentType, true
}
