// Package storage provides object storage implementations for document
// and certificate artifacts.
package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	auditapp "github.com/finaudit/backend/internal/application/audit"
)

// MemoryObjectStorage is an in-memory implementation of ObjectStorageService.
// Use this for development and tests; objects do not survive a restart.
type MemoryObjectStorage struct {
	// BaseURL is the base URL for generated download URLs.
	// Defaults to "https://storage.example.com" if not set.
	BaseURL string

	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryObjectStorage creates a new MemoryObjectStorage
func NewMemoryObjectStorage() *MemoryObjectStorage {
	return &MemoryObjectStorage{
		BaseURL: "https://storage.example.com",
		objects: make(map[string][]byte),
	}
}

// Ensure MemoryObjectStorage implements ObjectStorageService
var _ auditapp.ObjectStorageService = (*MemoryObjectStorage)(nil)

// PutObject stores the given bytes under the storage key
func (s *MemoryObjectStorage) PutObject(ctx context.Context, storageKey, contentType string, content []byte) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storageKey] = append([]byte(nil), content...)
	return nil
}

// GetObject retrieves the bytes stored under the storage key
func (s *MemoryObjectStorage) GetObject(ctx context.Context, storageKey string) ([]byte, error) {
	if storageKey == "" {
		return nil, errors.New("storage key is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.objects[storageKey]
	if !ok {
		return nil, errors.New("object not found: " + storageKey)
	}
	return append([]byte(nil), content...), nil
}

// GenerateDownloadURL generates a stub presigned URL for downloading a file
func (s *MemoryObjectStorage) GenerateDownloadURL(
	ctx context.Context,
	storageKey string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}

	expiresAt := time.Now().Add(expiresIn)
	url := s.BaseURL + "/download/" + storageKey + "?expires=" + expiresAt.Format(time.RFC3339)

	return url, expiresAt, nil
}

// DeleteObject removes an object; deleting a missing key succeeds
func (s *MemoryObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, storageKey)
	return nil
}

// ObjectExists checks if an object exists in storage
func (s *MemoryObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[storageKey]
	return ok, nil
}

// Len returns the number of stored objects
func (s *MemoryObjectStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
