package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockImageStore is a testify mock of service.ImageStore.
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Save(ctx context.Context, key, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, key, contentType, data)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) Delete(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

// MemoryImageStore keeps images in memory and serves them at /media/<key>.
type MemoryImageStore struct {
	mu     sync.Mutex
	Images map[string][]byte
}

// NewMemoryImageStore creates an empty store.
func NewMemoryImageStore() *MemoryImageStore {
	return &MemoryImageStore{Images: make(map[string][]byte)}
}

func (s *MemoryImageStore) Save(_ context.Context, key, _ string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := "/media/" + key
	s.Images[ref] = data
	return ref, nil
}

func (s *MemoryImageStore) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Images, ref)
	return nil
}

// Len returns the number of stored images.
func (s *MemoryImageStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Images)
}
