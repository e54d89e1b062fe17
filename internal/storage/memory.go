package storage

import (
	"context"
	"fmt"
	"sync"
)

// Memory keeps objects in a map. Upload and delete calls are counted so tests
// can assert that validation stopped a request before it reached storage.
type Memory struct {
	BaseURL string

	mu      sync.Mutex
	objects map[string][]byte
	uploads int
	deletes int
	failDel error
}

func NewMemory(baseURL string) *Memory {
	return &Memory{BaseURL: baseURL, objects: make(map[string][]byte)}
}

func (m *Memory) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads++
	m.objects[bucket+"/"+path] = append([]byte(nil), data...)
	return publicURL(m.BaseURL, bucket, path), nil
}

func (m *Memory) Delete(ctx context.Context, bucket, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	if m.failDel != nil {
		return m.failDel
	}
	key := bucket + "/" + path
	if _, ok := m.objects[key]; !ok {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	delete(m.objects, key)
	return nil
}

func (m *Memory) Locate(u string) (string, string, bool) { return locate(m.BaseURL, u) }

// FailDeletes makes every later Delete return err.
func (m *Memory) FailDeletes(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failDel = err
}

func (m *Memory) Uploads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads
}

func (m *Memory) Deletes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletes
}

func (m *Memory) Has(bucket, path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[bucket+"/"+path]
	return ok
}
