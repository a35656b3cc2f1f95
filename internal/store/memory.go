package store

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	vererrors "github.com/mkviewer/mkviewer/internal/errors"
)

// MemStore is an in-memory ObjectStore used by tests and local demo runs.
// ETags are content hashes, so they differ iff the bytes differ.
type MemStore struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// FailWith, when set, is returned by every call. Tests use it to simulate
	// an unavailable store.
	FailWith error

	// getCalls counts Get invocations for cache-behavior assertions.
	getCalls map[string]int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		objects:  make(map[string][]byte),
		getCalls: make(map[string]int),
	}
}

// Put inserts or replaces an object.
func (m *MemStore) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
}

// Delete removes an object.
func (m *MemStore) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
}

// GetCalls reports how many times Get was invoked for key.
func (m *MemStore) GetCalls(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getCalls[key]
}

// List enumerates all objects under prefix in key order.
func (m *MemStore) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	var infos []ObjectInfo
	for key, data := range m.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		infos = append(infos, ObjectInfo{Key: key, ETag: etagOf(data), Size: int64(len(data))})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// Get fetches object bytes.
func (m *MemStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	m.getCalls[key]++
	data, ok := m.objects[key]
	if !ok {
		return nil, vererrors.New(vererrors.ErrCodeObjectNotFound, "object not found", nil).WithKey(key)
	}
	return append([]byte(nil), data...), nil
}

// Stat returns metadata for a single object.
func (m *MemStore) Stat(_ context.Context, key string) (ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailWith != nil {
		return ObjectInfo{}, m.FailWith
	}

	data, ok := m.objects[key]
	if !ok {
		return ObjectInfo{}, vererrors.New(vererrors.ErrCodeObjectNotFound, "object not found", nil).WithKey(key)
	}
	return ObjectInfo{Key: key, ETag: etagOf(data), Size: int64(len(data))}, nil
}

// PresignedURL returns a fake but well-formed URL.
func (m *MemStore) PresignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailWith != nil {
		return "", m.FailWith
	}
	return fmt.Sprintf("https://mem.local/%s?expires=%d", url.PathEscape(key), int64(ttl.Seconds())), nil
}

// Close is a no-op.
func (m *MemStore) Close() error { return nil }

func etagOf(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
