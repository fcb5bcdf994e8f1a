package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/janelia-flyem/zarrgen/zarrgen"
)

// TestStore is an in-memory Store used by package tests.  It records
// every group, attribute document, array, and chunk, and can inject a
// write failure for a chosen chunk.
type TestStore struct {
	mu     sync.Mutex
	groups map[string]bool
	attrs  map[string][]byte
	arrays map[string]ArrayAttrs
	chunks map[string][]byte

	// FailChunk, if set, makes WriteChunk fail for any chunk whose
	// dataset path and coordinate match.
	FailChunk func(path string, coord zarrgen.ChunkPoint5d) bool
}

// NewTestStore returns an empty in-memory store.
func NewTestStore() *TestStore {
	return &TestStore{
		groups: make(map[string]bool),
		attrs:  make(map[string][]byte),
		arrays: make(map[string]ArrayAttrs),
		chunks: make(map[string][]byte),
	}
}

func chunkKey(path string, coord zarrgen.ChunkPoint5d) string {
	return fmt.Sprintf("%s/%d.%d.%d.%d.%d", path, coord[0], coord[1], coord[2], coord[3], coord[4])
}

// ---- Store interface ----

func (s *TestStore) CreateGroup(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[path] = true
	return nil
}

func (s *TestStore) SetAttributes(ctx context.Context, path string, attrs interface{}) error {
	data, err := json.Marshal(attrs)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs[path] = data
	return nil
}

func (s *TestStore) CreateArray(ctx context.Context, path string, attrs ArrayAttrs) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.arrays[path] = attrs
	return nil
}

func (s *TestStore) WriteChunk(ctx context.Context, path string, coord zarrgen.ChunkPoint5d, pixels []byte) error {
	if s.FailChunk != nil && s.FailChunk(path, coord) {
		return fmt.Errorf("injected write failure for %s chunk %s", path, coord)
	}
	buf := make([]byte, len(pixels))
	copy(buf, pixels)
	s.mu.Lock()
	defer s.mu.Unlock()
	key := chunkKey(path, coord)
	if _, found := s.chunks[key]; found {
		return fmt.Errorf("chunk %s written twice", key)
	}
	s.chunks[key] = buf
	return nil
}

func (s *TestStore) ReadChunk(ctx context.Context, path string, coord zarrgen.ChunkPoint5d) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, found := s.chunks[chunkKey(path, coord)]
	if !found {
		return nil, fmt.Errorf("no chunk at %s", chunkKey(path, coord))
	}
	return data, nil
}

func (s *TestStore) ChunkExists(ctx context.Context, path string, coord zarrgen.ChunkPoint5d) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, found := s.chunks[chunkKey(path, coord)]
	return found, nil
}

func (s *TestStore) Close() error {
	return nil
}

// ---- test inspection helpers ----

// NumChunks returns how many chunks have been written.
func (s *TestStore) NumChunks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}

// Attributes unmarshals the attribute document at a path into out,
// returning false if no document was written there.
func (s *TestStore) Attributes(path string, out interface{}) (bool, error) {
	s.mu.Lock()
	data, found := s.attrs[path]
	s.mu.Unlock()
	if !found {
		return false, nil
	}
	return true, json.Unmarshal(data, out)
}

// Array returns the array metadata created at a path.
func (s *TestStore) Array(path string) (ArrayAttrs, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, found := s.arrays[path]
	return a, found
}
