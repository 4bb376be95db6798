package history

import (
	"context"
	"path"
	"sync"
)

// MemoryStore is an in-process Store. It serves as the fallback when
// Redis is unreachable at startup (history then lives only as long as
// the process) and as the store used by tests.
type MemoryStore struct {
	mu   sync.RWMutex
	logs map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{logs: make(map[string][]string)}
}

func (s *MemoryStore) Append(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[key] = append(s.logs[key], value)
	return nil
}

func (s *MemoryStore) Range(_ context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.logs[key]
	n := int64(len(log))

	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop || start >= n {
		return []string{}, nil
	}

	out := make([]string, stop-start+1)
	copy(out, log[start:stop+1])
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, key)
	return nil
}

func (s *MemoryStore) Keys(_ context.Context, pattern string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for key := range s.logs {
		if ok, err := path.Match(pattern, key); err == nil && ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
