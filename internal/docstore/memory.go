package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	appErr "github.com/xxxsen/driveauth/internal/pkg/errors"
)

const memoryPageSize = 100

type memoryStore struct {
	mu       sync.Mutex
	docs     map[string][]byte
	pageSize int
}

func init() {
	Register("memory", createMemoryStore)
}

func createMemoryStore(args interface{}, container string) (Store, error) {
	_ = args
	_ = container
	return NewMemory(), nil
}

// NewMemory returns an empty in-process store.
func NewMemory() Store {
	return &memoryStore{docs: make(map[string][]byte), pageSize: memoryPageSize}
}

func (s *memoryStore) Get(ctx context.Context, name string) (*Document, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.docs[name]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return &Document{Name: name, Data: cloneBytes(data), Version: contentVersion(data)}, nil
}

func (s *memoryStore) Create(ctx context.Context, name string, data []byte) (*Document, error) {
	_ = ctx
	if !validName(name) {
		return nil, fmt.Errorf("invalid document name %q: %w", name, appErr.ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[name]; ok {
		return nil, appErr.ErrConflict
	}
	s.docs[name] = cloneBytes(data)
	return &Document{Name: name, Data: cloneBytes(data), Version: contentVersion(data)}, nil
}

func (s *memoryStore) Update(ctx context.Context, name string, data []byte, version string) (*Document, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.docs[name]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	if contentVersion(current) != version {
		return nil, appErr.ErrConflict
	}
	s.docs[name] = cloneBytes(data)
	return &Document{Name: name, Data: cloneBytes(data), Version: contentVersion(data)}, nil
}

func (s *memoryStore) Delete(ctx context.Context, name string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[name]; !ok {
		return appErr.ErrNotFound
	}
	delete(s.docs, name)
	return nil
}

func (s *memoryStore) List(ctx context.Context, pageToken string) (*Page, error) {
	_ = ctx
	s.mu.Lock()
	names := make([]string, 0, len(s.docs))
	for name := range s.docs {
		names = append(names, name)
	}
	s.mu.Unlock()
	sort.Strings(names)
	return paginate(names, pageToken, s.pageSize), nil
}

// paginate pages over sorted names; the page token is the last name already returned.
func paginate(sorted []string, pageToken string, size int) *Page {
	start := 0
	if pageToken != "" {
		start = sort.SearchStrings(sorted, pageToken)
		if start < len(sorted) && sorted[start] == pageToken {
			start++
		}
	}
	end := start + size
	if end > len(sorted) {
		end = len(sorted)
	}
	page := &Page{Names: append([]string(nil), sorted[start:end]...)}
	if end < len(sorted) && end > start {
		page.NextPageToken = sorted[end-1]
	}
	return page
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
