package docstore

import (
	"context"
	"time"
)

type timeoutStore struct {
	next    Store
	timeout time.Duration
}

// WithTimeout bounds every call on s by d. A non-positive d returns s unchanged.
func WithTimeout(s Store, d time.Duration) Store {
	if s == nil || d <= 0 {
		return s
	}
	return &timeoutStore{next: s, timeout: d}
}

func (s *timeoutStore) Get(ctx context.Context, name string) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Get(ctx, name)
}

func (s *timeoutStore) Create(ctx context.Context, name string, data []byte) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Create(ctx, name, data)
}

func (s *timeoutStore) Update(ctx context.Context, name string, data []byte, version string) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Update(ctx, name, data, version)
}

func (s *timeoutStore) Delete(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Delete(ctx, name)
}

func (s *timeoutStore) List(ctx context.Context, pageToken string) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.List(ctx, pageToken)
}
