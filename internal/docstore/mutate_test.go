package docstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/driveauth/internal/pkg/errors"
)

type counters struct {
	Hits map[string]int `json:"hits"`
}

func incr(key string) func(v *counters) error {
	return func(v *counters) error {
		if v.Hits == nil {
			v.Hits = make(map[string]int)
		}
		v.Hits[key]++
		return nil
	}
}

// interleavingStore lets a competing writer update the document right before
// the first conditional update goes through.
type interleavingStore struct {
	Store
	once    sync.Once
	compete func()
}

func (s *interleavingStore) Update(ctx context.Context, name string, data []byte, version string) (*Document, error) {
	s.once.Do(s.compete)
	return s.Store.Update(ctx, name, data, version)
}

func TestMutateCreatesMissingDocument(t *testing.T) {
	s := NewMemory()
	v, err := Mutate(context.Background(), s, "c.json", incr("a"))
	require.NoError(t, err)
	require.Equal(t, 1, v.Hits["a"])

	loaded, found, err := Load[counters](context.Background(), s, "c.json")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 1, loaded.Hits["a"])
}

func TestMutateReappliesAfterConflict(t *testing.T) {
	ctx := context.Background()
	base := NewMemory()
	_, err := Mutate(ctx, base, "c.json", incr("seed"))
	require.NoError(t, err)

	s := &interleavingStore{Store: base}
	s.compete = func() {
		_, err := Mutate(ctx, base, "c.json", incr("other"))
		require.NoError(t, err)
	}
	calls := 0
	_, err = Mutate(ctx, s, "c.json", func(v *counters) error {
		calls++
		return incr("mine")(v)
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)

	loaded, _, err := Load[counters](ctx, base, "c.json")
	require.NoError(t, err)
	require.Equal(t, map[string]int{"seed": 1, "other": 1, "mine": 1}, loaded.Hits)
}

func TestMutateConcurrentWritersLoseNothing(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := Mutate(ctx, s, "c.json", incr(fmt.Sprintf("k%d", i)))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			// a writer may exhaust its attempts under heavy contention, but never silently
			require.ErrorIs(t, err, appErr.ErrConflict)
		}
	}
	loaded, _, err := Load[counters](ctx, s, "c.json")
	require.NoError(t, err)
	for k, n := range loaded.Hits {
		require.Equal(t, 1, n, k)
	}
}

type alwaysConflictStore struct {
	Store
}

func (s alwaysConflictStore) Update(ctx context.Context, name string, data []byte, version string) (*Document, error) {
	return nil, appErr.ErrConflict
}

func TestMutateGivesUpWithConflict(t *testing.T) {
	ctx := context.Background()
	base := NewMemory()
	_, err := Mutate(ctx, base, "c.json", incr("seed"))
	require.NoError(t, err)

	_, err = Mutate(ctx, alwaysConflictStore{Store: base}, "c.json", incr("x"))
	require.ErrorIs(t, err, appErr.ErrConflict)
}

func TestMutateNoChangeSkipsWrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	_, err := Mutate(ctx, s, "c.json", func(v *counters) error { return ErrNoChange })
	require.NoError(t, err)
	_, err = s.Get(ctx, "c.json")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestMutatePropagatesCallbackError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Mutate(context.Background(), NewMemory(), "c.json", func(v *counters) error { return boom })
	require.ErrorIs(t, err, boom)
}

type slowStore struct {
	Store
}

func (s slowStore) Get(ctx context.Context, name string) (*Document, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestWithTimeoutBoundsCalls(t *testing.T) {
	s := WithTimeout(slowStore{Store: NewMemory()}, 10*time.Millisecond)
	_, err := s.Get(context.Background(), "a.json")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	plain := NewMemory()
	require.Equal(t, plain, WithTimeout(plain, 0))
}
