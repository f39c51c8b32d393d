package docstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/xxxsen/driveauth/internal/pkg/errors"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "a.json")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	doc, err := s.Create(ctx, "a.json", []byte(`{"v":1}`))
	require.NoError(t, err)
	require.NotEmpty(t, doc.Version)

	_, err = s.Create(ctx, "a.json", []byte(`{"v":2}`))
	require.ErrorIs(t, err, appErr.ErrConflict)

	got, err := s.Get(ctx, "a.json")
	require.NoError(t, err)
	require.JSONEq(t, `{"v":1}`, string(got.Data))
	require.Equal(t, doc.Version, got.Version)

	updated, err := s.Update(ctx, "a.json", []byte(`{"v":3}`), got.Version)
	require.NoError(t, err)
	require.NotEqual(t, got.Version, updated.Version)

	_, err = s.Update(ctx, "a.json", []byte(`{"v":4}`), got.Version)
	require.ErrorIs(t, err, appErr.ErrConflict)

	_, err = s.Update(ctx, "missing.json", []byte(`{}`), "x")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	require.NoError(t, s.Delete(ctx, "a.json"))
	require.ErrorIs(t, s.Delete(ctx, "a.json"), appErr.ErrNotFound)
}

func collectNames(t *testing.T, s Store) []string {
	t.Helper()
	var names []string
	token := ""
	for {
		page, err := s.List(context.Background(), token)
		require.NoError(t, err)
		names = append(names, page.Names...)
		if page.NextPageToken == "" {
			return names
		}
		token = page.NextPageToken
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryStoreListPaginates(t *testing.T) {
	s := &memoryStore{docs: make(map[string][]byte), pageSize: 3}
	for i := 0; i < 8; i++ {
		_, err := s.Create(context.Background(), fmt.Sprintf("%02d.json", i), []byte(`{}`))
		require.NoError(t, err)
	}
	page, err := s.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, page.Names, 3)
	require.NotEmpty(t, page.NextPageToken)

	names := collectNames(t, s)
	require.Len(t, names, 8)
	require.Equal(t, "00.json", names[0])
	require.Equal(t, "07.json", names[7])
}

func TestPaginate(t *testing.T) {
	sorted := []string{"a", "b", "c"}
	page := paginate(sorted, "", 2)
	require.Equal(t, []string{"a", "b"}, page.Names)
	require.Equal(t, "b", page.NextPageToken)

	page = paginate(sorted, "b", 2)
	require.Equal(t, []string{"c"}, page.Names)
	require.Empty(t, page.NextPageToken)

	page = paginate(nil, "", 2)
	require.Empty(t, page.Names)
	require.Empty(t, page.NextPageToken)
}

func TestMemoryStoreRejectsInvalidNames(t *testing.T) {
	s := NewMemory()
	_, err := s.Create(context.Background(), "../x.json", []byte(`{}`))
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = s.Create(context.Background(), "", []byte(`{}`))
	require.ErrorIs(t, err, appErr.ErrInvalid)
}
