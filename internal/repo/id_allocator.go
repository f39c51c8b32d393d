package repo

import (
	"context"
	"fmt"

	"github.com/xxxsen/driveauth/internal/docstore"
	"github.com/xxxsen/driveauth/internal/model"
)

const IDWidth = 16

// IDAllocator hands out account identifiers from the counter kept in the auth
// token document. The counter is never rolled back, so an allocation whose
// account is not created afterwards leaves a gap.
type IDAllocator struct {
	store docstore.Store
	first int64
}

func NewIDAllocator(store docstore.Store, first int64) *IDAllocator {
	return &IDAllocator{store: store, first: first}
}

func (a *IDAllocator) Allocate(ctx context.Context) (string, error) {
	var allocated int64
	_, err := docstore.Mutate(ctx, a.store, AuthTokensDoc, func(t *model.TokenTable) error {
		if t.NextID < a.first {
			t.NextID = a.first
		}
		allocated = t.NextID
		t.NextID++
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("allocate account id: %w", err)
	}
	return FormatID(allocated), nil
}

func FormatID(n int64) string {
	return fmt.Sprintf("%0*d", IDWidth, n)
}
