package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/xxxsen/driveauth/internal/pkg/errors"
)

const maxMutateAttempts = 5

// ErrNoChange may be returned by a Mutate callback to skip the write.
var ErrNoChange = errors.New("docstore: no change")

// Load decodes the named document into a new T. found is false when the
// document does not exist, in which case the zero T is returned.
func Load[T any](ctx context.Context, s Store, name string) (v T, found bool, err error) {
	doc, err := s.Get(ctx, name)
	if err != nil {
		if appErr.IsNotFound(err) {
			return v, false, nil
		}
		return v, false, err
	}
	if err := json.Unmarshal(doc.Data, &v); err != nil {
		return v, false, fmt.Errorf("decode %s: %w", name, err)
	}
	return v, true, nil
}

// Mutate reads the named JSON document, applies fn and writes the result back
// conditionally on the version it read. A missing document starts from the zero
// T and is created. When another writer got there first the whole cycle is
// re-run against the fresh document; after maxMutateAttempts it gives up with
// ErrConflict. fn must therefore be safe to call more than once.
func Mutate[T any](ctx context.Context, s Store, name string, fn func(v *T) error) (*T, error) {
	logger := logutil.GetLogger(ctx)
	for attempt := 1; attempt <= maxMutateAttempts; attempt++ {
		var v T
		doc, err := s.Get(ctx, name)
		exists := err == nil
		if err != nil && !appErr.IsNotFound(err) {
			return nil, err
		}
		if exists {
			if err := json.Unmarshal(doc.Data, &v); err != nil {
				return nil, fmt.Errorf("decode %s: %w", name, err)
			}
		}
		if err := fn(&v); err != nil {
			if errors.Is(err, ErrNoChange) {
				return &v, nil
			}
			return nil, err
		}
		data, err := json.Marshal(&v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		if exists {
			_, err = s.Update(ctx, name, data, doc.Version)
		} else {
			_, err = s.Create(ctx, name, data)
		}
		if err == nil {
			return &v, nil
		}
		if !appErr.IsConflict(err) && !(exists && appErr.IsNotFound(err)) {
			return nil, err
		}
		logger.Debug("document changed concurrently, re-applying update",
			zap.String("name", name),
			zap.Int("attempt", attempt),
		)
	}
	return nil, fmt.Errorf("update %s: %w", name, appErr.ErrConflict)
}
