package repo

import (
	"context"

	"github.com/xxxsen/driveauth/internal/docstore"
	"github.com/xxxsen/driveauth/internal/model"
	appErr "github.com/xxxsen/driveauth/internal/pkg/errors"
)

// VerificationRepo keeps pending signups keyed by email, one per address.
type VerificationRepo struct {
	store docstore.Store
}

func NewVerificationRepo(store docstore.Store) *VerificationRepo {
	return &VerificationRepo{store: store}
}

func (r *VerificationRepo) Get(ctx context.Context, email string) (*model.PendingVerification, error) {
	table, found, err := docstore.Load[model.VerificationTable](ctx, r.store, VerificationsDoc)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, appErr.ErrNotFound
	}
	item, ok := table[email]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return &item, nil
}

// Put stores item for email, replacing any earlier pending signup.
func (r *VerificationRepo) Put(ctx context.Context, email string, item *model.PendingVerification) error {
	_, err := docstore.Mutate(ctx, r.store, VerificationsDoc, func(t *model.VerificationTable) error {
		if *t == nil {
			*t = model.VerificationTable{}
		}
		(*t)[email] = *item
		return nil
	})
	return err
}

func (r *VerificationRepo) Delete(ctx context.Context, email string) error {
	_, err := docstore.Mutate(ctx, r.store, VerificationsDoc, func(t *model.VerificationTable) error {
		if _, ok := (*t)[email]; !ok {
			return docstore.ErrNoChange
		}
		delete(*t, email)
		return nil
	})
	return err
}

// DeleteBefore removes every entry stamped before cutoff (unix milliseconds).
func (r *VerificationRepo) DeleteBefore(ctx context.Context, cutoff int64) (int, error) {
	removed := 0
	_, err := docstore.Mutate(ctx, r.store, VerificationsDoc, func(t *model.VerificationTable) error {
		removed = 0
		for email, item := range *t {
			if item.TimeStamp < cutoff {
				delete(*t, email)
				removed++
			}
		}
		if removed == 0 {
			return docstore.ErrNoChange
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
