package repo

import (
	"context"

	"github.com/xxxsen/driveauth/internal/docstore"
	"github.com/xxxsen/driveauth/internal/model"
	appErr "github.com/xxxsen/driveauth/internal/pkg/errors"
	"github.com/xxxsen/driveauth/internal/pkg/token"
)

// TokenRepo keeps the bearer tokens in the auth token document. An account
// holds at most one token at a time.
type TokenRepo struct {
	store    docstore.Store
	newToken func() (string, error)
}

func NewTokenRepo(store docstore.Store) *TokenRepo {
	return &TokenRepo{store: store, newToken: token.Generate}
}

// Issue mints a fresh token for accountID and drops every older one.
func (r *TokenRepo) Issue(ctx context.Context, accountID string) (string, error) {
	tok, err := r.newToken()
	if err != nil {
		return "", err
	}
	_, err = docstore.Mutate(ctx, r.store, AuthTokensDoc, func(t *model.TokenTable) error {
		if t.Tokens == nil {
			t.Tokens = make(map[string]string)
		}
		removeAccountTokens(t, accountID)
		t.Tokens[tok] = accountID
		return nil
	})
	if err != nil {
		return "", err
	}
	return tok, nil
}

func (r *TokenRepo) Resolve(ctx context.Context, tok string) (string, error) {
	table, found, err := docstore.Load[model.TokenTable](ctx, r.store, AuthTokensDoc)
	if err != nil {
		return "", err
	}
	if !found {
		return "", appErr.ErrNotFound
	}
	accountID, ok := table.Tokens[tok]
	if !ok {
		return "", appErr.ErrNotFound
	}
	return accountID, nil
}

func (r *TokenRepo) RevokeByAccount(ctx context.Context, accountID string) error {
	_, err := docstore.Mutate(ctx, r.store, AuthTokensDoc, func(t *model.TokenTable) error {
		if removeAccountTokens(t, accountID) == 0 {
			return docstore.ErrNoChange
		}
		return nil
	})
	return err
}

func removeAccountTokens(t *model.TokenTable, accountID string) int {
	removed := 0
	for tok, id := range t.Tokens {
		if id == accountID {
			delete(t.Tokens, tok)
			removed++
		}
	}
	return removed
}
