package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/driveauth/internal/model"
)

type AccountStore interface {
	FindByID(ctx context.Context, accountID string) (*model.Account, error)
	Create(ctx context.Context, email, username, passwordHash string) (string, error)
	Delete(ctx context.Context, accountID string) error
	EmailExists(ctx context.Context, email string) (bool, error)
}

// WrapLruCacheToAccountStore caches FindByID results in memory. A non-positive
// size or ttl returns next unchanged.
func WrapLruCacheToAccountStore(next AccountStore, size int, ttl time.Duration) AccountStore {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &lruAccountStore{
		next:  next,
		cache: expirable.NewLRU[string, model.Account](size, nil, ttl),
	}
}

type lruAccountStore struct {
	next  AccountStore
	cache *expirable.LRU[string, model.Account]
}

func (l *lruAccountStore) FindByID(ctx context.Context, accountID string) (*model.Account, error) {
	if cached, ok := l.cache.Get(accountID); ok {
		logutil.GetLogger(ctx).Debug("account cache hit", zap.String("account_id", accountID))
		return &cached, nil
	}
	account, err := l.next.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	l.cache.Add(accountID, *account)
	return account, nil
}

func (l *lruAccountStore) Create(ctx context.Context, email, username, passwordHash string) (string, error) {
	return l.next.Create(ctx, email, username, passwordHash)
}

func (l *lruAccountStore) Delete(ctx context.Context, accountID string) error {
	l.cache.Remove(accountID)
	err := l.next.Delete(ctx, accountID)
	l.cache.Remove(accountID)
	return err
}

func (l *lruAccountStore) EmailExists(ctx context.Context, email string) (bool, error) {
	return l.next.EmailExists(ctx, email)
}
