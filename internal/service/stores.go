package service

import (
	"context"

	"github.com/xxxsen/driveauth/internal/model"
)

type AccountStore interface {
	FindByID(ctx context.Context, accountID string) (*model.Account, error)
	Create(ctx context.Context, email, username, passwordHash string) (string, error)
	Delete(ctx context.Context, accountID string) error
	EmailExists(ctx context.Context, email string) (bool, error)
}

type TokenStore interface {
	Issue(ctx context.Context, accountID string) (string, error)
	Resolve(ctx context.Context, token string) (string, error)
}

type VerificationStore interface {
	Get(ctx context.Context, email string) (*model.PendingVerification, error)
	Put(ctx context.Context, email string, item *model.PendingVerification) error
	Delete(ctx context.Context, email string) error
	DeleteBefore(ctx context.Context, cutoff int64) (int, error)
}
