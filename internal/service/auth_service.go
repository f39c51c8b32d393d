package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/driveauth/internal/model"
	appErr "github.com/xxxsen/driveauth/internal/pkg/errors"
	"github.com/xxxsen/driveauth/internal/pkg/password"
)

type LoginResult struct {
	Token   string
	Account model.PublicAccount
}

type AuthService struct {
	accounts AccountStore
	tokens   TokenStore
}

func NewAuthService(accounts AccountStore, tokens TokenStore) *AuthService {
	return &AuthService{accounts: accounts, tokens: tokens}
}

// Login checks the credentials of accountID and mints a new bearer token,
// invalidating any token issued before.
func (s *AuthService) Login(ctx context.Context, accountID, username, plainPassword string) (*LoginResult, error) {
	account, err := s.checkCredentials(ctx, accountID, username, plainPassword)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(ctx, account.AccountID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{Token: token, Account: account.Public()}, nil
}

func (s *AuthService) ResolveSession(ctx context.Context, token string) (*model.PublicAccount, error) {
	if strings.TrimSpace(token) == "" {
		return nil, appErr.ErrInvalid
	}
	accountID, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.Profile(ctx, accountID)
}

func (s *AuthService) Profile(ctx context.Context, accountID string) (*model.PublicAccount, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, appErr.ErrInvalid
	}
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	public := account.Public()
	return &public, nil
}

// DeleteAccount removes the account after the same checks as Login. Tokens
// bound to it stop resolving.
func (s *AuthService) DeleteAccount(ctx context.Context, accountID, username, plainPassword string) error {
	account, err := s.checkCredentials(ctx, accountID, username, plainPassword)
	if err != nil {
		return err
	}
	return s.accounts.Delete(ctx, account.AccountID)
}

func (s *AuthService) checkCredentials(ctx context.Context, accountID, username, plainPassword string) (*model.Account, error) {
	if accountID == "" || username == "" || plainPassword == "" {
		return nil, appErr.ErrInvalid
	}
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account.Username != username || !password.Matches(account.Password, plainPassword) {
		return nil, appErr.ErrCredentialMismatch
	}
	return account, nil
}
