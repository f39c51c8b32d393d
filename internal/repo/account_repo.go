package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/driveauth/internal/docstore"
	"github.com/xxxsen/driveauth/internal/model"
	appErr "github.com/xxxsen/driveauth/internal/pkg/errors"
)

// AccountRepo stores one document per account in the accounts container and
// keeps the email index in the system container.
//
// An index entry whose account document is missing is left over from a create
// that stopped before the document was written. Such entries are treated as
// free. createMu keeps this process from mistaking its own in-flight create
// for one of them.
type AccountRepo struct {
	accounts docstore.Store
	system   docstore.Store
	ids      *IDAllocator
	tokens   *TokenRepo
	createMu sync.Mutex
}

func NewAccountRepo(accounts, system docstore.Store, ids *IDAllocator, tokens *TokenRepo) *AccountRepo {
	return &AccountRepo{accounts: accounts, system: system, ids: ids, tokens: tokens}
}

func (r *AccountRepo) FindByID(ctx context.Context, accountID string) (*model.Account, error) {
	if !validAccountID(accountID) {
		return nil, appErr.ErrNotFound
	}
	account, found, err := docstore.Load[model.Account](ctx, r.accounts, AccountDocName(accountID))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, appErr.ErrNotFound
	}
	if account.AccountID == "" {
		account.AccountID = accountID
	}
	return &account, nil
}

// Create allocates an id, reserves email in the index and writes the account
// document. The id is consumed even when a later step fails.
func (r *AccountRepo) Create(ctx context.Context, email, username, passwordHash string) (string, error) {
	r.createMu.Lock()
	defer r.createMu.Unlock()
	exists, err := r.emailTaken(ctx, email)
	if err != nil {
		return "", err
	}
	if exists {
		return "", appErr.ErrDuplicateEmail
	}
	accountID, err := r.ids.Allocate(ctx)
	if err != nil {
		return "", err
	}
	if err := r.reserveEmail(ctx, email, accountID); err != nil {
		return "", err
	}
	data, err := json.Marshal(&model.Account{
		Email:     email,
		Username:  username,
		Password:  passwordHash,
		AccountID: accountID,
	})
	if err != nil {
		return "", err
	}
	if _, err := r.accounts.Create(ctx, AccountDocName(accountID), data); err != nil {
		logutil.GetLogger(ctx).Error("write account document failed",
			zap.String("account_id", accountID), zap.Error(err))
		if rerr := r.releaseEmail(ctx, accountID); rerr != nil {
			logutil.GetLogger(ctx).Error("release email reservation failed",
				zap.String("account_id", accountID), zap.Error(rerr))
		}
		return "", fmt.Errorf("create account %s: %w", accountID, err)
	}
	return accountID, nil
}

// Delete removes the account document, its index entry and every token bound
// to it. Deleting an unknown id succeeds.
func (r *AccountRepo) Delete(ctx context.Context, accountID string) error {
	if !validAccountID(accountID) {
		return nil
	}
	if err := r.accounts.Delete(ctx, AccountDocName(accountID)); err != nil && !appErr.IsNotFound(err) {
		return err
	}
	if err := r.releaseEmail(ctx, accountID); err != nil {
		return err
	}
	return r.tokens.RevokeByAccount(ctx, accountID)
}

func (r *AccountRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	r.createMu.Lock()
	defer r.createMu.Unlock()
	return r.emailTaken(ctx, email)
}

func (r *AccountRepo) emailTaken(ctx context.Context, email string) (bool, error) {
	index, err := r.loadEmailIndex(ctx)
	if err != nil {
		return false, err
	}
	accountID, ok := index[email]
	if !ok {
		return false, nil
	}
	live, err := r.accountExists(ctx, accountID)
	if err != nil || live {
		return live, err
	}
	logutil.GetLogger(ctx).Warn("drop email index entry without account document",
		zap.String("email", email), zap.String("account_id", accountID))
	if err := r.dropStaleEmail(ctx, email, accountID); err != nil {
		return false, err
	}
	return false, nil
}

func (r *AccountRepo) accountExists(ctx context.Context, accountID string) (bool, error) {
	_, err := r.FindByID(ctx, accountID)
	if appErr.IsNotFound(err) {
		return false, nil
	}
	return err == nil, err
}

// ScanEmails reads every document in the accounts container. Documents that
// do not parse as accounts are skipped.
func (r *AccountRepo) ScanEmails(ctx context.Context) (map[string]string, error) {
	logger := logutil.GetLogger(ctx)
	out := make(map[string]string)
	pageToken := ""
	for {
		page, err := r.accounts.List(ctx, pageToken)
		if err != nil {
			return nil, err
		}
		for _, name := range page.Names {
			if !strings.HasSuffix(name, accountDocSuffix) {
				continue
			}
			account, found, err := docstore.Load[model.Account](ctx, r.accounts, name)
			if err != nil {
				logger.Warn("skip unreadable account document", zap.String("name", name), zap.Error(err))
				continue
			}
			if !found {
				continue
			}
			if account.Email == "" {
				logger.Warn("skip account document without email", zap.String("name", name))
				continue
			}
			accountID := account.AccountID
			if accountID == "" {
				accountID = strings.TrimSuffix(name, accountDocSuffix)
			}
			out[account.Email] = accountID
		}
		if page.NextPageToken == "" {
			return out, nil
		}
		pageToken = page.NextPageToken
	}
}

// RebuildEmailIndex replaces the email index with the result of a full scan.
func (r *AccountRepo) RebuildEmailIndex(ctx context.Context) (int, error) {
	scanned, err := r.ScanEmails(ctx)
	if err != nil {
		return 0, err
	}
	_, err = docstore.Mutate(ctx, r.system, EmailIndexDoc, func(idx *model.EmailIndex) error {
		*idx = make(model.EmailIndex, len(scanned))
		for email, id := range scanned {
			(*idx)[email] = id
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	logutil.GetLogger(ctx).Info("email index rebuilt", zap.Int("accounts", len(scanned)))
	return len(scanned), nil
}

func (r *AccountRepo) loadEmailIndex(ctx context.Context) (model.EmailIndex, error) {
	index, found, err := docstore.Load[model.EmailIndex](ctx, r.system, EmailIndexDoc)
	if err != nil {
		return nil, err
	}
	if found {
		return index, nil
	}
	if _, err := r.RebuildEmailIndex(ctx); err != nil {
		return nil, fmt.Errorf("rebuild email index: %w", err)
	}
	index, _, err = docstore.Load[model.EmailIndex](ctx, r.system, EmailIndexDoc)
	return index, err
}

func (r *AccountRepo) reserveEmail(ctx context.Context, email, accountID string) error {
	_, err := docstore.Mutate(ctx, r.system, EmailIndexDoc, func(idx *model.EmailIndex) error {
		if *idx == nil {
			*idx = model.EmailIndex{}
		}
		if owner, ok := (*idx)[email]; ok && owner != accountID {
			live, err := r.accountExists(ctx, owner)
			if err != nil {
				return err
			}
			if live {
				return appErr.ErrDuplicateEmail
			}
			logutil.GetLogger(ctx).Warn("take over email index entry without account document",
				zap.String("email", email), zap.String("stale_account_id", owner),
				zap.String("account_id", accountID))
		}
		(*idx)[email] = accountID
		return nil
	})
	return err
}

func (r *AccountRepo) dropStaleEmail(ctx context.Context, email, accountID string) error {
	_, err := docstore.Mutate(ctx, r.system, EmailIndexDoc, func(idx *model.EmailIndex) error {
		if owner, ok := (*idx)[email]; !ok || owner != accountID {
			return docstore.ErrNoChange
		}
		delete(*idx, email)
		return nil
	})
	return err
}

func (r *AccountRepo) releaseEmail(ctx context.Context, accountID string) error {
	_, err := docstore.Mutate(ctx, r.system, EmailIndexDoc, func(idx *model.EmailIndex) error {
		removed := false
		for email, id := range *idx {
			if id == accountID {
				delete(*idx, email)
				removed = true
			}
		}
		if !removed {
			return docstore.ErrNoChange
		}
		return nil
	})
	return err
}
