package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/driveauth/internal/mailer"
	"github.com/xxxsen/driveauth/internal/model"
	appErr "github.com/xxxsen/driveauth/internal/pkg/errors"
	"github.com/xxxsen/driveauth/internal/pkg/password"
	"github.com/xxxsen/driveauth/internal/pkg/token"
)

const DefaultVerificationTTL = 24 * time.Hour

type VerificationOptions struct {
	// LinkBaseURL is the public address of this service, used to build the
	// link sent in the verification mail.
	LinkBaseURL string
	Product     string
	TTL         time.Duration
}

// VerificationService runs signup: a pending entry is stored and mailed, and
// the account only comes into existence once the emailed token is confirmed.
type VerificationService struct {
	accounts AccountStore
	pending  VerificationStore
	sender   mailer.Sender
	opts     VerificationOptions
	now      func() time.Time
	newToken func() (string, error)
}

func NewVerificationService(accounts AccountStore, pending VerificationStore, sender mailer.Sender, opts VerificationOptions) *VerificationService {
	if opts.TTL <= 0 {
		opts.TTL = DefaultVerificationTTL
	}
	opts.LinkBaseURL = strings.TrimRight(opts.LinkBaseURL, "/")
	return &VerificationService{
		accounts: accounts,
		pending:  pending,
		sender:   sender,
		opts:     opts,
		now:      time.Now,
		newToken: token.Generate,
	}
}

func (s *VerificationService) RequestSignup(ctx context.Context, email, username, plainPassword string) error {
	// Username is stored as given; login compares it byte for byte.
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(username) == "" || plainPassword == "" {
		return appErr.ErrInvalid
	}
	exists, err := s.accounts.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if exists {
		return appErr.ErrDuplicateEmail
	}
	verifyToken, err := s.newToken()
	if err != nil {
		return err
	}
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return err
	}
	item := &model.PendingVerification{
		Token:     verifyToken,
		TimeStamp: s.now().UnixMilli(),
		Username:  username,
		Password:  hash,
	}
	if err := s.pending.Put(ctx, email, item); err != nil {
		return fmt.Errorf("store pending verification: %w", err)
	}
	msg, err := mailer.NewVerificationMessage(s.opts.Product, email, username, s.VerificationLink(email, verifyToken))
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		logutil.GetLogger(ctx).Error("send verification mail failed", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("send verification mail: %w", err)
	}
	return nil
}

func (s *VerificationService) VerificationLink(email, verifyToken string) string {
	return s.opts.LinkBaseURL + "/user/verify/" + url.PathEscape(email) + "/" + url.PathEscape(verifyToken)
}

// ConfirmVerification turns the pending signup of email into an account when
// verifyToken matches and the entry has not expired. The account is created
// before the pending entry is removed.
func (s *VerificationService) ConfirmVerification(ctx context.Context, email, verifyToken string) (string, error) {
	logger := logutil.GetLogger(ctx)
	item, err := s.pending.Get(ctx, email)
	if err != nil {
		return "", err
	}
	if item.Token != verifyToken {
		return "", appErr.ErrTokenMismatch
	}
	if s.now().UnixMilli()-item.TimeStamp >= s.opts.TTL.Milliseconds() {
		return "", appErr.ErrExpired
	}
	accountID, err := s.accounts.Create(ctx, email, item.Username, item.Password)
	if err != nil {
		if errors.Is(err, appErr.ErrDuplicateEmail) {
			if derr := s.pending.Delete(ctx, email); derr != nil {
				logger.Warn("remove stale pending verification failed", zap.String("email", email), zap.Error(derr))
			}
		}
		return "", err
	}
	if err := s.pending.Delete(ctx, email); err != nil {
		logger.Warn("remove pending verification failed", zap.String("email", email), zap.Error(err))
	}
	logger.Info("account verified", zap.String("account_id", accountID))
	return accountID, nil
}

// SweepExpired drops every pending entry that can no longer be confirmed.
func (s *VerificationService) SweepExpired(ctx context.Context) (int, error) {
	cutoff := s.now().UnixMilli() - s.opts.TTL.Milliseconds() + 1
	return s.pending.DeleteBefore(ctx, cutoff)
}
