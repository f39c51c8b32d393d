package main

import (
	"fmt"
	"time"

	"github.com/xxxsen/driveauth/internal/cache"
	"github.com/xxxsen/driveauth/internal/config"
	"github.com/xxxsen/driveauth/internal/docstore"
	"github.com/xxxsen/driveauth/internal/mailer"
	"github.com/xxxsen/driveauth/internal/repo"
	"github.com/xxxsen/driveauth/internal/service"
)

type app struct {
	accounts *repo.AccountRepo
	verify   *service.VerificationService
	auth     *service.AuthService
}

func newApp(cfg *config.Config) (*app, error) {
	accountStore, err := docstore.New(cfg.DocStore, cfg.DocStore.AccountsContainer)
	if err != nil {
		return nil, fmt.Errorf("init accounts store: %w", err)
	}
	systemStore, err := docstore.New(cfg.DocStore, cfg.DocStore.SystemContainer)
	if err != nil {
		return nil, fmt.Errorf("init system store: %w", err)
	}
	sender, err := mailer.New(cfg.Mail)
	if err != nil {
		return nil, fmt.Errorf("init mailer: %w", err)
	}

	tokens := repo.NewTokenRepo(systemStore)
	accounts := repo.NewAccountRepo(accountStore, systemStore, repo.NewIDAllocator(systemStore, cfg.FirstAccountID), tokens)
	cached := cache.WrapLruCacheToAccountStore(accounts, cfg.AccountCache.Size,
		time.Duration(cfg.AccountCache.TTLSeconds)*time.Second)

	verify := service.NewVerificationService(cached, repo.NewVerificationRepo(systemStore), sender, service.VerificationOptions{
		LinkBaseURL: cfg.Verification.LinkBaseURL,
		Product:     cfg.Mail.FromName,
		TTL:         cfg.Verification.TTL(),
	})
	return &app{
		accounts: accounts,
		verify:   verify,
		auth:     service.NewAuthService(cached, tokens),
	}, nil
}
