package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xxxsen/common/logger"

	"github.com/xxxsen/driveauth/internal/schedule"
)

type Config struct {
	Port           int                `json:"port"`
	LogConfig      logger.LogConfig   `json:"log_config"`
	DocStore       DocStoreConfig     `json:"doc_store"`
	Mail           MailConfig         `json:"mail"`
	Verification   VerificationConfig `json:"verification"`
	AccountCache   CacheConfig        `json:"account_cache"`
	Cleanup        CleanupConfig      `json:"cleanup"`
	CORSOrigins    []string           `json:"cors_origins"`
	SignupCooldown int64              `json:"signup_cooldown_seconds"`
	FirstAccountID int64              `json:"first_account_id"`
}

type DocStoreConfig struct {
	Type              string      `json:"type"`
	AccountsContainer string      `json:"accounts_container"`
	SystemContainer   string      `json:"system_container"`
	TimeoutSeconds    int64       `json:"timeout_seconds"`
	Data              interface{} `json:"data"`
}

func (c DocStoreConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type MailConfig struct {
	Type           string      `json:"type"`
	From           string      `json:"from"`
	FromName       string      `json:"from_name"`
	TimeoutSeconds int64       `json:"timeout_seconds"`
	Data           interface{} `json:"data"`
}

func (c MailConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type VerificationConfig struct {
	LinkBaseURL string `json:"link_base_url"`
	SuccessURL  string `json:"success_url"`
	ErrorURL    string `json:"error_url"`
	TTLHours    int64  `json:"ttl_hours"`
}

func (c VerificationConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

type CacheConfig struct {
	Size       int   `json:"size"`
	TTLSeconds int64 `json:"ttl_seconds"`
}

type CleanupConfig struct {
	Enabled bool   `json:"enabled"`
	Spec    string `json:"spec"`
}

// Load reads the JSON config at path, overlays the environment and applies
// defaults. An empty path configures the service from the environment alone.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()
		if err := json.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.DocStore.Type == "" {
		cfg.DocStore.Type = "local"
	}
	if cfg.DocStore.AccountsContainer == "" {
		cfg.DocStore.AccountsContainer = "accounts"
	}
	if cfg.DocStore.SystemContainer == "" {
		cfg.DocStore.SystemContainer = "system"
	}
	if cfg.DocStore.TimeoutSeconds == 0 {
		cfg.DocStore.TimeoutSeconds = 15
	}
	if cfg.Mail.Type == "" {
		cfg.Mail.Type = "log"
	}
	if cfg.Mail.FromName == "" {
		cfg.Mail.FromName = "Whacking Wizards"
	}
	if cfg.Mail.TimeoutSeconds == 0 {
		cfg.Mail.TimeoutSeconds = 10
	}
	if cfg.Verification.LinkBaseURL == "" {
		cfg.Verification.LinkBaseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}
	cfg.Verification.LinkBaseURL = strings.TrimSuffix(cfg.Verification.LinkBaseURL, "/")
	if cfg.Verification.SuccessURL == "" {
		cfg.Verification.SuccessURL = "https://whacking-wizards.netlify.app/verified"
	}
	if cfg.Verification.ErrorURL == "" {
		cfg.Verification.ErrorURL = "https://whacking-wizards.netlify.app/verificationError"
	}
	if cfg.Verification.TTLHours == 0 {
		cfg.Verification.TTLHours = 24
	}
	if cfg.Cleanup.Spec == "" {
		cfg.Cleanup.Spec = "0 * * * *"
	}
	if cfg.FirstAccountID == 0 {
		cfg.FirstAccountID = 1
	}
}

func validate(cfg *Config) error {
	switch cfg.DocStore.Type {
	case "memory":
	case "local", "s3", "drive":
		if cfg.DocStore.Data == nil {
			return fmt.Errorf("doc_store.data is required for %s store", cfg.DocStore.Type)
		}
	default:
		return fmt.Errorf("doc_store.type must be memory, local, s3 or drive")
	}
	if cfg.DocStore.AccountsContainer == cfg.DocStore.SystemContainer {
		return fmt.Errorf("doc_store accounts and system containers must differ")
	}
	switch cfg.Mail.Type {
	case "log":
	case "mailjet", "smtp":
		if strings.TrimSpace(cfg.Mail.From) == "" {
			return fmt.Errorf("mail.from is required for %s sender", cfg.Mail.Type)
		}
		if cfg.Mail.Data == nil {
			return fmt.Errorf("mail.data is required for %s sender", cfg.Mail.Type)
		}
	default:
		return fmt.Errorf("mail.type must be log, mailjet or smtp")
	}
	if cfg.Cleanup.Enabled {
		if err := schedule.ValidateSpec(cfg.Cleanup.Spec); err != nil {
			return fmt.Errorf("cleanup.spec: %w", err)
		}
	}
	if cfg.FirstAccountID < 0 {
		return fmt.Errorf("first_account_id must not be negative")
	}
	return nil
}
