package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envOverlay carries the variables the service has always been deployed with.
type envOverlay struct {
	Port         int    `env:"PORT"`
	StoreType    string `env:"DRIVEAUTH_STORE_TYPE"`
	StoreDir     string `env:"DRIVEAUTH_STORE_DIR"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURI  string `env:"REDIRECT_URI"`
	RefreshToken string `env:"REFRESH_TOKEN"`
	RootFolder   string `env:"ROOT_FOLDER"`
	SystemFolder string `env:"SYSTEM_FOLDER"`
	MailAPIKey   string `env:"MAIL_API_KEY"`
	MailSecret   string `env:"MAIL_SECRET_KEY"`
	MailFrom     string `env:"MAIL"`
	LinkBaseURL  string `env:"DRIVEAUTH_LINK_BASE_URL"`
}

func applyEnv(cfg *Config) error {
	var ov envOverlay
	if err := env.Parse(&ov); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if ov.Port != 0 {
		cfg.Port = ov.Port
	}
	if ov.StoreType != "" {
		cfg.DocStore.Type = ov.StoreType
	}
	if ov.RootFolder != "" {
		cfg.DocStore.AccountsContainer = ov.RootFolder
	}
	if ov.SystemFolder != "" {
		cfg.DocStore.SystemContainer = ov.SystemFolder
	}
	if ov.LinkBaseURL != "" {
		cfg.Verification.LinkBaseURL = ov.LinkBaseURL
	}
	switch cfg.DocStore.Type {
	case "local":
		if ov.StoreDir != "" {
			cfg.DocStore.Data = mergeData(cfg.DocStore.Data, map[string]string{"dir": ov.StoreDir})
		}
	case "drive":
		cfg.DocStore.Data = mergeData(cfg.DocStore.Data, map[string]string{
			"client_id":     ov.ClientID,
			"client_secret": ov.ClientSecret,
			"redirect_url":  ov.RedirectURI,
			"refresh_token": ov.RefreshToken,
		})
	}
	if ov.MailAPIKey != "" || ov.MailSecret != "" {
		if cfg.Mail.Type == "" {
			cfg.Mail.Type = "mailjet"
		}
		cfg.Mail.Data = mergeData(cfg.Mail.Data, map[string]string{
			"api_key":    ov.MailAPIKey,
			"secret_key": ov.MailSecret,
		})
	}
	if ov.MailFrom != "" {
		cfg.Mail.From = ov.MailFrom
	}
	return nil
}

// mergeData sets the non-empty values on top of a provider's free-form data section.
func mergeData(data interface{}, values map[string]string) interface{} {
	merged := map[string]interface{}{}
	if existing, ok := data.(map[string]interface{}); ok {
		for k, v := range existing {
			merged[k] = v
		}
	}
	for k, v := range values {
		if v != "" {
			merged[k] = v
		}
	}
	if len(merged) == 0 {
		return data
	}
	return merged
}
