package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{"doc_store":{"type":"local","data":{"dir":"/tmp/x"}}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, "accounts", cfg.DocStore.AccountsContainer)
	require.Equal(t, "system", cfg.DocStore.SystemContainer)
	require.Equal(t, 15*time.Second, cfg.DocStore.Timeout())
	require.Equal(t, "log", cfg.Mail.Type)
	require.Equal(t, 24*time.Hour, cfg.Verification.TTL())
	require.Equal(t, "http://localhost:8080", cfg.Verification.LinkBaseURL)
	require.Equal(t, "https://whacking-wizards.netlify.app/verified", cfg.Verification.SuccessURL)
	require.Equal(t, "https://whacking-wizards.netlify.app/verificationError", cfg.Verification.ErrorURL)
	require.Equal(t, int64(1), cfg.FirstAccountID)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown store":        `{"doc_store":{"type":"ftp"}}`,
		"local without data":   `{"doc_store":{"type":"local"}}`,
		"same containers":      `{"doc_store":{"type":"memory","accounts_container":"x","system_container":"x"}}`,
		"mailjet without from": `{"doc_store":{"type":"memory"},"mail":{"type":"mailjet","data":{}}}`,
		"unknown mail":         `{"doc_store":{"type":"memory"},"mail":{"type":"pigeon"}}`,
		"bad cleanup spec":     `{"doc_store":{"type":"memory"},"cleanup":{"enabled":true,"spec":"every hour"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoadEnvOverlay(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DRIVEAUTH_STORE_TYPE", "drive")
	t.Setenv("CLIENT_ID", "cid")
	t.Setenv("CLIENT_SECRET", "secret")
	t.Setenv("REFRESH_TOKEN", "refresh")
	t.Setenv("ROOT_FOLDER", "folder-accounts")
	t.Setenv("SYSTEM_FOLDER", "folder-system")
	t.Setenv("MAIL_API_KEY", "key")
	t.Setenv("MAIL_SECRET_KEY", "mail-secret")
	t.Setenv("MAIL", "noreply@example.com")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, "drive", cfg.DocStore.Type)
	require.Equal(t, "folder-accounts", cfg.DocStore.AccountsContainer)
	require.Equal(t, "folder-system", cfg.DocStore.SystemContainer)
	data, ok := cfg.DocStore.Data.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "cid", data["client_id"])
	require.Equal(t, "refresh", data["refresh_token"])
	require.NotContains(t, data, "redirect_url")

	require.Equal(t, "mailjet", cfg.Mail.Type)
	require.Equal(t, "noreply@example.com", cfg.Mail.From)
	mail, ok := cfg.Mail.Data.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "key", mail["api_key"])
	require.Equal(t, "http://localhost:9090", cfg.Verification.LinkBaseURL)
}
