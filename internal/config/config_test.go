package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks variables a developer shell may export.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "MONGODB_URI", "OWNER_SESSION_TTL_HOURS", "OWNER_DISPLAY_NAME",
		"FRONTEND_URL", "CLOUDINARY_CLOUD_NAME", "EMAIL_HOST", "RATE_LIMIT_WINDOW_MS", "RATE_LIMIT_MAX_REQUESTS"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 168*time.Hour, cfg.Owner.SessionTTL)
	assert.Equal(t, "Owner", cfg.Owner.DisplayName)
	assert.Equal(t, "mongodb://127.0.0.1:27017/portfolio", cfg.Mongo.URI)
	assert.Len(t, cfg.Server.AllowedOrigins, 3)
	assert.False(t, cfg.Media.Enabled())
	assert.False(t, cfg.Mail.Enabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("OWNER_PASSKEY", "  s3cret ")
	t.Setenv("OWNER_SESSION_TTL_HOURS", "2")
	t.Setenv("FRONTEND_URL", "https://example.com, https://www.example.com ,")
	t.Setenv("RATE_LIMIT_WINDOW_MS", "60000")
	t.Setenv("RATE_LIMIT_MAX_REQUESTS", "30")
	t.Setenv("AI_TEMPERATURE", "0.2")
	t.Setenv("AI_MAX_TOKENS", "256")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.Owner.Passkey)
	assert.Equal(t, 2*time.Hour, cfg.Owner.SessionTTL)
	assert.Equal(t, []string{"https://example.com", "https://www.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 30, cfg.RateLimit.GlobalBurst)
	assert.Equal(t, 30, cfg.RateLimit.GlobalPerMinute)
	assert.InDelta(t, 0.2, cfg.Chat.Temperature, 0.0001)
	assert.Equal(t, int32(256), cfg.Chat.MaxTokens)
}

func TestLoad_InvalidNumbersKeepDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("OWNER_SESSION_TTL_HOURS", "forever")
	t.Setenv("PORT", "-1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 168*time.Hour, cfg.Owner.SessionTTL)
	assert.Equal(t, 5000, cfg.Server.Port)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte(`
environment: development
mongo:
  uri: mongodb://db:27017
  database: site
owner:
  display_name: Ada
  session_ttl: 24h
`)
	require.NoError(t, os.WriteFile(path, body, 0o600))
	t.Setenv("OWNER_DISPLAY_NAME", "Grace")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, "site", cfg.Mongo.Database)
	assert.Equal(t, 24*time.Hour, cfg.Owner.SessionTTL)
	assert.Equal(t, "Grace", cfg.Owner.DisplayName)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Mongo.URI = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Owner.SessionTTL = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	assert.NoError(t, cfg.Validate())
}

func TestMailEnabled(t *testing.T) {
	m := MailConfig{Host: "smtp.example.com", Port: 587, User: "u", Password: "p"}
	assert.False(t, m.Enabled())
	m.To = "me@example.com"
	assert.True(t, m.Enabled())
}
