package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/postcli/postcli/internal/model"
)

// chdir switches into an empty directory so no stray .env or postcli.yaml is picked up
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_LegacyEnv(t *testing.T) {
	chdir(t)
	t.Setenv("EMAIL_ADDRESS", "me@example.com")
	t.Setenv("EMAIL_PASSWORD", "app-password")
	t.Setenv("SMTP_SERVER", "smtp.example.com")
	t.Setenv("SMTP_PORT", "587")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "me@example.com", cfg.SMTP.Address)
	require.Equal(t, "app-password", cfg.SMTP.Password)
	require.Equal(t, "smtp.example.com", cfg.SMTP.Server)
	require.Equal(t, 587, cfg.SMTP.Port)
	require.Equal(t, 30*time.Second, cfg.SMTP.Timeout)
	require.Equal(t, ProviderSMTP, cfg.Email.Provider)
	require.NoError(t, cfg.ValidateTransport())
}

func TestLoad_PrefixedEnvWins(t *testing.T) {
	chdir(t)
	t.Setenv("EMAIL_ADDRESS", "legacy@example.com")
	t.Setenv("POSTCLI_SMTP_ADDRESS", "new@example.com")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "new@example.com", cfg.SMTP.Address)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := chdir(t)
	content := "email:\n  provider: gmail\n  sender_name: Me\ngmail:\n  address: me@example.com\n  refresh_token: rt\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "postcli.yaml"), []byte(content), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ProviderGmail, cfg.Email.Provider)
	require.Equal(t, "Me", cfg.Email.SenderName)
	require.Equal(t, "me@example.com", cfg.Gmail.Address)
	require.NoError(t, cfg.ValidateTransport())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SMTP_SERVER=dotenv.example.com\n"), 0o644))
	// t.Setenv restores the original value after godotenv writes it
	t.Setenv("SMTP_SERVER", "")
	require.NoError(t, os.Unsetenv("SMTP_SERVER"))
	t.Setenv("POSTCLI_SMTP_SERVER", "")
	require.NoError(t, os.Unsetenv("POSTCLI_SMTP_SERVER"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "dotenv.example.com", cfg.SMTP.Server)
}

func TestValidateTransport_ListsAllMissing(t *testing.T) {
	t.Parallel()

	cfg := &Config{Email: EmailConfig{Provider: ProviderSMTP}, SMTP: SMTPConfig{Server: "smtp.example.com"}}
	err := cfg.ValidateTransport()
	require.True(t, errors.Is(err, model.ErrConfig))
	require.Contains(t, err.Error(), "EMAIL_ADDRESS, EMAIL_PASSWORD, SMTP_PORT")
}

func TestValidateTransport_UnknownProvider(t *testing.T) {
	t.Parallel()

	cfg := &Config{Email: EmailConfig{Provider: "pigeon"}}
	require.True(t, errors.Is(cfg.ValidateTransport(), model.ErrConfig))
}
