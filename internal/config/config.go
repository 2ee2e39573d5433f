package config

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/postcli/postcli/internal/model"
)

// Supported transport providers
const (
	ProviderSMTP  = "smtp"
	ProviderGmail = "gmail"
)

// Config holds all configuration for the application
type Config struct {
	Log   LogConfig   `mapstructure:"log"`
	Email EmailConfig `mapstructure:"email"`
	SMTP  SMTPConfig  `mapstructure:"smtp"`
	Gmail GmailConfig `mapstructure:"gmail"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EmailConfig holds provider-independent sending configuration
type EmailConfig struct {
	// Provider is the transport to use: "smtp" or "gmail"
	Provider string `mapstructure:"provider"`
	// SenderName is the default display name for the sender
	SenderName string `mapstructure:"sender_name"`
}

// SMTPConfig holds SMTP transport configuration
type SMTPConfig struct {
	Server   string        `mapstructure:"server"`
	Port     int           `mapstructure:"port"`
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// GmailConfig holds Gmail API configuration
type GmailConfig struct {
	// CredentialsJSON is the service account credentials JSON content
	CredentialsJSON string `mapstructure:"credentials_json"`
	// ClientID for OAuth2 token-based auth (alternative to service account)
	ClientID string `mapstructure:"client_id"`
	// ClientSecret for OAuth2 token-based auth
	ClientSecret string `mapstructure:"client_secret"`
	// RefreshToken for OAuth2 token-based auth
	RefreshToken string `mapstructure:"refresh_token"`
	// Address is the "From" email address
	Address string `mapstructure:"address"`
}

// legacyEnv maps config keys to the plain variable names older .env files use
var legacyEnv = map[string]string{
	"smtp.address":  "EMAIL_ADDRESS",
	"smtp.password": "EMAIL_PASSWORD",
	"smtp.server":   "SMTP_SERVER",
	"smtp.port":     "SMTP_PORT",
}

// Load reads .env, the optional config file and environment variables
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("postcli")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.config/postcli")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Mark(errors.Wrap(err, "failed to read config file"), model.ErrConfig)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("POSTCLI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to unmarshal config"), model.ErrConfig)
	}

	return &cfg, nil
}

func bindLegacyEnv(v *viper.Viper) error {
	for key, env := range legacyEnv {
		prefixed := "POSTCLI_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return errors.Wrapf(err, "failed to bind %s", key)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")

	// Email defaults
	v.SetDefault("email.provider", ProviderSMTP)
	v.SetDefault("email.sender_name", "")

	// SMTP defaults
	v.SetDefault("smtp.server", "")
	v.SetDefault("smtp.port", 0)
	v.SetDefault("smtp.address", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.timeout", "30s")

	// Gmail defaults
	v.SetDefault("gmail.credentials_json", "")
	v.SetDefault("gmail.client_id", "")
	v.SetDefault("gmail.client_secret", "")
	v.SetDefault("gmail.refresh_token", "")
	v.SetDefault("gmail.address", "")
}

// ValidateTransport reports every setting the selected provider is missing
func (c *Config) ValidateTransport() error {
	var missing []string
	switch c.Email.Provider {
	case ProviderSMTP, "":
		if c.SMTP.Address == "" {
			missing = append(missing, "EMAIL_ADDRESS")
		}
		if c.SMTP.Password == "" {
			missing = append(missing, "EMAIL_PASSWORD")
		}
		if c.SMTP.Server == "" {
			missing = append(missing, "SMTP_SERVER")
		}
		if c.SMTP.Port == 0 {
			missing = append(missing, "SMTP_PORT")
		}
	case ProviderGmail:
		if c.Gmail.Address == "" {
			missing = append(missing, "POSTCLI_GMAIL_ADDRESS")
		}
		if c.Gmail.CredentialsJSON == "" && c.Gmail.RefreshToken == "" {
			missing = append(missing, "POSTCLI_GMAIL_CREDENTIALS_JSON or POSTCLI_GMAIL_REFRESH_TOKEN")
		}
	default:
		return errors.Mark(errors.Newf("unknown email provider %q", c.Email.Provider), model.ErrConfig)
	}

	if len(missing) > 0 {
		err := errors.Mark(errors.Newf("missing env vars: %s", strings.Join(missing, ", ")), model.ErrConfig)
		return errors.WithHint(err, "add them to .env or postcli.yaml")
	}
	return nil
}
