package main

import (
	"context"

	"github.com/postcli/postcli/internal/config"
	"github.com/postcli/postcli/internal/email"
)

// buildDialer creates the transport selected by email.provider
func buildDialer(ctx context.Context, cfg *config.Config) (email.Dialer, error) {
	if err := cfg.ValidateTransport(); err != nil {
		return nil, err
	}

	switch cfg.Email.Provider {
	case config.ProviderGmail:
		return email.NewGmailDialer(ctx, email.GmailConfig{
			CredentialsJSON: cfg.Gmail.CredentialsJSON,
			ClientID:        cfg.Gmail.ClientID,
			ClientSecret:    cfg.Gmail.ClientSecret,
			RefreshToken:    cfg.Gmail.RefreshToken,
			Address:         cfg.Gmail.Address,
		})
	default:
		return email.NewSMTPDialer(email.SMTPConfig{
			Server:   cfg.SMTP.Server,
			Port:     cfg.SMTP.Port,
			Address:  cfg.SMTP.Address,
			Password: cfg.SMTP.Password,
			Timeout:  cfg.SMTP.Timeout,
		})
	}
}
