package email

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/postcli/postcli/internal/model"
)

// GmailConfig holds the configuration for the Gmail transport.
type GmailConfig struct {
	// CredentialsJSON is a service account credentials JSON with domain-wide delegation.
	CredentialsJSON string
	// ClientID for OAuth2 token-based auth (alternative to service account)
	ClientID string
	// ClientSecret for OAuth2 token-based auth
	ClientSecret string
	// RefreshToken for OAuth2 token-based auth
	RefreshToken string
	// Address is the mailbox messages are sent from.
	Address string
}

// GmailDialer implements Dialer using the Gmail API.
type GmailDialer struct {
	service *gmail.Service
	address string
	now     func() time.Time
}

// NewGmailDialer creates a new GmailDialer.
// It uses the refresh token when one is configured, otherwise the service
// account credentials impersonating Address. No network call is made here.
func NewGmailDialer(ctx context.Context, cfg GmailConfig) (*GmailDialer, error) {
	if cfg.Address == "" {
		return nil, errors.Mark(errors.New("gmail: sender address is required"), model.ErrConfig)
	}

	var client *http.Client
	switch {
	case cfg.RefreshToken != "":
		oauthCfg := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{gmail.GmailSendScope, gmail.GmailMetadataScope},
		}
		client = oauthCfg.Client(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	case cfg.CredentialsJSON != "":
		jwtConfig, err := google.JWTConfigFromJSON([]byte(cfg.CredentialsJSON), gmail.GmailSendScope, gmail.GmailMetadataScope)
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "gmail: failed to parse credentials"), model.ErrConfig)
		}
		// impersonate the sender mailbox through domain-wide delegation
		jwtConfig.Subject = cfg.Address
		client = jwtConfig.Client(ctx)
	default:
		return nil, errors.Mark(errors.New("gmail: credentials JSON or refresh token is required"), model.ErrConfig)
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "gmail: failed to create service"), model.ErrConnect)
	}

	return &GmailDialer{service: svc, address: cfg.Address, now: time.Now}, nil
}

// Dial verifies the credentials by fetching the mailbox profile.
func (g *GmailDialer) Dial(ctx context.Context) (Conn, error) {
	if _, err := g.service.Users.GetProfile("me").Context(ctx).Do(); err != nil {
		return nil, classifyGmailError(err, "gmail: failed to verify credentials", model.ErrConnect)
	}
	return &gmailConn{dialer: g}, nil
}

type gmailConn struct {
	dialer *GmailDialer
}

func (c *gmailConn) Send(ctx context.Context, msg Message) error {
	data, err := buildMIME(c.dialer.address, msg, c.dialer.now())
	if err != nil {
		return errors.Mark(errors.Wrap(err, "gmail: failed to build message"), model.ErrSend)
	}

	gmailMsg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(data),
	}
	if _, err := c.dialer.service.Users.Messages.Send("me", gmailMsg).Context(ctx).Do(); err != nil {
		return classifyGmailError(err, "gmail: failed to send email", model.ErrSend)
	}
	return nil
}

// Close is a no-op; the API client holds no session.
func (c *gmailConn) Close() error { return nil }

// classifyGmailError marks rejected credentials as model.ErrAuth and anything else as fallback
func classifyGmailError(err error, msg string, fallback error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden) {
		return errors.Mark(errors.Wrap(err, msg), model.ErrAuth)
	}
	var tokenErr *oauth2.RetrieveError
	if errors.As(err, &tokenErr) {
		return errors.Mark(errors.Wrap(err, msg), model.ErrAuth)
	}
	return errors.Mark(errors.Wrap(err, msg), fallback)
}
