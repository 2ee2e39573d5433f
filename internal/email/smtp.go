package email

import (
	"context"
	"crypto/tls"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/postcli/postcli/internal/model"
)

// SMTPConfig holds the configuration for the SMTP transport.
type SMTPConfig struct {
	// Server is the SMTP host name.
	Server string
	// Port is the SMTP port. 465 uses implicit TLS, anything else STARTTLS when offered.
	Port int
	// Address is the login and the envelope sender.
	Address string
	// Password is the account or app password.
	Password string
	// Timeout bounds dialing and each session; zero means 30s.
	Timeout time.Duration
}

// SMTPDialer implements Dialer over SMTP with PLAIN authentication.
type SMTPDialer struct {
	cfg SMTPConfig
	now func() time.Time
}

// NewSMTPDialer creates a new SMTPDialer.
func NewSMTPDialer(cfg SMTPConfig) (*SMTPDialer, error) {
	if cfg.Server == "" {
		return nil, errors.Mark(errors.New("smtp: server is required"), model.ErrConfig)
	}
	if cfg.Port <= 0 {
		return nil, errors.Mark(errors.New("smtp: port is required"), model.ErrConfig)
	}
	if cfg.Address == "" {
		return nil, errors.Mark(errors.New("smtp: sender address is required"), model.ErrConfig)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPDialer{cfg: cfg, now: time.Now}, nil
}

// Dial connects, upgrades to TLS and authenticates.
func (d *SMTPDialer) Dial(ctx context.Context) (Conn, error) {
	addr := net.JoinHostPort(d.cfg.Server, strconv.Itoa(d.cfg.Port))
	netDialer := &net.Dialer{Timeout: d.cfg.Timeout}
	implicitTLS := d.cfg.Port == 465

	var (
		netConn net.Conn
		err     error
	)
	if implicitTLS {
		tlsDialer := &tls.Dialer{NetDialer: netDialer, Config: &tls.Config{ServerName: d.cfg.Server}}
		netConn, err = tlsDialer.DialContext(ctx, "tcp", addr)
	} else {
		netConn, err = netDialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "smtp: failed to connect to %s", addr), model.ErrConnect)
	}

	deadline := d.now().Add(d.cfg.Timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = netConn.SetDeadline(deadline)

	client, err := smtp.NewClient(netConn, d.cfg.Server)
	if err != nil {
		_ = netConn.Close()
		return nil, errors.Mark(errors.Wrapf(err, "smtp: handshake with %s failed", addr), model.ErrConnect)
	}

	if !implicitTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: d.cfg.Server}); err != nil {
				_ = client.Close()
				return nil, errors.Mark(errors.Wrap(err, "smtp: STARTTLS failed"), model.ErrConnect)
			}
		}
	}

	if d.cfg.Password != "" {
		if ok, _ := client.Extension("AUTH"); !ok {
			_ = client.Close()
			return nil, errors.Mark(errors.Newf("smtp: %s does not support AUTH", addr), model.ErrAuth)
		}
		auth := smtp.PlainAuth("", d.cfg.Address, d.cfg.Password, d.cfg.Server)
		if err := client.Auth(auth); err != nil {
			_ = client.Close()
			return nil, errors.Mark(errors.Wrap(err, "smtp: authentication failed"), model.ErrAuth)
		}
	}

	return &smtpConn{client: client, from: d.cfg.Address, now: d.now}, nil
}

type smtpConn struct {
	client *smtp.Client
	from   string
	now    func() time.Time
}

func (c *smtpConn) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return errors.Mark(err, model.ErrSend)
	}

	data, err := buildMIME(c.from, msg, c.now())
	if err != nil {
		return errors.Mark(errors.Wrap(err, "smtp: failed to build message"), model.ErrSend)
	}

	if err := c.client.Mail(c.from); err != nil {
		return sendError(err, "MAIL FROM")
	}
	if err := c.client.Rcpt(msg.To); err != nil {
		return sendError(err, "RCPT TO")
	}
	w, err := c.client.Data()
	if err != nil {
		return sendError(err, "DATA")
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return sendError(err, "DATA")
	}
	if err := w.Close(); err != nil {
		return sendError(err, "DATA")
	}
	return nil
}

func (c *smtpConn) Close() error {
	if err := c.client.Quit(); err != nil {
		return c.client.Close()
	}
	return nil
}

func sendError(err error, stage string) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && isAuthCode(tpErr.Code) {
		return errors.Mark(errors.Wrapf(err, "smtp: %s rejected", stage), model.ErrAuth)
	}
	return errors.Mark(errors.Wrapf(err, "smtp: %s failed", stage), model.ErrSend)
}

// isAuthCode reports SMTP replies that mean the session is not authorized
func isAuthCode(code int) bool {
	switch code {
	case 530, 534, 535:
		return true
	}
	return false
}
