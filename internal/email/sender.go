package email

import (
	"context"
	"sync"
)

// Dialer opens authenticated connections to a mail provider.
// This abstraction allows swapping providers (SMTP, Gmail API, ...) without
// changing the send pipeline.
type Dialer interface {
	// Dial connects and authenticates. Failures wrap model.ErrAuth or model.ErrConnect.
	Dial(ctx context.Context) (Conn, error)
}

// Conn is one authenticated provider session
type Conn interface {
	// Send delivers a single message. Failures wrap model.ErrSend.
	Send(ctx context.Context, msg Message) error
	// Close ends the session.
	Close() error
}

// Message represents a plain-text email message to be sent.
// The sender address is owned by the transport; FromName only sets the display name.
type Message struct {
	FromName string // sender display name, optional
	To       string // recipient email address
	Subject  string // email subject
	Body     string // plain-text body
}

// Lazy returns a Dialer that builds the real one on its first Dial and
// reuses it afterwards. A build failure is returned from every Dial.
func Lazy(build func(ctx context.Context) (Dialer, error)) Dialer {
	return &lazyDialer{build: build}
}

type lazyDialer struct {
	build func(ctx context.Context) (Dialer, error)

	mu     sync.Mutex
	built  bool
	dialer Dialer
	err    error
}

func (d *lazyDialer) Dial(ctx context.Context) (Conn, error) {
	d.mu.Lock()
	if !d.built {
		d.dialer, d.err = d.build(ctx)
		d.built = true
	}
	dialer, err := d.dialer, d.err
	d.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return dialer.Dial(ctx)
}
