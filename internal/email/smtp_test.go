package email

import (
	"context"
	"encoding/base64"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/postcli/postcli/internal/model"
)

// fakeSMTP is a minimal SMTP server speaking just enough of the protocol for net/smtp.
type fakeSMTP struct {
	ln       net.Listener
	password string
	rcptCode int

	mu       sync.Mutex
	sessions int
	messages []string
	rcpts    []string
}

func newFakeSMTP(t *testing.T, password string) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeSMTP{ln: ln, password: password, rcptCode: 250}
	go s.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return s
}

func (s *fakeSMTP) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *fakeSMTP) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *fakeSMTP) handle(conn net.Conn) {
	defer conn.Close()
	s.mu.Lock()
	s.sessions++
	s.mu.Unlock()

	tp := textproto.NewConn(conn)
	reply := func(code int, msg string) { _ = tp.PrintfLine("%d %s", code, msg) }
	reply(220, "localhost ESMTP fake")

	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		verb := strings.ToUpper(strings.Fields(line + " ")[0])
		switch verb {
		case "EHLO", "HELO":
			_ = tp.PrintfLine("250-localhost")
			_ = tp.PrintfLine("250 AUTH PLAIN")
		case "AUTH":
			parts := strings.Fields(line)
			raw, _ := base64.StdEncoding.DecodeString(parts[len(parts)-1])
			fields := strings.Split(string(raw), "\x00")
			if len(fields) == 3 && fields[2] == s.password {
				reply(235, "authenticated")
			} else {
				reply(535, "authentication credentials invalid")
			}
		case "MAIL":
			reply(250, "ok")
		case "RCPT":
			s.mu.Lock()
			s.rcpts = append(s.rcpts, line)
			code := s.rcptCode
			s.mu.Unlock()
			if code == 250 {
				reply(250, "ok")
			} else {
				reply(code, "mailbox unavailable")
			}
		case "DATA":
			reply(354, "go ahead")
			data, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.messages = append(s.messages, string(data))
			s.mu.Unlock()
			reply(250, "queued")
		case "QUIT":
			reply(221, "bye")
			return
		default:
			reply(250, "ok")
		}
	}
}

func newTestDialer(t *testing.T, s *fakeSMTP, password string) *SMTPDialer {
	t.Helper()
	d, err := NewSMTPDialer(SMTPConfig{
		Server:   "127.0.0.1",
		Port:     s.port(),
		Address:  "me@example.com",
		Password: password,
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	return d
}

func TestSMTPDialer_SendsMessage(t *testing.T) {
	t.Parallel()

	srv := newFakeSMTP(t, "secret")
	d := newTestDialer(t, srv, "secret")

	conn, err := d.Dial(context.Background())
	require.NoError(t, err)

	err = conn.Send(context.Background(), Message{
		FromName: "Me Myself",
		To:       "ada@example.com",
		Subject:  "Héllo Ada",
		Body:     "Hi Ada,\nsee you.\n",
	})
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	srv.mu.Lock()
	defer srv.mu.Unlock()
	require.Len(t, srv.messages, 1)
	msg := srv.messages[0]
	require.Contains(t, msg, `From: "Me Myself" <me@example.com>`)
	require.Contains(t, msg, "To: ada@example.com")
	require.Contains(t, msg, "Subject: =?utf-8?q?H=C3=A9llo_Ada?=")
	require.Contains(t, msg, "Hi Ada,")
	require.Contains(t, srv.rcpts[0], "ada@example.com")
}

func TestSMTPDialer_AuthFailure(t *testing.T) {
	t.Parallel()

	srv := newFakeSMTP(t, "secret")
	d := newTestDialer(t, srv, "wrong")

	_, err := d.Dial(context.Background())
	require.True(t, errors.Is(err, model.ErrAuth))
}

func TestSMTPDialer_ConnectFailure(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	d, err := NewSMTPDialer(SMTPConfig{Server: "127.0.0.1", Port: port, Address: "me@example.com", Timeout: time.Second})
	require.NoError(t, err)

	_, err = d.Dial(context.Background())
	require.True(t, errors.Is(err, model.ErrConnect))
}

func TestSMTPConn_RejectedRecipient(t *testing.T) {
	t.Parallel()

	srv := newFakeSMTP(t, "secret")
	srv.mu.Lock()
	srv.rcptCode = 550
	srv.mu.Unlock()
	d := newTestDialer(t, srv, "secret")

	conn, err := d.Dial(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	err = conn.Send(context.Background(), Message{To: "nobody@example.com", Subject: "x", Body: "y"})
	require.True(t, errors.Is(err, model.ErrSend))
	require.False(t, errors.Is(err, model.ErrAuth))
}

func TestNewSMTPDialer_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  SMTPConfig
	}{
		{name: "no server", cfg: SMTPConfig{Port: 587, Address: "a@b.c"}},
		{name: "no port", cfg: SMTPConfig{Server: "smtp.example.com", Address: "a@b.c"}},
		{name: "no address", cfg: SMTPConfig{Server: "smtp.example.com", Port: 587}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewSMTPDialer(tt.cfg)
			require.True(t, errors.Is(err, model.ErrConfig))
		})
	}
}

func TestSendError_Classification(t *testing.T) {
	t.Parallel()

	require.True(t, errors.Is(sendError(&textproto.Error{Code: 535, Msg: "bad"}, "MAIL FROM"), model.ErrAuth))
	require.True(t, errors.Is(sendError(&textproto.Error{Code: 552, Msg: "full"}, "DATA"), model.ErrSend))
	require.True(t, errors.Is(sendError(errors.New("broken pipe"), "DATA"), model.ErrSend))
}

func TestBuildMIME(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	data, err := buildMIME("me@example.com", Message{To: "ada@example.com", Subject: "Plain", Body: "line one\nline two"}, now)
	require.NoError(t, err)

	msg := string(data)
	require.True(t, strings.HasPrefix(msg, "From: me@example.com\r\n"))
	require.Contains(t, msg, "Date: "+now.Format(time.RFC1123Z))
	require.Contains(t, msg, "Message-ID: <")
	require.Contains(t, msg, "@example.com>")
	require.Contains(t, msg, `Content-Type: text/plain; charset="utf-8"`)
	require.Contains(t, msg, "\r\n\r\nline one\r\nline two")
}

func TestBuildMIME_RejectsHeaderInjection(t *testing.T) {
	t.Parallel()

	for _, to := range []string{"eve@example.com\nBcc: victim@example.com", "eve@example.com\r\nBcc: victim@example.com", "not an address"} {
		_, err := buildMIME("me@example.com", Message{To: to, Subject: "x", Body: "y"}, time.Now())
		require.Error(t, err, to)
	}
}

func TestSMTPConn_InvalidRecipientIsSendError(t *testing.T) {
	t.Parallel()

	s := newFakeSMTP(t, "secret")
	conn, err := newTestDialer(t, s, "secret").Dial(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	err = conn.Send(context.Background(), Message{To: "eve@example.com\nBcc: victim@example.com", Subject: "x", Body: "y"})
	require.True(t, errors.Is(err, model.ErrSend))

	s.mu.Lock()
	defer s.mu.Unlock()
	require.Empty(t, s.messages)
}

func TestFormatAddress(t *testing.T) {
	t.Parallel()

	require.Equal(t, "me@example.com", FormatAddress("", "me@example.com"))
	require.Equal(t, `"Me" <me@example.com>`, FormatAddress("Me", "me@example.com"))
}
