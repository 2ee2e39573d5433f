package email

import (
	"bytes"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// FormatAddress returns the RFC 5322 form of an address with an optional display name
func FormatAddress(name, address string) string {
	if name == "" {
		return address
	}
	return (&mail.Address{Name: name, Address: address}).String()
}

// buildMIME renders msg as a plain-text UTF-8 RFC 5322 message
func buildMIME(fromAddress string, msg Message, now time.Time) ([]byte, error) {
	if strings.ContainsAny(msg.To, "\r\n") {
		return nil, errors.Newf("invalid recipient address %q", msg.To)
	}
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return nil, errors.Wrapf(err, "invalid recipient address %q", msg.To)
	}

	var buf bytes.Buffer

	headers := []string{
		"From: " + FormatAddress(msg.FromName, fromAddress),
		"To: " + msg.To,
		"Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject),
		"Date: " + now.Format(time.RFC1123Z),
		"Message-ID: " + messageID(fromAddress),
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="utf-8"`,
		"Content-Transfer-Encoding: quoted-printable",
	}
	buf.WriteString(strings.Join(headers, "\r\n"))
	buf.WriteString("\r\n\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(msg.Body)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func messageID(fromAddress string) string {
	domain := "postcli.local"
	if at := strings.LastIndex(fromAddress, "@"); at >= 0 && at < len(fromAddress)-1 {
		domain = fromAddress[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}
