package alert

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/SohamS7S/Smart-factory-ai/internal/contract"
	"github.com/SohamS7S/Smart-factory-ai/schema"
)

// EmailSink sends alerts over SMTP with implicit TLS.
type EmailSink struct {
	addr     string
	host     string
	sender   string
	password string
	receiver string
}

// NewEmailSink returns nil and false when any credential is missing.
func NewEmailSink(cfg contract.AlertConfig) (*EmailSink, bool) {
	if cfg.Sender == "" || cfg.Password == "" || cfg.Receiver == "" {
		return nil, false
	}
	return &EmailSink{
		addr:     net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		host:     cfg.SMTPHost,
		sender:   cfg.Sender,
		password: cfg.Password,
		receiver: cfg.Receiver,
	}, true
}

// Name implements contract.AlertSink.
func (s *EmailSink) Name() schema.AlertChannel { return schema.EmailChannel }

// Send implements contract.AlertSink.
func (s *EmailSink) Send(ctx context.Context, alert schema.Alert) error {
	dialer := &tls.Dialer{Config: &tls.Config{ServerName: s.host, MinVersion: tls.VersionTLS12}}
	conn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer func() { _ = client.Close() }()

	if err := client.Auth(smtp.PlainAuth("", s.sender, s.password, s.host)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := client.Mail(s.sender); err != nil {
		return err
	}
	if err := client.Rcpt(s.receiver); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(s.compose(alert)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func (s *EmailSink) compose(alert schema.Alert) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.sender)
	fmt.Fprintf(&b, "To: %s\r\n", s.receiver)
	fmt.Fprintf(&b, "Subject: %s\r\n", alert.Title)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(alert.Message)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// Close implements contract.AlertSink.
func (s *EmailSink) Close() error { return nil }
