// Package notify sends the owner an email when a visitor uses the contact form.
package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/PaulBabatuyi/portfolio-api/internal/config"
	"github.com/PaulBabatuyi/portfolio-api/internal/data"
)

// ErrNotConfigured is returned by Disabled.
var ErrNotConfigured = errors.New("mail relay is not configured")

// Notifier delivers a contact submission to the owner.
type Notifier interface {
	NotifyContact(ctx context.Context, c *data.Contact) error
}

// New returns an SMTP notifier, or Disabled when any mail setting is missing.
func New(cfg config.MailConfig, log *zap.Logger) Notifier {
	if !cfg.Enabled() {
		log.Warn("email configuration missing; contact notifications are disabled")
		return Disabled{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTP{cfg: cfg, log: log}
}

// Disabled skips delivery.
type Disabled struct{}

func (Disabled) NotifyContact(context.Context, *data.Contact) error { return ErrNotConfigured }

// SMTP sends mail through the configured relay. Port 465 uses implicit TLS;
// other ports upgrade with STARTTLS when the server offers it.
type SMTP struct {
	cfg config.MailConfig
	log *zap.Logger
}

func (s *SMTP) NotifyContact(ctx context.Context, c *data.Contact) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	msg := BuildContactMessage(s.cfg.User, s.cfg.To, c)
	if err := s.send(ctx, msg); err != nil {
		return fmt.Errorf("send contact notification: %w", err)
	}
	s.log.Info("contact notification sent", zap.String("contact_id", c.ID.Hex()))
	return nil
}

func (s *SMTP) send(ctx context.Context, msg []byte) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	tlsConfig := &tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}

	var conn net.Conn
	var err error
	if s.cfg.Port == 465 {
		d := &tls.Dialer{Config: tlsConfig}
		conn, err = d.DialContext(ctx, "tcp", addr)
	} else {
		var d net.Dialer
		conn, err = d.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("failed to dial SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to start SMTP session: %w", err)
	}
	defer client.Close()

	if s.cfg.Port != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("failed to start TLS: %w", err)
			}
		}
	}

	if err := client.Auth(smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)); err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}
	if err := client.Mail(s.cfg.User); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(s.cfg.To); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err := wc.Write(msg); err != nil {
		return fmt.Errorf("failed to write email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to finish email data: %w", err)
	}
	return client.Quit()
}

// BuildContactMessage renders the notification as an RFC 5322 message with
// plain text and HTML parts. Visitor fields are expected to be HTML-escaped.
func BuildContactMessage(from, to string, c *data.Contact) []byte {
	const boundary = "portfolio-contact-boundary"
	subject := "New Portfolio Contact from " + headerSafe(c.Name)

	var b strings.Builder
	fmt.Fprintf(&b, "From: Portfolio Contact Form <%s>\r\n", headerSafe(from))
	fmt.Fprintf(&b, "To: %s\r\n", headerSafe(to))
	fmt.Fprintf(&b, "Reply-To: %s\r\n", headerSafe(c.Email))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", c.CreatedAt.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n", boundary)
	fmt.Fprintf(&b, "Name: %s\r\nEmail: %s\r\n\r\n%s\r\n", c.Name, c.Email, c.Message)

	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n", boundary)
	fmt.Fprintf(&b, "<h2>New Contact Form Submission</h2><p><strong>Name:</strong> %s</p>"+
		"<p><strong>Email:</strong> %s</p><p><strong>Message:</strong></p><p>%s</p>\r\n",
		c.Name, c.Email, strings.ReplaceAll(c.Message, "\n", "<br>"))

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}

// headerSafe strips line breaks so visitor input cannot add headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
