package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/portfolio-api/internal/config"
	"github.com/PaulBabatuyi/portfolio-api/internal/data"
)

func TestNew_DisabledWithoutConfig(t *testing.T) {
	n := New(config.MailConfig{Host: "smtp.example.com"}, zap.NewNop())
	assert.IsType(t, Disabled{}, n)
	assert.ErrorIs(t, n.NotifyContact(context.Background(), &data.Contact{}), ErrNotConfigured)
}

func TestNew_SMTPWhenConfigured(t *testing.T) {
	n := New(config.MailConfig{Host: "smtp.example.com", Port: 587, User: "u@example.com", Password: "p", To: "me@example.com"}, zap.NewNop())
	assert.IsType(t, &SMTP{}, n)
}

func TestBuildContactMessage(t *testing.T) {
	c := &data.Contact{
		Name:      "Eve\r\nBcc: victim@example.com",
		Email:     "eve@example.com",
		Message:   "line one\nline two",
		CreatedAt: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
	}
	msg := string(BuildContactMessage("site@example.com", "owner@example.com", c))

	assert.Contains(t, msg, "To: owner@example.com\r\n")
	assert.Contains(t, msg, "Reply-To: eve@example.com\r\n")
	assert.Contains(t, msg, "Subject: New Portfolio Contact from Eve  Bcc: victim@example.com\r\n")
	headers := msg[:strings.Index(msg, "\r\n\r\n")]
	assert.NotContains(t, headers, "\r\nBcc:")
	assert.Contains(t, msg, "line one<br>line two")
	assert.True(t, strings.HasSuffix(msg, "--portfolio-contact-boundary--\r\n"))
}

func TestSMTP_DialFailure(t *testing.T) {
	s := &SMTP{
		cfg: config.MailConfig{Host: "127.0.0.1", Port: 1, User: "u", Password: "p", To: "t", Timeout: time.Second},
		log: zap.NewNop(),
	}
	err := s.NotifyContact(context.Background(), &data.Contact{})
	assert.Error(t, err)
}
