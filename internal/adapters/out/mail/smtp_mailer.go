// Package mail delivers customer notifications.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"parceltrack/internal/core/ports"
	"parceltrack/internal/pkg/errs"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends plain-text mail through one relay.
type SMTPMailer struct {
	config SMTPConfig
	send   SendFunc
	now    func() time.Time
	logger *slog.Logger
}

func NewSMTPMailer(config SMTPConfig, logger *slog.Logger) (*SMTPMailer, error) {
	return newSMTPMailer(config, smtp.SendMail, logger)
}

func newSMTPMailer(config SMTPConfig, send SendFunc, logger *slog.Logger) (*SMTPMailer, error) {
	if config.Host == "" {
		return nil, errs.NewValueIsRequiredError("smtp host")
	}
	if config.From == "" {
		return nil, errs.NewValueIsRequiredError("smtp from")
	}
	if config.Port == 0 {
		config.Port = 587
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPMailer{
		config: config,
		send:   send,
		now:    time.Now,
		logger: logger.With("component", "SMTPMailer"),
	}, nil
}

// Send ignores ctx cancellation: net/smtp has no context support, the relay's
// own timeouts bound the call.
func (m *SMTPMailer) Send(_ context.Context, mail ports.Mail) error {
	if mail.To == "" {
		return errs.NewValueIsRequiredError("recipient")
	}

	addr := net.JoinHostPort(m.config.Host, strconv.Itoa(m.config.Port))
	var auth smtp.Auth
	if m.config.User != "" {
		auth = smtp.PlainAuth("", m.config.User, m.config.Password, m.config.Host)
	}

	if err := m.send(addr, auth, m.config.From, []string{mail.To}, m.render(mail)); err != nil {
		return fmt.Errorf("send %s mail: %w", mail.Kind, err)
	}
	m.logger.Info("mail sent", "kind", mail.Kind, "to", mail.To)
	return nil
}

func (m *SMTPMailer) render(mail ports.Mail) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", m.config.From)
	fmt.Fprintf(&b, "To: %s\r\n", mail.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", mail.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", m.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	fmt.Fprintf(&b, "X-Parceltrack-Kind: %s\r\n", mail.Kind)
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(mail.Body, "\r\n", "\n"), "\n", "\r\n"))
	return b.Bytes()
}

// LogMailer writes mail to the log instead of sending it. Used when no relay is
// configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return LogMailer{logger: logger.With("component", "LogMailer")}
}

func (m LogMailer) Send(ctx context.Context, mail ports.Mail) error {
	m.logger.InfoContext(ctx, "mail not sent, no relay configured",
		"kind", mail.Kind,
		"to", mail.To,
		"subject", mail.Subject)
	return nil
}
