// Package mailer dispatches e-mail verification messages through the relay
// configured in the store's root record.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/imorozov/wordquiz/internal/models"
)

// Mailer sends a verification message carrying a signed token.
type Mailer interface {
	SendVerification(ctx context.Context, to, siteOrigin, token string) error
}

// New returns an SMTP-backed mailer when relay credentials are configured,
// and a log-only mailer otherwise (degraded mode, local development).
func New(creds models.MailCredentials, log *zap.Logger) Mailer {
	if creds.Host == "" {
		return &LogMailer{Log: log}
	}
	return &SMTPMailer{creds: creds}
}

// VerificationLink builds the link the recipient follows to verify the
// address. siteOrigin is the origin the signup request came from.
func VerificationLink(siteOrigin, token string) string {
	return strings.TrimRight(siteOrigin, "/") + "/verification?token=" + url.QueryEscape(token)
}

// SMTPMailer sends verification mail through a plain-auth SMTP relay.
type SMTPMailer struct {
	creds models.MailCredentials
}

// SendVerification sends the verification link to the given address.
func (m *SMTPMailer) SendVerification(ctx context.Context, to, siteOrigin, token string) error {
	link := VerificationLink(siteOrigin, token)
	msg := strings.Join([]string{
		"From: " + m.creds.From,
		"To: " + to,
		"Subject: Verify your quiz account",
		"",
		"Follow the link to verify your address: " + link,
		"",
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.creds.Host, m.creds.Port)
	auth := smtp.PlainAuth("", m.creds.Username, m.creds.Password, m.creds.Host)
	if err := smtp.SendMail(addr, auth, m.creds.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send verification mail: %w", err)
	}
	return nil
}

// LogMailer logs the verification link instead of sending it.
type LogMailer struct {
	Log *zap.Logger
}

// SendVerification logs the link that would have been mailed.
func (m *LogMailer) SendVerification(ctx context.Context, to, siteOrigin, token string) error {
	m.Log.Info("verification mail suppressed, no relay configured",
		zap.String("to", to),
		zap.String("link", VerificationLink(siteOrigin, token)),
	)
	return nil
}
