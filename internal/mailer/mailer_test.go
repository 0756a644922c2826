package mailer

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/imorozov/wordquiz/internal/models"
)

func TestVerificationLink(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		token  string
		want   string
	}{
		{"plain origin", "http://x", "abc", "http://x/verification?token=abc"},
		{"trailing slash", "http://x/", "abc", "http://x/verification?token=abc"},
		{"token escaped", "http://x", "a+b", "http://x/verification?token=a%2Bb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerificationLink(tt.origin, tt.token); got != tt.want {
				t.Errorf("VerificationLink = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestNew_PicksImplementation(t *testing.T) {
	log := zap.NewNop()

	if _, ok := New(models.MailCredentials{}, log).(*LogMailer); !ok {
		t.Errorf("expected LogMailer when no relay host is configured")
	}
	if _, ok := New(models.MailCredentials{Host: "smtp.example.com"}, log).(*SMTPMailer); !ok {
		t.Errorf("expected SMTPMailer when a relay host is configured")
	}
}

func TestLogMailer_SendVerification(t *testing.T) {
	m := &LogMailer{Log: zap.NewNop()}
	if err := m.SendVerification(context.Background(), "a@b.com", "http://x", "tok"); err != nil {
		t.Fatalf("SendVerification returned error: %v", err)
	}
}
