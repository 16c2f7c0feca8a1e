package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/ecommapi/internal/config"
)

func TestBuildOrderEmailContent(t *testing.T) {
	tests := []struct {
		name             string
		build            func(uint) (string, string)
		wantSubject      string
		wantBodyContains []string
	}{
		{
			name:        "order_pending",
			build:       buildOrderPendingContent,
			wantSubject: "Order #42",
			wantBodyContains: []string{
				"awaiting payment",
				"THIS IS NOT SHIPPING CONFIRMATION EMAIL.",
			},
		},
		{
			name:        "payment_confirmed",
			build:       buildPaymentConfirmedContent,
			wantSubject: "Order #42 payment confirmation",
			wantBodyContains: []string{
				"We received your payment.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body := tt.build(42)
			if subject != tt.wantSubject {
				t.Fatalf("subject = %q, want %q", subject, tt.wantSubject)
			}
			for _, want := range tt.wantBodyContains {
				if !strings.Contains(body, want) {
					t.Fatalf("body missing %q: %s", want, body)
				}
			}
		})
	}
}

func TestBuildEmailMessageHeaders(t *testing.T) {
	from := buildFromAddress("shop@example.com", "Shop")
	msg := buildEmailMessage(from, "buyer@example.com", "Order #7", "hello")
	for _, want := range []string{
		"From: ",
		"<shop@example.com>",
		"To: buyer@example.com\r\n",
		"Content-Type: text/plain; charset=UTF-8\r\n",
		"\r\n\r\nhello",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
	if got := buildFromAddress("shop@example.com", ""); got != "shop@example.com" {
		t.Fatalf("expected bare sender without display name, got %q", got)
	}
}

func TestSendTextEmailGuards(t *testing.T) {
	if err := NewEmailService(&config.EmailConfig{}).SendOrderPending("a@example.com", 1); !errors.Is(err, ErrEmailServiceDisabled) {
		t.Fatalf("expected disabled error, got %v", err)
	}
	if err := NewEmailService(&config.EmailConfig{Enabled: true}).SendOrderPending("a@example.com", 1); !errors.Is(err, ErrEmailServiceNotConfigured) {
		t.Fatalf("expected not configured error, got %v", err)
	}
	svc := NewEmailService(&config.EmailConfig{Enabled: true, Host: "127.0.0.1", Port: 25})
	if err := svc.SendPaymentConfirmed("not-an-address", 1); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected invalid email error, got %v", err)
	}
}

func TestIsEmailRecipientRejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "smtp_550_no_such_recipient",
			err:  errors.New("550 No such recipient here"),
			want: true,
		},
		{
			name: "smtp_user_unknown",
			err:  errors.New("SMTP 5.1.1 user unknown"),
			want: true,
		},
		{
			name: "network_timeout",
			err:  errors.New("dial tcp timeout"),
			want: false,
		},
		{
			name: "nil_error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isEmailRecipientRejected(tt.err); got != tt.want {
				t.Fatalf("isEmailRecipientRejected() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeEmailSendError(t *testing.T) {
	rejected := errors.New("550 No such recipient here")
	if got := normalizeEmailSendError(rejected); !errors.Is(got, ErrEmailRecipientRejected) {
		t.Fatalf("normalizeEmailSendError() expected ErrEmailRecipientRejected, got %v", got)
	}
	networkErr := errors.New("dial tcp timeout")
	if got := normalizeEmailSendError(networkErr); !errors.Is(got, networkErr) {
		t.Fatalf("normalizeEmailSendError() should keep original error, got %v", got)
	}
}
