package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type sentMail struct {
	to      string
	subject string
	body    string
}

type mockMailer struct {
	sent chan sentMail
	err  error
}

func newMockMailer() *mockMailer {
	return &mockMailer{sent: make(chan sentMail, 8)}
}

func (m *mockMailer) Send(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent <- sentMail{to: to, subject: subject, body: body}
	return nil
}

func (m *mockMailer) SendWithAttachment(to, subject, body, filename string, attachment []byte) error {
	return m.Send(to, subject, body)
}

func waitForMail(t *testing.T, m *mockMailer) sentMail {
	t.Helper()
	select {
	case mail := <-m.sent:
		return mail
	case <-time.After(2 * time.Second):
		t.Fatal("no email delivered")
		return sentMail{}
	}
}

func TestNotifier_AppointmentConfirmed(t *testing.T) {
	mailer := newMockMailer()
	n := NewNotifier(mailer, zerolog.Nop())

	n.AppointmentConfirmed("pat@example.com", "Jane Roe", "Smith", "2026-09-01 10:00")

	mail := waitForMail(t, mailer)
	if mail.to != "pat@example.com" {
		t.Errorf("expected recipient pat@example.com, got %s", mail.to)
	}
	if mail.subject != "Appointment confirmed" {
		t.Errorf("unexpected subject %q", mail.subject)
	}
	if !strings.Contains(mail.body, "Dr. Smith") {
		t.Errorf("body missing doctor name: %q", mail.body)
	}
}

func TestNotifier_PaymentReceived(t *testing.T) {
	mailer := newMockMailer()
	n := NewNotifier(mailer, zerolog.Nop())

	n.PaymentReceived("pat@example.com", "BILL-202608-42", 50, 75)

	mail := waitForMail(t, mailer)
	if !strings.Contains(mail.subject, "BILL-202608-42") {
		t.Errorf("subject missing bill number: %q", mail.subject)
	}
	if !strings.Contains(mail.body, "50.00") || !strings.Contains(mail.body, "75.00") {
		t.Errorf("body missing amounts: %q", mail.body)
	}
}

func TestNotifier_DisabledWithoutMailer(t *testing.T) {
	n := NewNotifier(nil, zerolog.Nop())

	if n.Enabled() {
		t.Error("expected notifier to be disabled")
	}
	// Must not panic.
	n.LowStock("pharm@example.com", "Paracetamol 500mg", 3, 10)
}

func TestNewMailer_EmptyHostDisables(t *testing.T) {
	if m := NewMailer(SMTPConfig{}); m != nil {
		t.Error("expected nil mailer when host is empty")
	}
}
