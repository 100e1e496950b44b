// Package notify delivers transactional email to patients and staff:
// appointment confirmations, payment receipts, and low stock alerts.
// Delivery is fire-and-forget; a failed send is logged, never surfaced
// to the request that triggered it.
package notify

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Mailer sends a single email message.
type Mailer interface {
	Send(to, subject, body string) error
	SendWithAttachment(to, subject, body, filename string, attachment []byte) error
}

// SMTPConfig holds the SMTP relay settings.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer returns a gomail-backed Mailer, or nil when no SMTP host
// is configured. A nil Mailer is accepted by Notifier and disables
// delivery.
func NewMailer(cfg SMTPConfig) Mailer {
	if cfg.Host == "" {
		return nil
	}
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
		from:   cfg.From,
	}
}

func (m *smtpMailer) Send(to, subject, body string) error {
	return m.SendWithAttachment(to, subject, body, "", nil)
}

func (m *smtpMailer) SendWithAttachment(to, subject, body, filename string, attachment []byte) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	if filename != "" && attachment != nil {
		msg.Attach(filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(attachment)
			return err
		}))
	}
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// Notifier wraps a Mailer with domain-level messages and asynchronous
// delivery.
type Notifier struct {
	mailer Mailer
	logger zerolog.Logger
}

func NewNotifier(mailer Mailer, logger zerolog.Logger) *Notifier {
	return &Notifier{mailer: mailer, logger: logger}
}

// Enabled reports whether a mail transport is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && n.mailer != nil
}

func (n *Notifier) send(to, subject, body string) {
	if !n.Enabled() {
		return
	}
	go func() {
		if err := n.mailer.Send(to, subject, body); err != nil {
			n.logger.Error().Err(err).Str("to", to).Str("subject", subject).Msg("email delivery failed")
		}
	}()
}

// AppointmentConfirmed notifies a patient that a doctor confirmed
// their appointment.
func (n *Notifier) AppointmentConfirmed(to, patientName, doctorName, when string) {
	body := fmt.Sprintf("Dear %s,\n\nYour appointment with Dr. %s on %s has been confirmed.\n\nHospital Management",
		patientName, doctorName, when)
	n.send(to, "Appointment confirmed", body)
}

// AppointmentCancelled notifies a patient of a cancellation.
func (n *Notifier) AppointmentCancelled(to, patientName, when string) {
	body := fmt.Sprintf("Dear %s,\n\nYour appointment on %s has been cancelled.\n\nHospital Management",
		patientName, when)
	n.send(to, "Appointment cancelled", body)
}

// PaymentReceived sends a receipt after a payment is recorded.
func (n *Notifier) PaymentReceived(to, billNumber string, amount, balance float64) {
	body := fmt.Sprintf("We received your payment of %.2f towards bill %s. Outstanding balance: %.2f.\n\nHospital Management",
		amount, billNumber, balance)
	n.send(to, fmt.Sprintf("Payment received for %s", billNumber), body)
}

// LowStock alerts the pharmacist that an item fell to or below its
// reorder level.
func (n *Notifier) LowStock(to, itemName string, quantity, reorderLevel int) {
	body := fmt.Sprintf("Inventory item %q is low: %d remaining (reorder level %d).",
		itemName, quantity, reorderLevel)
	n.send(to, "Low stock alert", body)
}
