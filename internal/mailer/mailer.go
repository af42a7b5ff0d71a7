package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brieflyhq/briefly-backend/pkg/config"
	"github.com/brieflyhq/briefly-backend/pkg/logger"
)

// PaymentReceipt carries the details rendered into a receipt email.
type PaymentReceipt struct {
	OrderID   string
	PaymentID string
	Amount    *decimal.Decimal
	Currency  string
	Method    string
	PlanName  string
	Period    string
	PaidAt    time.Time
}

// ContactMessage is a visitor message relayed to the support inbox.
type ContactMessage struct {
	Name     string
	Email    string
	Subject  string
	Body     string
	Priority bool
}

// Mailer sends transactional email.
type Mailer interface {
	SendPaymentReceipt(ctx context.Context, toEmail, toName string, receipt PaymentReceipt) error
	SendContactMessage(ctx context.Context, msg ContactMessage) error
}

// SMTPMailer delivers mail over authenticated SMTP.
type SMTPMailer struct {
	cfg    config.SMTPConfig
	logger *logger.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New builds an SMTP mailer, or a no-op one when SMTP is not configured.
func New(cfg config.SMTPConfig, logg *logger.Logger) Mailer {
	if cfg.Host == "" || cfg.User == "" {
		if logg != nil {
			logg.Warn(context.Background(), "smtp not configured; email delivery disabled")
		}
		return &NoopMailer{logger: logg}
	}
	return &SMTPMailer{cfg: cfg, logger: logg, send: smtp.SendMail}
}

// SendPaymentReceipt emails a plain-text payment receipt.
func (m *SMTPMailer) SendPaymentReceipt(ctx context.Context, toEmail, toName string, receipt PaymentReceipt) error {
	if strings.TrimSpace(toEmail) == "" {
		return fmt.Errorf("recipient email is required")
	}
	if toName == "" {
		toName = strings.SplitN(toEmail, "@", 2)[0]
	}

	amountDisplay := "-"
	if receipt.Amount != nil {
		currency := receipt.Currency
		if currency == "" {
			currency = "INR"
		}
		amountDisplay = fmt.Sprintf("%s %s", receipt.Amount.StringFixed(2), currency)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\r\n\r\n", toName)
	fmt.Fprintf(&body, "Thanks for your payment. Here is your receipt.\r\n\r\n")
	fmt.Fprintf(&body, "Order ID:   %s\r\n", receipt.OrderID)
	fmt.Fprintf(&body, "Payment ID: %s\r\n", receipt.PaymentID)
	fmt.Fprintf(&body, "Amount:     %s\r\n", amountDisplay)
	if receipt.PlanName != "" {
		fmt.Fprintf(&body, "Plan:       %s", receipt.PlanName)
		if receipt.Period != "" {
			fmt.Fprintf(&body, " (%s)", receipt.Period)
		}
		body.WriteString("\r\n")
	}
	if !receipt.PaidAt.IsZero() {
		fmt.Fprintf(&body, "Paid at:    %s\r\n", receipt.PaidAt.UTC().Format(time.RFC1123))
	}
	body.WriteString("\r\nThe Briefly team\r\n")

	return m.deliver(ctx, toEmail, "Your payment receipt", body.String())
}

// SendContactMessage relays a contact-form submission to the support inbox.
func (m *SMTPMailer) SendContactMessage(ctx context.Context, msg ContactMessage) error {
	support := strings.TrimSpace(m.cfg.SupportEmail)
	if support == "" {
		support = m.cfg.From()
	}
	if support == "" {
		return fmt.Errorf("support email is not configured")
	}

	subject := strings.TrimSpace(msg.Subject)
	if subject == "" {
		subject = "New contact message"
	}

	priority := "normal"
	if msg.Priority {
		priority = "HIGH"
	}

	var body strings.Builder
	fmt.Fprintf(&body, "From: %s <%s>\r\n", msg.Name, msg.Email)
	fmt.Fprintf(&body, "Priority: %s\r\n\r\n", priority)
	body.WriteString(msg.Body)
	body.WriteString("\r\n")

	return m.deliver(ctx, support, subject, body.String())
}

func (m *SMTPMailer) deliver(ctx context.Context, to, subject, body string) error {
	from := m.cfg.From()
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := m.send(addr, auth, from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	if m.logger != nil {
		m.logger.Info(m.logger.WithField(ctx, "to", to), "email delivered")
	}
	return nil
}

// NoopMailer drops all mail. Used when SMTP is not configured.
type NoopMailer struct {
	logger *logger.Logger
}

func (n *NoopMailer) SendPaymentReceipt(ctx context.Context, toEmail, toName string, receipt PaymentReceipt) error {
	if n.logger != nil {
		n.logger.Warn(n.logger.WithField(ctx, "to", toEmail), "dropping payment receipt; mailer disabled")
	}
	return nil
}

func (n *NoopMailer) SendContactMessage(ctx context.Context, msg ContactMessage) error {
	if n.logger != nil {
		n.logger.Warn(ctx, "dropping contact message; mailer disabled")
	}
	return nil
}
