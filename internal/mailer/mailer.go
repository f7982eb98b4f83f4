// Package mailer delivers OTP verification emails. Delivery failure is a
// first-class outcome: registration compensates by deleting the account row.
package mailer

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
)

// Mailer sends a one-time verification code to an address.
type Mailer interface {
	SendOTP(ctx context.Context, to, otp string) error
}

// SMTPMailer delivers OTP mail over plain SMTP with AUTH.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTP creates an SMTP-backed mailer.
func NewSMTP(host, port, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// SendOTP sends the verification code. The context deadline is not enforced
// by net/smtp itself; callers treat any returned error as a delivery failure.
func (m *SMTPMailer) SendOTP(_ context.Context, to, otp string) error {
	body := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Verify your CO2+ account\r\n\r\nYour verification code is %s. It expires in 10 minutes.\r\n",
		m.from, to, otp)

	addr := m.host + ":" + m.port
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(body)); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	return nil
}

// LogMailer logs codes instead of sending them. Used when no SMTP host is
// configured, so local development does not need a mail server.
type LogMailer struct{}

// SendOTP logs the code and always succeeds.
func (LogMailer) SendOTP(_ context.Context, to, otp string) error {
	log.Printf("mailer: OTP for %s is %s (log-only delivery)", to, otp)
	return nil
}
