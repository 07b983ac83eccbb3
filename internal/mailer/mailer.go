// Package mailer sends plain-text notification emails through SendGrid.
// Missing configuration is a reported, non-fatal failure: callers treat any
// error here as "email not delivered" and move on.
package mailer

import (
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type Sender struct {
	apiKey   string
	from     string
	fromName string
}

func New(apiKey, from, fromName string) *Sender {
	return &Sender{apiKey: apiKey, from: from, fromName: fromName}
}

func (s *Sender) Send(to, subject, body string) error {
	if to == "" {
		return errors.New("recipient email is empty")
	}
	if s.apiKey == "" {
		return errors.New("SENDGRID_API_KEY is not set")
	}
	if s.from == "" {
		return errors.New("MAIL_FROM is not set")
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.from),
		subject,
		mail.NewEmail("", to),
		body,
		body,
	)

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}
	return nil
}
