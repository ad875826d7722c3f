// internal/adapters/out/mail/onboarding_mailer.go
package mail

import (
	"context"
	"fmt"
	"strings"
)

// OnboardingMailerPort is the outbound port the onboarding usecase uses to
// confirm a tailor application was received.
type OnboardingMailerPort interface {
	SendApplicationReceived(ctx context.Context, toEmail, displayName string, documentCount int) error
}

// EmailClient abstracts the concrete delivery client (SendGrid, SMTP, SES).
type EmailClient interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// OnboardingMailer implements OnboardingMailerPort on top of an EmailClient.
type OnboardingMailer struct {
	client      EmailClient
	fromAddress string
}

func NewOnboardingMailer(client EmailClient, fromAddress string) *OnboardingMailer {
	return &OnboardingMailer{
		client:      client,
		fromAddress: strings.TrimSpace(fromAddress),
	}
}

// SendApplicationReceived notifies the applicant that their tailor
// onboarding submission is under review.
func (m *OnboardingMailer) SendApplicationReceived(ctx context.Context, toEmail, displayName string, documentCount int) error {
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = "there"
	}

	subject := "[Atelier] Your tailor application was received"

	body := fmt.Sprintf(
		`Hi %s,

Thank you for applying to become a tailor on Atelier.

We received your application along with %d supporting document(s).
Our team will review it and get back to you within a few business days.

You can keep using your customer account as usual in the meantime.

If you did not submit this application, please ignore this message.

--
Atelier`,
		name,
		documentCount,
	)

	return m.client.Send(ctx, m.fromAddress, strings.TrimSpace(toEmail), subject, body)
}
