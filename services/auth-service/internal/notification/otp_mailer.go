// Package notification delivers account messages to users.
package notification

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/vasapolrittideah/ticket-booking-api/shared/mailer"
)

const passwordResetSubject = "Your password reset code"

// Notifier sends account notifications.
type Notifier interface {
	// SendPasswordResetOTP emails a password reset code to the account holder.
	SendPasswordResetOTP(ctx context.Context, to, name, code string, expiresIn time.Duration) error
}

type otpMailer struct {
	sender  mailer.Sender
	appName string
}

// NewOTPMailer returns a Notifier that emails reset codes through sender.
func NewOTPMailer(sender mailer.Sender, appName string) Notifier {
	return &otpMailer{
		sender:  sender,
		appName: appName,
	}
}

func (n *otpMailer) SendPasswordResetOTP(ctx context.Context, to, name, code string, expiresIn time.Duration) error {
	greeting := "Hi,"
	if name != "" {
		greeting = fmt.Sprintf("Hi %s,", name)
	}

	textBody := fmt.Sprintf(
		"%s\n\nYour password reset code is %s.\nIt expires in %s.\n\n"+
			"If you did not request a password reset, you can ignore this email.\n\n%s Team\n",
		greeting, code, expiresIn, n.appName,
	)

	htmlBody := fmt.Sprintf(`
		<p>%s</p>
		<p>We received a request to reset the password for your account.</p>
		<p>Your one-time code is:</p>

		<p style="font-size:24px;font-weight:bold;letter-spacing:4px">%s</p>

		<p>This code will expire in %s.</p>
		<p>If you did not request a password reset, you can ignore this email and your password will stay the same.</p>

		<p>Thank you,</p>
		<p>%s Team</p>
	`, html.EscapeString(greeting), code, expiresIn, html.EscapeString(n.appName))

	return n.sender.Send(ctx, mailer.Email{
		To:       []string{to},
		Subject:  passwordResetSubject,
		Body:     textBody,
		HTMLBody: htmlBody,
	})
}
