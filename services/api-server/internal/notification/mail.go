// Package notification delivers verification codes and account notices.
package notification

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/metrics"
)

// HTMLSender sends a single HTML email. *mailer.Mailer implements it.
type HTMLSender interface {
	SendHTML(to []string, subject, htmlBody string) error
}

// MailNotifier sends notices over SMTP. Sending happens in the background so
// slow mail servers never hold up a request, failures are logged and counted.
type MailNotifier struct {
	sender    HTMLSender
	lifetimes CodeLifetimes
	metrics   *metrics.Metrics
	logger    *zerolog.Logger
	wg        sync.WaitGroup
}

// CodeLifetimes are the validity periods quoted in the code emails.
type CodeLifetimes struct {
	Registration  time.Duration
	PasswordReset time.Duration
}

func NewMailNotifier(sender HTMLSender, lifetimes CodeLifetimes, m *metrics.Metrics, logger *zerolog.Logger) *MailNotifier {
	return &MailNotifier{sender: sender, lifetimes: lifetimes, metrics: m, logger: logger}
}

func (n *MailNotifier) SendRegistrationCode(_ context.Context, email, name string, code int) error {
	htmlBody := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Use the code below to finish creating your DailyCollege account:</p>
		<h2 style="letter-spacing: 4px;">%s</h2>
		<p>This code expires in %s.</p>
		<p>If you did not sign up, you can ignore this email.</p>
	`, html.EscapeString(name), strconv.Itoa(code), n.lifetimes.Registration)

	n.send("registration_code", email, "Verify your email", htmlBody)
	return nil
}

func (n *MailNotifier) SendPasswordResetCode(_ context.Context, email string, code int) error {
	htmlBody := fmt.Sprintf(`
		<p>Hello,</p>
		<p>We received a request to reset the password of your DailyCollege account.</p>
		<h2 style="letter-spacing: 4px;">%s</h2>
		<p>This code expires in %s.</p>
		<p>If you did not request a password reset, you can ignore this email.</p>
	`, strconv.Itoa(code), n.lifetimes.PasswordReset)

	n.send("password_reset_code", email, "Password Reset Request", htmlBody)
	return nil
}

func (n *MailNotifier) SendPasswordChanged(_ context.Context, email string) error {
	htmlBody := `
		<p>Hello,</p>
		<p>The password of your DailyCollege account was just changed.</p>
		<p>If this wasn't you, please contact our support team immediately.</p>
	`

	n.send("password_changed", email, "Your Password Has Been Changed", htmlBody)
	return nil
}

// Wait blocks until every queued email has been handed to the SMTP server.
func (n *MailNotifier) Wait() {
	n.wg.Wait()
}

func (n *MailNotifier) send(template, email, subject, htmlBody string) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		err := n.sender.SendHTML([]string{email}, subject, htmlBody)
		n.metrics.MailSent(template, err)
		if err != nil {
			n.logger.Error().Err(err).Str("template", template).Str("email", email).Msg("Failed to send email")
			return
		}
		n.logger.Debug().Str("template", template).Str("email", email).Msg("Email sent")
	}()
}
