package notification

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/usecase"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/metrics"
)

var (
	_ usecase.Notifier = (*MailNotifier)(nil)
	_ usecase.Notifier = (*LogNotifier)(nil)
)

var testLifetimes = CodeLifetimes{Registration: 2 * time.Minute, PasswordReset: 5 * time.Minute}

type sentMail struct {
	to      []string
	subject string
	body    string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (s *fakeSender) SendHTML(to []string, subject, htmlBody string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMail{to: to, subject: subject, body: htmlBody})
	return s.err
}

func TestMailNotifier_SendsInBackground(t *testing.T) {
	sender := &fakeSender{}
	m := metrics.New("test")
	logger := zerolog.Nop()
	n := NewMailNotifier(sender, testLifetimes, m, &logger)
	ctx := context.Background()

	require.NoError(t, n.SendRegistrationCode(ctx, "alice@gmail.com", "<Alice>", 12345))
	require.NoError(t, n.SendPasswordResetCode(ctx, "alice@gmail.com", 4321))
	require.NoError(t, n.SendPasswordChanged(ctx, "alice@gmail.com"))
	n.Wait()

	require.Len(t, sender.sent, 3)
	bySubject := map[string]sentMail{}
	for _, mail := range sender.sent {
		assert.Equal(t, []string{"alice@gmail.com"}, mail.to)
		bySubject[mail.subject] = mail
	}

	assert.Contains(t, bySubject["Verify your email"].body, "12345")
	assert.Contains(t, bySubject["Verify your email"].body, "&lt;Alice&gt;")
	assert.Contains(t, bySubject["Verify your email"].body, "expires in 2m0s")
	assert.Contains(t, bySubject["Password Reset Request"].body, "4321")
	assert.Contains(t, bySubject["Password Reset Request"].body, "expires in 5m0s")
	assert.NotContains(t, bySubject["Password Reset Request"].body, "2m0s")
	assert.Contains(t, bySubject, "Your Password Has Been Changed")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.MailDispatch.WithLabelValues("registration_code", "success")))
}

func TestMailNotifier_FailuresAreLoggedAndCounted(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp unavailable")}
	m := metrics.New("test")
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	n := NewMailNotifier(sender, testLifetimes, m, &logger)

	require.NoError(t, n.SendPasswordResetCode(context.Background(), "alice@gmail.com", 4321))
	n.Wait()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.MailDispatch.WithLabelValues("password_reset_code", "failure")))
	assert.Contains(t, buf.String(), "smtp unavailable")
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	n := NewLogNotifier(&logger)

	require.NoError(t, n.SendRegistrationCode(context.Background(), "alice@gmail.com", "Alice", 12345))
	assert.Contains(t, buf.String(), `"code":12345`)
	assert.Contains(t, buf.String(), "alice@gmail.com")
}
