package mailer

import (
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"
)

var ErrNoRecipients = errors.New("no recipients specified")

// Config holds SMTP configuration for sending emails.
type Config struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT"     envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM"`
	FromName string `env:"SMTP_FROM_NAME" envDefault:"DailyCollege"`
}

// Message is a single outgoing email. Text is sent as the plain alternative
// when HTML is also set.
type Message struct {
	To      []string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers messages over SMTP, dialing once per message.
type Mailer struct {
	from   string
	dialer *gomail.Dialer
}

func NewMailer(cfg Config) (*Mailer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Mailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
	if cfg.FromName != "" {
		m.from = gomail.NewMessage().FormatAddress(cfg.From, cfg.FromName)
	}

	return m, nil
}

func (m *Mailer) Send(msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}

	if err := m.dialer.DialAndSend(m.compose(msg)); err != nil {
		return fmt.Errorf("send %q to %d recipient(s): %w", msg.Subject, len(msg.To), err)
	}

	return nil
}

// SendHTML sends an HTML-only message.
func (m *Mailer) SendHTML(to []string, subject, htmlBody string) error {
	return m.Send(Message{To: to, Subject: subject, HTML: htmlBody})
}

func (m *Mailer) compose(msg Message) *gomail.Message {
	out := gomail.NewMessage()
	out.SetHeader("From", m.from)
	out.SetHeader("To", msg.To...)
	out.SetHeader("Subject", msg.Subject)
	if msg.ReplyTo != "" {
		out.SetHeader("Reply-To", msg.ReplyTo)
	}

	switch {
	case msg.HTML == "":
		out.SetBody("text/plain", msg.Text)
	case msg.Text == "":
		out.SetBody("text/html", msg.HTML)
	default:
		out.SetBody("text/plain", msg.Text)
		out.AddAlternative("text/html", msg.HTML)
	}

	return out
}

// Validate reports every missing SMTP setting at once.
func (c Config) Validate() error {
	var errs []error
	missing := func(ok bool, name string) {
		if !ok {
			errs = append(errs, fmt.Errorf("missing %s environment variable", name))
		}
	}

	missing(c.Host != "", "SMTP_HOST")
	missing(c.Port != 0, "SMTP_PORT")
	missing(c.Username != "", "SMTP_USERNAME")
	missing(c.Password != "", "SMTP_PASSWORD")
	missing(c.From != "", "SMTP_FROM")

	return errors.Join(errs...)
}
