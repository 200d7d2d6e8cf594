// Package mailer renders the account mails and hands them to a delivery backend
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

// Template names a mail layout
type Template string

const (
	EmailVerification Template = "email_verification"
	PasswordReset     Template = "password_reset"
)

var subjects = map[Template]string{
	EmailVerification: "Email Verification",
	PasswordReset:     "Password Reset",
}

var templates = template.Must(template.New(string(EmailVerification)).Parse(
	`<p>Hello {{.username}},</p>
<p>Welcome to Book-A-Meal. Confirm your email address by following <a href="{{.link}}">this link</a>.</p>`,
))

func init() {
	template.Must(templates.New(string(PasswordReset)).Parse(
		`<p>Hello {{.username}},</p>
<p>A password reset was requested for your account. Choose a new password <a href="{{.link}}">here</a>.
If you did not ask for this, ignore this mail.</p>`,
	))
}

// Sender delivers a rendered template to one recipient
type Sender interface {
	Send(ctx context.Context, tmpl Template, recipient string, data map[string]string) error
}

// Render produces the subject and HTML body of a template
func Render(tmpl Template, data map[string]string) (string, string, error) {
	subject, ok := subjects[tmpl]
	if !ok {
		return "", "", fmt.Errorf("unknown mail template %q", tmpl)
	}
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, string(tmpl), data); err != nil {
		return "", "", fmt.Errorf("failed to render %s: %w", tmpl, err)
	}
	return subject, body.String(), nil
}

// SMTPSender delivers mail through an SMTP relay
type SMTPSender struct {
	dialer *mail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: mail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *SMTPSender) Send(ctx context.Context, tmpl Template, recipient string, data map[string]string) error {
	subject, body, err := Render(tmpl, data)
	if err != nil {
		return err
	}

	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// LogSender only logs mails; it is used when no SMTP host is configured
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) Send(ctx context.Context, tmpl Template, recipient string, data map[string]string) error {
	if _, _, err := Render(tmpl, data); err != nil {
		return err
	}
	s.Logger.Info("mail delivery disabled, dropping mail",
		zap.String("template", string(tmpl)),
		zap.String("recipient", recipient),
	)
	return nil
}

// Message is a mail captured by Recorder
type Message struct {
	Template  Template
	Recipient string
	Data      map[string]string
}

// Recorder keeps every mail in memory
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Send(ctx context.Context, tmpl Template, recipient string, data map[string]string) error {
	if _, _, err := Render(tmpl, data); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Template: tmpl, Recipient: recipient, Data: data})
	return nil
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}
