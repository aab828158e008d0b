package goMFA

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
)

// NoOpMailer discards every notification. It is the default when no mailer is
// configured.
type NoOpMailer struct{}

// SendLoginFailed describes the sendloginfailed operation and its observable behavior.
//
// SendLoginFailed may return an error when input validation, dependency calls, or security checks fail.
// SendLoginFailed does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (NoOpMailer) SendLoginFailed(context.Context, UserRecord, string) (int, error) {
	return 0, nil
}

// MailContext is the data handed to the failed-login mail templates.
type MailContext struct {
	User     UserRecord
	Email    string
	Domain   string
	SiteName string
	Method   string
}

// TemplateMailer renders a subject and body template per failed authentication
// attempt and hands the result to SendFunc. Delivery transport is the host's
// concern; SendFunc may wrap SMTP, an API client, or a queue.
type TemplateMailer struct {
	Subject  *template.Template
	Body     *template.Template
	Domain   string
	SiteName string
	// SendFunc performs the actual delivery and reports how many messages
	// went out.
	SendFunc func(ctx context.Context, to, subject, body string) (int, error)
}

// SendLoginFailed describes the sendloginfailed operation and its observable behavior.
//
// SendLoginFailed may return an error when input validation, dependency calls, or security checks fail.
// SendLoginFailed does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m TemplateMailer) SendLoginFailed(ctx context.Context, user UserRecord, method string) (int, error) {
	if user.Email == "" || m.Subject == nil || m.Body == nil || m.SendFunc == nil {
		return 0, nil
	}
	data := MailContext{
		User:     user,
		Email:    user.Email,
		Domain:   m.Domain,
		SiteName: m.SiteName,
		Method:   method,
	}
	var subject, body bytes.Buffer
	if err := m.Subject.Execute(&subject, data); err != nil {
		return 0, fmt.Errorf("mail subject template: %w", err)
	}
	if err := m.Body.Execute(&body, data); err != nil {
		return 0, fmt.Errorf("mail body template: %w", err)
	}
	return m.SendFunc(ctx, user.Email, subject.String(), body.String())
}
