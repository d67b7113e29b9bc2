package domain

import (
	"context"
	"time"
)

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// InvitationEmailData holds data for the "you were invited" email.
type InvitationEmailData struct {
	Email       string
	InviteeName string
	InviterName string
	EventTitle  string
	EventStart  time.Time
	EventEnd    time.Time
	Location    string
	AcceptURL   string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendInvitation(ctx context.Context, data *InvitationEmailData) error
}
