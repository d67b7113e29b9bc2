package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventcalendar/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendInvitation sends the invitation email using the "invitation" template.
func (s *emailService) SendInvitation(ctx context.Context, data *domain.InvitationEmailData) error {
	if data == nil {
		return fmt.Errorf("invitation email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("invitation", data)
	if err != nil {
		return fmt.Errorf("failed to render invitation template: %w", err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send invitation email: %w", err)
	}
	s.logger.InfoContext(ctx, "invitation email sent", "to", data.Email)
	return nil
}
