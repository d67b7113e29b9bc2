package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventcalendar/internal/domain"
)

type invitationService struct {
	invitationRepo domain.InvitationRepository
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	emailService   domain.EmailService
	baseURL        string
	logger         *slog.Logger
	now            domain.Clock
	contextTimeout time.Duration
}

// NewInvitationService wires the invitation service. emailService may be nil,
// in which case no notification is sent. baseURL prefixes the link in the email.
func NewInvitationService(
	invitationRepo domain.InvitationRepository,
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	emailService domain.EmailService,
	baseURL string,
	logger *slog.Logger,
	clock domain.Clock,
	timeout time.Duration,
) domain.InvitationService {
	return &invitationService{
		invitationRepo: invitationRepo,
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		emailService:   emailService,
		baseURL:        strings.TrimRight(baseURL, "/"),
		logger:         logger,
		now:            clockOrNow(clock),
		contextTimeout: timeout,
	}
}

func (s *invitationService) CreateInvitations(ctx context.Context, eventID string, userIDs []string, requesterID string) ([]*domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, repoErr("get event", err)
	}
	requester, err := s.userRepo.GetByID(ctx, requesterID)
	if err != nil {
		return nil, repoErr("get user", err)
	}
	if !event.IsOwner(requester.ID) {
		return nil, domain.NewError(domain.ErrAccessDenied, "only the event owner can invite users")
	}
	if event.Members == nil {
		return nil, domain.ErrMembersUnset
	}

	// Resolve every target before writing anything, so an unknown id aborts the whole batch.
	var targets []string
	for _, id := range uniqueIDs(userIDs, event.Owner.ID) {
		if event.HasMember(id) {
			continue
		}
		_, err := s.invitationRepo.GetByEventAndUser(ctx, event.ID, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, repoErr("get invitation", err)
		}
		targets = append(targets, id)
	}
	users := make(map[string]*domain.User, len(targets))
	if len(targets) > 0 {
		found, err := s.userRepo.ListByIDs(ctx, targets)
		if err != nil {
			return nil, repoErr("list users", err)
		}
		for _, u := range found {
			users[u.ID] = u
		}
	}
	for _, id := range targets {
		if _, ok := users[id]; !ok {
			return nil, &domain.Error{Kind: domain.ErrNotFound, Entity: "user", Message: "user not found: " + id}
		}
	}

	created := make([]*domain.Invitation, 0, len(targets))
	for _, id := range targets {
		inv := domain.NewInvitation(event, users[id].Ref(), s.now())
		ok, err := s.invitationRepo.Create(ctx, inv)
		if err != nil {
			return nil, repoErr("create invitation", err)
		}
		if !ok {
			continue
		}
		created = append(created, inv)
		s.notify(ctx, event, inv)
	}
	s.logger.InfoContext(ctx, "invitations created", "event_id", event.ID, "count", len(created))
	return created, nil
}

// notify emails the invited user. Delivery failures are logged, not returned.
func (s *invitationService) notify(ctx context.Context, event *domain.Event, inv *domain.Invitation) {
	if s.emailService == nil {
		return
	}
	data := &domain.InvitationEmailData{
		Email:       inv.InvitedUser.Email,
		InviteeName: inv.InvitedUser.Name,
		InviterName: inv.InvitedBy.Name,
		EventTitle:  event.Title,
		EventStart:  event.Start,
		EventEnd:    event.End,
		Location:    event.Location,
		AcceptURL:   s.baseURL + "/invitations",
	}
	if err := s.emailService.SendInvitation(ctx, data); err != nil {
		s.logger.WarnContext(ctx, "invitation email failed", "invitation_id", inv.ID, "error", err)
	}
}

func (s *invitationService) ListInvitationsForUser(ctx context.Context, callerID string) ([]*domain.Invitation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	caller, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		return nil, repoErr("get user", err)
	}
	invs, err := s.invitationRepo.ListByInvitedUser(ctx, caller.ID)
	if err != nil {
		return nil, repoErr("list invitations", err)
	}
	return invs, nil
}

// addressed loads the invitation and checks that callerID is its recipient.
func (s *invitationService) addressed(ctx context.Context, invitationID, callerID string) (*domain.Invitation, *domain.User, error) {
	inv, err := s.invitationRepo.GetByID(ctx, invitationID)
	if err != nil {
		return nil, nil, repoErr("get invitation", err)
	}
	caller, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		return nil, nil, repoErr("get user", err)
	}
	if inv.InvitedUser.ID != caller.ID {
		return nil, nil, domain.NewError(domain.ErrAccessDenied, "invitation is addressed to another user")
	}
	return inv, caller, nil
}

func (s *invitationService) AcceptInvitation(ctx context.Context, invitationID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, caller, err := s.addressed(ctx, invitationID, callerID)
	if err != nil {
		return err
	}
	event, err := s.eventRepo.GetByID(ctx, inv.Event.ID)
	if err != nil {
		return repoErr("get event", err)
	}
	if !event.HasMember(caller.ID) {
		if _, err := s.eventRepo.AddMember(ctx, event.ID, caller.ID, s.now()); err != nil {
			return repoErr("add member", err)
		}
	}
	if err := s.invitationRepo.Delete(ctx, inv.ID); err != nil && !errors.Is(err, domain.ErrInvitationNotFound) {
		return repoErr("delete invitation", err)
	}
	s.logger.InfoContext(ctx, "invitation accepted", "invitation_id", inv.ID, "event_id", event.ID, "user_id", caller.ID)
	return nil
}

func (s *invitationService) DeclineInvitation(ctx context.Context, invitationID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, caller, err := s.addressed(ctx, invitationID, callerID)
	if err != nil {
		return err
	}
	if err := s.invitationRepo.Delete(ctx, inv.ID); err != nil && !errors.Is(err, domain.ErrInvitationNotFound) {
		return repoErr("delete invitation", err)
	}
	s.logger.InfoContext(ctx, "invitation declined", "invitation_id", inv.ID, "user_id", caller.ID)
	return nil
}

func (s *invitationService) DeleteInvitationsForEvent(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.invitationRepo.DeleteByEventID(ctx, eventID); err != nil {
		return fmt.Errorf("delete invitations for event: %w", err)
	}
	return nil
}

func (s *invitationService) DeleteInvitation(ctx context.Context, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.invitationRepo.DeleteByEventAndUser(ctx, eventID, userID); err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}
	return nil
}
