package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"eventcalendar/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	invitations    domain.InvitationService
	calendar       domain.CalendarEncoder
	logger         *slog.Logger
	now            domain.Clock
	contextTimeout time.Duration
}

// NewEventService wires the event service. invitations receives the invite
// batches produced by create and update; calendar renders exports.
func NewEventService(
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	invitations domain.InvitationService,
	calendar domain.CalendarEncoder,
	logger *slog.Logger,
	clock domain.Clock,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		invitations:    invitations,
		calendar:       calendar,
		logger:         logger,
		now:            clockOrNow(clock),
		contextTimeout: timeout,
	}
}

func (s *eventService) getUser(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, repoErr("get user", err)
	}
	return u, nil
}

func (s *eventService) getEvent(ctx context.Context, id string) (*domain.Event, error) {
	e, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, repoErr("get event", err)
	}
	return e, nil
}

// resolveUsers loads every id or fails with a user-not-found error naming the first missing id.
func (s *eventService) resolveUsers(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	byID := make(map[string]*domain.User, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}
	users, err := s.userRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, repoErr("list users", err)
	}
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, &domain.Error{Kind: domain.ErrNotFound, Entity: "user", Message: "user not found: " + id}
		}
	}
	return byID, nil
}

func (s *eventService) CreateEvent(ctx context.Context, fields domain.EventFields, ownerID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := validateEventFields(fields); err != nil {
		return nil, err
	}
	owner, err := s.getUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	invitees := uniqueIDs(fields.MemberIDs, owner.ID)
	if _, err := s.resolveUsers(ctx, invitees); err != nil {
		return nil, err
	}

	event := domain.NewEvent(fields, owner.Ref(), s.now())
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, repoErr("create event", err)
	}
	s.logger.InfoContext(ctx, "event created", "event_id", event.ID, "owner_id", owner.ID)

	if len(invitees) > 0 {
		if _, err := s.invitations.CreateInvitations(ctx, event.ID, invitees, owner.ID); err != nil {
			s.discard(ctx, event.ID)
			return nil, fmt.Errorf("invite users: %w", err)
		}
	}
	return event, nil
}

// discard removes an event whose creation could not be completed, along with any
// invitations already written for it.
func (s *eventService) discard(ctx context.Context, eventID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.contextTimeout)
	defer cancel()

	if err := s.invitations.DeleteInvitationsForEvent(ctx, eventID); err != nil {
		s.logger.ErrorContext(ctx, "discard invitations", "event_id", eventID, "error", err)
	}
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		s.logger.ErrorContext(ctx, "discard event", "event_id", eventID, "error", err)
		return
	}
	s.logger.WarnContext(ctx, "event discarded after failed invitations", "event_id", eventID)
}

func (s *eventService) GetEvent(ctx context.Context, eventID, callerID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	caller, err := s.getUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !event.CanView(caller.ID) {
		return nil, domain.NewError(domain.ErrAccessDenied, "access denied")
	}
	return event, nil
}

// visibleEvents returns every event the user owns or is a member of, without duplicates.
// When the combined query finds nothing, the owned and member sets are fetched
// separately and merged.
func (s *eventService) visibleEvents(ctx context.Context, callerID string) ([]*domain.Event, error) {
	caller, err := s.getUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.ListByOwnerOrMember(ctx, caller.ID)
	if err != nil {
		return nil, repoErr("list events", err)
	}
	if len(events) > 0 {
		return domain.UniqueEvents(events), nil
	}

	s.logger.DebugContext(ctx, "no events from combined query, querying owned and member events separately", "user_id", caller.ID)
	owned, err := s.eventRepo.ListByOwnerID(ctx, caller.ID)
	if err != nil {
		return nil, repoErr("list owned events", err)
	}
	joined, err := s.eventRepo.ListByMemberID(ctx, caller.ID)
	if err != nil {
		return nil, repoErr("list member events", err)
	}
	merged := domain.UniqueEvents(owned, joined)
	if len(merged) > 0 {
		s.logger.WarnContext(ctx, "combined event query missed events found by fallback", "user_id", caller.ID, "count", len(merged))
	}
	return merged, nil
}

func (s *eventService) filterVisible(ctx context.Context, callerID string, keep func(*domain.Event) bool) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.visibleEvents(ctx, callerID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Event, 0, len(events))
	for _, e := range events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *eventService) ListEvents(ctx context.Context, callerID string) ([]*domain.Event, error) {
	return s.filterVisible(ctx, callerID, func(*domain.Event) bool { return true })
}

func (s *eventService) ListEventsInRange(ctx context.Context, callerID string, start, end time.Time) ([]*domain.Event, error) {
	return s.filterVisible(ctx, callerID, func(e *domain.Event) bool { return e.Overlaps(start, end) })
}

func (s *eventService) ListEventsByPriority(ctx context.Context, callerID, priority string) ([]*domain.Event, error) {
	return s.filterVisible(ctx, callerID, func(e *domain.Event) bool {
		return e.Priority != "" && e.Priority == priority
	})
}

func (s *eventService) ListEventsByTag(ctx context.Context, callerID, tag string) ([]*domain.Event, error) {
	return s.filterVisible(ctx, callerID, func(e *domain.Event) bool {
		return tag != "" && e.HasTag(tag)
	})
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID string, fields domain.EventFields, callerID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	caller, err := s.getUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !event.IsOwner(caller.ID) {
		return nil, domain.NewError(domain.ErrAccessDenied, "only the event owner can update the event")
	}
	if err := validateEventFields(fields); err != nil {
		return nil, err
	}
	if event.Members == nil {
		return nil, domain.ErrMembersUnset
	}

	event.Apply(fields)

	var invitees []string
	if fields.MemberIDs != nil {
		requested := uniqueIDs(fields.MemberIDs, event.Owner.ID)
		if _, err := s.resolveUsers(ctx, requested); err != nil {
			return nil, err
		}
		members := []domain.UserRef{event.Owner}
		for _, id := range requested {
			if m, ok := findMember(event.Members, id); ok {
				members = append(members, m)
			} else {
				invitees = append(invitees, id)
			}
		}
		event.Members = members
	}
	event.UpdatedAt = s.now()

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, repoErr("update event", err)
	}
	s.logger.InfoContext(ctx, "event updated", "event_id", event.ID, "members", len(event.Members))

	if len(invitees) > 0 {
		if _, err := s.invitations.CreateInvitations(ctx, event.ID, invitees, caller.ID); err != nil {
			return nil, fmt.Errorf("invite users: %w", err)
		}
	}
	return event, nil
}

func findMember(members []domain.UserRef, id string) (domain.UserRef, bool) {
	for _, m := range members {
		if m.ID == id {
			return m, true
		}
	}
	return domain.UserRef{}, false
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return err
	}
	caller, err := s.getUser(ctx, callerID)
	if err != nil {
		return err
	}
	if !event.IsOwner(caller.ID) {
		return domain.NewError(domain.ErrAccessDenied, "only the event owner can delete the event")
	}
	if err := s.invitations.DeleteInvitationsForEvent(ctx, event.ID); err != nil {
		return fmt.Errorf("delete invitations: %w", err)
	}
	if err := s.eventRepo.Delete(ctx, event.ID); err != nil {
		return repoErr("delete event", err)
	}
	s.logger.InfoContext(ctx, "event deleted", "event_id", event.ID)
	return nil
}

func (s *eventService) JoinEvent(ctx context.Context, eventID, callerID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	caller, err := s.getUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if event.Members == nil {
		return nil, domain.ErrMembersUnset
	}
	alreadyMember := domain.NewError(domain.ErrConflict, "user is already part of this event")
	if event.HasMember(caller.ID) {
		return nil, alreadyMember
	}

	now := s.now()
	added, err := s.eventRepo.AddMember(ctx, event.ID, caller.ID, now)
	if err != nil {
		return nil, repoErr("add member", err)
	}
	if !added {
		return nil, alreadyMember
	}
	event.Members = append(event.Members, caller.Ref())
	event.UpdatedAt = now

	// A pending invitation is satisfied by joining directly.
	if err := s.invitations.DeleteInvitation(ctx, event.ID, caller.ID); err != nil {
		return nil, fmt.Errorf("clear invitation: %w", err)
	}
	s.logger.InfoContext(ctx, "user joined event", "event_id", event.ID, "user_id", caller.ID)
	return event, nil
}

func (s *eventService) LeaveEvent(ctx context.Context, eventID, callerID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	caller, err := s.getUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if event.Members == nil {
		return nil, domain.ErrMembersUnset
	}
	if event.IsOwner(caller.ID) {
		return nil, domain.NewError(domain.ErrForbidden, "event owner cannot leave the event")
	}

	now := s.now()
	if _, err := s.eventRepo.RemoveMember(ctx, event.ID, caller.ID, now); err != nil {
		return nil, repoErr("remove member", err)
	}
	members := make([]domain.UserRef, 0, len(event.Members))
	for _, m := range event.Members {
		if m.ID != caller.ID {
			members = append(members, m)
		}
	}
	event.Members = members
	event.UpdatedAt = now
	s.logger.InfoContext(ctx, "user left event", "event_id", event.ID, "user_id", caller.ID)
	return event, nil
}

func (s *eventService) ExportCalendar(ctx context.Context, callerID string, w io.Writer) error {
	events, err := s.ListEvents(ctx, callerID)
	if err != nil {
		return err
	}
	return s.calendar.Encode(w, events)
}
