package domain

import (
	"context"
	"time"
)

// EventRef is the summary of an event carried on an invitation.
// swagger:model EventRef
type EventRef struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Invitation is a pending offer of membership in an event.
// swagger:model Invitation
type Invitation struct {
	ID          string    `json:"id"`
	Event       EventRef  `json:"event"`
	InvitedUser UserRef   `json:"invited_user"`
	InvitedBy   UserRef   `json:"invited_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewInvitation returns an invitation of user to event, sent by the event owner.
func NewInvitation(event *Event, user UserRef, now time.Time) *Invitation {
	return &Invitation{
		Event:       EventRef{ID: event.ID, Title: event.Title, Start: event.Start, End: event.End},
		InvitedUser: user,
		InvitedBy:   event.Owner,
		CreatedAt:   now,
	}
}

// InvitationRepository defines storage operations for invitations.
// GetByID and GetByEventAndUser return ErrInvitationNotFound when no row matches.
type InvitationRepository interface {
	// Create stores inv. created is false when an invitation for the same
	// (event, user) pair already exists.
	Create(ctx context.Context, inv *Invitation) (created bool, err error)
	GetByID(ctx context.Context, id string) (*Invitation, error)
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*Invitation, error)
	ListByInvitedUser(ctx context.Context, userID string) ([]*Invitation, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Invitation, error)
	Delete(ctx context.Context, id string) error
	DeleteByEventID(ctx context.Context, eventID string) error
	DeleteByEventAndUser(ctx context.Context, eventID, userID string) error
}

// InvitationService manages the invitation lifecycle.
type InvitationService interface {
	CreateInvitations(ctx context.Context, eventID string, userIDs []string, requesterID string) ([]*Invitation, error)
	ListInvitationsForUser(ctx context.Context, callerID string) ([]*Invitation, error)
	AcceptInvitation(ctx context.Context, invitationID, callerID string) error
	DeclineInvitation(ctx context.Context, invitationID, callerID string) error
	DeleteInvitationsForEvent(ctx context.Context, eventID string) error
	// DeleteInvitation drops the pending invitation of userID to eventID, if any.
	DeleteInvitation(ctx context.Context, eventID, userID string) error
}
