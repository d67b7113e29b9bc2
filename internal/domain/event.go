package domain

import (
	"context"
	"io"
	"strings"
	"time"
)

// Event priorities.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// Event recurrence rules.
const (
	RecurringDaily   = "daily"
	RecurringWeekly  = "weekly"
	RecurringMonthly = "monthly"
)

// ValidPriority reports whether p is empty or one of the known priorities.
func ValidPriority(p string) bool {
	switch p {
	case "", PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ValidRecurring reports whether r is empty or one of the known recurrence rules.
func ValidRecurring(r string) bool {
	switch r {
	case "", RecurringDaily, RecurringWeekly, RecurringMonthly:
		return true
	}
	return false
}

// Event is a calendar event. Owner is always part of Members.
// swagger:model Event
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Priority    string    `json:"priority"`
	Recurring   string    `json:"recurring"`
	Tags        []string  `json:"tags"`
	Color       string    `json:"color"`
	Location    string    `json:"location"`
	Owner       UserRef   `json:"owner"`
	Members     []UserRef `json:"members"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EventFields holds the caller-supplied fields for creating or replacing an event.
// A nil MemberIDs means "not supplied"; an empty, non-nil slice means "no other members".
type EventFields struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Priority    string
	Recurring   string
	Tags        []string
	Color       string
	Location    string
	MemberIDs   []string
}

// NewEvent builds an event owned by owner whose member set is {owner}.
// ID is set by the repository on create.
func NewEvent(f EventFields, owner UserRef, now time.Time) *Event {
	return &Event{
		Title:       f.Title,
		Description: f.Description,
		Start:       f.Start,
		End:         f.End,
		Priority:    f.Priority,
		Recurring:   f.Recurring,
		Tags:        NormalizeTags(f.Tags),
		Color:       f.Color,
		Location:    f.Location,
		Owner:       owner,
		Members:     []UserRef{owner},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Apply replaces every mutable field with f. Owner, members and timestamps are untouched.
func (e *Event) Apply(f EventFields) {
	e.Title = f.Title
	e.Description = f.Description
	e.Start = f.Start
	e.End = f.End
	e.Priority = f.Priority
	e.Recurring = f.Recurring
	e.Tags = NormalizeTags(f.Tags)
	e.Location = f.Location
}

// Equal reports whether e and o are the same event. Events are identified by ID
// alone; an event without an ID is only equal to itself.
func (e *Event) Equal(o *Event) bool {
	if e == o {
		return true
	}
	if e == nil || o == nil || e.ID == "" {
		return false
	}
	return e.ID == o.ID
}

// IsOwner reports whether userID owns the event.
func (e *Event) IsOwner(userID string) bool {
	return e.Owner.ID == userID
}

// HasMember reports whether userID is in the member set.
func (e *Event) HasMember(userID string) bool {
	for _, m := range e.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// CanView reports whether userID may see the event.
func (e *Event) CanView(userID string) bool {
	return e.IsOwner(userID) || e.HasMember(userID)
}

// HasTag reports whether tag is in the event's tag set.
func (e *Event) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Overlaps reports whether the event intersects [start, end], bounds inclusive.
func (e *Event) Overlaps(start, end time.Time) bool {
	return !e.End.Before(start) && !e.Start.After(end)
}

// NormalizeTags trims tags and drops empty and repeated entries, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// UniqueEvents returns events with ID duplicates collapsed, keeping first-seen order.
func UniqueEvents(lists ...[]*Event) []*Event {
	out := make([]*Event, 0)
	for _, list := range lists {
		for _, e := range list {
			dup := false
			for _, kept := range out {
				if kept.Equal(e) {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, e)
			}
		}
	}
	return out
}

// EventRepository defines the interface for event storage.
// GetByID returns ErrEventNotFound when no row matches and ErrMembersUnset
// when the record has no members.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, event *Event) error
	Delete(ctx context.Context, id string) error
	ListByOwnerOrMember(ctx context.Context, userID string) ([]*Event, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Event, error)
	ListByMemberID(ctx context.Context, userID string) ([]*Event, error)
	// AddMember atomically adds userID to the member set and sets updated_at.
	// added is false when the user was already a member.
	AddMember(ctx context.Context, eventID, userID string, updatedAt time.Time) (added bool, err error)
	// RemoveMember atomically removes userID from the member set and sets updated_at.
	RemoveMember(ctx context.Context, eventID, userID string, updatedAt time.Time) (removed bool, err error)
}

// EventService defines event CRUD and membership operations on behalf of a caller.
type EventService interface {
	CreateEvent(ctx context.Context, fields EventFields, ownerID string) (*Event, error)
	GetEvent(ctx context.Context, eventID, callerID string) (*Event, error)
	ListEvents(ctx context.Context, callerID string) ([]*Event, error)
	ListEventsInRange(ctx context.Context, callerID string, start, end time.Time) ([]*Event, error)
	ListEventsByPriority(ctx context.Context, callerID, priority string) ([]*Event, error)
	ListEventsByTag(ctx context.Context, callerID, tag string) ([]*Event, error)
	UpdateEvent(ctx context.Context, eventID string, fields EventFields, callerID string) (*Event, error)
	DeleteEvent(ctx context.Context, eventID, callerID string) error
	JoinEvent(ctx context.Context, eventID, callerID string) (*Event, error)
	LeaveEvent(ctx context.Context, eventID, callerID string) (*Event, error)
	ExportCalendar(ctx context.Context, callerID string, w io.Writer) error
}

// CalendarEncoder writes events as a calendar document (e.g. iCalendar).
type CalendarEncoder interface {
	Encode(w io.Writer, events []*Event) error
}
