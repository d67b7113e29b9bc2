package services

import (
	"fmt"
	"time"

	"eventcalendar/internal/domain"

	"github.com/google/uuid"
)

// repoErr passes classified domain errors through untouched and wraps anything else.
func repoErr(op string, err error) error {
	if domain.KindOf(err) != nil {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func clockOrNow(c domain.Clock) domain.Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// canonicalID returns id in the lowercase hyphenated form stored ids use, or id
// unchanged when it is not a UUID.
func canonicalID(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return id
}

// uniqueIDs canonicalizes ids and drops empty and repeated ones, and skip,
// keeping first-seen order.
func uniqueIDs(ids []string, skip string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = canonicalID(id)
		if id == "" || id == skip {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func validateEventFields(f domain.EventFields) error {
	switch {
	case f.Title == "":
		return domain.NewError(domain.ErrInvalidInput, "title is required")
	case f.Start.IsZero() || f.End.IsZero():
		return domain.NewError(domain.ErrInvalidInput, "start and end are required")
	case f.End.Before(f.Start):
		return domain.NewError(domain.ErrInvalidInput, "end must not be before start")
	case !domain.ValidPriority(f.Priority):
		return domain.NewError(domain.ErrInvalidInput, fmt.Sprintf("unknown priority %q", f.Priority))
	case !domain.ValidRecurring(f.Recurring):
		return domain.NewError(domain.ErrInvalidInput, fmt.Sprintf("unknown recurrence %q", f.Recurring))
	}
	return nil
}
