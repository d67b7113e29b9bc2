// Package ical renders events as an RFC 5545 iCalendar stream.
package ical

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/emersion/go-ical"

	"eventcalendar/internal/domain"
)

const productID = "-//eventcalendar//EN"

var priorityLevels = map[string]int{
	domain.PriorityCritical: 1,
	domain.PriorityHigh:     3,
	domain.PriorityMedium:   5,
	domain.PriorityLow:      9,
}

var frequencies = map[string]string{
	domain.RecurringDaily:   "DAILY",
	domain.RecurringWeekly:  "WEEKLY",
	domain.RecurringMonthly: "MONTHLY",
}

var textEscaper = strings.NewReplacer(`\`, `\\`, `,`, `\,`, `;`, `\;`)

// Encoder implements domain.CalendarEncoder.
type Encoder struct {
	// UIDDomain is appended to event IDs to form globally unique iCalendar UIDs.
	UIDDomain string
}

// NewEncoder returns an Encoder that builds UIDs as <event-id>@uidDomain.
func NewEncoder(uidDomain string) *Encoder {
	return &Encoder{UIDDomain: uidDomain}
}

var _ domain.CalendarEncoder = (*Encoder)(nil)

// Encode writes a VCALENDAR with one VEVENT per event.
func (e *Encoder) Encode(w io.Writer, events []*domain.Event) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	for _, ev := range events {
		cal.Children = append(cal.Children, e.toVEvent(ev))
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

func (e *Encoder) toVEvent(ev *domain.Event) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, ev.ID+"@"+e.UIDDomain)
	ve.Props.SetText(ical.PropSummary, ev.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, ev.UpdatedAt.UTC())
	ve.Props.SetDateTime(ical.PropCreated, ev.CreatedAt.UTC())
	ve.Props.SetDateTime(ical.PropLastModified, ev.UpdatedAt.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, ev.Start.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, ev.End.UTC())

	if ev.Description != "" {
		ve.Props.SetText(ical.PropDescription, ev.Description)
	}
	if ev.Location != "" {
		ve.Props.SetText(ical.PropLocation, ev.Location)
	}
	if level, ok := priorityLevels[ev.Priority]; ok {
		p := ical.NewProp(ical.PropPriority)
		p.Value = strconv.Itoa(level)
		ve.Props.Set(p)
	}
	if freq, ok := frequencies[ev.Recurring]; ok {
		p := ical.NewProp(ical.PropRecurrenceRule)
		p.Value = "FREQ=" + freq
		ve.Props.Set(p)
	}
	if len(ev.Tags) > 0 {
		escaped := make([]string, len(ev.Tags))
		for i, t := range ev.Tags {
			escaped[i] = textEscaper.Replace(t)
		}
		p := ical.NewProp(ical.PropCategories)
		p.Value = strings.Join(escaped, ",")
		ve.Props.Set(p)
	}
	if ev.Color != "" {
		ve.Props.SetText("COLOR", ev.Color)
	}

	organizer := ical.NewProp(ical.PropOrganizer)
	organizer.Value = "mailto:" + ev.Owner.Email
	if ev.Owner.Name != "" {
		organizer.Params.Set(ical.ParamCommonName, ev.Owner.Name)
	}
	ve.Props.Set(organizer)

	for _, m := range ev.Members {
		if m.ID == ev.Owner.ID {
			continue
		}
		attendee := ical.NewProp(ical.PropAttendee)
		attendee.Value = "mailto:" + m.Email
		if m.Name != "" {
			attendee.Params.Set(ical.ParamCommonName, m.Name)
		}
		ve.Props.Add(attendee)
	}
	return ve
}
