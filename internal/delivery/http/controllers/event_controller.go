package controllers

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventcalendar/internal/delivery/http/helpers"
	"eventcalendar/internal/delivery/http/middleware"
	"eventcalendar/internal/domain"

	"github.com/google/uuid"
)

// EventRequest is the request body for POST /api/events and PUT /api/events/{eventID}.
// Omitting member_ids leaves membership unchanged on update; an empty list removes
// every member except the owner.
type EventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Priority    string    `json:"priority"`
	Recurring   string    `json:"recurring"`
	Tags        []string  `json:"tags"`
	Color       string    `json:"color"`
	Location    string    `json:"location"`
	MemberIDs   []string  `json:"member_ids"`
}

// Validate implements Validator.
func (e EventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(e.Title) == "" {
		errs = append(errs, "title is required")
	}
	if e.Start.IsZero() {
		errs = append(errs, "start is required")
	}
	if e.End.IsZero() {
		errs = append(errs, "end is required")
	}
	if !e.Start.IsZero() && !e.End.IsZero() && e.End.Before(e.Start) {
		errs = append(errs, "end must not be before start")
	}
	if !domain.ValidPriority(e.Priority) {
		errs = append(errs, "priority must be one of critical, high, medium, low")
	}
	if !domain.ValidRecurring(e.Recurring) {
		errs = append(errs, "recurring must be one of daily, weekly, monthly")
	}
	for _, id := range e.MemberIDs {
		if _, err := uuid.Parse(id); err != nil {
			errs = append(errs, "member_ids must contain user ids")
			break
		}
	}
	return errs
}

func (e EventRequest) fields() domain.EventFields {
	return domain.EventFields{
		Title:       strings.TrimSpace(e.Title),
		Description: e.Description,
		Start:       e.Start,
		End:         e.End,
		Priority:    e.Priority,
		Recurring:   e.Recurring,
		Tags:        e.Tags,
		Color:       e.Color,
		Location:    e.Location,
		MemberIDs:   helpers.CanonicalIDs(e.MemberIDs),
	}
}

// EventSuccessResponse is the success envelope for single-event responses.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventListSuccessResponse is the success envelope for event list responses.
type EventListSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

func (c *EventController) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
	}
	return userID, ok
}

// CreateEvent godoc
// @Summary Create an event
// @Description The caller becomes owner and sole member. Users in member_ids receive invitations.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body EventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.caller(w, r)
	if !ok {
		return
	}
	var req EventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), req.fields(), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// ListEvents godoc
// @Summary List the caller's events
// @Description Events the caller owns or is a member of, ordered by start.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.caller(w, r)
	if !ok {
		return
	}
	c.writeList(w, r)(c.Service.ListEvents(r.Context(), userID))
}

// ListEventsInRange godoc
// @Summary List events overlapping a time range
// @Description Bounds are inclusive RFC 3339 timestamps.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param start query string true "Range start (RFC 3339)"
// @Param end query string true "Range end (RFC 3339)"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /events/date-range [get]
func (c *EventController) ListEventsInRange(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.caller(w, r)
	if !ok {
		return
	}
	start, end, err := helpers.ParseTimeRange(r)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	c.writeList(w, r)(c.Service.ListEventsInRange(r.Context(), userID, start, end))
}

// ListEventsByPriority godoc
// @Summary List events with a priority
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param priority path string true "critical, high, medium or low"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /events/priority/{priority} [get]
func (c *EventController) ListEventsByPriority(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.caller(w, r)
	if !ok {
		return
	}
	priority := strings.ToLower(r.PathValue("priority"))
	if priority == "" || !domain.ValidPriority(priority) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "unknown priority")
		return
	}
	c.writeList(w, r)(c.Service.ListEventsByPriority(r.Context(), userID, priority))
}

// ListEventsByTag godoc
// @Summary List events with a tag
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param tag path string true "Tag"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /events/tag/{tag} [get]
func (c *EventController) ListEventsByTag(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.caller(w, r)
	if !ok {
		return
	}
	c.writeList(w, r)(c.Service.ListEventsByTag(r.Context(), userID, strings.TrimSpace(r.PathValue("tag"))))
}

func (c *EventController) writeList(w http.ResponseWriter, r *http.Request) func([]*domain.Event, error) {
	return func(events []*domain.Event, err error) {
		if err != nil {
			helpers.WriteServiceError(w, r, c.Logger, err)
			return
		}
		if events == nil {
			events = []*domain.Event{}
		}
		helpers.WriteJSONSuccess(w, http.StatusOK, events)
	}
}

// ExportCalendar godoc
// @Summary Export events as iCalendar
// @Description Every event visible to the caller as a text/calendar document.
// @Tags events
// @Produce text/calendar
// @Security BearerAuth
// @Success 200 {string} string "iCalendar document"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /events/export.ics [get]
func (c *EventController) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.caller(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := c.Service.ExportCalendar(r.Context(), userID, &buf); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="events.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// GetEvent godoc
// @Summary Get an event
// @Description Only the owner and members may view an event.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: access_denied"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.caller(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathID(w, r, "eventID")
	if !ok {
		return
	}
	event, err := c.Service.GetEvent(r.Context(), eventID, userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// UpdateEvent godoc
// @Summary Replace an event's fields
// @Description Owner only. Color is fixed at creation. When member_ids is present, members not listed are removed and listed non-members are invited.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param event body EventRequest true "Event data"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: access_denied"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [put]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.caller(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathID(w, r, "eventID")
	if !ok {
		return
	}
	var req EventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), eventID, req.fields(), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Owner only. Pending invitations are deleted with the event.
// @Tags events
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 204 "event deleted"
// @Failure 403 {object} helpers.APIResponse "error.code: access_denied"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.caller(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathID(w, r, "eventID")
	if !ok {
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), eventID, userID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// JoinEvent godoc
// @Summary Join an event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{eventID}/join [post]
func (c *EventController) JoinEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.caller(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathID(w, r, "eventID")
	if !ok {
		return
	}
	event, err := c.Service.JoinEvent(r.Context(), eventID, userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// LeaveEvent godoc
// @Summary Leave an event
// @Description The owner cannot leave their own event.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/leave [post]
func (c *EventController) LeaveEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.caller(w, r)
	if !ok {
		return
	}
	eventID, ok := helpers.PathID(w, r, "eventID")
	if !ok {
		return
	}
	event, err := c.Service.LeaveEvent(r.Context(), eventID, userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}
