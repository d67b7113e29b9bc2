package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eventcalendar/internal/delivery/http/helpers"
	"eventcalendar/internal/delivery/http/middleware"
	"eventcalendar/internal/domain"

	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testUserID       = "11111111-1111-4111-8111-111111111111"
	testEventID      = "22222222-2222-4222-8222-222222222222"
	testInvitationID = "33333333-3333-4333-8333-333333333333"
	testOtherUserID  = "44444444-4444-4444-8444-444444444444"
	testHexUserID    = "aaaabbbb-cccc-4ddd-8eee-ffff00001111"
)

// newRequest builds a request with an optional JSON body, the caller on the
// context (when userID is set) and the given path values.
func newRequest(method, target, body, userID string, pathValues map[string]string) *http.Request {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, "http://test"+target, rdr)
	if userID != "" {
		req = req.WithContext(middleware.SetUserID(req.Context(), userID))
	}
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	return req
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) *helpers.APIError {
	t.Helper()
	var envelope struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	if data != nil && envelope.Error == nil {
		require.NoError(t, json.Unmarshal(envelope.Data, data))
	}
	return envelope.Error
}

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	event  *domain.Event
	events []*domain.Event
	err    error

	lastCaller   string
	lastEventID  string
	lastFields   domain.EventFields
	lastStart    time.Time
	lastEnd      time.Time
	lastPriority string
	lastTag      string
}

func (f *fakeEventService) CreateEvent(ctx context.Context, fields domain.EventFields, ownerID string) (*domain.Event, error) {
	f.lastFields, f.lastCaller = fields, ownerID
	return f.event, f.err
}

func (f *fakeEventService) GetEvent(ctx context.Context, eventID, callerID string) (*domain.Event, error) {
	f.lastEventID, f.lastCaller = eventID, callerID
	return f.event, f.err
}

func (f *fakeEventService) ListEvents(ctx context.Context, callerID string) ([]*domain.Event, error) {
	f.lastCaller = callerID
	return f.events, f.err
}

func (f *fakeEventService) ListEventsInRange(ctx context.Context, callerID string, start, end time.Time) ([]*domain.Event, error) {
	f.lastCaller, f.lastStart, f.lastEnd = callerID, start, end
	return f.events, f.err
}

func (f *fakeEventService) ListEventsByPriority(ctx context.Context, callerID, priority string) ([]*domain.Event, error) {
	f.lastCaller, f.lastPriority = callerID, priority
	return f.events, f.err
}

func (f *fakeEventService) ListEventsByTag(ctx context.Context, callerID, tag string) ([]*domain.Event, error) {
	f.lastCaller, f.lastTag = callerID, tag
	return f.events, f.err
}

func (f *fakeEventService) UpdateEvent(ctx context.Context, eventID string, fields domain.EventFields, callerID string) (*domain.Event, error) {
	f.lastEventID, f.lastFields, f.lastCaller = eventID, fields, callerID
	return f.event, f.err
}

func (f *fakeEventService) DeleteEvent(ctx context.Context, eventID, callerID string) error {
	f.lastEventID, f.lastCaller = eventID, callerID
	return f.err
}

func (f *fakeEventService) JoinEvent(ctx context.Context, eventID, callerID string) (*domain.Event, error) {
	f.lastEventID, f.lastCaller = eventID, callerID
	return f.event, f.err
}

func (f *fakeEventService) LeaveEvent(ctx context.Context, eventID, callerID string) (*domain.Event, error) {
	f.lastEventID, f.lastCaller = eventID, callerID
	return f.event, f.err
}

func (f *fakeEventService) ExportCalendar(ctx context.Context, callerID string, w io.Writer) error {
	f.lastCaller = callerID
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(w, "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")
	return err
}

// fakeInvitationService implements domain.InvitationService for handler tests.
type fakeInvitationService struct {
	invitations []*domain.Invitation
	err         error

	lastEventID      string
	lastUserIDs      []string
	lastInvitationID string
	lastCaller       string
	accepted         bool
	declined         bool
}

func (f *fakeInvitationService) CreateInvitations(ctx context.Context, eventID string, userIDs []string, requesterID string) ([]*domain.Invitation, error) {
	f.lastEventID, f.lastUserIDs, f.lastCaller = eventID, userIDs, requesterID
	return f.invitations, f.err
}

func (f *fakeInvitationService) ListInvitationsForUser(ctx context.Context, callerID string) ([]*domain.Invitation, error) {
	f.lastCaller = callerID
	return f.invitations, f.err
}

func (f *fakeInvitationService) AcceptInvitation(ctx context.Context, invitationID, callerID string) error {
	f.lastInvitationID, f.lastCaller = invitationID, callerID
	f.accepted = f.err == nil
	return f.err
}

func (f *fakeInvitationService) DeclineInvitation(ctx context.Context, invitationID, callerID string) error {
	f.lastInvitationID, f.lastCaller = invitationID, callerID
	f.declined = f.err == nil
	return f.err
}

func (f *fakeInvitationService) DeleteInvitationsForEvent(ctx context.Context, eventID string) error {
	return f.err
}

func (f *fakeInvitationService) DeleteInvitation(ctx context.Context, eventID, userID string) error {
	return f.err
}

// fakeAuthService implements domain.AuthService for handler tests.
type fakeAuthService struct {
	token string
	user  *domain.User
	err   error

	lastName, lastEmail, lastPassword string
	lastCurrent, lastNew              string
	lastTimezone                      string
}

func (f *fakeAuthService) Register(ctx context.Context, name, email, password string) (string, *domain.User, error) {
	f.lastName, f.lastEmail, f.lastPassword = name, email, password
	return f.token, f.user, f.err
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	f.lastEmail, f.lastPassword = email, password
	return f.token, f.user, f.err
}

func (f *fakeAuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return f.user, f.err
}

func (f *fakeAuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	f.lastCurrent, f.lastNew = currentPassword, newPassword
	return f.err
}

func (f *fakeAuthService) UpdateTimezone(ctx context.Context, userID, timezone string) (*domain.User, error) {
	f.lastTimezone = timezone
	return f.user, f.err
}

// fakeUserService implements domain.UserService for handler tests.
type fakeUserService struct {
	users      []*domain.User
	err        error
	lastCaller string
}

func (f *fakeUserService) ListOthers(ctx context.Context, callerID string) ([]*domain.User, error) {
	f.lastCaller = callerID
	return f.users, f.err
}
