package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"eventcalendar/internal/domain"
)

var (
	testNow    = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func testClock() time.Time { return testNow }

// fakeUserRepo is an in-memory UserRepository for tests.
type fakeUserRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.User
	nextID int
	err    error // if set, every call returns it
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*domain.User), nextID: 1}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrDuplicateEmail
		}
	}
	u.ID = fmt.Sprintf("00000000-0000-4000-8000-%012x", 0xabc000+f.nextID)
	f.nextID++
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.byID[strings.ToLower(id)]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) ListByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := f.byID[strings.ToLower(id)]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) ListAll(ctx context.Context) ([]*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*domain.User, 0, len(f.byID))
	for _, u := range f.byID {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byID[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) ref(id string) domain.UserRef {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		return u.Ref()
	}
	return domain.UserRef{ID: id}
}

func cloneEvent(e *domain.Event) *domain.Event {
	cp := *e
	if e.Tags != nil {
		cp.Tags = append([]string(nil), e.Tags...)
	}
	if e.Members != nil {
		cp.Members = append([]domain.UserRef(nil), e.Members...)
	}
	return &cp
}

// fakeEventRepo is an in-memory EventRepository for tests. It stores copies,
// so mutations by the caller are only visible after Create or Update.
type fakeEventRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.Event
	users  *fakeUserRepo
	nextID int

	combinedMisses bool  // ListByOwnerOrMember returns nothing
	createErr      error // if set, Create returns this error
}

func newFakeEventRepo(users *fakeUserRepo) *fakeEventRepo {
	return &fakeEventRepo{byID: make(map[string]*domain.Event), users: users, nextID: 1}
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if e.Members == nil {
		return domain.ErrMembersUnset
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	f.byID[e.ID] = cloneEvent(e)
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.byID[id]; ok {
		return cloneEvent(e), nil
	}
	return nil, domain.ErrEventNotFound
}

func (f *fakeEventRepo) Update(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[e.ID]; !ok {
		return domain.ErrEventNotFound
	}
	f.byID[e.ID] = cloneEvent(e)
	return nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return domain.ErrEventNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeEventRepo) list(keep func(*domain.Event) bool) []*domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Event
	for _, e := range f.byID {
		if keep(e) {
			out = append(out, cloneEvent(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (f *fakeEventRepo) ListByOwnerOrMember(ctx context.Context, userID string) ([]*domain.Event, error) {
	if f.combinedMisses {
		return nil, nil
	}
	return f.list(func(e *domain.Event) bool { return e.CanView(userID) }), nil
}

func (f *fakeEventRepo) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	return f.list(func(e *domain.Event) bool { return e.IsOwner(ownerID) }), nil
}

func (f *fakeEventRepo) ListByMemberID(ctx context.Context, userID string) ([]*domain.Event, error) {
	return f.list(func(e *domain.Event) bool { return e.HasMember(userID) }), nil
}

func (f *fakeEventRepo) AddMember(ctx context.Context, eventID, userID string, updatedAt time.Time) (bool, error) {
	ref := f.users.ref(userID)
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[eventID]
	if !ok {
		return false, domain.ErrEventNotFound
	}
	if e.HasMember(userID) {
		return false, nil
	}
	e.Members = append(e.Members, ref)
	e.UpdatedAt = updatedAt
	return true, nil
}

func (f *fakeEventRepo) RemoveMember(ctx context.Context, eventID, userID string, updatedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[eventID]
	if !ok {
		return false, domain.ErrEventNotFound
	}
	removed := false
	members := e.Members[:0]
	for _, m := range e.Members {
		if m.ID == userID {
			removed = true
			continue
		}
		members = append(members, m)
	}
	e.Members = members
	e.UpdatedAt = updatedAt
	return removed, nil
}

// fakeInvitationRepo is an in-memory InvitationRepository for tests.
type fakeInvitationRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.Invitation
	order  []string
	nextID int
	getErr error // if set, GetByEventAndUser returns this error

	createErr error // if set, Create returns this error once failAfter creates have succeeded
	failAfter int
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{byID: make(map[string]*domain.Invitation), nextID: 1}
}

func (f *fakeInvitationRepo) find(eventID, userID string) *domain.Invitation {
	for _, inv := range f.byID {
		if inv.Event.ID == eventID && inv.InvitedUser.ID == userID {
			return inv
		}
	}
	return nil
}

func (f *fakeInvitationRepo) Create(ctx context.Context, inv *domain.Invitation) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		if f.failAfter == 0 {
			return false, f.createErr
		}
		f.failAfter--
	}
	if f.find(inv.Event.ID, inv.InvitedUser.ID) != nil {
		return false, nil
	}
	inv.ID = fmt.Sprintf("inv-%d", f.nextID)
	f.nextID++
	cp := *inv
	f.byID[inv.ID] = &cp
	f.order = append(f.order, inv.ID)
	return true, nil
}

func (f *fakeInvitationRepo) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inv, ok := f.byID[id]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, domain.ErrInvitationNotFound
}

func (f *fakeInvitationRepo) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if inv := f.find(eventID, userID); inv != nil {
		cp := *inv
		return &cp, nil
	}
	return nil, domain.ErrInvitationNotFound
}

func (f *fakeInvitationRepo) list(keep func(*domain.Invitation) bool) []*domain.Invitation {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Invitation, 0)
	for i := len(f.order) - 1; i >= 0; i-- {
		inv, ok := f.byID[f.order[i]]
		if ok && keep(inv) {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out
}

func (f *fakeInvitationRepo) ListByInvitedUser(ctx context.Context, userID string) ([]*domain.Invitation, error) {
	return f.list(func(inv *domain.Invitation) bool { return inv.InvitedUser.ID == userID }), nil
}

func (f *fakeInvitationRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Invitation, error) {
	return f.list(func(inv *domain.Invitation) bool { return inv.Event.ID == eventID }), nil
}

func (f *fakeInvitationRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return domain.ErrInvitationNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeInvitationRepo) DeleteByEventID(ctx context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, inv := range f.byID {
		if inv.Event.ID == eventID {
			delete(f.byID, id)
		}
	}
	return nil
}

func (f *fakeInvitationRepo) DeleteByEventAndUser(ctx context.Context, eventID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inv := f.find(eventID, userID); inv != nil {
		delete(f.byID, inv.ID)
	}
	return nil
}

func (f *fakeInvitationRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

// fakeEmailService records invitation emails.
type fakeEmailService struct {
	mu   sync.Mutex
	sent []*domain.InvitationEmailData
	err  error
}

func (f *fakeEmailService) SendInvitation(ctx context.Context, data *domain.InvitationEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, data)
	return nil
}

// fakeCalendar records the events it was asked to encode.
type fakeCalendar struct {
	events []*domain.Event
}

func (f *fakeCalendar) Encode(w io.Writer, events []*domain.Event) error {
	f.events = events
	_, err := io.WriteString(w, "BEGIN:VCALENDAR\r\n")
	return err
}

// fakePasswordHasher implements domain.PasswordHasher for tests.
type fakePasswordHasher struct {
	saltErr error
}

func (f *fakePasswordHasher) GenerateSalt() (string, error) {
	if f.saltErr != nil {
		return "", f.saltErr
	}
	return "salt", nil
}

func (f *fakePasswordHasher) Hash(salt, password string) (string, error) {
	return "hash:" + salt + ":" + password, nil
}

func (f *fakePasswordHasher) Compare(hash, salt, password string) error {
	if hash != "hash:"+salt+":"+password {
		return errors.New("mismatch")
	}
	return nil
}

// fakeTokenIssuer implements domain.TokenIssuer for tests.
type fakeTokenIssuer struct {
	lastUserID string
	lastExpiry time.Duration
	err        error
}

func (f *fakeTokenIssuer) Issue(userID, email string, expiry time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.lastUserID, f.lastExpiry = userID, expiry
	return "token-" + userID, nil
}

// harness wires the event and invitation services to shared in-memory stores.
type harness struct {
	users       *fakeUserRepo
	events      *fakeEventRepo
	invitations *fakeInvitationRepo
	emails      *fakeEmailService
	calendar    *fakeCalendar
	eventSvc    domain.EventService
	invSvc      domain.InvitationService
}

func newHarness() *harness {
	h := &harness{
		users:       newFakeUserRepo(),
		invitations: newFakeInvitationRepo(),
		emails:      &fakeEmailService{},
		calendar:    &fakeCalendar{},
	}
	h.events = newFakeEventRepo(h.users)
	h.invSvc = NewInvitationService(h.invitations, h.events, h.users, h.emails, "https://cal.example.com/", testLogger, testClock, time.Second)
	h.eventSvc = NewEventService(h.events, h.users, h.invSvc, h.calendar, testLogger, testClock, time.Second)
	return h
}

func (h *harness) addUser(name string) *domain.User {
	u := domain.NewUser(name, strings.ToLower(name)+"@example.com", "", "", testNow)
	if err := h.users.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

func day(d int) time.Time { return time.Date(2025, 1, d, 10, 0, 0, 0, time.UTC) }

func fields(title string, start, end time.Time) domain.EventFields {
	return domain.EventFields{Title: title, Start: start, End: end}
}

func memberIDs(e *domain.Event) []string {
	ids := make([]string, len(e.Members))
	for i, m := range e.Members {
		ids[i] = m.ID
	}
	return ids
}
