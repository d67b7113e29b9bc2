package domain

import (
	"context"
	"time"
)

// Clock returns the current time. Services take one so timestamps stay testable.
type Clock func() time.Time

// User represents a registered user
// swagger:model User
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	Timezone     string    `json:"timezone"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DefaultTimezone is assigned to users who register without one.
const DefaultTimezone = "UTC"

// NewUser returns a new User with the given fields. ID is typically set by the repository on create.
func NewUser(name, email, passwordHash, salt string, now time.Time) *User {
	return &User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Salt:         salt,
		Timezone:     DefaultTimezone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Ref returns the reference stored on events and invitations.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserRef identifies a user on an event or invitation.
// swagger:model UserRef
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PasswordHasher handles salt generation, hashing, and verification.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, expiry time.Duration) (string, error)
}

// Token verification failures. Both are invalid credentials; the middleware
// reports them with different messages.
var (
	ErrTokenExpired = &Error{Kind: ErrInvalidCredentials, Message: "token has expired"}
	ErrTokenInvalid = &Error{Kind: ErrInvalidCredentials, Message: "invalid token"}
)

// TokenVerifier verifies a token and returns the authenticated user ID, or
// ErrTokenExpired / ErrTokenInvalid.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// UserRepository defines the interface for user storage.
// Lookups return ErrUserNotFound when no row matches.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListByIDs(ctx context.Context, ids []string) ([]*User, error)
	ListAll(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, user *User) error
}

// AuthService registers and authenticates users and manages their account settings.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (token string, user *User, err error)
	Login(ctx context.Context, email, password string) (token string, user *User, err error)
	Me(ctx context.Context, userID string) (*User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	UpdateTimezone(ctx context.Context, userID, timezone string) (*User, error)
}

// UserService exposes the user directory to authenticated callers.
type UserService interface {
	ListOthers(ctx context.Context, callerID string) ([]*User, error)
}
