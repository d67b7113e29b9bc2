package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"eventcalendar/internal/domain"
)

const minPasswordLen = 8

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type authService struct {
	userRepo       domain.UserRepository
	hasher         domain.PasswordHasher
	issuer         domain.TokenIssuer
	tokenExpiry    time.Duration
	logger         *slog.Logger
	now            domain.Clock
	contextTimeout time.Duration
}

// NewAuthService creates an AuthService with the given repository and auth ports.
func NewAuthService(
	userRepo domain.UserRepository,
	hasher domain.PasswordHasher,
	issuer domain.TokenIssuer,
	tokenExpiry time.Duration,
	logger *slog.Logger,
	clock domain.Clock,
	timeout time.Duration,
) domain.AuthService {
	return &authService{
		userRepo:       userRepo,
		hasher:         hasher,
		issuer:         issuer,
		tokenExpiry:    tokenExpiry,
		logger:         logger,
		now:            clockOrNow(clock),
		contextTimeout: timeout,
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func checkPassword(password string) error {
	if len(password) < minPasswordLen {
		return domain.NewError(domain.ErrInvalidInput, fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	return nil
}

func (s *authService) hash(password string) (hash, salt string, err error) {
	salt, err = s.hasher.GenerateSalt()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate salt: %w", err)
	}
	hash, err = s.hasher.Hash(salt, password)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, salt, nil
}

func (s *authService) issue(user *domain.User) (string, error) {
	token, err := s.issuer.Issue(user.ID, user.Email, s.tokenExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

func (s *authService) Register(ctx context.Context, name, email, password string) (string, *domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return "", nil, domain.NewError(domain.ErrInvalidInput, "name is required")
	}
	if !emailRegexp.MatchString(email) {
		return "", nil, domain.NewError(domain.ErrInvalidInput, "invalid email format")
	}
	if err := checkPassword(password); err != nil {
		return "", nil, err
	}
	hash, salt, err := s.hash(password)
	if err != nil {
		return "", nil, err
	}

	user := domain.NewUser(name, email, hash, salt, s.now())
	if err := s.userRepo.Create(ctx, user); err != nil {
		return "", nil, repoErr("failed to create user", err)
	}
	token, err := s.issue(user)
	if err != nil {
		return "", nil, err
	}
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return token, user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	invalid := domain.NewError(domain.ErrInvalidCredentials, "invalid email or password")
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil, invalid
	}
	if err != nil {
		return "", nil, repoErr("get user", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		return "", nil, invalid
	}
	token, err := s.issue(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *authService) Me(ctx context.Context, userID string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, repoErr("get user", err)
	}
	return user, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return repoErr("get user", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, currentPassword); err != nil {
		return domain.NewError(domain.ErrInvalidCredentials, "current password is incorrect")
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	hash, salt, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash, user.Salt = hash, salt
	user.UpdatedAt = s.now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return repoErr("update user", err)
	}
	s.logger.InfoContext(ctx, "password changed", "user_id", user.ID)
	return nil
}

func (s *authService) UpdateTimezone(ctx context.Context, userID, timezone string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	timezone = strings.TrimSpace(timezone)
	if timezone == "" {
		return nil, domain.NewError(domain.ErrInvalidInput, "timezone is required")
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, domain.NewError(domain.ErrInvalidInput, fmt.Sprintf("unknown timezone %q", timezone))
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, repoErr("get user", err)
	}
	user.Timezone = timezone
	user.UpdatedAt = s.now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, repoErr("update user", err)
	}
	return user, nil
}
