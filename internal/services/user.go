package services

import (
	"context"
	"time"

	"eventcalendar/internal/domain"
)

type userService struct {
	userRepo       domain.UserRepository
	contextTimeout time.Duration
}

// NewUserService creates a UserService backed by userRepo.
func NewUserService(userRepo domain.UserRepository, timeout time.Duration) domain.UserService {
	return &userService{userRepo: userRepo, contextTimeout: timeout}
}

// ListOthers returns every registered user except the caller, for picking invitees.
func (s *userService) ListOthers(ctx context.Context, callerID string) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	caller, err := s.userRepo.GetByID(ctx, callerID)
	if err != nil {
		return nil, repoErr("get user", err)
	}
	all, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, repoErr("list users", err)
	}
	out := make([]*domain.User, 0, len(all))
	for _, u := range all {
		if u.ID != caller.ID {
			out = append(out, u)
		}
	}
	return out, nil
}
