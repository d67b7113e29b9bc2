package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"eventcalendar/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_ListOthers(t *testing.T) {
	ctx := context.Background()
	h := newHarness()
	ann, bob, carl := h.addUser("Ann"), h.addUser("Bob"), h.addUser("Carl")
	svc := NewUserService(h.users, time.Second)

	got, err := svc.ListOthers(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ann.ID, got[0].ID)
	assert.Equal(t, carl.ID, got[1].ID)

	_, err = svc.ListOthers(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	h.users.err = errors.New("db down")
	_, err = svc.ListOthers(ctx, bob.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get user")
}
