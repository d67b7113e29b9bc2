package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"eventcalendar/internal/delivery/http/helpers"
	"eventcalendar/internal/delivery/http/middleware"
	"eventcalendar/internal/domain"

	"github.com/google/uuid"
)

// CreateInvitationsRequest is the request body for POST /api/events/{eventID}/invitations.
type CreateInvitationsRequest struct {
	UserIDs []string `json:"user_ids"`
}

// Validate implements Validator.
func (c CreateInvitationsRequest) Validate() []string {
	if len(c.UserIDs) == 0 {
		return []string{"user_ids is required"}
	}
	for _, id := range c.UserIDs {
		if _, err := uuid.Parse(id); err != nil {
			return []string{"user_ids must contain user ids"}
		}
	}
	return nil
}

// InvitationListSuccessResponse is the success envelope for invitation lists.
type InvitationListSuccessResponse struct {
	Data  []*domain.Invitation `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

type InvitationController struct {
	Logger  *slog.Logger
	Service domain.InvitationService
}

func NewInvitationController(logger *slog.Logger, svc domain.InvitationService) *InvitationController {
	return &InvitationController{Logger: logger, Service: svc}
}

// CreateInvitations godoc
// @Summary Invite users to an event
// @Description Owner only. Members, the owner and already-invited users are skipped; the response lists the invitations actually created.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body CreateInvitationsRequest true "Users to invite"
// @Success 201 {object} controllers.InvitationListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: access_denied"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/invitations [post]
func (c *InvitationController) CreateInvitations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	eventID, ok := helpers.PathID(w, r, "eventID")
	if !ok {
		return
	}
	var req CreateInvitationsRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	invs, err := c.Service.CreateInvitations(r.Context(), eventID, helpers.CanonicalIDs(req.UserIDs), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, invs)
}

// ListInvitations godoc
// @Summary List the caller's pending invitations
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.InvitationListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /invitations [get]
func (c *InvitationController) ListInvitations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	invs, err := c.Service.ListInvitationsForUser(r.Context(), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if invs == nil {
		invs = []*domain.Invitation{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, invs)
}

// AcceptInvitation godoc
// @Summary Accept an invitation
// @Description Adds the caller to the event's members and removes the invitation.
// @Tags invitations
// @Security BearerAuth
// @Param invitationID path string true "Invitation ID (UUID)"
// @Success 204 "accepted"
// @Failure 403 {object} helpers.APIResponse "error.code: access_denied"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /invitations/{invitationID}/accept [post]
func (c *InvitationController) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, c.Service.AcceptInvitation)
}

// DeclineInvitation godoc
// @Summary Decline an invitation
// @Tags invitations
// @Security BearerAuth
// @Param invitationID path string true "Invitation ID (UUID)"
// @Success 204 "declined"
// @Failure 403 {object} helpers.APIResponse "error.code: access_denied"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /invitations/{invitationID}/decline [post]
func (c *InvitationController) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, c.Service.DeclineInvitation)
}

func (c *InvitationController) respond(w http.ResponseWriter, r *http.Request, act func(ctx context.Context, invitationID, callerID string) error) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	invitationID, ok := helpers.PathID(w, r, "invitationID")
	if !ok {
		return
	}
	if err := act(r.Context(), invitationID, userID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
