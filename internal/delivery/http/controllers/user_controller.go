package controllers

import (
	"log/slog"
	"net/http"

	"eventcalendar/internal/delivery/http/helpers"
	"eventcalendar/internal/delivery/http/middleware"
	"eventcalendar/internal/domain"
)

type UserController struct {
	Logger  *slog.Logger
	Service domain.UserService
}

func NewUserController(logger *slog.Logger, svc domain.UserService) *UserController {
	return &UserController{Logger: logger, Service: svc}
}

// ListUsers godoc
// @Summary List other users
// @Description Every registered user except the caller, for choosing invitees.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the users"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users [get]
func (c *UserController) ListUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	users, err := c.Service.ListOthers(r.Context(), userID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, users)
}
