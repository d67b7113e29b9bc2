package controllers

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	h "eventcalendar/internal/delivery/http/helpers"
	"eventcalendar/internal/delivery/http/middleware"
	"eventcalendar/internal/domain"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const minPasswordLen = 8

// RegisterRequest is the request body for POST /api/auth/register
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (s RegisterRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, "name is required")
	}
	email := strings.TrimSpace(strings.ToLower(s.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	if s.Password == "" {
		errs = append(errs, "password is required")
	} else if len(s.Password) < minPasswordLen {
		errs = append(errs, "password must be at least 8 characters")
	}
	return errs
}

// LoginRequest is the request body for POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (l LoginRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(l.Email) == "" {
		errs = append(errs, "email is required")
	}
	if l.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

// ChangePasswordRequest is the request body for PUT /api/auth/password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Validate implements Validator.
func (c ChangePasswordRequest) Validate() []string {
	var errs []string
	if c.CurrentPassword == "" {
		errs = append(errs, "current_password is required")
	}
	if len(c.NewPassword) < minPasswordLen {
		errs = append(errs, "new_password must be at least 8 characters")
	}
	return errs
}

// UpdateTimezoneRequest is the request body for PUT /api/auth/timezone
type UpdateTimezoneRequest struct {
	Timezone string `json:"timezone"`
}

// Validate implements Validator.
func (u UpdateTimezoneRequest) Validate() []string {
	if strings.TrimSpace(u.Timezone) == "" {
		return []string{"timezone is required"}
	}
	return nil
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	User      *domain.User `json:"user"`
}

type AuthController struct {
	Logger  *slog.Logger
	Service domain.AuthService
}

func NewAuthController(logger *slog.Logger, svc domain.AuthService) *AuthController {
	return &AuthController{
		Logger:  logger,
		Service: svc,
	}
}

// Register godoc
// @Summary Register a new user
// @Description Create a user with name, email and password and return a bearer token. Emails are unique, case-insensitively.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Registration data"
// @Success 201 {object} helpers.APIResponse "data contains token, token_type and user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/register [post]
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	token, user, err := c.Service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, AuthResponse{Token: token, TokenType: "Bearer", User: user})
}

// Login godoc
// @Summary Log in
// @Description Authenticate with email and password. Returns a JWT whose subject is the user id.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} helpers.APIResponse "data contains token, token_type and user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/login [post]
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	token, user, err := c.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, AuthResponse{Token: token, TokenType: "Bearer", User: user})
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the user"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /auth/me [get]
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	user, err := c.Service.Me(r.Context(), userID)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, user)
}

// ChangePassword godoc
// @Summary Change password
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ChangePasswordRequest true "Current and new password"
// @Success 204 "password changed"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /auth/password [put]
func (c *AuthController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req ChangePasswordRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateTimezone godoc
// @Summary Update timezone
// @Description Set the caller's IANA timezone, e.g. "Europe/Berlin".
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdateTimezoneRequest true "Timezone"
// @Success 200 {object} helpers.APIResponse "data contains the updated user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /auth/timezone [put]
func (c *AuthController) UpdateTimezone(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req UpdateTimezoneRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	user, err := c.Service.UpdateTimezone(r.Context(), userID, req.Timezone)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, user)
}
