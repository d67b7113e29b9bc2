package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"eventcalendar/internal/delivery/http/helpers"
	"eventcalendar/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthController_Register(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		svcErr       error
		wantStatus   int
		wantBodyCode string
	}{
		{"success", `{"name":"Ann","email":"ann@example.com","password":"password1"}`, nil, http.StatusCreated, ""},
		{"missing name", `{"email":"ann@example.com","password":"password1"}`, nil, http.StatusBadRequest, helpers.ErrCodeBadRequest},
		{"bad email", `{"name":"Ann","email":"ann","password":"password1"}`, nil, http.StatusBadRequest, helpers.ErrCodeBadRequest},
		{"short password", `{"name":"Ann","email":"ann@example.com","password":"pw"}`, nil, http.StatusBadRequest, helpers.ErrCodeBadRequest},
		{"unknown field", `{"name":"Ann","email":"ann@example.com","password":"password1","role":"admin"}`, nil, http.StatusBadRequest, helpers.ErrCodeBadRequest},
		{"duplicate email", `{"name":"Ann","email":"ann@example.com","password":"password1"}`, domain.ErrDuplicateEmail, http.StatusConflict, helpers.ErrCodeConflict},
		{"service error", `{"name":"Ann","email":"ann@example.com","password":"password1"}`, assert.AnError, http.StatusInternalServerError, helpers.ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAuthService{token: "tok", user: &domain.User{ID: testUserID, Name: "Ann", PasswordHash: "secret"}, err: tt.svcErr}
			rr := httptest.NewRecorder()

			NewAuthController(testLogger, fake).Register(rr, newRequest(http.MethodPost, "/api/auth/register", tt.body, "", nil))

			require.Equal(t, tt.wantStatus, rr.Code)
			var got AuthResponse
			apiErr := decodeEnvelope(t, rr, &got)
			if tt.wantBodyCode != "" {
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantBodyCode, apiErr.Code)
				return
			}
			assert.Equal(t, "tok", got.Token)
			assert.Equal(t, "Bearer", got.TokenType)
			assert.Equal(t, testUserID, got.User.ID)
			assert.NotContains(t, rr.Body.String(), "secret", "password hash is never serialized")
			assert.Equal(t, "ann@example.com", fake.lastEmail)
		})
	}
}

func TestAuthController_Login(t *testing.T) {
	fake := &fakeAuthService{token: "tok", user: &domain.User{ID: testUserID}}
	rr := httptest.NewRecorder()
	NewAuthController(testLogger, fake).Login(rr, newRequest(http.MethodPost, "/api/auth/login", `{"email":"ann@example.com","password":"password1"}`, "", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	fake.err = domain.NewError(domain.ErrInvalidCredentials, "invalid email or password")
	rr = httptest.NewRecorder()
	NewAuthController(testLogger, fake).Login(rr, newRequest(http.MethodPost, "/api/auth/login", `{"email":"ann@example.com","password":"wrong"}`, "", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	apiErr := decodeEnvelope(t, rr, nil)
	require.NotNil(t, apiErr)
	assert.Equal(t, helpers.ErrCodeUnauthorized, apiErr.Code)

	rr = httptest.NewRecorder()
	NewAuthController(testLogger, fake).Login(rr, newRequest(http.MethodPost, "/api/auth/login", `{"email":""}`, "", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuthController_Me(t *testing.T) {
	fake := &fakeAuthService{user: &domain.User{ID: testUserID, Name: "Ann"}}
	rr := httptest.NewRecorder()
	NewAuthController(testLogger, fake).Me(rr, newRequest(http.MethodGet, "/api/auth/me", "", testUserID, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var got domain.User
	require.Nil(t, decodeEnvelope(t, rr, &got))
	assert.Equal(t, "Ann", got.Name)

	rr = httptest.NewRecorder()
	NewAuthController(testLogger, fake).Me(rr, newRequest(http.MethodGet, "/api/auth/me", "", "", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	fake.err = domain.ErrUserNotFound
	rr = httptest.NewRecorder()
	NewAuthController(testLogger, fake).Me(rr, newRequest(http.MethodGet, "/api/auth/me", "", testUserID, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAuthController_ChangePassword(t *testing.T) {
	fake := &fakeAuthService{}
	rr := httptest.NewRecorder()
	NewAuthController(testLogger, fake).ChangePassword(rr, newRequest(http.MethodPut, "/api/auth/password", `{"current_password":"password1","new_password":"password2"}`, testUserID, nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "password1", fake.lastCurrent)
	assert.Equal(t, "password2", fake.lastNew)

	rr = httptest.NewRecorder()
	NewAuthController(testLogger, fake).ChangePassword(rr, newRequest(http.MethodPut, "/api/auth/password", `{"current_password":"password1","new_password":"short"}`, testUserID, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	fake.err = domain.NewError(domain.ErrInvalidCredentials, "current password is incorrect")
	rr = httptest.NewRecorder()
	NewAuthController(testLogger, fake).ChangePassword(rr, newRequest(http.MethodPut, "/api/auth/password", `{"current_password":"nope","new_password":"password2"}`, testUserID, nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthController_UpdateTimezone(t *testing.T) {
	fake := &fakeAuthService{user: &domain.User{ID: testUserID, Timezone: "Europe/Berlin"}}
	rr := httptest.NewRecorder()
	NewAuthController(testLogger, fake).UpdateTimezone(rr, newRequest(http.MethodPut, "/api/auth/timezone", `{"timezone":"Europe/Berlin"}`, testUserID, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Europe/Berlin", fake.lastTimezone)

	fake.err = domain.NewError(domain.ErrInvalidInput, `unknown timezone "Mars/Olympus"`)
	rr = httptest.NewRecorder()
	NewAuthController(testLogger, fake).UpdateTimezone(rr, newRequest(http.MethodPut, "/api/auth/timezone", `{"timezone":"Mars/Olympus"}`, testUserID, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	NewAuthController(testLogger, fake).UpdateTimezone(rr, newRequest(http.MethodPut, "/api/auth/timezone", `{"timezone":" "}`, testUserID, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
