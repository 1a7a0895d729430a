package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/advyta/dashboard/internal/auth"
	"github.com/advyta/dashboard/internal/repository/sqlite"
	"github.com/advyta/dashboard/internal/service"
)

const testSecret = "test-secret-at-least-16-chars!!"

func newTestAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService(testSecret)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewAuthService(db, tokens, auth.NewPasswordServiceForTest(bcrypt.MinCost), logger)
	return NewAuthHandler(svc, tokens, auth.CookieConfig{}, logger)
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func signup(t *testing.T, h *AuthHandler, username, email, password string) {
	t.Helper()
	rec := postJSON(t, h.HandleSignup, "/api/users/signup",
		map[string]string{"username": username, "email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, "signup failed: %s", rec.Body.String())
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}

// =========================================================================
// SIGNUP
// =========================================================================

func TestHandleSignup_Success(t *testing.T) {
	h := newTestAuthHandler(t)

	rec := postJSON(t, h.HandleSignup, "/api/users/signup",
		map[string]string{"username": "advyta", "email": "a@example.com", "password": "s3cret"})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "User created successfully!", body["message"])
	assert.Equal(t, true, body["success"])

	user := body["user"].(map[string]any)
	assert.Equal(t, "advyta", user["username"])
	assert.NotContains(t, rec.Body.String(), "password", "password hash must never serialize")
}

func TestHandleSignup_DuplicateUsername(t *testing.T) {
	h := newTestAuthHandler(t)
	signup(t, h, "advyta", "a@example.com", "pw")

	rec := postJSON(t, h.HandleSignup, "/api/users/signup",
		map[string]string{"username": "advyta", "email": "b@example.com", "password": "pw"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username already exists", decodeBody(t, rec)["error"])
}

func TestHandleSignup_MissingFields(t *testing.T) {
	h := newTestAuthHandler(t)

	rec := postJSON(t, h.HandleSignup, "/api/users/signup", map[string]string{"username": "advyta"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username, email and password are required", decodeBody(t, rec)["error"])
}

// =========================================================================
// LOGIN / LOGOUT
// =========================================================================

func TestHandleLogin_SetsCookieAndReturnsToken(t *testing.T) {
	h := newTestAuthHandler(t)
	signup(t, h, "advyta", "a@example.com", "s3cret")

	rec := postJSON(t, h.HandleLogin, "/api/users/login",
		map[string]string{"username": "advyta", "password": "s3cret"})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Login successful", body["message"])
	assert.NotEmpty(t, body["token"])

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie, "login must set the session cookie")
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, body["token"], cookie.Value)

	tokens, err := auth.NewTokenService(testSecret)
	require.NoError(t, err)
	claims, ok := tokens.Verify(cookie.Value)
	require.True(t, ok)
	assert.Equal(t, "advyta", claims.Username)
}

func TestHandleLogin_UnknownUser(t *testing.T) {
	h := newTestAuthHandler(t)

	rec := postJSON(t, h.HandleLogin, "/api/users/login",
		map[string]string{"username": "nobody", "password": "pw"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User does not exist", decodeBody(t, rec)["error"])
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	h := newTestAuthHandler(t)
	signup(t, h, "advyta", "a@example.com", "s3cret")

	rec := postJSON(t, h.HandleLogin, "/api/users/login",
		map[string]string{"username": "advyta", "password": "wrong"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid password", decodeBody(t, rec)["error"])
}

func TestHandleLogout_ExpiresCookie(t *testing.T) {
	h := newTestAuthHandler(t)

	rec := postJSON(t, h.HandleLogout, "/api/users/logout", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logout successful", decodeBody(t, rec)["message"])

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge, "logout cookie must expire immediately")
}

// =========================================================================
// PROFILE
// =========================================================================

func loginCookie(t *testing.T, h *AuthHandler, username, password string) *http.Cookie {
	t.Helper()
	rec := postJSON(t, h.HandleLogin, "/api/users/login",
		map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	return cookie
}

func TestHandleGetProfile_ReturnsUser(t *testing.T) {
	h := newTestAuthHandler(t)
	signup(t, h, "advyta", "a@example.com", "s3cret")
	cookie := loginCookie(t, h, "advyta", "s3cret")

	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.HandleGetProfile(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "User found", body["message"])
	assert.Equal(t, "advyta", body["data"].(map[string]any)["username"])
}

func TestHandleGetProfile_MissingTokenIs400(t *testing.T) {
	h := newTestAuthHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	rec := httptest.NewRecorder()
	h.HandleGetProfile(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or missing token", decodeBody(t, rec)["error"])
}

func TestHandleGetProfile_GarbageTokenIs400(t *testing.T) {
	h := newTestAuthHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "not-a-jwt"})
	rec := httptest.NewRecorder()
	h.HandleGetProfile(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleUpdateProfile_PartialEdit(t *testing.T) {
	h := newTestAuthHandler(t)
	signup(t, h, "advyta", "a@example.com", "s3cret")
	cookie := loginCookie(t, h, "advyta", "s3cret")

	payload := strings.NewReader(`{"location": "Paris", "theme": "dark"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/users/profile", payload)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.HandleUpdateProfile(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Profile updated successfully", body["message"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "Paris", data["location"])
	assert.Equal(t, "dark", data["theme"])
	assert.Equal(t, "a@example.com", data["email"], "unlisted fields stay untouched")
}

func TestHandleUpdateProfile_BlankEmailRejected(t *testing.T) {
	h := newTestAuthHandler(t)
	signup(t, h, "advyta", "a@example.com", "s3cret")
	cookie := loginCookie(t, h, "advyta", "s3cret")

	req := httptest.NewRequest(http.MethodPut, "/api/users/profile",
		strings.NewReader(`{"email": ""}`))
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.HandleUpdateProfile(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email cannot be empty", decodeBody(t, rec)["error"])
}

func TestHandleUpdateProfile_UnknownFieldsIgnored(t *testing.T) {
	h := newTestAuthHandler(t)
	signup(t, h, "advyta", "a@example.com", "s3cret")
	cookie := loginCookie(t, h, "advyta", "s3cret")

	// isAdmin is not on the allow-list and must be silently dropped.
	req := httptest.NewRequest(http.MethodPut, "/api/users/profile",
		strings.NewReader(`{"isAdmin": true, "bio": "hello"}`))
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.HandleUpdateProfile(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "hello", data["bio"])
	assert.Equal(t, false, data["isAdmin"])
}
