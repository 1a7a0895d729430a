package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/advyta/dashboard/internal/apperror"
	"github.com/advyta/dashboard/internal/auth"
	"github.com/advyta/dashboard/internal/model"
	"github.com/advyta/dashboard/internal/service"
)

// AuthHandler serves the account endpoints: login, signup, logout and the
// profile pair. Profile endpoints do their own token check so a bad token
// maps to 400 rather than the 401 RequireAuth would produce.
type AuthHandler struct {
	auth    *service.AuthService
	tokens  *auth.TokenService
	cookies auth.CookieConfig
	logger  *slog.Logger
}

func NewAuthHandler(
	authSvc *service.AuthService,
	tokens *auth.TokenService,
	cookies auth.CookieConfig,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:    authSvc,
		tokens:  tokens,
		cookies: cookies,
		logger:  logger,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials, sets the session cookie and returns the
// token alongside the user record.
//
// HTTP: POST /api/users/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "Username and password are required"))
		return
	}

	result, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	auth.SetSessionCookie(w, result.Token, h.cookies)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"success": true,
		"token":   result.Token,
		"user":    result.User,
	})
}

// HandleSignup registers a new account. No cookie is set; the client logs
// in afterwards.
//
// HTTP: POST /api/users/signup
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "Username, email and password are required"))
		return
	}

	user, err := h.auth.Signup(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User created successfully!",
		"success": true,
		"user":    user,
	})
}

// HandleLogout expires the session cookie. Always succeeds, signed in or
// not.
//
// HTTP: POST /api/users/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, _ *http.Request) {
	auth.ClearSessionCookie(w, h.cookies)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Logout successful",
		"success": true,
	})
}

// HandleGetProfile returns the signed-in user's record, password excluded.
//
// HTTP: GET /api/users/profile
func (h *AuthHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.Identify(r, h.tokens)
	if !ok {
		writeError(w, apperror.ValidationFailed("token", "Invalid or missing token"))
		return
	}

	user, err := h.auth.Profile(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User found",
		"data":    user,
	})
}

// HandleUpdateProfile applies an allow-listed partial edit to the signed-in
// user's profile. Unknown body fields are ignored by decoding into the
// pointer-typed ProfileUpdate.
//
// HTTP: PUT /api/users/profile
func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.Identify(r, h.tokens)
	if !ok {
		writeError(w, apperror.ValidationFailed("token", "Invalid or missing token"))
		return
	}

	var upd model.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, apperror.ValidationFailed("body", "Invalid request body"))
		return
	}

	user, err := h.auth.UpdateProfile(r.Context(), claims.UserID, upd)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"data":    user,
	})
}
