// Package handler contains the HTTP handlers. Handlers decode requests,
// call the service layer, and serialize the result — no business rules
// live here.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/mhasan/skillbridge/internal/auth"
	"github.com/mhasan/skillbridge/internal/service"
)

// AuthHandler serves registration, login, Google sign-in, and token refresh.
//
// ROUTES:
//
//	POST /api/auth/register       → HandleRegister
//	POST /api/auth/login          → HandleLogin
//	POST /api/auth/google         → HandleGoogle        (SPA posts the ID token)
//	POST /api/auth/token/refresh  → HandleRefresh
//	GET  /auth/google/login       → HandleGoogleLogin   (browser code flow)
//	GET  /auth/google/callback    → HandleGoogleCallback
type AuthHandler struct {
	auths  *service.AuthService
	google *auth.GoogleProvider
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected.
func NewAuthHandler(auths *service.AuthService, google *auth.GoogleProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auths:  auths,
		google: google,
		logger: logger,
	}
}

// userPayload is the account summary included in every auth response.
type userPayload struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// authResponse is the success payload for login/register/google:
// {"message": ..., "user": {...}, "tokens": {"access": ..., "refresh": ...}}
type authResponse struct {
	Message string          `json:"message"`
	User    userPayload     `json:"user"`
	Tokens  *auth.TokenPair `json:"tokens"`
}

func newAuthResponse(message string, result *service.AuthResult) authResponse {
	return authResponse{
		Message: message,
		User: userPayload{
			ID:        result.Account.ID,
			Username:  result.Account.Username,
			Email:     result.Account.Email,
			FirstName: result.Account.FirstName,
			LastName:  result.Account.LastName,
		},
		Tokens: result.Tokens,
	}
}

// HandleRegister creates a new local account.
//
// HTTP: POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		UserType  string `json:"user_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	result, err := h.auths.Register(r.Context(), service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		UserType:  req.UserType,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newAuthResponse("registration successful", result))
}

// HandleLogin authenticates a username/password pair.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	result, err := h.auths.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newAuthResponse("login successful", result))
}

// HandleGoogle signs a user in with a Google ID token posted by the
// frontend's sign-in widget.
//
// HTTP: POST /api/auth/google
//
// The provider verifies signature, expiry, and — critically — that the
// token's audience is this application's client id before the email is
// trusted. First sign-in creates the account (201), later ones return the
// existing one (200).
func (h *AuthHandler) HandleGoogle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Credential string `json:"credential"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	gUser, err := h.google.VerifyIDToken(r.Context(), req.Credential)
	if err != nil {
		h.logger.Warn("google sign-in rejected", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	result, created, err := h.auths.LoginOrRegisterGoogle(r.Context(), gUser)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, newAuthResponse("Google authentication successful", result))
}

// HandleRefresh exchanges a refresh token for a new access token.
//
// HTTP: POST /api/auth/token/refresh
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	access, err := h.auths.Refresh(req.Refresh)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

// HandleGoogleLogin starts the browser-initiated authorization-code flow.
//
// HTTP: GET /auth/google/login
//
// The random state goes into a short-lived HttpOnly cookie; the callback
// verifies Google echoed the same value (CSRF protection).
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes the code flow: state check, code → verified
// identity, identity → account + tokens.
//
// HTTP: GET /auth/google/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("google callback: state mismatch or missing")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "invalid OAuth state"})
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: "missing OAuth code"})
		return
	}

	gUser, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("google callback: exchange failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	result, created, err := h.auths.LoginOrRegisterGoogle(r.Context(), gUser)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, newAuthResponse("Google authentication successful", result))
}

// HandleHealth is a liveness probe.
//
// HTTP: GET /healthz
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
