package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/aaditya248659/Code-Snippet-Library/internal/auth"
	"github.com/aaditya248659/Code-Snippet-Library/internal/service"
)

// AuthHandler serves registration, login, session and OAuth endpoints.
// Browser sessions ride in an HttpOnly cookie; API clients may instead send
// the same token as a Bearer header.
type AuthHandler struct {
	auth      *service.AuthService
	github    *auth.GitHubProvider // nil when OAuth is not configured
	clientURL string
	logger    *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github may be nil, in which case
// the OAuth endpoints answer 503.
func NewAuthHandler(authSvc *service.AuthService, github *auth.GitHubProvider, clientURL string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:      authSvc,
		github:    github,
		clientURL: clientURL,
		logger:    logger,
	}
}

const (
	tokenCookie = "token"
	stateCookie = "oauth_state"
)

// setSessionCookie installs the JWT as an HttpOnly cookie. SameSite=Lax
// blocks cross-site POSTs from carrying the session while still allowing
// the OAuth redirect to land signed in.
func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.TokenLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// HandleRegister creates a local account and signs the caller in.
// POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	setSessionCookie(w, res.Token)
	writeOK(w, http.StatusCreated, envelope{"user": res.User, "token": res.Token})
}

// HandleLogin authenticates with a username or email plus password.
// POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Username   string `json:"username"`
		Email      string `json:"email"`
		Password   string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	// Older clients send username or email under their own keys.
	identifier := req.Identifier
	if identifier == "" {
		identifier = req.Username
	}
	if identifier == "" {
		identifier = req.Email
	}

	res, err := h.auth.Login(r.Context(), identifier, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	setSessionCookie(w, res.Token)
	writeOK(w, http.StatusOK, envelope{"user": res.User, "token": res.Token})
}

// HandleLogout clears the session cookie. The JWT itself stays valid until
// it expires; logout is a client-side affair.
// POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w)
	writeOK(w, http.StatusOK, envelope{"message": "logged out"})
}

// HandleMe returns the authenticated user's own record.
// GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"user": user})
}

// HandleForgotPassword mails a reset link. The response is the same whether
// or not the email belongs to an account.
// POST /api/auth/forgot-password
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{
		"message": "if that email belongs to an account, a reset link is on its way",
	})
}

// HandleResetPassword consumes a reset token from the URL and sets a new
// password.
// POST /api/auth/reset-password/{token}
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), r.PathValue("token"), req.Password); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeOK(w, http.StatusOK, envelope{"message": "password updated, you can sign in now"})
}

// HandleGitHubLogin starts the OAuth flow: generate a random state, pin it
// in a short-lived cookie and bounce to GitHub.
// GET /auth/github/login
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error:   "service_unavailable",
			Message: "GitHub login is not configured",
		})
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback finishes the OAuth flow. The state cookie must match
// the state query parameter, otherwise the code is discarded. On success the
// browser lands back on the frontend with a session cookie set.
// GET /auth/github/callback
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		http.Redirect(w, r, h.clientURL+"/?auth=unavailable", http.StatusTemporaryRedirect)
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		h.logger.Warn("OAuth state mismatch", slog.String("remote", r.RemoteAddr))
		http.Redirect(w, r, h.clientURL+"/?auth=failed", http.StatusTemporaryRedirect)
		return
	}

	// The state is single-use.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if r.URL.Query().Get("error") != "" {
		// User hit "cancel" on GitHub's consent screen.
		http.Redirect(w, r, h.clientURL+"/?auth=denied", http.StatusTemporaryRedirect)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.logger.Error("OAuth exchange failed", slog.String("error", err.Error()))
		http.Redirect(w, r, h.clientURL+"/?auth=failed", http.StatusTemporaryRedirect)
		return
	}

	res, err := h.auth.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("OAuth login failed", slog.String("error", err.Error()))
		http.Redirect(w, r, h.clientURL+"/?auth=failed", http.StatusTemporaryRedirect)
		return
	}

	setSessionCookie(w, res.Token)
	http.Redirect(w, r, h.clientURL+"/", http.StatusTemporaryRedirect)
}
