package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/student-dashboard/internal/apperror"
	"github.com/sakif/student-dashboard/internal/auth"
	"github.com/sakif/student-dashboard/internal/service"
)

const stateCookie = "oauth_state"

// CookieConfig controls the session cookie.
type CookieConfig struct {
	TTL    time.Duration
	Secure bool // true behind HTTPS
}

// AuthHandler serves password registration and login, the GitHub OAuth flow
// and the session endpoints.
type AuthHandler struct {
	svc           *service.AuthService
	github        *auth.GitHubProvider // nil when GitHub login is not configured
	cookie        CookieConfig
	loginRedirect string
	logger        *slog.Logger
}

func NewAuthHandler(
	svc *service.AuthService,
	github *auth.GitHubProvider,
	cookie CookieConfig,
	loginRedirect string,
	logger *slog.Logger,
) *AuthHandler {
	if loginRedirect == "" {
		loginRedirect = "/"
	}
	return &AuthHandler{
		svc:           svc,
		github:        github,
		cookie:        cookie,
		loginRedirect: loginRedirect,
		logger:        logger,
	}
}

// HandleRegister creates an account and logs it in.
//
// HTTP: POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.svc.Register(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	h.setSession(w, res.Token)
	writeData(w, http.StatusCreated, "User registered successfully", res)
}

// HandleLogin exchanges email or roll number plus password for a session.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.svc.Login(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	h.setSession(w, res.Token)
	writeData(w, http.StatusOK, "Login successful", res)
}

// HandleLogout deletes the session cookie.
//
// HTTP: POST /api/auth/logout
//
// Tokens are stateless, so a copied token stays valid until it expires;
// logout only makes the browser forget it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeData(w, http.StatusOK, "Logged out", nil)
}

// HandleMe returns the authenticated user and their links.
//
// HTTP: GET /api/auth/me (RequireAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Not authorized, no token"))
		return
	}

	res, err := h.svc.Me(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", res)
}

// HandleGitHubLogin redirects the browser to GitHub's consent page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// A random state goes into a 10-minute HttpOnly cookie and into the
// authorization URL. The callback only proceeds when GitHub echoes the
// same value back, which proves the flow started here.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow and redirects to the app.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(stateCookie)
	if err != nil || c.Value == "" || r.URL.Query().Get("state") != c.Value {
		h.logger.Warn("auth callback: state mismatch")
		writeError(w, apperror.ValidationFailed("state", "Invalid OAuth state"))
		return
	}
	// single use
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, h.loginRedirect+"?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, apperror.ValidationFailed("code", "Missing OAuth code"))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		writeError(w, apperror.Unauthorized("GitHub authentication failed"))
		return
	}

	res, err := h.svc.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("auth callback: login failed",
			slog.Int64("githubID", ghUser.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	h.setSession(w, res.Token)
	http.Redirect(w, r, h.loginRedirect, http.StatusSeeOther)
}

// setSession stores the token in an HttpOnly cookie so page scripts cannot
// read it. SameSite=Lax keeps it off cross-site POSTs.
func (h *AuthHandler) setSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.TTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
