package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"apontamento/backend/internal/config"
	"apontamento/backend/pkg/models"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// EmployeeLookup resolves the employee behind a token's email claim.
type EmployeeLookup interface {
	GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error)
}

// Auth contains configuration and helpers for performing OpenID Connect
// authentication with an Okta tenant.
type Auth struct {
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	apiVerifier  *oidc.IDTokenVerifier
	employees    EmployeeLookup
	logger       Logger
	devMode      bool
	authBypass   bool
	devEmail     string
}

// New creates a new Auth object using values from the application
// configuration. It establishes a connection to the provider and prepares the
// ID token and access token verifiers.
func New(ctx context.Context, cfg *config.Config, employees EmployeeLookup, logger Logger) (*Auth, error) {
	isDev := cfg.IsDev()
	shouldBypass := isDev && cfg.DevModeBypass

	var oauth2Config *oauth2.Config
	var verifier *oidc.IDTokenVerifier
	var apiVerifier *oidc.IDTokenVerifier

	if !shouldBypass {
		if cfg.Auth.OktaDomain == "" || cfg.Auth.ClientID == "" ||
			cfg.Auth.ClientSecret == "" || cfg.Auth.RedirectURL == "" {
			return nil, errors.New("auth configuration is incomplete")
		}

		provider, err := oidc.NewProvider(ctx, cfg.Auth.OktaDomain)
		if err != nil {
			return nil, err
		}

		oauth2Config = &oauth2.Config{
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.Auth.RedirectURL,
			Scopes:       LoginScopes,
		}

		verifier = provider.Verifier(&oidc.Config{ClientID: cfg.Auth.ClientID})

		// Access tokens carry the API audience, not the client ID.
		apiVerifier = provider.Verifier(&oidc.Config{SkipClientIDCheck: true})
	}

	return &Auth{
		oauth2Config: oauth2Config,
		verifier:     verifier,
		apiVerifier:  apiVerifier,
		employees:    employees,
		logger:       logger,
		devMode:      isDev,
		authBypass:   shouldBypass,
		devEmail:     cfg.Auth.DevEmail,
	}, nil
}

// Bypass reports whether authentication is disabled for local development.
func (a *Auth) Bypass() bool {
	return a.authBypass
}

// LoginHandler initiates the OAuth2 authorization code flow by redirecting the
// user to the Okta authorization endpoint. A random state value is stored in a
// cookie to mitigate CSRF attacks.
func (a *Auth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if a.authBypass {
		http.Redirect(w, r, "/docs", http.StatusSeeOther)
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauthstate",
		Value:    state,
		HttpOnly: true,
		Path:     "/",
		Secure:   !a.devMode,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, a.oauth2Config.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// CallbackHandler handles the redirect back from Okta. It verifies the state
// parameter, exchanges the code for tokens, validates the ID token, and sets a
// session cookie containing the raw ID token.
func (a *Auth) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	if a.authBypass {
		http.Redirect(w, r, "/docs", http.StatusSeeOther)
		return
	}

	cookie, err := r.Cookie("oauthstate")
	if err != nil || r.URL.Query().Get("state") != cookie.Value {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}

	token, err := a.oauth2Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		a.logError("token exchange failed", "error", err)
		http.Error(w, "token exchange failed", http.StatusInternalServerError)
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		http.Error(w, "no id_token in token response", http.StatusInternalServerError)
		return
	}

	idToken, err := a.verifier.Verify(r.Context(), rawIDToken)
	if err != nil {
		http.Error(w, "failed to verify id token", http.StatusUnauthorized)
		return
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err == nil && a.logger != nil {
		a.logger.Info("user logged in", "email", claims.Email)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "id_token",
		Value:    rawIDToken,
		HttpOnly: true,
		Path:     "/",
		Secure:   !a.devMode,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/docs", http.StatusSeeOther)
}

// RequireAuth is middleware that authenticates the caller and stores a Session
// in the request context. A bearer token is checked first, then the id_token
// cookie set by the login flow. Missing or invalid credentials yield 401 so
// the client can drop its token; a valid token for an unknown employee yields
// 403.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.authBypass {
			session, err := a.devSession(r.Context())
			if err != nil {
				a.logError("dev session lookup failed", "error", err)
				writeProblem(w, r, http.StatusInternalServerError, "failed to resolve employee")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
			return
		}

		var (
			rawToken string
			token    *oidc.IDToken
			err      error
		)
		if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			rawToken = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			token, err = a.apiVerifier.Verify(r.Context(), rawToken)
		} else if cookie, cookieErr := r.Cookie("id_token"); cookieErr == nil {
			rawToken = cookie.Value
			token, err = a.verifier.Verify(r.Context(), rawToken)
		} else {
			writeProblem(w, r, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if err != nil {
			if a.logger != nil {
				a.logger.Debug("token rejected", "error", err)
			}
			writeProblem(w, r, http.StatusUnauthorized, "invalid token")
			return
		}

		var claims struct {
			Email string `json:"email"`
		}
		if err := token.Claims(&claims); err != nil || claims.Email == "" {
			writeProblem(w, r, http.StatusUnauthorized, "token carries no email claim")
			return
		}

		employee, err := a.employees.GetEmployeeByEmail(r.Context(), claims.Email)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				writeProblem(w, r, http.StatusForbidden, "no employee registered for "+claims.Email)
				return
			}
			a.logError("employee lookup failed", "email", claims.Email, "error", err)
			writeProblem(w, r, http.StatusInternalServerError, "failed to resolve employee")
			return
		}

		session := &Session{
			Token:      rawToken,
			Role:       employee.Role,
			EmployeeID: employee.ID,
			Email:      claims.Email,
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// devSession acts as the configured dev employee, or as an anonymous manager
// when no employee carries that email yet.
func (a *Auth) devSession(ctx context.Context) (*Session, error) {
	session := &Session{Token: "dev", Role: models.RoleGestor, Email: a.devEmail}
	if a.employees == nil || a.devEmail == "" {
		return session, nil
	}
	employee, err := a.employees.GetEmployeeByEmail(ctx, a.devEmail)
	switch {
	case err == nil:
		session.EmployeeID = employee.ID
		session.Role = employee.Role
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}
	return session, nil
}

// RequireGestor rejects sessions without the manager role with 403. It must
// run after RequireAuth.
func RequireGestor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := SessionFrom(r.Context())
		if !ok {
			writeProblem(w, r, http.StatusUnauthorized, "not authenticated")
			return
		}
		if !session.IsGestor() {
			writeProblem(w, r, http.StatusForbidden, "role "+string(session.Role)+" may not perform this action")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LogoutHandler clears the session cookie and redirects to the docs page.
func (a *Auth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   "id_token",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/docs", http.StatusSeeOther)
}

func (a *Auth) logError(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Error(msg, args...)
	}
}

func writeProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="apontamento"`)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.ProblemDetails{
		Type:     "about:blank",
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	})
}
