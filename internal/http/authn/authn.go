package authn

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/labstack/echo/v5"

	"github.com/providerhub/providerhub/internal/auth"
	"github.com/providerhub/providerhub/internal/store"
)

const (
	ContextKeyPrincipal = "auth_principal"

	SessionKeyUserID = "auth_user_id"
)

func PrincipalFromContext(c *echo.Context) (auth.Principal, bool) {
	p, ok := c.Get(ContextKeyPrincipal).(auth.Principal)
	return p, ok
}

// LoadPrincipal resolves the staff session cookie to a principal. A stale or
// deactivated user destroys the session instead of erroring.
func LoadPrincipal(c *echo.Context, sessions *scs.SessionManager, s store.UserStore) (auth.Principal, bool, error) {
	userID := sessions.GetInt64(c.Request().Context(), SessionKeyUserID)
	if userID <= 0 {
		return auth.Principal{}, false, nil
	}

	user, err := s.GetUser(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = sessions.Destroy(c.Request().Context())
			return auth.Principal{}, false, nil
		}
		return auth.Principal{}, false, err
	}
	if !user.IsActive {
		_ = sessions.Destroy(c.Request().Context())
		return auth.Principal{}, false, nil
	}

	return auth.Principal{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Method: auth.MethodPassword,
	}, true, nil
}

// RequireSession guards the staff web pages. Unauthenticated GETs bounce to
// the login form with a sanitized next target.
func RequireSession(sessions *scs.SessionManager, s store.UserStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			principal, ok, err := LoadPrincipal(c, sessions, s)
			if err != nil {
				return err
			}
			if !ok {
				return redirectToLogin(c)
			}
			c.Set(ContextKeyPrincipal, principal)
			return next(c)
		}
	}
}

// RequireStaff layers a role check on top of an already loaded principal.
func RequireStaff() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			p, ok := PrincipalFromContext(c)
			if !ok {
				return redirectToLogin(c)
			}
			if !p.IsStaff() {
				return echo.NewHTTPError(http.StatusForbidden, "")
			}
			return next(c)
		}
	}
}

// RequireToken guards the JSON API. It accepts "Authorization: Token <key>"
// and resolves the key against the user table.
func RequireToken(s store.UserStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			key, ok := ParseTokenHeader(c.Request().Header.Get("Authorization"))
			if !ok {
				return unauthorizedJSON(c, "Authentication credentials were not provided.")
			}

			user, err := s.GetUserByToken(c.Request().Context(), key)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return unauthorizedJSON(c, "Invalid token.")
				}
				return err
			}
			if !user.IsActive {
				return unauthorizedJSON(c, "User inactive or deleted.")
			}

			c.Set(ContextKeyPrincipal, auth.Principal{
				UserID: user.ID,
				Email:  user.Email,
				Role:   user.Role,
				Method: auth.MethodToken,
			})
			return next(c)
		}
	}
}

// ParseTokenHeader extracts the key from "Token <key>". The scheme match is
// case-insensitive; anything else is rejected.
func ParseTokenHeader(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	scheme, key, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Token") {
		return "", false
	}
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, " \t") {
		return "", false
	}
	return key, true
}

func unauthorizedJSON(c *echo.Context, detail string) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"detail": detail})
}

func redirectToLogin(c *echo.Context) error {
	location := "/login"
	if c.Request().Method == http.MethodGet {
		if next := SanitizeNext(c.Request().URL.RequestURI()); next != "" {
			location = "/login?next=" + url.QueryEscape(next)
		}
	}
	return c.Redirect(http.StatusSeeOther, location)
}

// SanitizeNext keeps post-login redirects on-site. Anything absolute,
// protocol-relative, or pointing back at the login form is dropped.
func SanitizeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || len(next) > 2048 {
		return ""
	}
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	if strings.ContainsAny(next, "\\\n\r") {
		return ""
	}

	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" || u.Scheme != "" {
		return ""
	}
	// The decoded path gets the same treatment, so %2f and %5c cannot
	// smuggle a protocol-relative target past the prefix checks.
	if strings.HasPrefix(u.Path, "//") || strings.Contains(u.Path, "\\") {
		return ""
	}
	if u.Path == "/" && u.RawQuery == "" {
		return ""
	}
	if u.Path == "/login" || strings.HasPrefix(u.Path, "/login/") {
		return ""
	}
	return next
}
