package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const (
	CSRFCookieName = "nanosns_csrf"
	CSRFFormField  = "csrf_token"
	csrfContextKey = "csrf"
)

// CSRF checks the double-submit token on every state-changing request.
// Firebase login carries its own credential; health, metrics and static files are skipped.
func CSRF(secure bool) echo.MiddlewareFunc {
	return echomw.CSRFWithConfig(echomw.CSRFConfig{
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/health" || p == "/metrics" || p == "/firebase_login" || strings.HasPrefix(p, "/static/")
		},
		TokenLookup:    "form:" + CSRFFormField,
		ContextKey:     csrfContextKey,
		CookieName:     CSRFCookieName,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   secure,
		CookieSameSite: http.SameSiteLaxMode,
		ErrorHandler: func(err error, c echo.Context) error {
			return echo.NewHTTPError(http.StatusForbidden, "Invalid CSRF token").SetInternal(err)
		},
	})
}

// CSRFToken returns the token forms must echo back, or "" when the check was skipped
func CSRFToken(c echo.Context) string {
	token, _ := c.Get(csrfContextKey).(string)
	return token
}
