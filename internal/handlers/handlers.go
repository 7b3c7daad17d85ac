package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/anonto42/nano-sns/backend/internal/middleware"
	"github.com/anonto42/nano-sns/backend/internal/validators"
	"github.com/anonto42/nano-sns/backend/internal/views"
)

// newPage builds the common page data and drains the pending flashes
func newPage(c echo.Context, s *Sessions, title string) views.Page {
	return views.Page{
		Title:       title,
		CurrentUser: middleware.CurrentUser(c),
		CSRFToken:   middleware.CSRFToken(c),
		Flashes:     s.Flashes(c),
		Errors:      validators.FieldErrors{},
	}
}

// render saves the session, then renders the named page
func render(c echo.Context, s *Sessions, status int, name string, page views.Page) error {
	if err := s.Save(c); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save session").SetInternal(err)
	}
	return c.Render(status, name, page)
}

// redirect saves the session, then redirects with 302
func redirect(c echo.Context, s *Sessions, to string) error {
	if err := s.Save(c); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save session").SetInternal(err)
	}
	return c.Redirect(http.StatusFound, to)
}

func internalError(message string, err error) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusInternalServerError, message).SetInternal(err)
}

// isLocalURL accepts only paths on this site, so a ?next= value cannot send the user elsewhere
func isLocalURL(raw string) bool {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

// HTTPErrorHandler sends not-found requests home and renders the error page for server
// errors. Everything else goes to echo's default handler.
func HTTPErrorHandler(e *echo.Echo, log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}

		switch {
		case code == http.StatusNotFound:
			if rerr := c.Redirect(http.StatusFound, "/"); rerr != nil {
				log.WithError(rerr).Error("Failed to redirect")
			}
		case code >= http.StatusInternalServerError:
			log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"method": c.Request().Method,
				"path":   c.Request().URL.Path,
			}).Error("Request failed")

			page := views.Page{Title: "Error", CurrentUser: middleware.CurrentUser(c)}
			if rerr := c.Render(http.StatusInternalServerError, "500.html", page); rerr != nil {
				log.WithError(rerr).Error("Failed to render error page")
			}
		default:
			e.DefaultHTTPErrorHandler(err, c)
		}
	}
}
