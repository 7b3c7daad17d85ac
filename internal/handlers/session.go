package handlers

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
)

const (
	sessionName = "nanosns_session"
	returnToKey = "return_to"
)

// Sessions keeps flash messages and the page to come back to after a connect request
// in a signed cookie
type Sessions struct {
	store *sessions.CookieStore
}

// NewSessions creates a new Sessions
func NewSessions(key string, maxAge int, secure bool) *Sessions {
	store := sessions.NewCookieStore([]byte(key))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store}
}

// get returns the request's session. A cookie that fails to decode yields a fresh session.
func (s *Sessions) get(c echo.Context) *sessions.Session {
	session, _ := s.store.Get(c.Request(), sessionName)
	return session
}

// AddFlash queues a message for the next rendered page
func (s *Sessions) AddFlash(c echo.Context, message string) {
	s.get(c).AddFlash(message)
}

// Flashes drains the queued messages
func (s *Sessions) Flashes(c echo.Context) []string {
	var out []string
	for _, f := range s.get(c).Flashes() {
		if msg, ok := f.(string); ok {
			out = append(out, msg)
		}
	}
	return out
}

// SetReturnTo remembers the page a connect request should redirect back to
func (s *Sessions) SetReturnTo(c echo.Context, uri string) {
	s.get(c).Values[returnToKey] = uri
}

// ReturnTo returns the remembered page, or "/"
func (s *Sessions) ReturnTo(c echo.Context) string {
	if uri, ok := s.get(c).Values[returnToKey].(string); ok && isLocalURL(uri) {
		return uri
	}
	return "/"
}

// Save writes the session cookie. It must run before the response body is written.
func (s *Sessions) Save(c echo.Context) error {
	return s.get(c).Save(c.Request(), c.Response())
}
