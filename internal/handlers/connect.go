package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/anonto42/nano-sns/backend/internal/middleware"
	"github.com/anonto42/nano-sns/backend/internal/models"
	"github.com/anonto42/nano-sns/backend/internal/services"
)

// ConnectHandler handles friend requests
type ConnectHandler struct {
	connections *services.ConnectionService
	sessions    *Sessions
	log         logrus.FieldLogger
}

// NewConnectHandler creates a new ConnectHandler
func NewConnectHandler(connections *services.ConnectionService, sessions *Sessions, log logrus.FieldLogger) *ConnectHandler {
	return &ConnectHandler{connections: connections, sessions: sessions, log: log}
}

// RegisterConnectRoutes registers the connect form target behind m
func (h *ConnectHandler) RegisterConnectRoutes(e *echo.Echo, m ...echo.MiddlewareFunc) {
	e.POST("/connect_user", h.Connect, m...)
}

// Connect sends or accepts a friend request, then returns to the page the form was on.
// Requests that cannot apply, such as a second request to the same user, change nothing.
func (h *ConnectHandler) Connect(c echo.Context) error {
	form := new(models.ConnectForm)
	if err := c.Bind(form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid form")
	}
	if err := c.Validate(form); err != nil {
		return redirect(c, h.sessions, h.sessions.ReturnTo(c))
	}

	user := middleware.CurrentUser(c)
	ctx := c.Request().Context()
	entry := h.log.WithFields(logrus.Fields{
		"from_user_id": user.ID,
		"to_user_id":   form.ToUserID,
		"condition":    form.ConnectCondition,
	})

	switch form.ConnectCondition {
	case "connect":
		_, err := h.connections.RequestConnection(ctx, user.ID, form.ToUserID)
		switch {
		case errors.Is(err, services.ErrSelfConnection),
			errors.Is(err, services.ErrConnectionExists),
			errors.Is(err, services.ErrUserNotFound):
			entry.WithError(err).Debug("Connect request ignored")
		case err != nil:
			return internalError("Failed to send friend request", err)
		}
	case "accept":
		accepted, err := h.connections.AcceptConnection(ctx, user.ID, form.ToUserID)
		if err != nil {
			return internalError("Failed to accept friend request", err)
		}
		if !accepted {
			entry.Debug("No pending request to accept")
		}
	}

	return redirect(c, h.sessions, h.sessions.ReturnTo(c))
}
