package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-sns/backend/internal/middleware"
	"github.com/anonto42/nano-sns/backend/internal/models"
	"github.com/anonto42/nano-sns/backend/internal/services"
)

type homeData struct {
	Friends  []models.User
	Incoming []models.User
	Outgoing []models.User
}

// HomeHandler serves the landing page
type HomeHandler struct {
	connections *services.ConnectionService
	sessions    *Sessions
}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler(connections *services.ConnectionService, sessions *Sessions) *HomeHandler {
	return &HomeHandler{connections: connections, sessions: sessions}
}

// RegisterHomeRoutes registers the landing page
func (h *HomeHandler) RegisterHomeRoutes(e *echo.Echo) {
	e.GET("/", h.Home)
}

// Home lists the viewer's friends and pending requests in both directions
func (h *HomeHandler) Home(c echo.Context) error {
	page := newPage(c, h.sessions, "Home")

	user := middleware.CurrentUser(c)
	if user == nil {
		return render(c, h.sessions, http.StatusOK, "home.html", page)
	}

	ctx := c.Request().Context()
	friends, err := h.connections.ListFriends(ctx, user.ID)
	if err != nil {
		return internalError("Failed to list friends", err)
	}
	incoming, err := h.connections.ListIncomingRequests(ctx, user.ID)
	if err != nil {
		return internalError("Failed to list friend requests", err)
	}
	outgoing, err := h.connections.ListOutgoingRequests(ctx, user.ID)
	if err != nil {
		return internalError("Failed to list friend requests", err)
	}

	page.Data = homeData{Friends: friends, Incoming: incoming, Outgoing: outgoing}
	h.sessions.SetReturnTo(c, "/")
	return render(c, h.sessions, http.StatusOK, "home.html", page)
}
