package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-sns/backend/internal/repositories"
	"github.com/anonto42/nano-sns/backend/internal/services"
)

// DebugHandler serves maintenance pages listing and deleting raw records.
// Only registered when debug routes are enabled.
type DebugHandler struct {
	accounts *services.AccountService
	store    *repositories.Store
	sessions *Sessions
}

// NewDebugHandler creates a new DebugHandler
func NewDebugHandler(accounts *services.AccountService, store *repositories.Store, sessions *Sessions) *DebugHandler {
	return &DebugHandler{accounts: accounts, store: store, sessions: sessions}
}

// RegisterDebugRoutes registers the maintenance pages
func (h *DebugHandler) RegisterDebugRoutes(e *echo.Echo) {
	e.GET("/users", h.Users)
	e.POST("/users/:id/delete", h.DeleteUser)
	e.GET("/tokens", h.Tokens)
	e.POST("/tokens/:id/delete", h.DeleteToken)
	e.GET("/connects", h.Connects)
	e.POST("/connects/:id/delete", h.DeleteConnect)
}

func idParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid ID")
	}
	return uint(id), nil
}

func (h *DebugHandler) Users(c echo.Context) error {
	users, err := h.accounts.ListUsers(c.Request().Context())
	if err != nil {
		return internalError("Failed to list users", err)
	}
	page := newPage(c, h.sessions, "Users")
	page.Data = users
	return render(c, h.sessions, http.StatusOK, "debug_users.html", page)
}

func (h *DebugHandler) DeleteUser(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.accounts.DeleteUser(c.Request().Context(), id); err != nil && !errors.Is(err, services.ErrUserNotFound) {
		return internalError("Failed to delete user", err)
	}
	return redirect(c, h.sessions, "/users")
}

func (h *DebugHandler) Tokens(c echo.Context) error {
	tokens, err := h.store.Tokens.ListTokens(c.Request().Context())
	if err != nil {
		return internalError("Failed to list tokens", err)
	}
	page := newPage(c, h.sessions, "Tokens")
	page.Data = tokens
	return render(c, h.sessions, http.StatusOK, "debug_tokens.html", page)
}

func (h *DebugHandler) DeleteToken(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.store.Tokens.DeleteTokenByID(c.Request().Context(), id); err != nil {
		return internalError("Failed to delete token", err)
	}
	return redirect(c, h.sessions, "/tokens")
}

func (h *DebugHandler) Connects(c echo.Context) error {
	connects, err := h.store.Connects.ListConnects(c.Request().Context())
	if err != nil {
		return internalError("Failed to list connections", err)
	}
	page := newPage(c, h.sessions, "Connections")
	page.Data = connects
	return render(c, h.sessions, http.StatusOK, "debug_connects.html", page)
}

func (h *DebugHandler) DeleteConnect(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.store.Connects.DeleteConnect(c.Request().Context(), id); err != nil {
		return internalError("Failed to delete connection", err)
	}
	return redirect(c, h.sessions, "/connects")
}
