package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-sns/backend/internal/middleware"
	"github.com/anonto42/nano-sns/backend/internal/models"
	"github.com/anonto42/nano-sns/backend/internal/services"
	"github.com/anonto42/nano-sns/backend/internal/validators"
	"github.com/anonto42/nano-sns/backend/internal/views"
)

type conversationData struct {
	Peer     *models.User
	Messages []views.MessageView
}

// MessageHandler handles the conversation page and its polling endpoints
type MessageHandler struct {
	messages    *services.MessagingService
	connections *services.ConnectionService
	accounts    *services.AccountService
	renderer    *views.Renderer
	sessions    *Sessions
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(
	messages *services.MessagingService,
	connections *services.ConnectionService,
	accounts *services.AccountService,
	renderer *views.Renderer,
	sessions *Sessions,
) *MessageHandler {
	return &MessageHandler{
		messages:    messages,
		connections: connections,
		accounts:    accounts,
		renderer:    renderer,
		sessions:    sessions,
	}
}

// RegisterMessageRoutes registers messaging routes behind m
func (h *MessageHandler) RegisterMessageRoutes(e *echo.Echo, m ...echo.MiddlewareFunc) {
	e.GET("/message/:id", h.Conversation, m...)
	e.POST("/message/:id", h.Conversation, m...)
	e.GET("/message_ajax", h.Poll, m...)
	e.GET("/load_old_messages", h.LoadOld, m...)
}

// Conversation shows the latest messages with a friend and posts new ones.
// Anyone who is not a friend is sent home.
func (h *MessageHandler) Conversation(c echo.Context) error {
	viewer := middleware.CurrentUser(c)
	peerID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return redirect(c, h.sessions, "/")
	}

	ctx := c.Request().Context()
	friend, err := h.connections.IsFriend(ctx, viewer.ID, uint(peerID))
	if err != nil {
		return internalError("Failed to check friendship", err)
	}
	if !friend {
		return redirect(c, h.sessions, "/")
	}

	peer, err := h.accounts.GetUser(ctx, uint(peerID))
	if err != nil {
		return internalError("Failed to get user", err)
	}

	form := new(models.MessageForm)
	errs := validators.FieldErrors{}
	if c.Request().Method == http.MethodPost {
		if err := c.Bind(form); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid form")
		}
		if err := c.Validate(form); err != nil {
			errs = validators.Fields(err)
		} else {
			_, err := h.messages.SendMessage(ctx, viewer.ID, peer.ID, form.Message)
			if errors.Is(err, services.ErrNotFriends) {
				return redirect(c, h.sessions, "/")
			}
			if err != nil {
				return internalError("Failed to send message", err)
			}
			return redirect(c, h.sessions, c.Request().URL.Path)
		}
	}

	messages, err := h.messages.OpenConversation(ctx, viewer.ID, peer.ID)
	if err != nil {
		return internalError("Failed to list messages", err)
	}

	page := newPage(c, h.sessions, peer.Username)
	page.Form = form
	page.Errors = errs
	page.Data = conversationData{Peer: peer, Messages: views.NewMessageViews(viewer, peer, messages)}
	return render(c, h.sessions, http.StatusOK, "message.html", page)
}

// Poll returns the peer's new messages as HTML and JSON, and the ids of the viewer's
// messages that have been read since the last poll
func (h *MessageHandler) Poll(c echo.Context) error {
	viewer := middleware.CurrentUser(c)
	ctx := c.Request().Context()
	peer, err := h.friendParam(c, viewer)
	if err != nil {
		return err
	}

	result, err := h.messages.Poll(ctx, viewer.ID, peer.ID)
	if err != nil {
		return internalError("Failed to poll messages", err)
	}

	received := views.NewMessageViews(viewer, peer, result.Received)
	html, err := h.renderer.RenderString("messages", received)
	if err != nil {
		return internalError("Failed to render messages", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":                html,
		"messages":            received,
		"checked_message_ids": result.CheckedIDs,
	})
}

// LoadOld returns an older page of the conversation, oldest first
func (h *MessageHandler) LoadOld(c echo.Context) error {
	offset, err := strconv.Atoi(c.QueryParam("offset_value"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "offset_value is required")
	}

	viewer := middleware.CurrentUser(c)
	ctx := c.Request().Context()
	peer, err := h.friendParam(c, viewer)
	if err != nil {
		return err
	}

	messages, err := h.messages.ListOlderMessages(ctx, viewer.ID, peer.ID, offset)
	if err != nil {
		return internalError("Failed to list messages", err)
	}

	older := views.Reversed(views.NewMessageViews(viewer, peer, messages))
	html, err := h.renderer.RenderString("messages", older)
	if err != nil {
		return internalError("Failed to render messages", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":     html,
		"messages": older,
	})
}

// friendParam resolves the user_id query parameter to a friend of viewer
func (h *MessageHandler) friendParam(c echo.Context, viewer *models.User) (*models.User, error) {
	peerID, err := strconv.ParseUint(c.QueryParam("user_id"), 10, 32)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	ctx := c.Request().Context()
	peer, err := h.accounts.GetUser(ctx, uint(peerID))
	if errors.Is(err, services.ErrUserNotFound) {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Unknown user_id")
	}
	if err != nil {
		return nil, internalError("Failed to get user", err)
	}

	friend, err := h.connections.IsFriend(ctx, viewer.ID, peer.ID)
	if err != nil {
		return nil, internalError("Failed to check friendship", err)
	}
	if !friend {
		return nil, echo.NewHTTPError(http.StatusForbidden, "Not a friend")
	}
	return peer, nil
}
